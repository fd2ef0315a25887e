// Package song defines the track record shared by every resolver.
package song

// Origin identifies which collaborator produced a record.
type Origin int

const (
	OriginRemote Origin = iota
	OriginCache
	OriginLocal
	OriginHistory
)

func (o Origin) String() string {
	switch o {
	case OriginRemote:
		return "remote"
	case OriginCache:
		return "cache"
	case OriginLocal:
		return "local"
	case OriginHistory:
		return "history"
	}
	return "unknown"
}

// Record represents one resolvable track. Records are immutable once
// constructed: when two sources describe the same track, a merged copy is
// derived rather than editing either source's record in place.
type Record struct {
	Title        string
	URL          string // playback locator: stream URL or local file path
	Artist       string
	Album        string
	ThumbnailURL string
	Origin       Origin
}

// Valid reports whether the record carries the fields every returned record
// must have. URL doubles as the identity key when deduplicating across
// sources, so a record without one is unusable.
func (r Record) Valid() bool {
	return r.Title != "" && r.URL != ""
}
