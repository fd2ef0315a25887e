package cache

import (
	"github.com/chime-music/chime/internal/song"
)

// MergeIndexes combines the local-downloads index and the persistent cache
// index into one candidate pool.
//
// Keys present in only one index pass through. For keys present in both,
// local records order before cache records: locally available audio plays
// instantly and offline, so it wins ties at equal similarity. Records
// sharing a URL are the same track; the higher-priority record is kept and
// enriched with any fields only the dropped record carried. Enrichment never
// overwrites a non-empty field.
//
// Pure: neither input index is modified.
func MergeIndexes(cacheIdx, localIdx *Index) *Index {
	merged := NewIndex()

	for _, key := range localIdx.Keys() {
		for _, rec := range localIdx.Records(key) {
			merged.Add(key, rec)
		}
	}
	for _, key := range cacheIdx.Keys() {
		for _, rec := range cacheIdx.Records(key) {
			merged.Add(key, rec)
		}
	}

	for key, recs := range merged.byKey {
		merged.byKey[key] = dedupeByURL(recs)
	}
	return merged
}

// dedupeByURL collapses records sharing a URL onto the first (highest
// priority) occurrence, enriching it with later records' extra fields.
func dedupeByURL(recs []song.Record) []song.Record {
	out := make([]song.Record, 0, len(recs))
	seen := make(map[string]int, len(recs))

	for _, rec := range recs {
		if rec.URL == "" {
			out = append(out, rec)
			continue
		}
		if i, ok := seen[rec.URL]; ok {
			out[i] = enrich(out[i], rec)
			continue
		}
		seen[rec.URL] = len(out)
		out = append(out, rec)
	}
	return out
}

// enrich fills kept's empty fields from other, keeping kept's origin.
func enrich(kept, other song.Record) song.Record {
	if kept.Title == "" {
		kept.Title = other.Title
	}
	if kept.Artist == "" {
		kept.Artist = other.Artist
	}
	if kept.Album == "" {
		kept.Album = other.Album
	}
	if kept.ThumbnailURL == "" {
		kept.ThumbnailURL = other.ThumbnailURL
	}
	return kept
}
