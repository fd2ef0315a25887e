// Package cache resolves queries against the persistent search cache and the
// local-downloads index, and records play history.
package cache

import (
	"github.com/chime-music/chime/internal/fuzzy"
	"github.com/chime-music/chime/internal/song"
)

// Index maps a query key to candidate records. Key and record insertion
// order are preserved so that lookups built from the same rows always see
// candidates in the same order, which the matcher's tie-breaking depends on.
type Index struct {
	keys  []string
	byKey map[string][]song.Record
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string][]song.Record)}
}

// Add appends a record under key.
func (ix *Index) Add(key string, rec song.Record) {
	if _, ok := ix.byKey[key]; !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.byKey[key] = append(ix.byKey[key], rec)
}

// Keys returns the keys in insertion order.
func (ix *Index) Keys() []string {
	return ix.keys
}

// Records returns the candidate list for key, in insertion order.
func (ix *Index) Records(key string) []song.Record {
	return ix.byKey[key]
}

// Len returns the number of keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// candidate adapts one pooled record to the matcher's field model. The
// stored query key is itself a matchable field: it is what the user typed
// when the record was first resolved, often a better match target than the
// title the source gave back.
type candidate struct {
	key string
	rec song.Record
}

func (c candidate) Field(name string) string {
	switch name {
	case fuzzy.FieldQuery:
		return c.key
	case fuzzy.FieldTitle:
		return c.rec.Title
	case fuzzy.FieldArtist:
		return c.rec.Artist
	case fuzzy.FieldAlbum:
		return c.rec.Album
	}
	return ""
}

// flatten lists every pooled record as a matcher candidate, keys in
// insertion order, records in per-key insertion order. The returned records
// slice is index-aligned with the candidates.
func flatten(ix *Index) ([]fuzzy.Candidate, []song.Record) {
	var candidates []fuzzy.Candidate
	var records []song.Record
	for _, key := range ix.keys {
		for _, rec := range ix.byKey[key] {
			candidates = append(candidates, candidate{key: key, rec: rec})
			records = append(records, rec)
		}
	}
	return candidates, records
}
