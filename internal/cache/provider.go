package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	dbutil "github.com/chime-music/chime/internal/db"
	"github.com/chime-music/chime/internal/fuzzy"
	"github.com/chime-music/chime/internal/normalize"
	"github.com/chime-music/chime/internal/similarity"
	"github.com/chime-music/chime/internal/song"
)

// ErrStoreUnavailable reports that the persistent store could not be read or
// written. Callers must be able to tell "could not look" apart from "nothing
// found", so this is never folded into an empty result.
var ErrStoreUnavailable = errors.New("song store unavailable")

// DefaultThreshold is the minimum similarity for a cached candidate to count
// as a match for a query.
const DefaultThreshold = 0.56

// LocalIndexer enumerates locally downloaded tracks keyed like the cache.
type LocalIndexer interface {
	Index() (*Index, error)
}

// Provider resolves query batches against the merged cache/downloads pool,
// persists newly resolved records, and serves the play history.
type Provider struct {
	db        *sql.DB
	local     LocalIndexer
	threshold float64
	weights   map[string]float64
}

// emptyIndexer stands in when no local-downloads index is configured.
type emptyIndexer struct{}

func (emptyIndexer) Index() (*Index, error) { return NewIndex(), nil }

// NewProvider creates a provider over the given database and local index.
// A nil local indexer means no local downloads. The threshold is validated
// once here; an out-of-range value is a programming error.
func NewProvider(database *sql.DB, local LocalIndexer, threshold float64, weights map[string]float64) (*Provider, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", fuzzy.ErrInvalidThreshold, threshold)
	}
	if local == nil {
		local = emptyIndexer{}
	}
	if len(weights) == 0 {
		weights = fuzzy.DefaultWeights()
	}
	return &Provider{
		db:        database,
		local:     local,
		threshold: threshold,
		weights:   weights,
	}, nil
}

// Get resolves a batch of raw queries to their best cached record. Queries
// with no candidate above the threshold are absent from the result. The
// candidate pool is built once for the whole batch.
func (p *Provider) Get(queries []string) (map[string]song.Record, error) {
	cacheIdx, err := p.loadCacheIndex()
	if err != nil {
		return nil, fmt.Errorf("%w: load cache index: %v", ErrStoreUnavailable, err)
	}
	localIdx, err := p.local.Index()
	if err != nil {
		return nil, fmt.Errorf("%w: load downloads index: %v", ErrStoreUnavailable, err)
	}

	pool := MergeIndexes(cacheIdx, localIdx)
	candidates, records := flatten(pool)

	// Similarity memoization lives exactly as long as this batch.
	matcher := fuzzy.NewMatcher(similarity.NewScorer())

	resolved := make(map[string]song.Record, len(queries))
	for _, query := range queries {
		matches, err := matcher.FindMatches(query, candidates, p.threshold, p.weights)
		if err != nil {
			return nil, err
		}
		// The best-scoring record can be unusable (a metadata-only row with
		// no URL); fall through to the next-best valid one.
		for _, m := range matches {
			if best := records[m.Index]; best.Valid() {
				resolved[query] = best
				break
			}
		}
	}
	return resolved, nil
}

// Save appends newly resolved records to the cache, skipping any already
// stored under the same URL or, when the URL is blank, the same normalized
// title and artist. Append-only: rows are never edited or deleted here.
func (p *Provider) Save(resolved map[string]song.Record) error {
	if len(resolved) == 0 {
		return nil
	}

	// Deterministic write order regardless of map iteration.
	queries := make([]string, 0, len(resolved))
	for q := range resolved {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	err := dbutil.WithTx(p.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		for _, query := range queries {
			rec := resolved[query]
			if rec.Title == "" {
				continue
			}

			exists, err := recordExists(tx, rec)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			_, err = tx.Exec(`
				INSERT INTO search_cache (query_key, raw_query, title, url, artist, album, thumbnail_url, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, normalize.QueryKey(query), query, rec.Title, rec.URL, rec.Artist, rec.Album, rec.ThumbnailURL, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// recordExists checks for an already-stored row for the same track. URL is
// the identity key; normalized title plus artist is the fallback for the
// rare record without one.
func recordExists(tx *sql.Tx, rec song.Record) (bool, error) {
	if rec.URL != "" {
		var count int
		err := tx.QueryRow(`SELECT COUNT(*) FROM search_cache WHERE url = ?`, rec.URL).Scan(&count)
		return count > 0, err
	}

	rows, err := tx.Query(`SELECT title, artist FROM search_cache WHERE url = ''`)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	wantTitle := normalize.Normalize(rec.Title)
	wantArtist := normalize.Normalize(rec.Artist)
	for rows.Next() {
		var title string
		var artist sql.NullString
		if err := rows.Scan(&title, &artist); err != nil {
			return false, err
		}
		if normalize.Normalize(title) == wantTitle &&
			normalize.Normalize(dbutil.NullStringValue(artist)) == wantArtist {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Recent returns up to limit history records, most recent first, tagged
// OriginHistory. History is an exact ordered log; no fuzzy matching is
// involved. Repeated plays of the same track collapse onto the most recent.
func (p *Provider) Recent(limit int) ([]song.Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	// No SQL LIMIT here: repeat plays collapse onto one record, so the limit
	// counts distinct tracks, not raw log rows.
	rows, err := p.db.Query(`
		SELECT title, url, artist, album, thumbnail_url
		FROM play_history
		ORDER BY played_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: read history: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var recent []song.Record
	seen := make(map[string]struct{})
	for len(recent) < limit && rows.Next() {
		var rec song.Record
		var artist, album, thumbnail sql.NullString
		if err := rows.Scan(&rec.Title, &rec.URL, &artist, &album, &thumbnail); err != nil {
			return nil, fmt.Errorf("%w: read history: %v", ErrStoreUnavailable, err)
		}
		rec.Artist = dbutil.NullStringValue(artist)
		rec.Album = dbutil.NullStringValue(album)
		rec.ThumbnailURL = dbutil.NullStringValue(thumbnail)
		rec.Origin = song.OriginHistory

		if !rec.Valid() {
			continue
		}
		if _, ok := seen[rec.URL]; ok {
			continue
		}
		seen[rec.URL] = struct{}{}
		recent = append(recent, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read history: %v", ErrStoreUnavailable, err)
	}
	return recent, nil
}

// RecordPlay appends rec to the play history log.
func (p *Provider) RecordPlay(rec song.Record) error {
	if !rec.Valid() {
		return nil
	}
	_, err := p.db.Exec(`
		INSERT INTO play_history (title, url, artist, album, thumbnail_url, played_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Title, rec.URL, rec.Artist, rec.Album, rec.ThumbnailURL, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: record play: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// loadCacheIndex reads the persisted search cache newest-first, so that at
// equal similarity the most recently cached record wins.
func (p *Provider) loadCacheIndex() (*Index, error) {
	rows, err := p.db.Query(`
		SELECT query_key, title, url, artist, album, thumbnail_url
		FROM search_cache
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idx := NewIndex()
	for rows.Next() {
		var key string
		var rec song.Record
		var artist, album, thumbnail sql.NullString
		if err := rows.Scan(&key, &rec.Title, &rec.URL, &artist, &album, &thumbnail); err != nil {
			return nil, err
		}
		rec.Artist = dbutil.NullStringValue(artist)
		rec.Album = dbutil.NullStringValue(album)
		rec.ThumbnailURL = dbutil.NullStringValue(thumbnail)
		rec.Origin = song.OriginCache
		idx.Add(key, rec)
	}
	return idx, rows.Err()
}
