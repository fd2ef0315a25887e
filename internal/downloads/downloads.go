// Package downloads maintains the index of locally downloaded tracks.
//
// The index is fed by Sync, which walks the configured download directories
// and reads file tags; the read side exposes the tracks keyed the same way
// as the search cache so they join the candidate pool.
package downloads

import (
	"database/sql"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/chime-music/chime/internal/cache"
	dbutil "github.com/chime-music/chime/internal/db"
	"github.com/chime-music/chime/internal/normalize"
	"github.com/chime-music/chime/internal/song"
)

// Manager provides database operations for the local-downloads index.
type Manager struct {
	db  *sql.DB
	log hclog.Logger
}

// New creates a new Manager instance.
func New(database *sql.DB, log hclog.Logger) *Manager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Manager{db: database, log: log}
}

// Index returns the local tracks as a candidate pool index. Each track is
// keyed by its normalized title, which plays the role of the stored query
// for files that were never searched for. Newest downloads come first so
// they win ties.
func (m *Manager) Index() (*cache.Index, error) {
	rows, err := m.db.Query(`
		SELECT path, title, artist, album
		FROM local_tracks
		ORDER BY added_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("load local tracks: %w", err)
	}
	defer rows.Close()

	idx := cache.NewIndex()
	for rows.Next() {
		var path, title string
		var artist, album sql.NullString
		if err := rows.Scan(&path, &title, &artist, &album); err != nil {
			return nil, fmt.Errorf("load local tracks: %w", err)
		}
		idx.Add(normalize.Normalize(title), song.Record{
			Title:  title,
			URL:    path,
			Artist: dbutil.NullStringValue(artist),
			Album:  dbutil.NullStringValue(album),
			Origin: song.OriginLocal,
		})
	}
	return idx, rows.Err()
}

// Count returns the number of indexed local tracks.
func (m *Manager) Count() (int, error) {
	var count int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM local_tracks`).Scan(&count)
	return count, err
}
