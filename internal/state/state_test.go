package state

import (
	"path/filepath"
	"testing"
)

func TestOpenPath_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chime.db")

	m, err := OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer m.Close()

	for _, table := range []string{"search_cache", "play_history", "local_tracks", "schema_version"} {
		var name string
		err := m.DB().QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenPath_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chime.db")

	m, err := OpenPath(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := m.DB().Exec(
		`INSERT INTO search_cache (query_key, raw_query, title, url, created_at) VALUES (?, ?, ?, ?, ?)`,
		"shape of you", "shape of you", "Shape of You", "https://example.com/1", 1,
	); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Schema init must be idempotent and data must survive reopening.
	m2, err := OpenPath(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	var count int
	if err := m2.DB().QueryRow(`SELECT COUNT(*) FROM search_cache`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("row count after reopen = %d, want 1", count)
	}
}
