package state

import (
	"database/sql"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS search_cache (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query_key TEXT NOT NULL,
			raw_query TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			thumbnail_url TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_search_cache_query_key ON search_cache(query_key);
		CREATE INDEX IF NOT EXISTS idx_search_cache_url ON search_cache(url);

		CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			thumbnail_url TEXT,
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history(played_at DESC);

		CREATE TABLE IF NOT EXISTS local_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			mtime INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			added_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_local_tracks_added_at ON local_tracks(added_at);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: add album column to play_history if missing
	_, _ = db.Exec(`ALTER TABLE play_history ADD COLUMN album TEXT`)

	return nil
}
