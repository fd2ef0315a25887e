package downloads

import (
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	dbutil "github.com/chime-music/chime/internal/db"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
}

type fileInfo struct {
	path  string
	mtime int64
}

// Sync performs an incremental refresh of the local-tracks index against the
// given directories: new files are added, modified files re-read, and rows
// whose files are gone from disk are pruned.
func (m *Manager) Sync(dirs []string) error {
	existing, err := m.existingTracks()
	if err != nil {
		return err
	}

	files, failedDirs := discoverFiles(dirs)
	for dir := range failedDirs {
		m.log.Warn("download directory not walkable, keeping its tracks", "dir", dir)
	}

	discovered := make(map[string]struct{}, len(files))
	var toProcess []fileInfo
	for _, f := range files {
		discovered[f.path] = struct{}{}
		if mtime, ok := existing[f.path]; ok && mtime == f.mtime {
			continue // unchanged
		}
		toProcess = append(toProcess, f)
	}

	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		for _, f := range toProcess {
			title, artist, album := readTags(f.path)
			if title == "" {
				title = titleFromFilename(f.path)
			}
			_, err := tx.Exec(`
				INSERT INTO local_tracks (path, mtime, title, artist, album, added_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(path) DO UPDATE SET
					mtime = excluded.mtime,
					title = excluded.title,
					artist = excluded.artist,
					album = excluded.album
			`, f.path, f.mtime, title, artist, album, now)
			if err != nil {
				return err
			}
			m.log.Debug("indexed local track", "path", f.path, "title", title)
		}

		for path := range existing {
			if _, ok := discovered[path]; ok {
				continue
			}
			// A directory that could not be walked says nothing about its
			// files; do not treat them as deleted.
			if underFailedDir(path, failedDirs) {
				continue
			}
			if _, err := tx.Exec(`DELETE FROM local_tracks WHERE path = ?`, path); err != nil {
				return err
			}
			m.log.Debug("pruned missing local track", "path", path)
		}
		return nil
	})
}

func underFailedDir(path string, failedDirs map[string]struct{}) bool {
	for dir := range failedDirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (m *Manager) existingTracks() (map[string]int64, error) {
	rows, err := m.db.Query(`SELECT path, mtime FROM local_tracks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, err
		}
		existing[path] = mtime
	}
	return existing, rows.Err()
}

// discoverFiles walks dirs collecting audio files. Unreadable entries are
// skipped rather than failing the whole sync; a directory whose root cannot
// be walked at all is reported so the caller does not prune its tracks.
func discoverFiles(dirs []string) ([]fileInfo, map[string]struct{}) {
	var files []fileInfo
	failedDirs := make(map[string]struct{})
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					failedDirs[dir] = struct{}{}
				}
				return nil //nolint:nilerr // skip unreadable entries
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil //nolint:nilerr // file vanished mid-walk
			}
			files = append(files, fileInfo{path: path, mtime: info.ModTime().Unix()})
			return nil
		})
	}
	return files, failedDirs
}

// readTags reads title, artist and album from the file's metadata.
// A file whose tags cannot be parsed yields empty strings and the caller
// falls back to the filename.
func readTags(path string) (title, artist, album string) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", ""
	}
	defer f.Close()

	md, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", ""
	}
	return strings.TrimSpace(md.Title()), strings.TrimSpace(md.Artist()), strings.TrimSpace(md.Album())
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
