package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"drivesync/internal/catalog"
	dbutil "drivesync/internal/db"
)

const (
	appName    = "drivesync"
	dbFileName = "drivesync.db"
)

// SQLite persists the history in a single sqlite table.
type SQLite struct {
	db *sql.DB
}

// Open creates a persister backed by the default XDG data path.
func Open() (*SQLite, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath creates a persister backed by the given database file.
func OpenPath(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history_tracks (
			position INTEGER PRIMARY KEY,
			track_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			media_uri TEXT NOT NULL,
			artwork_uri TEXT
		);
	`)
	return err
}

// Load returns the saved history, most recent first.
func (s *SQLite) Load() ([]catalog.Track, error) {
	rows, err := s.db.Query(`
		SELECT track_id, title, artist, media_uri, artwork_uri
		FROM history_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		var t catalog.Track
		var artist, artwork sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &artist, &t.MediaURI, &artwork); err != nil {
			return nil, err
		}
		t.Artist = artist.String
		t.ArtworkURI = artwork.String
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Save replaces the saved history with tracks, most recent first.
func (s *SQLite) Save(tracks []catalog.Track) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM history_tracks`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO history_tracks (position, track_id, title, artist, media_uri, artwork_uri)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, t := range tracks {
			if _, err := stmt.Exec(i, t.ID, t.Title, t.Artist, t.MediaURI, t.ArtworkURI); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
