// Package sqlite provides a SQLite-backed implementation of the set
// archive port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
	"github.com/ewilliams-labs/crossfade/internal/core/ports"
)

// Archive persists snapshots of each user's active set. One snapshot is
// kept per user; starting a new set replaces the old snapshot the same
// way the session store replaces the session.
type Archive struct {
	db *sql.DB
}

var _ ports.SetArchive = (*Archive)(nil)

// NewArchive opens the database and runs the schema migration.
func NewArchive(storagePath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return a, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) SaveSnapshot(ctx context.Context, sess *domain.Session) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error before commit

	// One snapshot per user: drop whatever set was archived before,
	// whether or not it is the same set being written now.
	var oldSetID string
	err = tx.QueryRowContext(ctx, "SELECT set_id FROM dj_sets WHERE user_id = ?", sess.UserID).Scan(&oldSetID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to look up prior snapshot: %w", err)
	}
	if oldSetID != "" {
		for _, q := range []string{
			"DELETE FROM set_tracks WHERE set_id = ?",
			"DELETE FROM set_surfaced WHERE set_id = ?",
			"DELETE FROM dj_sets WHERE set_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, oldSetID); err != nil {
				return fmt.Errorf("failed to clear prior snapshot: %w", err)
			}
		}
	}

	query := `
		INSERT INTO dj_sets (set_id, user_id, genre, country)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, sess.SetID, sess.UserID, sess.Genre, sess.Country); err != nil {
		return fmt.Errorf("failed to save set metadata: %w", err)
	}

	stmtTrack, err := tx.PrepareContext(ctx, `
		INSERT INTO set_tracks (set_id, position, track_id, title, artist, key, bpm, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmtTrack.Close()

	for i, t := range sess.SetList {
		if _, err := stmtTrack.ExecContext(ctx, sess.SetID, i, t.ID, t.Title, t.Artist, t.Key, t.BPM, t.ImageURL); err != nil {
			return fmt.Errorf("failed to save track %s: %w", t.ID, err)
		}
	}

	stmtSurfaced, err := tx.PrepareContext(ctx, `
		INSERT INTO set_surfaced (set_id, track_id) VALUES (?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmtSurfaced.Close()

	for id := range sess.Surfaced {
		if _, err := stmtSurfaced.ExecContext(ctx, sess.SetID, id); err != nil {
			return fmt.Errorf("failed to save surfaced id %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

func (a *Archive) Snapshots(ctx context.Context) ([]*domain.Session, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT set_id, user_id, genre, country FROM dj_sets")
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		sess := &domain.Session{
			SetList:  []domain.Track{},
			Surfaced: make(map[string]struct{}),
		}
		if err := rows.Scan(&sess.SetID, &sess.UserID, &sess.Genre, &sess.Country); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	for _, sess := range sessions {
		if err := a.loadTracks(ctx, sess); err != nil {
			return nil, err
		}
		if err := a.loadSurfaced(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (a *Archive) loadTracks(ctx context.Context, sess *domain.Session) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id, title, artist, key, bpm, image_url
		FROM set_tracks
		WHERE set_id = ?
		ORDER BY position ASC
	`, sess.SetID)
	if err != nil {
		return fmt.Errorf("failed to load set tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Track
		var title, artist, key, imageURL sql.NullString
		var bpm sql.NullFloat64
		if err := rows.Scan(&t.ID, &title, &artist, &key, &bpm, &imageURL); err != nil {
			return fmt.Errorf("failed to scan set track: %w", err)
		}
		if title.Valid {
			t.Title = title.String
		}
		if artist.Valid {
			t.Artist = artist.String
		}
		if key.Valid {
			t.Key = key.String
		}
		if bpm.Valid {
			t.BPM = bpm.Float64
		}
		if imageURL.Valid {
			t.ImageURL = imageURL.String
		}
		sess.SetList = append(sess.SetList, t)
	}
	return rows.Err()
}

func (a *Archive) loadSurfaced(ctx context.Context, sess *domain.Session) error {
	rows, err := a.db.QueryContext(ctx, "SELECT track_id FROM set_surfaced WHERE set_id = ?", sess.SetID)
	if err != nil {
		return fmt.Errorf("failed to load surfaced ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan surfaced id: %w", err)
		}
		sess.Surfaced[id] = struct{}{}
	}
	return rows.Err()
}

func (a *Archive) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS dj_sets (
		set_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		genre TEXT,
		country TEXT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS set_tracks (
		set_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		track_id TEXT NOT NULL,
		title TEXT,
		artist TEXT,
		key TEXT,
		bpm REAL,
		image_url TEXT,
		PRIMARY KEY (set_id, position),
		FOREIGN KEY(set_id) REFERENCES dj_sets(set_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS set_surfaced (
		set_id TEXT NOT NULL,
		track_id TEXT NOT NULL,
		PRIMARY KEY (set_id, track_id),
		FOREIGN KEY(set_id) REFERENCES dj_sets(set_id) ON DELETE CASCADE
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}
