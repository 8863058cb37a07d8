// Package sqlite provides a SQLite-backed session repository.
// It uses the pure-Go modernc.org/sqlite driver, so no cgo toolchain is needed.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tejashwikalptaru/tunequeue/internal/domain"
	"github.com/tejashwikalptaru/tunequeue/internal/ports"
)

const repoType = "sqlite"

// SessionRepository implements ports.SessionRepository on a SQLite database.
// The whole session is written in one transaction, so a crash never leaves
// a half-saved queue behind.
//
// Thread-safe: database/sql serializes access; writes are transactional.
type SessionRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(path string) (*SessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", pragma, err)
		}
	}

	repo, err := NewSessionRepository(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSessionRepository wraps an open database, creating tables if needed.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SessionRepository{db: db}, nil
}

// Close closes the database.
func (r *SessionRepository) Close() error {
	return r.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS session_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_index INTEGER NOT NULL DEFAULT -1,
			repeat_mode TEXT NOT NULL DEFAULT 'none',
			shuffle INTEGER NOT NULL DEFAULT 0,
			saved_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS session_entries (
			position INTEGER PRIMARY KEY,
			entry_id TEXT NOT NULL UNIQUE,
			track_id TEXT NOT NULL,
			locator TEXT NOT NULL,
			title TEXT,
			artist TEXT,
			album TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			manually_added INTEGER NOT NULL DEFAULT 0,
			shuffle_rank INTEGER
		);

		CREATE TABLE IF NOT EXISTS session_history (
			position INTEGER PRIMARY KEY,
			track_id TEXT NOT NULL,
			locator TEXT NOT NULL,
			title TEXT,
			artist TEXT,
			album TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			played_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (1)`)
	return err
}

// SaveSession replaces the stored session.
func (r *SessionRepository) SaveSession(session domain.SavedSession) error {
	err := withTx(r.db, func(tx *sql.Tx) error {
		for _, table := range []string{"session_entries", "session_history"} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return err
			}
		}

		_, err := tx.Exec(`
			INSERT INTO session_state (id, current_index, repeat_mode, shuffle, saved_at)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle,
				saved_at = excluded.saved_at
		`, session.CurrentIndex, session.RepeatMode.String(), session.Shuffle, time.Now().UnixMilli())
		if err != nil {
			return err
		}

		if err := insertEntries(tx, session); err != nil {
			return err
		}
		return insertHistory(tx, session.History)
	})
	if err != nil {
		return domain.NewRepositoryError("save", repoType, "failed to write session", err)
	}
	return nil
}

// shuffle origin is stored as a rank per entry; entries outside the origin get NULL
func insertEntries(tx *sql.Tx, session domain.SavedSession) error {
	rank := make(map[string]int, len(session.ShuffleOrigin))
	for i, id := range session.ShuffleOrigin {
		rank[id] = i
	}

	stmt, err := tx.Prepare(`
		INSERT INTO session_entries
			(position, entry_id, track_id, locator, title, artist, album, duration_ms, manually_added, shuffle_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range session.Entries {
		var shuffleRank any
		if r, ok := rank[e.EntryID]; ok {
			shuffleRank = r
		}
		_, err = stmt.Exec(i, e.EntryID, e.Track.ID, e.Track.Locator, e.Track.Title, e.Track.Artist,
			e.Track.Album, e.Track.Duration.Milliseconds(), e.ManuallyAdded, shuffleRank)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertHistory(tx *sql.Tx, history []domain.HistoryRecord) error {
	stmt, err := tx.Prepare(`
		INSERT INTO session_history
			(position, track_id, locator, title, artist, album, duration_ms, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, h := range history {
		_, err = stmt.Exec(i, h.Track.ID, h.Track.Locator, h.Track.Title, h.Track.Artist,
			h.Track.Album, h.Track.Duration.Milliseconds(), h.PlayedAt.UnixMilli())
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadSession returns the stored session, or domain.ErrNoSavedSession.
func (r *SessionRepository) LoadSession() (*domain.SavedSession, error) {
	var (
		session domain.SavedSession
		mode    string
		savedAt int64
	)
	row := r.db.QueryRow(`SELECT current_index, repeat_mode, shuffle, saved_at FROM session_state WHERE id = 1`)
	err := row.Scan(&session.CurrentIndex, &mode, &session.Shuffle, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoSavedSession
	}
	if err != nil {
		return nil, domain.NewRepositoryError("load", repoType, "failed to read session state", err)
	}

	session.RepeatMode, err = domain.ParseRepeatMode(mode)
	if err != nil {
		return nil, domain.NewRepositoryError("load", repoType, "invalid repeat mode", err)
	}

	if err := r.loadEntries(&session); err != nil {
		return nil, domain.NewRepositoryError("load", repoType, "failed to read queue entries", err)
	}
	if err := r.loadHistory(&session); err != nil {
		return nil, domain.NewRepositoryError("load", repoType, "failed to read history", err)
	}
	return &session, nil
}

func (r *SessionRepository) loadEntries(session *domain.SavedSession) error {
	rows, err := r.db.Query(`
		SELECT entry_id, track_id, locator, title, artist, album, duration_ms, manually_added, shuffle_rank
		FROM session_entries
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	ranked := make(map[int64]string)
	for rows.Next() {
		var (
			e                    domain.QueueEntry
			title, artist, album sql.NullString
			durationMS           int64
			shuffleRank          sql.NullInt64
		)
		err := rows.Scan(&e.EntryID, &e.Track.ID, &e.Track.Locator, &title, &artist, &album,
			&durationMS, &e.ManuallyAdded, &shuffleRank)
		if err != nil {
			return err
		}
		e.Position = len(session.Entries)
		e.Track.Title = title.String
		e.Track.Artist = artist.String
		e.Track.Album = album.String
		e.Track.Duration = time.Duration(durationMS) * time.Millisecond
		if shuffleRank.Valid {
			ranked[shuffleRank.Int64] = e.EntryID
		}
		session.Entries = append(session.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(ranked) > 0 {
		session.ShuffleOrigin = make([]string, 0, len(ranked))
		for i := int64(0); len(session.ShuffleOrigin) < len(ranked); i++ {
			if id, ok := ranked[i]; ok {
				session.ShuffleOrigin = append(session.ShuffleOrigin, id)
			}
		}
	}
	return nil
}

func (r *SessionRepository) loadHistory(session *domain.SavedSession) error {
	rows, err := r.db.Query(`
		SELECT track_id, locator, title, artist, album, duration_ms, played_at
		FROM session_history
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h                    domain.HistoryRecord
			title, artist, album sql.NullString
			durationMS, playedAt int64
		)
		err := rows.Scan(&h.Track.ID, &h.Track.Locator, &title, &artist, &album, &durationMS, &playedAt)
		if err != nil {
			return err
		}
		h.Track.Title = title.String
		h.Track.Artist = artist.String
		h.Track.Album = album.String
		h.Track.Duration = time.Duration(durationMS) * time.Millisecond
		h.PlayedAt = time.UnixMilli(playedAt)
		session.History = append(session.History, h)
	}
	return rows.Err()
}

// Clear removes the stored session.
func (r *SessionRepository) Clear() error {
	err := withTx(r.db, func(tx *sql.Tx) error {
		for _, table := range []string{"session_entries", "session_history", "session_state"} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("clear", repoType, "failed to clear session", err)
	}
	return nil
}

// withTx executes fn within a transaction, rolling back on error.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Verify interface implementation
var _ ports.SessionRepository = (*SessionRepository)(nil)
