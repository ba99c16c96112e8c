// Package store persists decoded events in a local SQLite database for
// ad-hoc queries over large sessions. The journal stays the source of
// truth; the store is an index.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jdwptap/jdwptap/jdwp"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		vm         TEXT NOT NULL DEFAULT '',
		sizes      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session    TEXT NOT NULL,
		packet     INTEGER NOT NULL,
		idx        INTEGER NOT NULL,
		ts         TEXT NOT NULL,
		suspend    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		request_id INTEGER NOT NULL,
		thread     INTEGER NOT NULL DEFAULT 0,
		payload    TEXT NOT NULL,
		UNIQUE(session, packet, idx)
	)`,
	`CREATE INDEX IF NOT EXISTS events_by_session_kind ON events(session, kind)`,
	`CREATE INDEX IF NOT EXISTS events_by_thread ON events(thread)`,
	`CREATE INDEX IF NOT EXISTS events_by_request ON events(request_id)`,
}

// Session describes one captured debuggee connection.
type Session struct {
	ID        string       `json:"id"`
	CreatedAt string       `json:"created_at"`
	VM        string       `json:"vm,omitempty"`
	Sizes     jdwp.IDSizes `json:"sizes"`
}

// Record is one decoded event row. Payload holds the event as JSON;
// Event rehydrates it.
type Record struct {
	ID        int64           `json:"id"`
	Session   string          `json:"session"`
	Packet    uint64          `json:"packet"`
	Index     int             `json:"index"`
	Timestamp string          `json:"ts"`
	Suspend   string          `json:"suspend"`
	Kind      string          `json:"kind"`
	RequestID int32           `json:"request_id"`
	Thread    uint64          `json:"thread,omitempty"`
	Payload   json.RawMessage `json:"event"`
}

// Event rehydrates the stored payload into its typed form.
func (r Record) Event() (jdwp.Event, error) {
	kind, ok := jdwp.EventKindFromName(r.Kind)
	if !ok {
		return nil, fmt.Errorf("store: unknown event kind %q", r.Kind)
	}
	return jdwp.UnmarshalEvent(kind, r.Payload)
}

// Store wraps the SQLite handle. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// Serialize writers instead of failing fast when the spool daemon
	// and a query command share the file.
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: bootstrap schema: %w", err)
		}
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSession registers a session. Re-recording an existing session
// is a no-op so reprocessing a capture stays idempotent.
func (s *Store) RecordSession(sess Session) error {
	if err := sess.Sizes.Validate(); err != nil {
		return fmt.Errorf("store: record session: %w", err)
	}
	sizes, err := json.Marshal(sess.Sizes)
	if err != nil {
		return fmt.Errorf("store: marshal sizes: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, created_at, vm, sizes) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.CreatedAt, sess.VM, string(sizes),
	)
	if err != nil {
		return fmt.Errorf("store: record session: %w", err)
	}
	return nil
}

// RecordEvents inserts a batch of records in one transaction. Rows that
// duplicate an existing (session, packet, idx) are skipped.
func (s *Store) RecordEvents(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO events
		(session, packet, idx, ts, suspend, kind, request_id, thread, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(
			rec.Session, int64(rec.Packet), rec.Index, rec.Timestamp,
			rec.Suspend, rec.Kind, rec.RequestID, int64(rec.Thread),
			string(rec.Payload),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("store: insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
