// Package store keeps the local activity journal: one SQLite row per
// mutation the admin performs, so `agencydesk activity` can answer
// "what did I change today" without asking the server.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"agencydesk/internal/logging"
)

// Entry is one journaled mutation.
type Entry struct {
	ID       int64
	At       time.Time
	Entity   string
	Op       string
	EntityID string
	OK       bool
	Message  string
}

// Activity is the journal. Safe for concurrent use; writes serialize
// through a single connection.
type Activity struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Activity, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.APIDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.APIDebug("failed to set journal_mode=WAL: %v", err)
	}

	a := &Activity{db: db}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Audit("activity journal open at %s", path)
	return a, nil
}

func (a *Activity) initialize() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS activity (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			at        INTEGER NOT NULL,
			entity    TEXT NOT NULL,
			op        TEXT NOT NULL,
			entity_id TEXT NOT NULL DEFAULT '',
			ok        INTEGER NOT NULL,
			message   TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_activity_at ON activity(at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize activity schema: %w", err)
	}
	return nil
}

// Record appends one journal row. Implements resource.Journal. Journal
// failures are logged, never surfaced: the mutation itself already
// succeeded or failed on its own terms.
func (a *Activity) Record(entity, op, id string, ok bool, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := a.db.Exec(
		"INSERT INTO activity (at, entity, op, entity_id, ok, message) VALUES (?, ?, ?, ?, ?, ?)",
		time.Now().Unix(), entity, op, id, okInt, message,
	)
	if err != nil {
		logging.Audit("failed to journal %s %s: %v", entity, op, err)
		return
	}
	logging.Audit("%s %s %s ok=%v", entity, op, id, ok)
}

// Recent returns the newest entries, newest first.
func (a *Activity) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.Query(
		"SELECT id, at, entity, op, entity_id, ok, message FROM activity ORDER BY at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		var ok int
		if err := rows.Scan(&e.ID, &at, &e.Entity, &e.Op, &e.EntityID, &ok, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		e.At = time.Unix(at, 0)
		e.OK = ok == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than the cutoff and returns the count.
func (a *Activity) Prune(olderThan time.Duration) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.db.Exec("DELETE FROM activity WHERE at < ?", time.Now().Add(-olderThan).Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the journal.
func (a *Activity) Close() error {
	return a.db.Close()
}
