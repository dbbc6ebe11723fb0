// Package history keeps a SQLite ledger of archived payslips.
//
// The ledger is informational: reconciliation always works from the live
// archive listing and never consults it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one archived document.
type Entry struct {
	RunID      string
	Index      int
	Label      string
	Period     string
	Name       string
	ArchivedAt time.Time
}

// Store manages the history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS archived (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		label TEXT NOT NULL,
		period TEXT NOT NULL,
		name TEXT NOT NULL,
		archived_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_archived_run ON archived(run_id);
	CREATE INDEX IF NOT EXISTS idx_archived_at ON archived(archived_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores entries in one transaction. A zero ArchivedAt is stamped
// with the current time.
func (s *Store) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO archived (run_id, row_index, label, period, name, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range entries {
		at := e.ArchivedAt
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx, e.RunID, e.Index, e.Label, e.Period, e.Name, at.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("failed to record %s: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT run_id, row_index, label, period, name, archived_at
		FROM archived ORDER BY archived_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanEntries(rows)
}

// Run returns the entries recorded by one run, in row order.
func (s *Store) Run(ctx context.Context, runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT run_id, row_index, label, period, name, archived_at
		FROM archived WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.RunID, &e.Index, &e.Label, &e.Period, &e.Name, &at); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		archivedAt, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("failed to parse archived_at of %s: %w", e.Name, err)
		}
		e.ArchivedAt = archivedAt
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
