// Package history records sync and upgrade sessions in a small SQLite
// database so that `pacfetch history` can list them later.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/johndauphine/pacfetch/internal/logging"
)

// Run kinds.
const (
	KindSync    = "sync"
	KindUpgrade = "upgrade"
	KindCache   = "cache-sync"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const timeLayout = "2006-01-02 15:04:05"

// Store manages run history in SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one recorded session
type Run struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Error      string
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL DEFAULT 'running',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Start records a new running session and returns its id.
func (s *Store) Start(kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, kind, started_at, status)
		VALUES (?, ?, ?, 'running')
	`, id, kind, s.stamp())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Finish marks a run success, or failed with runErr's message.
func (s *Store) Finish(id string, runErr error) error {
	status, msg := StatusSuccess, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, finished_at = ?, error = ?
		WHERE id = ?
	`, status, s.stamp(), msg, id)
	return err
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, kind, started_at, finished_at, status, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAtStr string
		var finishedAtStr sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &startedAtStr, &finishedAtStr, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.ParseInLocation(timeLayout, startedAtStr, time.UTC)
		if finishedAtStr.Valid {
			t, _ := time.ParseInLocation(timeLayout, finishedAtStr.String, time.UTC)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Cleanup deletes finished runs older than retentionDays. Running entries
// are kept regardless of age.
func (s *Store) Cleanup(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays).Format(timeLayout)
	res, err := s.db.Exec(`
		DELETE FROM runs
		WHERE status != 'running' AND finished_at IS NOT NULL AND finished_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Record runs fn as a session of the given kind. A nil Store just runs fn.
func (s *Store) Record(kind string, fn func() error) error {
	if s == nil {
		return fn()
	}
	id, err := s.Start(kind)
	if err != nil {
		logging.Warn("history: could not record %s run: %v", kind, err)
		return fn()
	}
	runErr := fn()
	if err := s.Finish(id, runErr); err != nil {
		logging.Warn("history: could not finish %s run %s: %v", kind, id, err)
	}
	return runErr
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}
