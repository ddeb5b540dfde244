package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/dlq"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/registry"
)

// Ensure Store implements each subsystem interface at compile time.
var (
	_ job.Store      = (*Store)(nil)
	_ dlq.Store      = (*Store)(nil)
	_ cron.Store     = (*Store)(nil)
	_ registry.Store = (*Store)(nil)
)

// Store persists the queue in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	// One writer at a time keeps claim updates serialized without
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id          TEXT PRIMARY KEY,
			command     TEXT NOT NULL,
			state       TEXT NOT NULL DEFAULT 'pending',
			attempts    INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_claim
			ON jobs (state) WHERE state = 'pending'`,
		`CREATE TABLE IF NOT EXISTS dead_letter (
			id          TEXT PRIMARY KEY,
			command     TEXT NOT NULL,
			state       TEXT NOT NULL DEFAULT 'dead',
			attempts    INTEGER NOT NULL DEFAULT 0,
			max_retries INTEGER,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cron_entries (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			schedule    TEXT NOT NULL,
			command     TEXT NOT NULL,
			max_retries INTEGER,
			enabled     INTEGER NOT NULL DEFAULT 1,
			last_run_at TEXT,
			next_run_at TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workers (
			id           TEXT PRIMARY KEY,
			pid          INTEGER NOT NULL,
			hostname     TEXT NOT NULL,
			concurrency  INTEGER NOT NULL,
			started_at   TEXT NOT NULL,
			last_seen_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isDuplicateKey checks if a SQLite error is a unique constraint violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// fmtTime encodes a timestamp in the persisted second-precision form.
func fmtTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// parseTime decodes a persisted timestamp.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

// nullTime encodes an optional timestamp.
func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

// nullInt encodes an optional integer.
func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
