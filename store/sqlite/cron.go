package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/id"
)

const cronColumns = "id, name, schedule, command, max_retries, enabled, last_run_at, next_run_at, created_at, updated_at"

func scanCron(row interface{ Scan(...any) error }) (*cron.Entry, error) {
	var (
		e          cron.Entry
		idStr      string
		maxRetries sql.NullInt64
		lastRunAt  sql.NullString
		nextRunAt  sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&idStr, &e.Name, &e.Schedule, &e.Command, &maxRetries,
		&e.Enabled, &lastRunAt, &nextRunAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := id.ParseCronID(idStr)
	if err != nil {
		return nil, err
	}
	e.ID = parsed

	if maxRetries.Valid {
		n := int(maxRetries.Int64)
		e.MaxRetries = &n
	}
	if lastRunAt.Valid {
		t, parseErr := parseTime(lastRunAt.String)
		if parseErr != nil {
			return nil, parseErr
		}
		e.LastRunAt = &t
	}
	if nextRunAt.Valid {
		t, parseErr := parseTime(nextRunAt.String)
		if parseErr != nil {
			return nil, parseErr
		}
		e.NextRunAt = &t
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// AddCron persists a new entry. Duplicate names hit the UNIQUE
// constraint and surface as queuectl.ErrCronExists.
func (s *Store) AddCron(ctx context.Context, e *cron.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cron_entries (id, name, schedule, command, max_retries, enabled, last_run_at, next_run_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Name, e.Schedule, e.Command, nullInt(e.MaxRetries),
		e.Enabled, nullTime(e.LastRunAt), nullTime(e.NextRunAt),
		fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return queuectl.ErrCronExists
		}
		return fmt.Errorf("sqlite: add cron: %w", err)
	}
	return nil
}

// ListCrons returns all entries in insertion order.
func (s *Store) ListCrons(ctx context.Context) ([]*cron.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cronColumns+` FROM cron_entries ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list crons: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*cron.Entry
	for rows.Next() {
		e, scanErr := scanCron(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("sqlite: list crons scan: %w", scanErr)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list crons: %w", err)
	}
	return out, nil
}

// RemoveCron deletes the named entry.
func (s *Store) RemoveCron(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cron_entries WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("sqlite: remove cron: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows > 0, nil
}

// SetCronEnabled toggles the named entry.
func (s *Store) SetCronEnabled(ctx context.Context, name string, enabled bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cron_entries SET enabled = ?, updated_at = ? WHERE name = ?`,
		enabled, fmtTime(queuectl.Now()), name,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: set cron enabled: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows > 0, nil
}

// FireCron advances the schedule only when the entry is still due: the
// WHERE clause is the check-and-set that keeps concurrent schedulers
// from double-firing.
func (s *Store) FireCron(ctx context.Context, entryID id.CronID, ranAt, next time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cron_entries
		SET last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?
		  AND enabled = TRUE
		  AND (next_run_at IS NULL OR next_run_at <= ?)`,
		fmtTime(ranAt), fmtTime(next), fmtTime(queuectl.Now()),
		entryID.String(), fmtTime(ranAt),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: fire cron: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows > 0, nil
}
