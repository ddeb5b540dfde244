package sqlite

import (
	"context"
	"fmt"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
)

// ListDead returns all dead-lettered jobs in the order they died.
func (s *Store) ListDead(ctx context.Context) ([]*job.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM dead_letter ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list dead letter: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*job.Job
	for rows.Next() {
		j, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("sqlite: list dead letter scan: %w", scanErr)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list dead letter: %w", err)
	}
	return out, nil
}

// RequeueDead moves a dead job back to the jobs table in one
// transaction: state reset to pending, attempts preserved.
func (s *Store) RequeueDead(ctx context.Context, jobID id.JobID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: requeue begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	row := tx.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM dead_letter WHERE id = ?`, jobID.String())
	j, err := scanJob(row)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: requeue select: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dead_letter WHERE id = ?`, jobID.String()); err != nil {
		return false, fmt.Errorf("sqlite: requeue delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (id, command, state, attempts, max_retries, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.Command, job.StatePending, j.Attempts, nullInt(j.MaxRetries),
		fmtTime(j.CreatedAt), fmtTime(queuectl.Now()),
	); err != nil {
		return false, fmt.Errorf("sqlite: requeue insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: requeue commit: %w", err)
	}
	return true, nil
}

// RemoveDead deletes a dead job. Absent IDs are ignored.
func (s *Store) RemoveDead(ctx context.Context, jobID id.JobID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dead_letter WHERE id = ?`, jobID.String()); err != nil {
		return fmt.Errorf("sqlite: remove dead letter: %w", err)
	}
	return nil
}
