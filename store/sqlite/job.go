package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
)

const jobColumns = "id, command, state, attempts, max_retries, created_at, updated_at"

// scanJob reads one job row.
func scanJob(row interface{ Scan(...any) error }) (*job.Job, error) {
	var (
		j          job.Job
		idStr      string
		maxRetries sql.NullInt64
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&idStr, &j.Command, &j.State, &j.Attempts, &maxRetries, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := id.ParseJobID(idStr)
	if err != nil {
		return nil, err
	}
	j.ID = parsed

	if maxRetries.Valid {
		n := int(maxRetries.Int64)
		j.MaxRetries = &n
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

// Enqueue persists a new pending job. Insertion order is rowid order,
// which is also the claim scan order.
func (s *Store) Enqueue(ctx context.Context, j *job.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, command, state, attempts, max_retries, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.Command, j.State, j.Attempts, nullInt(j.MaxRetries),
		fmtTime(j.CreatedAt), fmtTime(j.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: enqueue job: %w", err)
	}
	return nil
}

// Claim atomically marks the first pending job (rowid order) as
// processing and returns it. The single UPDATE…RETURNING statement is
// the claim transaction: SQLite serializes writers, so two concurrent
// callers can never claim the same row.
func (s *Store) Claim(ctx context.Context) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET state = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE state = ?
			ORDER BY rowid
			LIMIT 1
		)
		RETURNING `+jobColumns,
		job.StateProcessing, fmtTime(queuectl.Now()), job.StatePending,
	)

	j, err := scanJob(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: claim job: %w", err)
	}
	return j, nil
}

// Resolve applies the worker's verdict inside one transaction. Retry
// and dead-letter outcomes insert the record when its id has vanished
// from the jobs table, so a result is never dropped.
func (s *Store) Resolve(ctx context.Context, j *job.Job, outcome job.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: resolve begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	switch outcome {
	case job.OutcomeSuccess:
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, j.ID.String()); err != nil {
			return fmt.Errorf("sqlite: resolve success: %w", err)
		}

	case job.OutcomeRetry:
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET state = ?, attempts = ?, updated_at = ? WHERE id = ?`,
			job.StatePending, j.Attempts, fmtTime(j.UpdatedAt), j.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: resolve retry: %w", err)
		}
		rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
		if rows == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO jobs (id, command, state, attempts, max_retries, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				j.ID.String(), j.Command, job.StatePending, j.Attempts, nullInt(j.MaxRetries),
				fmtTime(j.CreatedAt), fmtTime(j.UpdatedAt),
			); err != nil {
				return fmt.Errorf("sqlite: resolve retry reinsert: %w", err)
			}
		}

	case job.OutcomeDeadLetter:
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, j.ID.String()); err != nil {
			return fmt.Errorf("sqlite: resolve dead-letter: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dead_letter (id, command, state, attempts, max_retries, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			j.ID.String(), j.Command, job.StateDead, j.Attempts, nullInt(j.MaxRetries),
			fmtTime(j.CreatedAt), fmtTime(j.UpdatedAt),
		); err != nil {
			return fmt.Errorf("sqlite: resolve dead-letter insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: resolve commit: %w", err)
	}
	return nil
}

// List returns active jobs in insertion order, optionally filtered by
// state.
func (s *Store) List(ctx context.Context, state job.State) ([]*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if state != "" {
		query += ` WHERE state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*job.Job
	for rows.Next() {
		j, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("sqlite: list jobs scan: %w", scanErr)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list jobs: %w", err)
	}
	return out, nil
}

// Get searches jobs first, then dead_letter.
func (s *Store) Get(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	for _, table := range []string{"jobs", "dead_letter"} {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+jobColumns+` FROM `+table+` WHERE id = ?`, jobID.String())
		j, err := scanJob(row)
		if err == nil {
			return j, nil
		}
		if !isNoRows(err) {
			return nil, fmt.Errorf("sqlite: get job: %w", err)
		}
	}
	return nil, queuectl.ErrJobNotFound
}

// Counts derives the aggregate sizes with three scans.
func (s *Store) Counts(ctx context.Context) (job.Counts, error) {
	var c job.Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE state = ?),
			COUNT(*) FILTER (WHERE state = ?),
			COUNT(*)
		FROM jobs`,
		job.StatePending, job.StateProcessing,
	).Scan(&c.Pending, &c.Processing, &c.TotalActive)
	if err != nil {
		return job.Counts{}, fmt.Errorf("sqlite: counts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letter`).Scan(&c.DeadLetter); err != nil {
		return job.Counts{}, fmt.Errorf("sqlite: counts dead letter: %w", err)
	}
	return c, nil
}
