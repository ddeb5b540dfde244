package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/registry"
)

// RegisterWorker persists a worker record.
func (s *Store) RegisterWorker(ctx context.Context, w *registry.Worker) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workers (id, pid, hostname, concurrency, started_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.PID, w.Hostname, w.Concurrency,
		fmtTime(w.StartedAt), fmtTime(w.LastSeenAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: register worker: %w", err)
	}
	return nil
}

// DeregisterWorker removes a worker record. Absent IDs are ignored.
func (s *Store) DeregisterWorker(ctx context.Context, workerID id.WorkerID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, workerID.String()); err != nil {
		return fmt.Errorf("sqlite: deregister worker: %w", err)
	}
	return nil
}

// HeartbeatWorker refreshes LastSeenAt for a registered worker.
func (s *Store) HeartbeatWorker(ctx context.Context, workerID id.WorkerID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workers SET last_seen_at = ? WHERE id = ?`,
		fmtTime(at), workerID.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: heartbeat worker: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return queuectl.ErrWorkerNotFound
	}
	return nil
}

// ListWorkers returns all registered workers.
func (s *Store) ListWorkers(ctx context.Context) ([]*registry.Worker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pid, hostname, concurrency, started_at, last_seen_at FROM workers ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list workers: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*registry.Worker
	for rows.Next() {
		var (
			w         registry.Worker
			idStr     string
			startedAt string
			lastSeen  string
		)
		if err := rows.Scan(&idStr, &w.PID, &w.Hostname, &w.Concurrency, &startedAt, &lastSeen); err != nil {
			return nil, fmt.Errorf("sqlite: list workers scan: %w", err)
		}
		parsed, parseErr := id.ParseWorkerID(idStr)
		if parseErr != nil {
			return nil, parseErr
		}
		w.ID = parsed
		if w.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if w.LastSeenAt, err = parseTime(lastSeen); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list workers: %w", err)
	}
	return out, nil
}
