// Package registry tracks running worker pools. Each pool registers
// itself on start, refreshes its record on a heartbeat interval, and
// deregisters on graceful stop. A pool that dies without deregistering
// leaves a stale record, visible through the age of LastSeenAt — the
// registry has no liveness check of its own.
package registry

import (
	"context"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/id"
)

// Worker is a registered worker pool.
type Worker struct {
	ID          id.WorkerID `json:"id"`
	PID         int         `json:"pid"`
	Hostname    string      `json:"hostname"`
	Concurrency int         `json:"concurrency"`
	StartedAt   time.Time   `json:"started_at"`
	LastSeenAt  time.Time   `json:"last_seen_at"`
}

// New creates a Worker record for the current process.
func New(pid int, hostname string, concurrency int) *Worker {
	now := queuectl.Now()
	return &Worker{
		ID:          id.NewWorkerID(),
		PID:         pid,
		Hostname:    hostname,
		Concurrency: concurrency,
		StartedAt:   now,
		LastSeenAt:  now,
	}
}

// Store defines the persistence contract for worker registrations.
type Store interface {
	// RegisterWorker persists a new worker record.
	RegisterWorker(ctx context.Context, w *Worker) error

	// DeregisterWorker removes a worker record. Removing an absent ID
	// is not an error (the record may have been cleaned up already).
	DeregisterWorker(ctx context.Context, workerID id.WorkerID) error

	// HeartbeatWorker refreshes LastSeenAt for a registered worker.
	// Returns queuectl.ErrWorkerNotFound if the record is gone.
	HeartbeatWorker(ctx context.Context, workerID id.WorkerID, at time.Time) error

	// ListWorkers returns all registered workers.
	ListWorkers(ctx context.Context) ([]*Worker, error)
}
