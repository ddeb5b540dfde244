package job

import (
	"context"

	"github.com/manasamurali63/queuectl/id"
)

// Store defines the persistence contract for active jobs. Every
// operation is a single atomic critical section; no transaction spans
// two operations, so a snapshot returned by List or Counts may be stale
// by the time it is acted upon.
type Store interface {
	// Enqueue persists a new job in pending state, appended to the end
	// of the claim scan order.
	Enqueue(ctx context.Context, j *Job) error

	// Claim atomically finds the first pending job in insertion order,
	// marks it processing, and returns a copy. Returns (nil, nil) when
	// no pending job exists. Two concurrent callers can never claim the
	// same job.
	Claim(ctx context.Context) (*Job, error)

	// Resolve applies the worker's verdict on a claimed job. For retry
	// and dead-letter outcomes, a job whose id has vanished from the
	// active list is appended rather than dropped — a result is never
	// silently lost.
	Resolve(ctx context.Context, j *Job, outcome Outcome) error

	// List returns active jobs in insertion order, optionally filtered
	// by state. The empty state matches all. Dead-lettered jobs are
	// never included.
	List(ctx context.Context, state State) ([]*Job, error)

	// Get retrieves a job by ID, searching active jobs first and the
	// dead letter queue second. Returns queuectl.ErrJobNotFound if
	// neither holds the ID.
	Get(ctx context.Context, jobID id.JobID) (*Job, error)

	// Counts returns the current aggregate sizes split by state.
	Counts(ctx context.Context) (Counts, error)
}
