// Package file implements the canonical queuectl store: a single JSON
// aggregate guarded by a marker-file lock.
//
// Every operation is one lock-guarded critical section of read whole
// aggregate → mutate in memory → write whole aggregate. That makes each
// operation O(n) in the number of persisted records and serializes all
// readers and writers system-wide, which is exactly what gives Claim
// its mutual exclusion across processes.
//
// The write is a plain truncate-write with no temp-file rename: a crash
// mid-write can corrupt or truncate the aggregate. That limitation is
// accepted, not worked around — callers must treat persistence as
// best-effort.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/dlq"
	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/lock"
	"github.com/manasamurali63/queuectl/registry"
)

// File names inside the data directory.
const (
	DataFileName = "queue.json"
	LockFileName = "queue.lock"
)

// Ensure Store implements each subsystem interface at compile time.
var (
	_ job.Store      = (*Store)(nil)
	_ dlq.Store      = (*Store)(nil)
	_ cron.Store     = (*Store)(nil)
	_ registry.Store = (*Store)(nil)
)

// aggregate is the persisted shape of the whole queue. Jobs and
// DeadLetter always serialize as arrays; the expansion keys are omitted
// when empty so a minimal file is exactly {"jobs": [], "dead_letter": []}.
type aggregate struct {
	Jobs        []*job.Job         `json:"jobs"`
	DeadLetter  []*job.Job         `json:"dead_letter"`
	CronEntries []*cron.Entry      `json:"cron_entries,omitempty"`
	Workers     []*registry.Worker `json:"workers,omitempty"`
}

// Store persists the aggregate as one JSON file under a marker-file lock.
type Store struct {
	path   string
	lock   *lock.FileLock
	closed atomic.Bool
}

// Option configures the Store.
type Option func(*options)

type options struct {
	lockTimeout time.Duration
	lockPoll    time.Duration
}

// WithLockTimeout bounds how long each operation waits for the lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// WithLockPollInterval sets the sleep between lock acquisition attempts.
func WithLockPollInterval(d time.Duration) Option {
	return func(o *options) { o.lockPoll = d }
}

// Open creates a Store rooted at dir, initializing an empty aggregate
// file if none exists. The lock marker lives beside the data file.
func Open(dir string, opts ...Option) (*Store, error) {
	o := options{
		lockTimeout: lock.DefaultTimeout,
		lockPoll:    lock.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		path: filepath.Join(dir, DataFileName),
		lock: lock.New(filepath.Join(dir, LockFileName),
			lock.WithTimeout(o.lockTimeout),
			lock.WithPollInterval(o.lockPoll),
		),
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if writeErr := s.write(&aggregate{}); writeErr != nil {
			return nil, writeErr
		}
	}
	return s, nil
}

// Lock exposes the underlying marker-file lock for operator tooling.
func (s *Store) Lock() *lock.FileLock { return s.lock }

// Close marks the store closed. Subsequent operations fail with
// queuectl.ErrStoreClosed.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// read loads and parses the aggregate. A missing file is an empty
// aggregate; a parse failure is surfaced, never silently reset.
func (s *Store) read() (*aggregate, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &aggregate{}, nil
	}
	if err != nil {
		return nil, &queuectl.PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	var agg aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, &queuectl.PersistenceError{Op: "parse", Path: s.path, Err: err}
	}
	return &agg, nil
}

// write persists the aggregate with a truncate-write.
func (s *Store) write(agg *aggregate) error {
	if agg.Jobs == nil {
		agg.Jobs = []*job.Job{}
	}
	if agg.DeadLetter == nil {
		agg.DeadLetter = []*job.Job{}
	}

	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return &queuectl.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return &queuectl.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// mutate runs fn on the freshly read aggregate inside the lock and
// persists the result when fn reports a change.
func (s *Store) mutate(ctx context.Context, fn func(agg *aggregate) (changed bool, err error)) error {
	if s.closed.Load() {
		return queuectl.ErrStoreClosed
	}

	return s.lock.With(ctx, func() error {
		agg, err := s.read()
		if err != nil {
			return err
		}
		changed, err := fn(agg)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.write(agg)
	})
}

// view runs fn on a consistent snapshot of the aggregate inside the
// lock. The snapshot may be stale by the time the caller acts on it.
func (s *Store) view(ctx context.Context, fn func(agg *aggregate) error) error {
	if s.closed.Load() {
		return queuectl.ErrStoreClosed
	}

	return s.lock.With(ctx, func() error {
		agg, err := s.read()
		if err != nil {
			return err
		}
		return fn(agg)
	})
}

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// Enqueue appends a pending job to the end of the claim scan order.
func (s *Store) Enqueue(ctx context.Context, j *job.Job) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		agg.Jobs = append(agg.Jobs, j.Clone())
		return true, nil
	})
}

// Claim scans active jobs in insertion order for the first pending one,
// marks it processing, persists, and returns a copy. The scan and the
// mutation happen inside one lock-guarded section, so two concurrent
// callers can never claim the same job.
func (s *Store) Claim(ctx context.Context) (*job.Job, error) {
	var claimed *job.Job
	err := s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for _, j := range agg.Jobs {
			if j.State == job.StatePending {
				j.State = job.StateProcessing
				j.Touch()
				claimed = j.Clone()
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Resolve applies the worker's verdict on a claimed job. Retry and
// dead-letter outcomes append the record when its id has vanished from
// the active list — a result is never silently dropped.
func (s *Store) Resolve(ctx context.Context, j *job.Job, outcome job.Outcome) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		idx := -1
		for i, existing := range agg.Jobs {
			if existing.ID.String() == j.ID.String() {
				idx = i
				break
			}
		}

		switch outcome {
		case job.OutcomeSuccess:
			// Completed jobs are deleted, not archived.
			if idx >= 0 {
				agg.Jobs = append(agg.Jobs[:idx], agg.Jobs[idx+1:]...)
			}
		case job.OutcomeRetry:
			cp := j.Clone()
			cp.State = job.StatePending
			if idx >= 0 {
				agg.Jobs[idx] = cp
			} else {
				agg.Jobs = append(agg.Jobs, cp)
			}
		case job.OutcomeDeadLetter:
			if idx >= 0 {
				agg.Jobs = append(agg.Jobs[:idx], agg.Jobs[idx+1:]...)
			}
			cp := j.Clone()
			cp.State = job.StateDead
			agg.DeadLetter = append(agg.DeadLetter, cp)
		}
		return true, nil
	})
}

// List returns active jobs in insertion order, optionally filtered by
// state. Dead-lettered jobs are never included.
func (s *Store) List(ctx context.Context, state job.State) ([]*job.Job, error) {
	var out []*job.Job
	err := s.view(ctx, func(agg *aggregate) error {
		out = make([]*job.Job, 0, len(agg.Jobs))
		for _, j := range agg.Jobs {
			if state != "" && j.State != state {
				continue
			}
			out = append(out, j.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get searches active jobs first, then the dead letter queue.
func (s *Store) Get(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	var found *job.Job
	err := s.view(ctx, func(agg *aggregate) error {
		for _, j := range agg.Jobs {
			if j.ID.String() == jobID.String() {
				found = j.Clone()
				return nil
			}
		}
		for _, j := range agg.DeadLetter {
			if j.ID.String() == jobID.String() {
				found = j.Clone()
				return nil
			}
		}
		return queuectl.ErrJobNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Counts returns the literal sizes of the current aggregate.
func (s *Store) Counts(ctx context.Context) (job.Counts, error) {
	var c job.Counts
	err := s.view(ctx, func(agg *aggregate) error {
		c.DeadLetter = len(agg.DeadLetter)
		c.TotalActive = len(agg.Jobs)
		for _, j := range agg.Jobs {
			switch j.State {
			case job.StatePending:
				c.Pending++
			case job.StateProcessing:
				c.Processing++
			}
		}
		return nil
	})
	if err != nil {
		return job.Counts{}, err
	}
	return c, nil
}

// ──────────────────────────────────────────────────
// DLQ Store
// ──────────────────────────────────────────────────

// ListDead returns all dead-lettered jobs in the order they died.
func (s *Store) ListDead(ctx context.Context) ([]*job.Job, error) {
	var out []*job.Job
	err := s.view(ctx, func(agg *aggregate) error {
		out = make([]*job.Job, 0, len(agg.DeadLetter))
		for _, j := range agg.DeadLetter {
			out = append(out, j.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequeueDead revives a dead job: state back to pending, attempts
// preserved, appended to the active list.
func (s *Store) RequeueDead(ctx context.Context, jobID id.JobID) (bool, error) {
	var found bool
	err := s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for i, j := range agg.DeadLetter {
			if j.ID.String() == jobID.String() {
				agg.DeadLetter = append(agg.DeadLetter[:i], agg.DeadLetter[i+1:]...)
				j.State = job.StatePending
				j.Touch()
				agg.Jobs = append(agg.Jobs, j)
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// RemoveDead deletes a dead job permanently. Absent IDs are ignored.
func (s *Store) RemoveDead(ctx context.Context, jobID id.JobID) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for i, j := range agg.DeadLetter {
			if j.ID.String() == jobID.String() {
				agg.DeadLetter = append(agg.DeadLetter[:i], agg.DeadLetter[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

// ──────────────────────────────────────────────────
// Cron Store
// ──────────────────────────────────────────────────

// AddCron persists a new entry, rejecting duplicate names.
func (s *Store) AddCron(ctx context.Context, e *cron.Entry) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for _, existing := range agg.CronEntries {
			if existing.Name == e.Name {
				return false, queuectl.ErrCronExists
			}
		}
		agg.CronEntries = append(agg.CronEntries, e.Clone())
		return true, nil
	})
}

// ListCrons returns all entries in insertion order.
func (s *Store) ListCrons(ctx context.Context) ([]*cron.Entry, error) {
	var out []*cron.Entry
	err := s.view(ctx, func(agg *aggregate) error {
		out = make([]*cron.Entry, 0, len(agg.CronEntries))
		for _, e := range agg.CronEntries {
			out = append(out, e.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCron deletes the named entry.
func (s *Store) RemoveCron(ctx context.Context, name string) (bool, error) {
	var found bool
	err := s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for i, e := range agg.CronEntries {
			if e.Name == name {
				agg.CronEntries = append(agg.CronEntries[:i], agg.CronEntries[i+1:]...)
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// SetCronEnabled toggles the named entry.
func (s *Store) SetCronEnabled(ctx context.Context, name string, enabled bool) (bool, error) {
	var found bool
	err := s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for _, e := range agg.CronEntries {
			if e.Name == name {
				e.Enabled = enabled
				e.Touch()
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// FireCron atomically re-checks dueness inside the lock and advances
// the schedule, so concurrent schedulers fire an entry at most once.
func (s *Store) FireCron(ctx context.Context, entryID id.CronID, ranAt, next time.Time) (bool, error) {
	var fired bool
	err := s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for _, e := range agg.CronEntries {
			if e.ID.String() != entryID.String() {
				continue
			}
			if !e.Due(ranAt) {
				return false, nil
			}
			ra := ranAt
			nx := next
			e.LastRunAt = &ra
			e.NextRunAt = &nx
			e.Touch()
			fired = true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return fired, nil
}

// ──────────────────────────────────────────────────
// Registry Store
// ──────────────────────────────────────────────────

// RegisterWorker persists a worker record.
func (s *Store) RegisterWorker(ctx context.Context, w *registry.Worker) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		cp := *w
		agg.Workers = append(agg.Workers, &cp)
		return true, nil
	})
}

// DeregisterWorker removes a worker record. Absent IDs are ignored.
func (s *Store) DeregisterWorker(ctx context.Context, workerID id.WorkerID) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for i, w := range agg.Workers {
			if w.ID.String() == workerID.String() {
				agg.Workers = append(agg.Workers[:i], agg.Workers[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

// HeartbeatWorker refreshes LastSeenAt for a registered worker.
func (s *Store) HeartbeatWorker(ctx context.Context, workerID id.WorkerID, at time.Time) error {
	return s.mutate(ctx, func(agg *aggregate) (bool, error) {
		for _, w := range agg.Workers {
			if w.ID.String() == workerID.String() {
				w.LastSeenAt = at
				return true, nil
			}
		}
		return false, queuectl.ErrWorkerNotFound
	})
}

// ListWorkers returns all registered workers.
func (s *Store) ListWorkers(ctx context.Context) ([]*registry.Worker, error) {
	var out []*registry.Worker
	err := s.view(ctx, func(agg *aggregate) error {
		out = make([]*registry.Worker, 0, len(agg.Workers))
		for _, w := range agg.Workers {
			cp := *w
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
