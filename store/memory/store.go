// Package memory provides a fully in-memory store. Safe for concurrent
// access. Intended for unit testing and development; it mirrors the
// file backend's semantics (insertion-order claim scan, resolve
// fallback append, requeue preserving attempts) on in-process slices.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/dlq"
	"github.com/manasamurali63/queuectl/id"
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

// Store is a fully in-memory aggregate.
type Store struct {
	mu sync.Mutex

	jobs    []*job.Job
	dead    []*job.Job
	crons   []*cron.Entry
	workers []*registry.Worker

	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{}
}

// Close marks the store closed. Subsequent operations fail.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Store) checkOpen() error {
	if m.closed {
		return queuectl.ErrStoreClosed
	}
	return nil
}

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// Enqueue appends a pending job to the end of the claim scan order.
func (m *Store) Enqueue(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	m.jobs = append(m.jobs, j.Clone())
	return nil
}

// Claim marks the first pending job processing and returns a copy.
func (m *Store) Claim(_ context.Context) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	for _, j := range m.jobs {
		if j.State == job.StatePending {
			j.State = job.StateProcessing
			j.Touch()
			return j.Clone(), nil
		}
	}
	return nil, nil
}

// Resolve applies the worker's verdict.
func (m *Store) Resolve(_ context.Context, j *job.Job, outcome job.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	idx := -1
	for i, existing := range m.jobs {
		if existing.ID.String() == j.ID.String() {
			idx = i
			break
		}
	}

	switch outcome {
	case job.OutcomeSuccess:
		if idx >= 0 {
			m.jobs = append(m.jobs[:idx], m.jobs[idx+1:]...)
		}
	case job.OutcomeRetry:
		cp := j.Clone()
		cp.State = job.StatePending
		if idx >= 0 {
			m.jobs[idx] = cp
		} else {
			// The record vanished mid-flight; append so the result
			// is not dropped.
			m.jobs = append(m.jobs, cp)
		}
	case job.OutcomeDeadLetter:
		if idx >= 0 {
			m.jobs = append(m.jobs[:idx], m.jobs[idx+1:]...)
		}
		cp := j.Clone()
		cp.State = job.StateDead
		m.dead = append(m.dead, cp)
	}
	return nil
}

// List returns active jobs, optionally filtered by state.
func (m *Store) List(_ context.Context, state job.State) ([]*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if state != "" && j.State != state {
			continue
		}
		out = append(out, j.Clone())
	}
	return out, nil
}

// Get searches active jobs, then the dead letter queue.
func (m *Store) Get(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	for _, j := range m.jobs {
		if j.ID.String() == jobID.String() {
			return j.Clone(), nil
		}
	}
	for _, j := range m.dead {
		if j.ID.String() == jobID.String() {
			return j.Clone(), nil
		}
	}
	return nil, queuectl.ErrJobNotFound
}

// Counts returns the literal sizes of the current aggregate.
func (m *Store) Counts(_ context.Context) (job.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return job.Counts{}, err
	}

	c := job.Counts{
		DeadLetter:  len(m.dead),
		TotalActive: len(m.jobs),
	}
	for _, j := range m.jobs {
		switch j.State {
		case job.StatePending:
			c.Pending++
		case job.StateProcessing:
			c.Processing++
		}
	}
	return c, nil
}

// ──────────────────────────────────────────────────
// DLQ Store
// ──────────────────────────────────────────────────

// ListDead returns all dead-lettered jobs.
func (m *Store) ListDead(_ context.Context) ([]*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]*job.Job, 0, len(m.dead))
	for _, j := range m.dead {
		out = append(out, j.Clone())
	}
	return out, nil
}

// RequeueDead revives a dead job, preserving its attempt count.
func (m *Store) RequeueDead(_ context.Context, jobID id.JobID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}

	for i, j := range m.dead {
		if j.ID.String() == jobID.String() {
			m.dead = append(m.dead[:i], m.dead[i+1:]...)
			j.State = job.StatePending
			j.Touch()
			m.jobs = append(m.jobs, j)
			return true, nil
		}
	}
	return false, nil
}

// RemoveDead deletes a dead job. Absent IDs are ignored.
func (m *Store) RemoveDead(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	for i, j := range m.dead {
		if j.ID.String() == jobID.String() {
			m.dead = append(m.dead[:i], m.dead[i+1:]...)
			return nil
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Cron Store
// ──────────────────────────────────────────────────

// AddCron persists a new entry, rejecting duplicate names.
func (m *Store) AddCron(_ context.Context, e *cron.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	for _, existing := range m.crons {
		if existing.Name == e.Name {
			return queuectl.ErrCronExists
		}
	}
	m.crons = append(m.crons, e.Clone())
	return nil
}

// ListCrons returns all entries.
func (m *Store) ListCrons(_ context.Context) ([]*cron.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]*cron.Entry, 0, len(m.crons))
	for _, e := range m.crons {
		out = append(out, e.Clone())
	}
	return out, nil
}

// RemoveCron deletes the named entry.
func (m *Store) RemoveCron(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}

	for i, e := range m.crons {
		if e.Name == name {
			m.crons = append(m.crons[:i], m.crons[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// SetCronEnabled toggles the named entry.
func (m *Store) SetCronEnabled(_ context.Context, name string, enabled bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}

	for _, e := range m.crons {
		if e.Name == name {
			e.Enabled = enabled
			e.Touch()
			return true, nil
		}
	}
	return false, nil
}

// FireCron atomically re-checks dueness and advances the schedule.
func (m *Store) FireCron(_ context.Context, entryID id.CronID, ranAt, next time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}

	for _, e := range m.crons {
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
		return true, nil
	}
	return false, nil
}

// ──────────────────────────────────────────────────
// Registry Store
// ──────────────────────────────────────────────────

// RegisterWorker persists a worker record.
func (m *Store) RegisterWorker(_ context.Context, w *registry.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	cp := *w
	m.workers = append(m.workers, &cp)
	return nil
}

// DeregisterWorker removes a worker record. Absent IDs are ignored.
func (m *Store) DeregisterWorker(_ context.Context, workerID id.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	for i, w := range m.workers {
		if w.ID.String() == workerID.String() {
			m.workers = append(m.workers[:i], m.workers[i+1:]...)
			return nil
		}
	}
	return nil
}

// HeartbeatWorker refreshes LastSeenAt.
func (m *Store) HeartbeatWorker(_ context.Context, workerID id.WorkerID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}

	for _, w := range m.workers {
		if w.ID.String() == workerID.String() {
			w.LastSeenAt = at
			return nil
		}
	}
	return queuectl.ErrWorkerNotFound
}

// ListWorkers returns all registered workers.
func (m *Store) ListWorkers(_ context.Context) ([]*registry.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]*registry.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}
