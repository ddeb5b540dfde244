package cron

import (
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/id"
)

// Entry represents a recurring enqueue schedule.
type Entry struct {
	queuectl.Entity

	ID       id.CronID `json:"id"`
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Command  string    `json:"command"`
	// MaxRetries is the per-job retry override applied to every job
	// this entry enqueues. nil inherits the store default.
	MaxRetries *int       `json:"max_retries"`
	Enabled    bool       `json:"enabled"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
}

// New creates an enabled Entry. The schedule must already be validated
// with ParseSchedule; NextRunAt is seeded from it.
func New(name, schedule, command string, maxRetries *int) (*Entry, error) {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Entity:   queuectl.NewEntity(),
		ID:       id.NewCronID(),
		Name:     name,
		Schedule: schedule,
		Command:  command,
		Enabled:  true,
	}
	if maxRetries != nil {
		n := *maxRetries
		e.MaxRetries = &n
	}

	next := sched.Next(queuectl.Now())
	e.NextRunAt = &next
	return e, nil
}

// Due reports whether the entry should fire at now. A nil NextRunAt is
// treated as due so that entries from older aggregates self-heal.
func (e *Entry) Due(now time.Time) bool {
	if !e.Enabled {
		return false
	}
	return e.NextRunAt == nil || !e.NextRunAt.After(now)
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	cp := *e
	if e.MaxRetries != nil {
		n := *e.MaxRetries
		cp.MaxRetries = &n
	}
	if e.LastRunAt != nil {
		tm := *e.LastRunAt
		cp.LastRunAt = &tm
	}
	if e.NextRunAt != nil {
		tm := *e.NextRunAt
		cp.NextRunAt = &tm
	}
	return &cp
}
