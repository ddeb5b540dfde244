// Package job defines the unit of work — a shell command with retry
// accounting — and its persistence contract.
package job

import (
	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/id"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting to be claimed by a worker.
	StatePending State = "pending"
	// StateProcessing means a worker has claimed the job and is
	// executing its command.
	StateProcessing State = "processing"
	// StateCompleted means the command exited zero. Completed jobs are
	// deleted from the aggregate, so this state is never persisted.
	StateCompleted State = "completed"
	// StateDead means the job exhausted its retry ceiling and was moved
	// to the dead letter queue.
	StateDead State = "dead"
)

// Outcome is the worker's verdict on a claimed job, consumed by
// Store.Resolve.
type Outcome string

const (
	// OutcomeSuccess removes the job from the aggregate. No completed
	// record is kept.
	OutcomeSuccess Outcome = "success"
	// OutcomeRetry returns the job to pending with its incremented
	// attempt count.
	OutcomeRetry Outcome = "retry"
	// OutcomeDeadLetter moves the job to the dead letter queue.
	OutcomeDeadLetter Outcome = "dead-letter"
)

// Job represents a shell command to be executed by a worker.
type Job struct {
	queuectl.Entity

	ID      id.JobID `json:"id"`
	Command string   `json:"command"`
	State   State    `json:"state"`
	// Attempts counts failed executions. Monotone non-decreasing.
	Attempts int `json:"attempts"`
	// MaxRetries overrides the store-wide retry ceiling for this job.
	// nil means the configured default applies; an explicit zero
	// dead-letters on the first failure.
	MaxRetries *int `json:"max_retries"`
}

// New creates a pending job for the given command. maxRetries may be nil
// to inherit the store default.
func New(command string, maxRetries *int) *Job {
	j := &Job{
		Entity:  queuectl.NewEntity(),
		ID:      id.NewJobID(),
		Command: command,
		State:   StatePending,
	}
	if maxRetries != nil {
		n := *maxRetries
		j.MaxRetries = &n
	}
	return j
}

// EffectiveMaxRetries returns the job's own ceiling if set, otherwise
// the store-wide default.
func (j *Job) EffectiveMaxRetries(storeDefault int) int {
	if j.MaxRetries != nil {
		return *j.MaxRetries
	}
	return storeDefault
}

// Clone returns a deep copy. Stores hand out clones so that callers
// never alias persisted records.
func (j *Job) Clone() *Job {
	cp := *j
	if j.MaxRetries != nil {
		n := *j.MaxRetries
		cp.MaxRetries = &n
	}
	return &cp
}

// Counts summarizes the aggregate by state. There is no completed count
// because completed jobs are not retained.
type Counts struct {
	Pending     int `json:"pending"`
	Processing  int `json:"processing"`
	DeadLetter  int `json:"dead_letter"`
	TotalActive int `json:"total_active"`
}
