package dlq

import (
	"context"

	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
)

// Store defines the persistence contract for the dead letter queue.
// Entries are the same Job records managed by job.Store, held in a
// separate list with state "dead".
type Store interface {
	// ListDead returns all dead-lettered jobs in the order they died.
	ListDead(ctx context.Context) ([]*job.Job, error)

	// RequeueDead revives a dead job: removes it from the dead letter
	// queue, resets its state to pending (attempts preserved), and
	// appends it to the active list. Returns false with no state change
	// when the ID is not in the dead letter queue.
	RequeueDead(ctx context.Context, jobID id.JobID) (bool, error)

	// RemoveDead deletes a dead job permanently. Removing an absent ID
	// is not an error.
	RemoveDead(ctx context.Context, jobID id.JobID) error
}
