package cron

import (
	"context"
	"time"

	"github.com/manasamurali63/queuectl/id"
)

// Store defines the persistence contract for cron entries.
type Store interface {
	// AddCron persists a new entry. Returns queuectl.ErrCronExists when
	// an entry with the same name already exists.
	AddCron(ctx context.Context, e *Entry) error

	// ListCrons returns all entries in insertion order.
	ListCrons(ctx context.Context) ([]*Entry, error)

	// RemoveCron deletes the entry with the given name. Returns false
	// when no entry matches.
	RemoveCron(ctx context.Context, name string) (bool, error)

	// SetCronEnabled toggles an entry. Returns false when no entry
	// matches.
	SetCronEnabled(ctx context.Context, name string, enabled bool) (bool, error)

	// FireCron atomically checks that the entry is still due at ranAt
	// and, if so, records the firing: LastRunAt = ranAt, NextRunAt =
	// next. Returns false when the entry is gone, disabled, or no
	// longer due — meaning another scheduler already fired it.
	FireCron(ctx context.Context, entryID id.CronID, ranAt, next time.Time) (bool, error)
}
