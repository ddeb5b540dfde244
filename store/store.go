// Package store defines the aggregate persistence interface. Each
// subsystem (job, dlq, cron, registry) defines its own store interface;
// the composite Store composes them all. Backends: file (canonical,
// marker-file locked JSON aggregate), SQLite, and Memory.
package store

import (
	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/dlq"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/registry"
)

// Store is the aggregate persistence interface. A single backend
// implements every subsystem contract, so all state shares one
// consistency domain: the file backend's lock (or the SQLite backend's
// claim transaction) covers jobs, dead letters, cron entries, and
// worker registrations alike.
type Store interface {
	job.Store
	dlq.Store
	cron.Store
	registry.Store

	// Close releases backend resources. Operations after Close return
	// queuectl.ErrStoreClosed.
	Close() error
}
