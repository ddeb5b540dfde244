package queuectl

import (
	"errors"
	"fmt"
)

var (
	// Lock errors.
	ErrLockTimeout = errors.New("queuectl: lock acquisition timed out")

	// Not found errors.
	ErrJobNotFound    = errors.New("queuectl: job not found")
	ErrCronNotFound   = errors.New("queuectl: cron entry not found")
	ErrWorkerNotFound = errors.New("queuectl: worker not found")

	// Conflict errors.
	ErrCronExists = errors.New("queuectl: cron entry already exists")

	// Lifecycle errors.
	ErrStoreClosed = errors.New("queuectl: store closed")
)

// PersistenceError reports a failed read, parse, or write of persisted
// state. The in-memory mutation that triggered it is discarded; the
// underlying file may still be corrupted if the failure happened
// mid-write (truncate-write persistence is best-effort by design).
type PersistenceError struct {
	Op   string // "read", "parse", or "write"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("queuectl: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PersistenceError) Unwrap() error { return e.Err }
