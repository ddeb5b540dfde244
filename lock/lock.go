// Package lock provides a process-wide, filesystem-visible exclusive
// lock built on atomic marker-file creation. Every read or write of the
// persisted queue aggregate happens inside a section guarded by this
// lock, which is what makes claims mutually exclusive across processes.
//
// The lock records its owner's pid and hostname in the marker for
// diagnostics, but performs no liveness check: a process that crashes
// while holding the lock leaves a stale marker that blocks all later
// acquisitions until an operator removes it with [FileLock.Break]. This
// hazard is a deliberate property of the design, not a bug.
package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/manasamurali63/queuectl"
)

// Defaults for acquisition polling.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// FileLock is a marker-file mutex. The zero value is not usable; create
// one with New. A FileLock is safe to share between goroutines, but the
// lock itself is advisory and only as exclusive as the marker file.
type FileLock struct {
	path    string
	timeout time.Duration
	poll    time.Duration
}

// Option configures a FileLock.
type Option func(*FileLock)

// WithTimeout bounds how long Acquire waits before failing with
// queuectl.ErrLockTimeout.
func WithTimeout(d time.Duration) Option {
	return func(l *FileLock) { l.timeout = d }
}

// WithPollInterval sets the sleep between acquisition attempts.
func WithPollInterval(d time.Duration) Option {
	return func(l *FileLock) { l.poll = d }
}

// New creates a FileLock for the marker at path.
func New(path string, opts ...Option) *FileLock {
	l := &FileLock{
		path:    path,
		timeout: DefaultTimeout,
		poll:    DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the marker file path.
func (l *FileLock) Path() string { return l.path }

// Acquire takes the lock, polling until the marker can be created or
// the timeout elapses. On timeout it returns queuectl.ErrLockTimeout
// and no marker is left behind. Context cancellation aborts the wait
// early with the context's error.
func (l *FileLock) Acquire(ctx context.Context) error {
	deadline := time.Now().Add(l.timeout)

	for {
		err := l.tryAcquire()
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("lock: create marker %s: %w", l.path, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("lock: %s held past %v: %w", l.path, l.timeout, queuectl.ErrLockTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("lock: waiting for %s: %w", l.path, ctx.Err())
		case <-time.After(l.poll):
		}
	}
}

// tryAcquire attempts a single atomic marker creation. O_EXCL makes the
// create fail when the marker already exists.
func (l *FileLock) tryAcquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	hostname, _ := os.Hostname() //nolint:errcheck // owner info is diagnostic only
	fmt.Fprintf(f, "%d %s\n", os.Getpid(), hostname)

	return f.Close()
}

// Release deletes the marker. A missing marker is not an error, so
// Release is idempotent.
func (l *FileLock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("lock: remove marker %s: %w", l.path, err)
	}
	return nil
}

// Break force-removes the marker regardless of owner. An operator
// escape hatch for markers orphaned by a crashed holder — verify the
// owner recorded in the marker is actually dead before breaking.
func (l *FileLock) Break() error {
	return l.Release()
}

// Owner reads the pid and hostname recorded in the current marker.
// Returns ok=false when no marker exists.
func (l *FileLock) Owner() (pid int, hostname string, ok bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, "", false
	}
	if _, err := fmt.Sscanf(string(data), "%d %s", &pid, &hostname); err != nil {
		return 0, "", false
	}
	return pid, hostname, true
}

// With runs fn with the lock held, releasing it on every exit path.
// The guarded section never runs if acquisition fails.
func (l *FileLock) With(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release() //nolint:errcheck // release is idempotent and best-effort

	return fn()
}
