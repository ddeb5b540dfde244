package lock_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/lock"
)

func newTestLock(t *testing.T, opts ...lock.Option) *lock.FileLock {
	t.Helper()
	return lock.New(filepath.Join(t.TempDir(), "queue.lock"), opts...)
}

func TestAcquireRelease(t *testing.T) {
	l := newTestLock(t)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire error: %v", err)
	}

	if _, err := os.Stat(l.Path()); err != nil {
		t.Fatalf("expected marker file after acquire: %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release error: %v", err)
	}

	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Errorf("expected marker gone after release, stat err = %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := newTestLock(t)

	if err := l.Release(); err != nil {
		t.Fatalf("release of unheld lock should not error: %v", err)
	}

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire error: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("first release error: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second release error: %v", err)
	}
}

func TestAcquireTimesOutAgainstHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.lock")

	// Simulate a competing holder that never releases.
	holder := lock.New(path)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("holder acquire error: %v", err)
	}

	waiter := lock.New(path,
		lock.WithTimeout(150*time.Millisecond),
		lock.WithPollInterval(20*time.Millisecond),
	)

	start := time.Now()
	err := waiter.Acquire(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, queuectl.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if elapsed < 150*time.Millisecond {
		t.Errorf("returned after %v, want at least the 150ms timeout", elapsed)
	}
}

func TestWithReleasesOnError(t *testing.T) {
	l := newTestLock(t)

	wantErr := errors.New("boom")
	err := l.With(context.Background(), func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error to surface, got %v", err)
	}

	if _, statErr := os.Stat(l.Path()); !os.IsNotExist(statErr) {
		t.Error("expected marker released after fn returned an error")
	}
}

func TestWithNeverRunsOnTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.lock")

	holder := lock.New(path)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("holder acquire error: %v", err)
	}

	waiter := lock.New(path,
		lock.WithTimeout(50*time.Millisecond),
		lock.WithPollInterval(10*time.Millisecond),
	)

	ran := false
	err := waiter.With(context.Background(), func() error {
		ran = true
		return nil
	})

	if !errors.Is(err, queuectl.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if ran {
		t.Error("guarded section ran despite acquisition failure")
	}
}

func TestMutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.lock")

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := lock.New(path,
				lock.WithTimeout(5*time.Second),
				lock.WithPollInterval(time.Millisecond),
			)
			for range 10 {
				err := l.With(context.Background(), func() error {
					mu.Lock()
					inside++
					if inside > maxSeen {
						maxSeen = inside
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
				if err != nil {
					t.Errorf("with error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("observed %d goroutines inside the critical section, want 1", maxSeen)
	}
}

func TestBreakClearsStaleMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.lock")

	// A crashed holder: marker exists but nobody will release it.
	stale := lock.New(path)
	if err := stale.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire error: %v", err)
	}

	l := lock.New(path,
		lock.WithTimeout(50*time.Millisecond),
		lock.WithPollInterval(10*time.Millisecond),
	)
	if err := l.Acquire(context.Background()); !errors.Is(err, queuectl.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout against stale marker, got %v", err)
	}

	if err := l.Break(); err != nil {
		t.Fatalf("break error: %v", err)
	}
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after break error: %v", err)
	}
}

func TestOwner(t *testing.T) {
	l := newTestLock(t)

	if _, _, ok := l.Owner(); ok {
		t.Error("expected no owner before acquire")
	}

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire error: %v", err)
	}

	pid, _, ok := l.Owner()
	if !ok {
		t.Fatal("expected owner info after acquire")
	}
	if pid != os.Getpid() {
		t.Errorf("owner pid = %d, want %d", pid, os.Getpid())
	}
}
