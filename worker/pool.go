package worker

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/registry"
)

// StopSignal is polled at the top of every worker cycle. Returning true
// makes the loop exit after its in-flight cycle — never mid-execution.
// The CLI wires this to a stop-file check so a separate "worker stop"
// process can halt running pools.
type StopSignal func() bool

// Pool manages a set of concurrent worker loop goroutines that claim
// jobs from the store and execute them through the Executor. Each loop
// processes one job at a time; loops coordinate only through the
// store's claim exclusivity.
type Pool struct {
	store    job.Store
	registry registry.Store
	executor *Executor
	logger   *slog.Logger

	concurrency  int
	idleInterval time.Duration
	stopSignal   StopSignal
	limiter      *rate.Limiter

	heartbeatInterval time.Duration
	worker            *registry.Worker

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of concurrent worker loops.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithIdleInterval sets how long a loop sleeps when no pending job
// exists.
func WithIdleInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.idleInterval = d }
}

// WithStopSignal installs an external stop predicate polled each cycle
// alongside the pool's own Stop.
func WithStopSignal(fn StopSignal) PoolOption {
	return func(p *Pool) { p.stopSignal = fn }
}

// WithRateLimit caps the pool-wide claim rate at r claims per second.
// Zero (the default) means unlimited.
func WithRateLimit(r rate.Limit) PoolOption {
	return func(p *Pool) {
		if r > 0 {
			p.limiter = rate.NewLimiter(r, 1)
		}
	}
}

// WithHeartbeatInterval sets how often the pool refreshes its worker
// registration. Zero disables heartbeats.
func WithHeartbeatInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.heartbeatInterval = d }
}

// NewPool creates a worker pool. The registry store may be nil when
// worker visibility is not needed (tests, one-shot runs).
func NewPool(
	store job.Store,
	reg registry.Store,
	executor *Executor,
	logger *slog.Logger,
	opts ...PoolOption,
) *Pool {
	p := &Pool{
		store:        store,
		registry:     reg,
		executor:     executor,
		logger:       logger,
		concurrency:  1,
		idleInterval: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's registry identity. Nil until Start.
func (p *Pool) WorkerID() string {
	if p.worker == nil {
		return ""
	}
	return p.worker.ID.String()
}

// Start registers the pool and launches the worker loops. It returns
// immediately.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	if p.registry != nil {
		hostname, _ := os.Hostname() //nolint:errcheck // best-effort identity
		p.worker = registry.New(os.Getpid(), hostname, p.concurrency)
		if err := p.registry.RegisterWorker(ctx, p.worker); err != nil {
			p.logger.Warn("worker registration failed",
				slog.String("error", err.Error()),
			)
		}
	}

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.WorkerID()),
		slog.Int("concurrency", p.concurrency),
	)

	for i := range p.concurrency {
		p.wg.Add(1)
		go p.claimLoop(i)
	}

	if p.registry != nil && p.heartbeatInterval > 0 {
		p.wg.Add(1)
		go p.heartbeatLoop()
	}

	return nil
}

// Stop signals all loops to stop and waits for in-flight cycles to
// finish, then deregisters the pool. A command already executing is
// never interrupted; if the context expires first, Stop returns while
// loops drain in the background (the registration is removed anyway).
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.WorkerID()))

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out with commands still in flight")
	}

	if p.registry != nil && p.worker != nil {
		if err := p.registry.DeregisterWorker(context.Background(), p.worker.ID); err != nil {
			p.logger.Warn("worker deregistration failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// stopRequested reports whether the pool's Stop or the external stop
// signal fired.
func (p *Pool) stopRequested() bool {
	select {
	case <-p.stopCh:
		return true
	default:
	}
	return p.stopSignal != nil && p.stopSignal()
}

// claimLoop is one worker: claim, execute, resolve, sleep, repeat.
func (p *Pool) claimLoop(n int) {
	defer p.wg.Done()

	logger := p.logger.With(slog.Int("worker", n))

	for {
		if p.stopRequested() {
			logger.Info("worker loop exiting")
			return
		}

		if p.limiter != nil {
			if !p.waitForToken() {
				logger.Info("worker loop exiting")
				return
			}
		}

		j, err := p.store.Claim(context.Background())
		if err != nil {
			// Lock and persistence failures are fatal to this cycle
			// only; the loop retries next cycle.
			logger.Error("claim error", slog.String("error", err.Error()))
			p.sleep(p.idleInterval)
			continue
		}

		if j == nil {
			p.sleep(p.idleInterval)
			continue
		}

		logger.Info("job claimed",
			slog.String("job_id", j.ID.String()),
			slog.String("command", j.Command),
		)

		delay, execErr := p.executor.Execute(context.Background(), j)
		if execErr != nil {
			logger.Error("resolve error", slog.String("error", execErr.Error()))
			p.sleep(p.idleInterval)
			continue
		}

		// Backoff blocks this worker, not the queue: other workers
		// keep claiming while this one waits out the delay.
		if delay > 0 {
			p.sleep(delay)
		}
	}
}

// waitForToken blocks on the rate limiter until a claim token is
// available or the pool stops. Returns false on stop.
func (p *Pool) waitForToken() bool {
	for {
		r := p.limiter.Reserve()
		wait := r.Delay()
		if wait == 0 {
			return true
		}
		select {
		case <-p.stopCh:
			r.Cancel()
			return false
		case <-time.After(wait):
			return true
		}
	}
}

// heartbeatLoop refreshes the pool's registry record.
func (p *Pool) heartbeatLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.registry.HeartbeatWorker(context.Background(), p.worker.ID, queuectl.Now()); err != nil {
				p.logger.Warn("heartbeat failed",
					slog.String("worker_id", p.WorkerID()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// sleep waits for d, returning early when the pool stops.
func (p *Pool) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-p.stopCh:
	}
}
