package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/manasamurali63/queuectl/backoff"
	"github.com/manasamurali63/queuectl/cron"
	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/middleware"
	"github.com/manasamurali63/queuectl/worker"
)

// errStopRequested distinguishes a stop-file shutdown from a signal.
var errStopRequested = errors.New("stop requested")

func newWorkerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage worker processes",
	}
	cmd.AddCommand(newWorkerRunCmd(a), newWorkerStopCmd(a))
	return cmd
}

func newWorkerRunCmd(a *app) *cobra.Command {
	var (
		count        int
		rateLimit    float64
		noCron       bool
		idleInterval time.Duration
		heartbeat    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a worker pool (blocks until signalled or stopped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}

			// A stop file left behind by a previous "worker stop" would
			// halt this pool immediately.
			if err := os.Remove(a.stopFilePath()); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("clear stop file: %w", err)
			}

			executor := worker.NewExecutor(
				s,
				worker.NewShellRunner(),
				backoff.ForBase(a.cfg.BackoffBase),
				a.cfg.MaxRetries,
				a.logger,
				middleware.Recover(a.logger),
				middleware.Logging(a.logger),
				middleware.Metrics(),
				middleware.Tracing(),
			)

			opts := []worker.PoolOption{
				worker.WithPoolConcurrency(count),
				worker.WithIdleInterval(idleInterval),
				worker.WithHeartbeatInterval(heartbeat),
				worker.WithStopSignal(a.stopFileExists),
			}
			if rateLimit > 0 {
				opts = append(opts, worker.WithRateLimit(rate.Limit(rateLimit)))
			}
			pool := worker.NewPool(s, s, executor, a.logger, opts...)

			ctx, cancel := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := pool.Start(ctx); err != nil {
				return err
			}

			var scheduler *cron.Scheduler
			if !noCron {
				scheduler = cron.NewScheduler(s, enqueueFor(s), a.logger,
					cron.WithTickInterval(a.runtime.CronTickInterval),
				)
				if err := scheduler.Start(ctx); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				<-gctx.Done()
				return nil
			})
			g.Go(func() error {
				return a.watchStopFile(gctx)
			})

			switch err := g.Wait(); {
			case errors.Is(err, errStopRequested):
				a.logger.Info("stop file detected, shutting down")
			default:
				a.logger.Info("signal received, shutting down")
			}

			shutdownCtx, cancelShutdown := context.WithTimeout(
				context.Background(), a.runtime.ShutdownTimeout)
			defer cancelShutdown()

			if scheduler != nil {
				if err := scheduler.Stop(shutdownCtx); err != nil {
					a.logger.Warn("scheduler stop failed", "error", err)
				}
			}
			return pool.Stop(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of concurrent worker loops")
	cmd.Flags().Float64Var(&rateLimit, "rate", 0, "max claims per second (0 = unlimited)")
	cmd.Flags().BoolVar(&noCron, "no-cron", false, "disable the cron scheduler")
	cmd.Flags().DurationVar(&idleInterval, "idle-interval", a.runtime.IdleInterval,
		"sleep between cycles when no pending job exists")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat-interval", a.runtime.HeartbeatInterval,
		"registry heartbeat period (0 disables)")
	return cmd
}

func newWorkerStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Signal running worker pools to stop after their current jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			content := fmt.Sprintf("%d\n", os.Getpid())
			if err := os.WriteFile(a.stopFilePath(), []byte(content), 0o644); err != nil {
				return fmt.Errorf("write stop file: %w", err)
			}
			fmt.Println("Stop requested. Workers will exit after their in-flight jobs.")
			return nil
		},
	}
}

func (a *app) stopFileExists() bool {
	_, err := os.Stat(a.stopFilePath())
	return err == nil
}

// watchStopFile polls for the stop file until it appears or ctx ends.
func (a *app) watchStopFile(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if a.stopFileExists() {
				return errStopRequested
			}
		}
	}
}

// enqueueFor adapts a job store to the cron scheduler's enqueue callback.
func enqueueFor(s job.Store) cron.EnqueueFunc {
	return func(ctx context.Context, command string, maxRetries *int) (id.JobID, error) {
		j := job.New(command, maxRetries)
		if err := s.Enqueue(ctx, j); err != nil {
			return id.Nil, err
		}
		return j.ID, nil
	}
}
