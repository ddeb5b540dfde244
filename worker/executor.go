// Package worker provides the job execution engine — an Executor that
// runs one claimed job through middleware and the shell runner and
// resolves the outcome, and a Pool that manages concurrent worker
// loops claiming jobs from the store.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/manasamurali63/queuectl/backoff"
	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/middleware"
)

// Executor runs a single claimed job and applies the retry policy:
// exit zero resolves to success, failure increments the attempt count
// and resolves to retry or, at the effective ceiling, to dead-letter.
type Executor struct {
	store             job.Store
	runner            Runner
	backoff           backoff.Strategy
	defaultMaxRetries int
	mw                middleware.Middleware
	logger            *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(
	store job.Store,
	runner Runner,
	bo backoff.Strategy,
	defaultMaxRetries int,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	return &Executor{
		store:             store,
		runner:            runner,
		backoff:           bo,
		defaultMaxRetries: defaultMaxRetries,
		mw:                middleware.Chain(mws...),
		logger:            logger,
	}
}

// Execute runs a claimed job through the middleware chain and resolves
// its outcome into the store. It returns the backoff delay the calling
// loop must wait before its next cycle — zero unless the job was
// resolved to retry. Command failure is consumed by the retry policy,
// never returned; the error return reports store failures only.
func (e *Executor) Execute(ctx context.Context, j *job.Job) (time.Duration, error) {
	terminal := func(ctx context.Context) error {
		return e.runner.Run(ctx, j.Command)
	}

	runErr := e.mw(ctx, j, terminal)

	j.Touch()

	if runErr == nil {
		return 0, e.resolveSuccess(ctx, j)
	}
	return e.resolveFailure(ctx, j)
}

// resolveSuccess deletes the job. No completed record is retained.
func (e *Executor) resolveSuccess(ctx context.Context, j *job.Job) error {
	if err := e.store.Resolve(ctx, j, job.OutcomeSuccess); err != nil {
		e.logger.Error("failed to resolve job after success",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	e.logger.Info("job completed",
		slog.String("job_id", j.ID.String()),
		slog.String("command", j.Command),
	)
	return nil
}

// resolveFailure increments the attempt count and either retries with
// backoff or dead-letters at the effective ceiling.
func (e *Executor) resolveFailure(ctx context.Context, j *job.Job) (time.Duration, error) {
	j.Attempts++
	ceiling := j.EffectiveMaxRetries(e.defaultMaxRetries)

	if j.Attempts >= ceiling {
		if err := e.store.Resolve(ctx, j, job.OutcomeDeadLetter); err != nil {
			e.logger.Error("failed to dead-letter job",
				slog.String("job_id", j.ID.String()),
				slog.String("error", err.Error()),
			)
			return 0, err
		}

		e.logger.Warn("job moved to dead letter queue after exhausting retries",
			slog.String("job_id", j.ID.String()),
			slog.String("command", j.Command),
			slog.Int("attempts", j.Attempts),
		)
		return 0, nil
	}

	if err := e.store.Resolve(ctx, j, job.OutcomeRetry); err != nil {
		e.logger.Error("failed to resolve job for retry",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	delay := e.backoff.Delay(j.Attempts)
	e.logger.Info("job scheduled for retry",
		slog.String("job_id", j.ID.String()),
		slog.String("command", j.Command),
		slog.Int("attempt", j.Attempts),
		slog.Int("max_retries", ceiling),
		slog.Duration("delay", delay),
	)
	return delay, nil
}
