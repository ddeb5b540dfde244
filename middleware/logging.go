package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/manasamurali63/queuectl/job"
)

// Logging returns middleware that logs command start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		logger.Info("command started",
			slog.String("job_id", j.ID.String()),
			slog.String("command", j.Command),
			slog.Int("attempts", j.Attempts),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("command failed",
				slog.String("job_id", j.ID.String()),
				slog.String("command", j.Command),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("command succeeded",
				slog.String("job_id", j.ID.String()),
				slog.String("command", j.Command),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
