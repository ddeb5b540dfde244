package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/manasamurali63/queuectl/job"
	"github.com/manasamurali63/queuectl/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChainOrder(t *testing.T) {
	var order []string

	mw := func(name string) middleware.Middleware {
		return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := middleware.Chain(mw("outer"), mw("inner"))
	j := job.New("true", nil)

	err := chain(context.Background(), j, func(ctx context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChainEmpty(t *testing.T) {
	chain := middleware.Chain()
	j := job.New("true", nil)

	called := false
	err := chain(context.Background(), j, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}
	if !called {
		t.Error("handler not called through empty chain")
	}
}

func TestChainPropagatesError(t *testing.T) {
	wantErr := errors.New("command failed")

	chain := middleware.Chain(
		func(ctx context.Context, j *job.Job, next middleware.Handler) error {
			return next(ctx)
		},
	)
	j := job.New("false", nil)

	err := chain(context.Background(), j, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("chain error = %v, want %v", err, wantErr)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	mw := middleware.Logging(discardLogger())
	j := job.New("true", nil)

	wantErr := errors.New("boom")
	err := mw(context.Background(), j, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}

	err = mw(context.Background(), j, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestRecoverConvertsPanic(t *testing.T) {
	mw := middleware.Recover(discardLogger())
	j := job.New("true", nil)

	err := mw(context.Background(), j, func(ctx context.Context) error {
		panic("runner exploded")
	})
	if err == nil {
		t.Fatal("expected error from panicking handler, got nil")
	}
}

func TestRecoverPassesThroughSuccess(t *testing.T) {
	mw := middleware.Recover(discardLogger())
	j := job.New("true", nil)

	err := mw(context.Background(), j, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}
