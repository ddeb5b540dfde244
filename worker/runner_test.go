package worker_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/manasamurali63/queuectl/worker"
)

func TestShellRunnerSuccess(t *testing.T) {
	r := worker.NewShellRunner()

	if err := r.Run(context.Background(), "exit 0"); err != nil {
		t.Errorf("Run(exit 0) = %v, want nil", err)
	}
	if err := r.Run(context.Background(), "true"); err != nil {
		t.Errorf("Run(true) = %v, want nil", err)
	}
}

func TestShellRunnerNonZeroExit(t *testing.T) {
	r := worker.NewShellRunner()

	if err := r.Run(context.Background(), "exit 1"); err == nil {
		t.Error("Run(exit 1) = nil, want error")
	}
	if err := r.Run(context.Background(), "exit 42"); err == nil {
		t.Error("Run(exit 42) = nil, want error")
	}
}

func TestShellRunnerMissingBinary(t *testing.T) {
	r := worker.NewShellRunner()

	// Launch failures count as failures, same as non-zero exits.
	if err := r.Run(context.Background(), "/nonexistent/binary"); err == nil {
		t.Error("Run(missing binary) = nil, want error")
	}
}

func TestShellRunnerShellFeatures(t *testing.T) {
	var out bytes.Buffer
	r := worker.NewShellRunner()
	r.Stdout = &out

	if err := r.Run(context.Background(), "echo hello | tr a-z A-Z"); err != nil {
		t.Fatalf("Run(pipeline) = %v, want nil", err)
	}
	if got := strings.TrimSpace(out.String()); got != "HELLO" {
		t.Errorf("pipeline output = %q, want %q", got, "HELLO")
	}
}

func TestShellRunnerDefaultShell(t *testing.T) {
	// Zero value falls back to /bin/sh.
	r := &worker.ShellRunner{}
	if err := r.Run(context.Background(), "true"); err != nil {
		t.Errorf("Run with zero-value runner = %v, want nil", err)
	}
}

func TestRunnerFunc(t *testing.T) {
	var got string
	r := worker.RunnerFunc(func(ctx context.Context, command string) error {
		got = command
		return nil
	})

	if err := r.Run(context.Background(), "echo test"); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if got != "echo test" {
		t.Errorf("command = %q, want %q", got, "echo test")
	}
}
