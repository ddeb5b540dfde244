package worker

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Runner is the command-execution collaborator: given a shell command,
// a nil return means the command exited zero. A non-zero exit and a
// failure to launch are both failures — the retry policy treats them
// the same.
type Runner interface {
	Run(ctx context.Context, command string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, command string) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, command string) error {
	return f(ctx, command)
}

// ShellRunner executes commands through the system shell so that
// pipelines, redirects, and builtins like "exit 1" work.
type ShellRunner struct {
	// Shell is the interpreter binary. Defaults to /bin/sh.
	Shell string

	// Stdout and Stderr receive the command's output when set.
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellRunner creates a ShellRunner with the default shell.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: "/bin/sh"}
}

// Run executes command with "sh -c". The context is plumbed through to
// exec but workers never cancel it mid-run: a claimed job's command
// always runs to completion.
func (r *ShellRunner) Run(ctx context.Context, command string) error {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("worker: run %q: %w", command, err)
	}
	return nil
}
