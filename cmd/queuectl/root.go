package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/store"
	"github.com/manasamurali63/queuectl/store/file"
	"github.com/manasamurali63/queuectl/store/sqlite"
)

const (
	configFileName = "config.json"
	dbFileName     = "queue.db"
	stopFileName   = "workers.stop"
)

// app carries the resolved runtime environment and lazily opened
// dependencies shared by all commands.
type app struct {
	runtime queuectl.Runtime
	cfg     queuectl.Config
	logger  *slog.Logger

	// flag values, bound on the root command
	dataDir  string
	backend  string
	logLevel string

	st store.Store
}

func newApp() (*app, error) {
	rt, err := queuectl.LoadRuntime()
	if err != nil {
		return nil, err
	}
	return &app{runtime: rt}, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "queuectl",
		Short:         "A file-persisted background job queue for shell commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", a.runtime.DataDir,
		"directory holding the queue state")
	root.PersistentFlags().StringVar(&a.backend, "backend", "",
		"storage backend override (file or sqlite)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	root.AddCommand(
		newEnqueueCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newStatusCmd(a),
		newWorkerCmd(a),
		newDLQCmd(a),
		newCronCmd(a),
		newConfigCmd(a),
		newLockCmd(a),
	)
	return root
}

// setup resolves the logger and persisted config. Runs before every
// command.
func (a *app) setup() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", a.dataDir, err)
	}

	cfg, err := queuectl.LoadConfig(a.configPath())
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) configPath() string {
	return filepath.Join(a.dataDir, configFileName)
}

func (a *app) stopFilePath() string {
	return filepath.Join(a.dataDir, stopFileName)
}

// backendName resolves the effective backend: the --backend flag wins
// over the persisted config.
func (a *app) backendName() string {
	if a.backend != "" {
		return a.backend
	}
	return a.cfg.Backend
}

// openStore opens the selected backend on first use.
func (a *app) openStore() (store.Store, error) {
	if a.st != nil {
		return a.st, nil
	}

	switch a.backendName() {
	case queuectl.BackendFile:
		s, err := file.Open(a.dataDir,
			file.WithLockTimeout(a.runtime.LockTimeout),
			file.WithLockPollInterval(a.runtime.LockPollInterval),
		)
		if err != nil {
			return nil, err
		}
		a.st = s
	case queuectl.BackendSQLite:
		s, err := sqlite.Open(filepath.Join(a.dataDir, dbFileName))
		if err != nil {
			return nil, err
		}
		a.st = s
	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)",
			a.backendName(), queuectl.BackendFile, queuectl.BackendSQLite)
	}
	return a.st, nil
}

func (a *app) closeStore() {
	if a.st != nil {
		_ = a.st.Close() //nolint:errcheck
	}
}
