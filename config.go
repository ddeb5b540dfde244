package queuectl

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted in Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the persisted queue configuration (config.json). It travels
// with the data directory so that every producer and worker sharing the
// aggregate agrees on the retry policy.
type Config struct {
	// MaxRetries is the default retry ceiling for jobs without a
	// per-job override.
	MaxRetries int `json:"max_retries"`

	// BackoffBase is the exponent base for the retry delay: a job that
	// has failed n times waits BackoffBase^(n-1) seconds.
	BackoffBase float64 `json:"backoff_base"`

	// Backend selects the storage backend ("file" or "sqlite").
	Backend string `json:"backend"`
}

// DefaultConfig returns a Config with the stock defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		BackoffBase: 2,
		Backend:     BackendFile,
	}
}

// LoadConfig reads the config file at path. If the file does not exist,
// the defaults are written to it and returned (first-run behavior).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if saveErr := cfg.Save(path); saveErr != nil {
			return Config{}, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, &PersistenceError{Op: "read", Path: path, Err: err}
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &PersistenceError{Op: "parse", Path: path, Err: err}
	}
	return cfg, nil
}

// Save writes the config file at path.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Set updates the named key from its string form, coercing numeric
// values. Unknown keys and malformed values are rejected.
func (c *Config) Set(key, value string) error {
	switch key {
	case "max_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("queuectl: max_retries must be a non-negative integer, got %q", value)
		}
		c.MaxRetries = n
	case "backoff_base":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("queuectl: backoff_base must be a positive number, got %q", value)
		}
		c.BackoffBase = f
	case "backend":
		if value != BackendFile && value != BackendSQLite {
			return fmt.Errorf("queuectl: backend must be %q or %q, got %q", BackendFile, BackendSQLite, value)
		}
		c.Backend = value
	default:
		return fmt.Errorf("queuectl: unknown config key %q", key)
	}
	return nil
}

// Get returns the named key's current value.
func (c Config) Get(key string) (any, error) {
	switch key {
	case "max_retries":
		return c.MaxRetries, nil
	case "backoff_base":
		return c.BackoffBase, nil
	case "backend":
		return c.Backend, nil
	default:
		return nil, fmt.Errorf("queuectl: unknown config key %q", key)
	}
}

// Runtime holds process-level tuning read from the environment. Unlike
// Config it is never persisted; each process resolves its own values.
type Runtime struct {
	// DataDir is the directory holding the aggregate, config, lock
	// marker, and stop file.
	DataDir string `env:"QUEUECTL_DATA_DIR" envDefault:"."`

	// LockTimeout bounds how long a store operation waits for the
	// marker-file lock before failing with ErrLockTimeout.
	LockTimeout time.Duration `env:"QUEUECTL_LOCK_TIMEOUT" envDefault:"5s"`

	// LockPollInterval is the sleep between lock acquisition attempts.
	LockPollInterval time.Duration `env:"QUEUECTL_LOCK_POLL" envDefault:"50ms"`

	// IdleInterval is how long a worker sleeps when no pending job exists.
	IdleInterval time.Duration `env:"QUEUECTL_IDLE_INTERVAL" envDefault:"500ms"`

	// HeartbeatInterval is how often a running pool refreshes its
	// worker registration.
	HeartbeatInterval time.Duration `env:"QUEUECTL_HEARTBEAT_INTERVAL" envDefault:"10s"`

	// CronTickInterval is how often the cron scheduler checks for due
	// entries.
	CronTickInterval time.Duration `env:"QUEUECTL_CRON_TICK" envDefault:"1s"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `env:"QUEUECTL_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// LoadRuntime resolves Runtime from the environment.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("queuectl: parse environment: %w", err)
	}
	return rt, nil
}
