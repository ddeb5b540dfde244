package queuectl_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/manasamurali63/queuectl"
)

func TestLoadConfigWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := queuectl.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.BackoffBase != 2 {
		t.Errorf("backoff_base = %v, want 2", cfg.BackoffBase)
	}
	if cfg.Backend != queuectl.BackendFile {
		t.Errorf("backend = %q, want %q", cfg.Backend, queuectl.BackendFile)
	}

	// First load persists the defaults so later runs see the same policy.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	var onDisk map[string]any
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("config file not valid JSON: %v", err)
	}
	if got := onDisk["max_retries"]; got != float64(3) {
		t.Errorf("persisted max_retries = %v, want 3", got)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := queuectl.DefaultConfig()
	cfg.MaxRetries = 7
	cfg.BackoffBase = 3
	cfg.Backend = queuectl.BackendSQLite
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := queuectl.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != cfg {
		t.Errorf("loaded config = %+v, want %+v", got, cfg)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"max_retries": 9}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := queuectl.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxRetries != 9 {
		t.Errorf("max_retries = %d, want 9", cfg.MaxRetries)
	}
	if cfg.BackoffBase != 2 {
		t.Errorf("backoff_base = %v, want default 2", cfg.BackoffBase)
	}
}

func TestLoadConfigCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := queuectl.LoadConfig(path)
	var perr *queuectl.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("LoadConfig = %v, want *PersistenceError", err)
	}
	if perr.Op != "parse" {
		t.Errorf("op = %q, want %q", perr.Op, "parse")
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"max_retries", "5", false},
		{"max_retries", "0", false},
		{"max_retries", "-1", true},
		{"max_retries", "three", true},
		{"backoff_base", "1.5", false},
		{"backoff_base", "0", true},
		{"backoff_base", "fast", true},
		{"backend", "sqlite", false},
		{"backend", "file", false},
		{"backend", "postgres", true},
		{"unknown_key", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := queuectl.DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%q, %q) = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestConfigSetRejectionLeavesValue(t *testing.T) {
	cfg := queuectl.DefaultConfig()
	if err := cfg.Set("max_retries", "nope"); err == nil {
		t.Fatal("Set accepted malformed value")
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries = %d after rejected set, want 3", cfg.MaxRetries)
	}
}

func TestConfigGet(t *testing.T) {
	cfg := queuectl.DefaultConfig()

	v, err := cfg.Get("max_retries")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 3 {
		t.Errorf("max_retries = %v, want 3", v)
	}

	if _, err := cfg.Get("unknown_key"); err == nil {
		t.Error("Get of unknown key = nil, want error")
	}
}

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := queuectl.LoadRuntime()
	if err != nil {
		t.Fatalf("LoadRuntime: %v", err)
	}
	if rt.DataDir != "." {
		t.Errorf("data dir = %q, want %q", rt.DataDir, ".")
	}
	if rt.LockTimeout != 5*time.Second {
		t.Errorf("lock timeout = %v, want 5s", rt.LockTimeout)
	}
	if rt.IdleInterval != 500*time.Millisecond {
		t.Errorf("idle interval = %v, want 500ms", rt.IdleInterval)
	}
}

func TestLoadRuntimeFromEnvironment(t *testing.T) {
	t.Setenv("QUEUECTL_DATA_DIR", "/var/lib/queuectl")
	t.Setenv("QUEUECTL_LOCK_TIMEOUT", "2s")
	t.Setenv("QUEUECTL_CRON_TICK", "250ms")

	rt, err := queuectl.LoadRuntime()
	if err != nil {
		t.Fatalf("LoadRuntime: %v", err)
	}
	if rt.DataDir != "/var/lib/queuectl" {
		t.Errorf("data dir = %q, want /var/lib/queuectl", rt.DataDir)
	}
	if rt.LockTimeout != 2*time.Second {
		t.Errorf("lock timeout = %v, want 2s", rt.LockTimeout)
	}
	if rt.CronTickInterval != 250*time.Millisecond {
		t.Errorf("cron tick = %v, want 250ms", rt.CronTickInterval)
	}
}
