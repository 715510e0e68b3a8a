package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/me/cpusched/pkg/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cpusched.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.RoundRobin.Quantum != 500*time.Millisecond {
		t.Errorf("round robin quantum = %v, want 500ms", cfg.RoundRobin.Quantum)
	}
	if cfg.Limits.MaxProcesses != 100 || cfg.Limits.MaxNameLength != 16 {
		t.Errorf("limits = %+v", cfg.Limits)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.TimeUnit != time.Second {
		t.Errorf("time unit = %v, want 1s", cfg.TimeUnit)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
time_unit: 50ms
round_robin:
  quantum: 5ms
priority:
  max_quantum: 40ms
workload:
  scale: 1.5
store:
  db_path: ":memory:"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.TimeUnit != 50*time.Millisecond {
		t.Errorf("time unit = %v, want 50ms", cfg.TimeUnit)
	}
	if cfg.RoundRobin.Quantum != 5*time.Millisecond {
		t.Errorf("quantum = %v, want 5ms", cfg.RoundRobin.Quantum)
	}
	if cfg.Priority.MaxQuantum != 40*time.Millisecond {
		t.Errorf("max quantum = %v, want 40ms", cfg.Priority.MaxQuantum)
	}
	// Untouched keys keep defaults.
	if cfg.Priority.StartQuantum != 200*time.Millisecond {
		t.Errorf("start quantum = %v, want default 200ms", cfg.Priority.StartQuantum)
	}
	if cfg.Workload.Scale != 1.5 {
		t.Errorf("scale = %v, want 1.5", cfg.Workload.Scale)
	}
	if cfg.Store.DBPath != ":memory:" {
		t.Errorf("db path = %q", cfg.Store.DBPath)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
round_robin:
  quantum: 0s
limits:
  max_processes: -1
`)
	_, err := Load(path)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load: error = %v, want *model.ConfigError", err)
	}
	if cfgErr.Code != model.ErrInvalidConfig {
		t.Errorf("code = %q, want %q", cfgErr.Code, model.ErrInvalidConfig)
	}
	if len(cfgErr.Details) != 2 {
		t.Errorf("details = %v, want 2 entries", cfgErr.Details)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "round_robin: [unterminated")
	_, err := Load(path)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load: error = %v, want *model.ConfigError", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded")
	}
}
