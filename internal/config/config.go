package config

import (
	"fmt"
	"os"
	"time"

	"github.com/me/cpusched/pkg/model"
	"gopkg.in/yaml.v3"
)

// Config holds configuration for a scheduling session and its surfaces.
type Config struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json

	// TimeUnit is the wall-clock length of one trace time unit.
	TimeUnit time.Duration `yaml:"time_unit"`

	RoundRobin RoundRobinConfig `yaml:"round_robin"`
	Priority   PriorityConfig   `yaml:"priority"`
	Workload   WorkloadConfig   `yaml:"workload"`
	Limits     LimitsConfig     `yaml:"limits"`
	Store      StoreConfig      `yaml:"store"`
	Status     StatusConfig     `yaml:"status"`
}

// RoundRobinConfig configures the fixed-quantum algorithm.
type RoundRobinConfig struct {
	Quantum time.Duration `yaml:"quantum"`
}

// PriorityConfig configures the deadline-proportional quantum.
type PriorityConfig struct {
	StartQuantum     time.Duration `yaml:"start_quantum"`     // quantum of the farthest deadline
	QuantumIncrement time.Duration `yaml:"quantum_increment"` // added per step toward nearer deadlines
	MaxQuantum       time.Duration `yaml:"max_quantum"`
}

// WorkloadConfig sizes the simulated CPU work of each process.
type WorkloadConfig struct {
	// Grain is the wall time spun between two suspend checkpoints.
	Grain time.Duration `yaml:"grain"`
	// Scale multiplies the burst time to get the unit's real work.
	// Below 1 units finish before their budget is accounted, above 1 they get cancelled.
	Scale float64 `yaml:"scale"`
	// Iterations, when positive, gives every unit the same fixed budget.
	Iterations int `yaml:"iterations"`
	// StopTimeout bounds how long a forced stop may take to land.
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

// LimitsConfig bounds trace input.
type LimitsConfig struct {
	MaxProcesses  int `yaml:"max_processes"`
	MaxNameLength int `yaml:"max_name_length"`
}

// StoreConfig configures run history persistence.
type StoreConfig struct {
	DBPath string `yaml:"db_path"` // empty disables persistence, ":memory:" for testing
}

// StatusConfig configures the read-only status surfaces.
type StatusConfig struct {
	Addr            string        `yaml:"addr"`             // status API listen address, empty disables it
	RefreshInterval time.Duration `yaml:"refresh_interval"` // terminal printer and SSE cadence
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		TimeUnit:  time.Second,
		RoundRobin: RoundRobinConfig{
			Quantum: 500 * time.Millisecond,
		},
		Priority: PriorityConfig{
			StartQuantum:     200 * time.Millisecond,
			QuantumIncrement: 200 * time.Millisecond,
			MaxQuantum:       2 * time.Second,
		},
		Workload: WorkloadConfig{
			Grain:       time.Millisecond,
			Scale:       0.8,
			StopTimeout: time.Second,
		},
		Limits: LimitsConfig{
			MaxProcesses:  100,
			MaxNameLength: 16,
		},
		Status: StatusConfig{
			RefreshInterval: time.Second,
		},
	}
}

// Load reads a YAML config file on top of Default. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, model.NewConfigError(model.ErrInvalidConfig, fmt.Sprintf("parse config %s: %v", path, err))
	}
	return cfg, cfg.Validate()
}

// Validate checks that every timing and limit value is usable.
func (c Config) Validate() error {
	var details []model.FieldError
	positive := func(field string, d time.Duration) {
		if d <= 0 {
			details = append(details, model.FieldError{Field: field, Message: "must be positive"})
		}
	}

	positive("time_unit", c.TimeUnit)
	positive("round_robin.quantum", c.RoundRobin.Quantum)
	positive("priority.start_quantum", c.Priority.StartQuantum)
	positive("priority.max_quantum", c.Priority.MaxQuantum)
	positive("workload.grain", c.Workload.Grain)
	positive("workload.stop_timeout", c.Workload.StopTimeout)
	if c.Priority.QuantumIncrement < 0 {
		details = append(details, model.FieldError{Field: "priority.quantum_increment", Message: "must not be negative"})
	}
	if c.Workload.Scale <= 0 && c.Workload.Iterations <= 0 {
		details = append(details, model.FieldError{Field: "workload.scale", Message: "must be positive when workload.iterations is unset"})
	}
	if c.Workload.Iterations < 0 {
		details = append(details, model.FieldError{Field: "workload.iterations", Message: "must not be negative"})
	}
	if c.Limits.MaxProcesses <= 0 {
		details = append(details, model.FieldError{Field: "limits.max_processes", Message: "must be positive"})
	}
	if c.Limits.MaxNameLength <= 0 {
		details = append(details, model.FieldError{Field: "limits.max_name_length", Message: "must be positive"})
	}
	if c.Status.RefreshInterval < 0 {
		details = append(details, model.FieldError{Field: "status.refresh_interval", Message: "must not be negative"})
	}

	if len(details) > 0 {
		return model.NewConfigError(model.ErrInvalidConfig, "invalid configuration", details...)
	}
	return nil
}
