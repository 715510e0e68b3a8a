package engine

import (
	"math"
	"time"

	"github.com/me/cpusched/internal/config"
	"github.com/me/cpusched/pkg/model"
)

// Config holds the timing and sizing knobs of a scheduling session.
type Config struct {
	TimeUnit time.Duration

	RoundRobinQuantum        time.Duration
	PriorityStartQuantum     time.Duration
	PriorityQuantumIncrement time.Duration
	PriorityMaxQuantum       time.Duration

	Grain       time.Duration
	WorkScale   float64
	Iterations  int
	StopTimeout time.Duration

	MaxProcesses  int
	MaxNameLength int
}

// DefaultConfig returns the engine view of config.Default().
func DefaultConfig() Config {
	return FromConfig(config.Default())
}

// FromConfig extracts the engine settings from the application config.
func FromConfig(c config.Config) Config {
	return Config{
		TimeUnit:                 c.TimeUnit,
		RoundRobinQuantum:        c.RoundRobin.Quantum,
		PriorityStartQuantum:     c.Priority.StartQuantum,
		PriorityQuantumIncrement: c.Priority.QuantumIncrement,
		PriorityMaxQuantum:       c.Priority.MaxQuantum,
		Grain:                    c.Workload.Grain,
		WorkScale:                c.Workload.Scale,
		Iterations:               c.Workload.Iterations,
		StopTimeout:              c.Workload.StopTimeout,
		MaxProcesses:             c.Limits.MaxProcesses,
		MaxNameLength:            c.Limits.MaxNameLength,
	}
}

// units converts a whole number of trace time units to wall time.
func (c Config) units(n int) time.Duration {
	return time.Duration(n) * c.TimeUnit
}

// budgetFor sizes the workload of one process.
func (c Config) budgetFor(spec model.ProcessSpec) Budget {
	if c.Iterations > 0 {
		return Budget{Iterations: c.Iterations, Grain: c.Grain}
	}
	work := float64(c.units(spec.BurstTime)) * c.WorkScale
	n := int(math.Ceil(work / float64(c.Grain)))
	if n < 1 {
		n = 1
	}
	return Budget{Iterations: n, Grain: c.Grain}
}
