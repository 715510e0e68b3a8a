package model

import "time"

// ProcessResult is the final outcome of one process in a run.
type ProcessResult struct {
	Name         string        `json:"name" yaml:"name"`
	Deadline     int           `json:"deadline" yaml:"deadline"`
	StartTime    int           `json:"start_time" yaml:"start_time"`
	BurstTime    int           `json:"burst_time" yaml:"burst_time"`
	State        ProcessState  `json:"state" yaml:"state"`
	Dispatched   bool          `json:"dispatched" yaml:"dispatched"`
	Visits       int64         `json:"visits" yaml:"visits"`
	RealStart    time.Duration `json:"real_start_ns" yaml:"real_start"`
	RealEnd      time.Duration `json:"real_end_ns" yaml:"real_end"`
	CurrentBurst time.Duration `json:"current_burst_ns" yaml:"current_burst"`
}

// MetDeadline reports whether the process ended no later than its deadline,
// measured in the run's time unit.
func (p ProcessResult) MetDeadline(unit time.Duration) bool {
	if !p.Dispatched || p.State == ProcessStateCancelled {
		return false
	}
	return p.RealEnd <= time.Duration(p.Deadline)*unit
}

// RunResult is the outcome of one scheduling session.
type RunResult struct {
	ID              string          `json:"id" yaml:"id"`
	Algorithm       Algorithm       `json:"algorithm" yaml:"algorithm"`
	TraceName       string          `json:"trace_name,omitempty" yaml:"trace_name,omitempty"`
	TimeUnit        time.Duration   `json:"time_unit_ns" yaml:"time_unit"`
	ContextSwitches int64           `json:"context_switches" yaml:"context_switches"`
	Processes       []ProcessResult `json:"processes" yaml:"processes"`
	StartedAt       time.Time       `json:"started_at" yaml:"started_at"`
	CompletedAt     time.Time       `json:"completed_at" yaml:"completed_at"`
	Aborted         bool            `json:"aborted,omitempty" yaml:"aborted,omitempty"`
}

// Counts aggregates the terminal states of the run's processes.
func (r *RunResult) Counts() StateCounts {
	c := StateCounts{Total: len(r.Processes)}
	for _, p := range r.Processes {
		switch p.State {
		case ProcessStateSuccess:
			c.Success++
		case ProcessStateDeadline:
			c.Deadline++
		case ProcessStateCancelled:
			c.Cancelled++
		case ProcessStateRunning:
			c.Running++
		case ProcessStateReady:
			c.Ready++
		default:
			c.Waiting++
		}
	}
	return c
}

// DeadlineCompliance returns the fraction of processes that met their deadline.
func (r *RunResult) DeadlineCompliance() float64 {
	if len(r.Processes) == 0 {
		return 0
	}
	met := 0
	for _, p := range r.Processes {
		if p.MetDeadline(r.TimeUnit) {
			met++
		}
	}
	return float64(met) / float64(len(r.Processes))
}

// RunSummary is the list view of a stored run.
type RunSummary struct {
	ID              string      `json:"id"`
	Algorithm       Algorithm   `json:"algorithm"`
	TraceName       string      `json:"trace_name,omitempty"`
	ProcessCount    int         `json:"process_count"`
	ContextSwitches int64       `json:"context_switches"`
	Counts          StateCounts `json:"counts"`
	StartedAt       time.Time   `json:"started_at"`
	CompletedAt     time.Time   `json:"completed_at"`
}
