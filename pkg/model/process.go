package model

import "time"

// ProcessSpec is one parsed trace record. Times are expressed in whole time
// units (seconds unless the run configures a different unit).
type ProcessSpec struct {
	Name      string `json:"name" yaml:"name"`
	Deadline  int    `json:"deadline" yaml:"deadline"`
	StartTime int    `json:"start_time" yaml:"start_time"`
	BurstTime int    `json:"burst_time" yaml:"burst_time"`
}

// ProcessSnapshot is a read-only view of a process while a run is in flight.
// Values may be slightly stale; they are meant for display.
type ProcessSnapshot struct {
	Name         string        `json:"name"`
	StartTime    int           `json:"start_time"`
	Deadline     int           `json:"deadline"`
	BurstTime    int           `json:"burst_time"`
	Priority     int           `json:"priority"`
	Quantum      time.Duration `json:"quantum_ns"`
	CurrentBurst time.Duration `json:"current_burst_ns"`
	State        ProcessState  `json:"state"`
	Dispatched   bool          `json:"dispatched"`
	Visits       int64         `json:"visits"`
	RealStart    time.Duration `json:"real_start_ns"`
	RealEnd      time.Duration `json:"real_end_ns"`
}

// StateCounts is an aggregate count of process states.
type StateCounts struct {
	Total     int `json:"total"`
	Waiting   int `json:"waiting"`
	Ready     int `json:"ready"`
	Running   int `json:"running"`
	Success   int `json:"success"`
	Deadline  int `json:"deadline"`
	Cancelled int `json:"cancelled"`
}

// CountStates calculates StateCounts from a slice of snapshots.
func CountStates(snaps []ProcessSnapshot) StateCounts {
	c := StateCounts{Total: len(snaps)}
	for _, s := range snaps {
		switch s.State {
		case ProcessStateWaiting:
			c.Waiting++
		case ProcessStateReady:
			c.Ready++
		case ProcessStateRunning:
			c.Running++
		case ProcessStateSuccess:
			c.Success++
		case ProcessStateDeadline:
			c.Deadline++
		case ProcessStateCancelled:
			c.Cancelled++
		}
	}
	return c
}

// Done reports whether every counted process has reached a terminal state.
func (c StateCounts) Done() bool {
	return c.Success+c.Deadline+c.Cancelled == c.Total
}
