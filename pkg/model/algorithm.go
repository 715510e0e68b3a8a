package model

import "strings"

// Algorithm identifies a dispatch discipline.
type Algorithm string

const (
	// AlgorithmSJF runs processes to completion in ascending burst order.
	AlgorithmSJF Algorithm = "sjf"

	// AlgorithmRoundRobin time-slices processes with a fixed quantum.
	AlgorithmRoundRobin Algorithm = "round_robin"

	// AlgorithmPriority time-slices processes with a quantum that grows as
	// each process's deadline approaches.
	AlgorithmPriority Algorithm = "priority"
)

// Algorithms lists every supported algorithm in their numeric-id order.
var Algorithms = []Algorithm{AlgorithmSJF, AlgorithmRoundRobin, AlgorithmPriority}

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// IsValid checks if an algorithm is recognized.
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmSJF, AlgorithmRoundRobin, AlgorithmPriority:
		return true
	}
	return false
}

// IsPreemptive reports whether the algorithm suspends processes at quantum
// boundaries.
func (a Algorithm) IsPreemptive() bool {
	return a == AlgorithmRoundRobin || a == AlgorithmPriority
}

// ParseAlgorithm accepts a name ("sjf", "round-robin", "rr", "priority") or
// the numeric ids 1, 2 and 3 used by the classic trace tooling.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "sjf", "shortest_first", "shortest-job-first":
		return AlgorithmSJF, nil
	case "2", "rr", "round_robin", "round-robin", "roundrobin":
		return AlgorithmRoundRobin, nil
	case "3", "priority", "prio", "edf":
		return AlgorithmPriority, nil
	}
	return "", NewConfigError(ErrUnknownAlgorithm, "unknown scheduling algorithm '"+s+"'")
}
