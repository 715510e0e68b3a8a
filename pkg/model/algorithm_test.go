package model

import (
	"errors"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input string
		want  Algorithm
	}{
		{"1", AlgorithmSJF},
		{"sjf", AlgorithmSJF},
		{"SJF", AlgorithmSJF},
		{"shortest_first", AlgorithmSJF},
		{"2", AlgorithmRoundRobin},
		{"rr", AlgorithmRoundRobin},
		{"round-robin", AlgorithmRoundRobin},
		{" round_robin ", AlgorithmRoundRobin},
		{"3", AlgorithmPriority},
		{"priority", AlgorithmPriority},
		{"Priority", AlgorithmPriority},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.input)
		if err != nil {
			t.Errorf("ParseAlgorithm(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseAlgorithm_Unknown(t *testing.T) {
	for _, input := range []string{"", "0", "4", "fifo", "lottery"} {
		_, err := ParseAlgorithm(input)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("ParseAlgorithm(%q): error = %v, want *ConfigError", input, err)
			continue
		}
		if cfgErr.Code != ErrUnknownAlgorithm {
			t.Errorf("ParseAlgorithm(%q): code = %q, want %q", input, cfgErr.Code, ErrUnknownAlgorithm)
		}
	}
}

func TestAlgorithm_IsPreemptive(t *testing.T) {
	if AlgorithmSJF.IsPreemptive() {
		t.Error("SJF must not be preemptive")
	}
	if !AlgorithmRoundRobin.IsPreemptive() || !AlgorithmPriority.IsPreemptive() {
		t.Error("round robin and priority must be preemptive")
	}
	if Algorithm("fifo").IsValid() {
		t.Error("fifo must not be valid")
	}
}
