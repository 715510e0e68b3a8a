package engine

import (
	"sync/atomic"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/me/cpusched/pkg/model"
)

// Accounting holds the run-wide counters and the timing arithmetic the
// dispatchers share.
type Accounting struct {
	unit     time.Duration
	switches atomic.Int64
}

// NewAccounting creates counters for a run whose trace times are expressed in
// multiples of unit.
func NewAccounting(unit time.Duration) *Accounting {
	return &Accounting{unit: unit}
}

// ContextSwitches returns the number of dispatch visits so far.
func (a *Accounting) ContextSwitches() int64 { return a.switches.Load() }

func (a *Accounting) countSwitch() { a.switches.Add(1) }

// AddBurst accounts the wall time between before and after to p.
func (a *Accounting) AddBurst(p *Process, before, after time.Time) time.Duration {
	d := time.Duration(ElapsedMicros(before, after)) * time.Microsecond
	p.addBurst(d)
	return d
}

// ElapsedMicros returns after-before in whole microseconds. The result is
// never negative.
func ElapsedMicros(before, after time.Time) int64 {
	us := after.Sub(before).Microseconds()
	if us < 0 {
		return 0
	}
	return us
}

// Classify returns the terminal state of a process that finished elapsed
// after the run started.
func (a *Accounting) Classify(p *Process, elapsed time.Duration) model.ProcessState {
	if elapsed <= time.Duration(p.spec.Deadline)*a.unit {
		return model.ProcessStateSuccess
	}
	return model.ProcessStateDeadline
}

// QuantumFor returns the Priority slice of p at elapsed run time.
func (a *Accounting) QuantumFor(p *Process, elapsed, maxQuantum time.Duration) time.Duration {
	alpha := float64(elapsed) / float64(time.Duration(p.spec.Deadline)*a.unit)
	return PriorityQuantum(p.baseQuantum, maxQuantum, alpha)
}

// PriorityQuantum interpolates linearly from base to max as alpha goes from
// 0 to 1 and caps the result at max. A base above max is lowered to max.
func PriorityQuantum(base, maxQuantum time.Duration, alpha float64) time.Duration {
	base = clamp(base, 0, maxQuantum)
	if alpha < 0 {
		alpha = 0
	}
	q := float64(base)*(1-alpha) + float64(maxQuantum)*alpha
	return clamp(time.Duration(q), base, maxQuantum)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
