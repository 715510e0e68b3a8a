package engine

import (
	"sync/atomic"
	"time"

	"github.com/me/cpusched/pkg/model"
)

// Process is the runtime record of one simulated process. The dispatcher is
// its only writer; accounting fields live in atomics so the status surfaces
// can read them while a run is in flight.
type Process struct {
	spec     model.ProcessSpec
	priority int
	index    int // position in the trace
	budget   time.Duration

	baseQuantum  time.Duration
	quantum      atomic.Int64
	currentBurst atomic.Int64
	state        atomic.Value // model.ProcessState
	dispatched   atomic.Bool
	realStart    atomic.Int64
	realEnd      atomic.Int64
	visits       atomic.Int64

	unit *Unit
}

func newProcess(spec model.ProcessSpec, index int, alg model.Algorithm, cfg Config) *Process {
	p := &Process{
		spec:     spec,
		priority: PriorityKey(spec, alg),
		index:    index,
		budget:   cfg.units(spec.BurstTime),
	}
	p.state.Store(model.ProcessStateWaiting)
	return p
}

// Name returns the process name.
func (p *Process) Name() string { return p.spec.Name }

// Spec returns the immutable trace record.
func (p *Process) Spec() model.ProcessSpec { return p.spec }

// Priority returns the sort key computed for the run's algorithm.
func (p *Process) Priority() int { return p.priority }

// State returns the current lifecycle state.
func (p *Process) State() model.ProcessState {
	return p.state.Load().(model.ProcessState)
}

// CurrentBurst returns the CPU time accounted so far.
func (p *Process) CurrentBurst() time.Duration {
	return time.Duration(p.currentBurst.Load())
}

// Quantum returns the slice granted on the latest dispatch (the base quantum
// before the first one). Zero means unbounded.
func (p *Process) Quantum() time.Duration {
	if q := p.quantum.Load(); q > 0 {
		return time.Duration(q)
	}
	return p.baseQuantum
}

// BaseQuantum returns the quantum assigned when the registry was ordered.
func (p *Process) BaseQuantum() time.Duration { return p.baseQuantum }

// Visits returns how many times the dispatcher has run this process.
func (p *Process) Visits() int64 { return p.visits.Load() }

// Unit returns the execution handle, nil before the first dispatch.
func (p *Process) Unit() *Unit { return p.unit }

// transition moves the process to next, rejecting moves the lifecycle forbids.
func (p *Process) transition(next model.ProcessState) error {
	cur := p.State()
	if cur == next {
		return nil
	}
	if !cur.CanTransitionTo(next) {
		return &model.InvalidTransitionError{Process: p.spec.Name, From: cur, To: next}
	}
	p.state.Store(next)
	return nil
}

// addBurst accounts d more CPU time. Negative deltas are ignored so the
// counter never decreases.
func (p *Process) addBurst(d time.Duration) {
	if d > 0 {
		p.currentBurst.Add(int64(d))
	}
}

func (p *Process) exhausted() bool {
	return p.CurrentBurst() >= p.budget
}

func (p *Process) markStarted(at time.Duration) {
	if p.dispatched.CompareAndSwap(false, true) {
		p.realStart.Store(int64(at))
	}
}

func (p *Process) markEnded(at time.Duration) {
	if start := time.Duration(p.realStart.Load()); at < start {
		at = start
	}
	p.realEnd.Store(int64(at))
}

// Snapshot returns a read-only copy of the process for display.
func (p *Process) Snapshot() model.ProcessSnapshot {
	return model.ProcessSnapshot{
		Name:         p.spec.Name,
		StartTime:    p.spec.StartTime,
		Deadline:     p.spec.Deadline,
		BurstTime:    p.spec.BurstTime,
		Priority:     p.priority,
		Quantum:      p.Quantum(),
		CurrentBurst: p.CurrentBurst(),
		State:        p.State(),
		Dispatched:   p.dispatched.Load(),
		Visits:       p.Visits(),
		RealStart:    time.Duration(p.realStart.Load()),
		RealEnd:      time.Duration(p.realEnd.Load()),
	}
}

// Result returns the final outcome of the process.
func (p *Process) Result() model.ProcessResult {
	return model.ProcessResult{
		Name:         p.spec.Name,
		Deadline:     p.spec.Deadline,
		StartTime:    p.spec.StartTime,
		BurstTime:    p.spec.BurstTime,
		State:        p.State(),
		Dispatched:   p.dispatched.Load(),
		Visits:       p.Visits(),
		RealStart:    time.Duration(p.realStart.Load()),
		RealEnd:      time.Duration(p.realEnd.Load()),
		CurrentBurst: p.CurrentBurst(),
	}
}
