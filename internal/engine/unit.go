package engine

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

var (
	// ErrStopTimeout is returned when a forced stop does not land in time.
	// The run cannot vouch for its accounting afterwards and is aborted.
	ErrStopTimeout = errors.New("workload unit did not stop in time")

	// ErrUnitStarted is returned when a unit is started a second time.
	ErrUnitStarted = errors.New("workload unit already started")
)

// Budget is the amount of simulated CPU work a unit performs: Iterations
// steps, each spinning for Grain of wall time.
type Budget struct {
	Iterations int
	Grain      time.Duration
}

// Unit is the execution handle of one simulated process: a goroutine locked
// to its own OS thread that burns through its Budget one step at a time,
// passing a Coordinator checkpoint before every step.
type Unit struct {
	name     string
	budget   Budget
	coord    *Coordinator
	step     func(time.Duration)
	started  atomic.Bool
	finished atomic.Bool
	steps    atomic.Int64
	done     chan struct{}
}

// NewUnit creates an unstarted unit for the named process.
func NewUnit(name string, budget Budget) *Unit {
	return &Unit{
		name:   name,
		budget: budget,
		coord:  NewCoordinator(),
		step:   spin,
		done:   make(chan struct{}),
	}
}

// Start launches the unit's goroutine. A unit runs at most once.
func (u *Unit) Start() error {
	if !u.started.CompareAndSwap(false, true) {
		return fmt.Errorf("unit %s: %w", u.name, ErrUnitStarted)
	}
	go u.run()
	return nil
}

func (u *Unit) run() {
	defer close(u.done)
	// The goroutine exits without unlocking, which retires the thread with it.
	runtime.LockOSThread()

	for i := 0; i < u.budget.Iterations; i++ {
		if !u.coord.Checkpoint() {
			return
		}
		u.step(u.budget.Grain)
		u.steps.Add(1)
		runtime.Gosched()
	}
	u.finished.Store(true)
}

// Suspend asks the unit to pause at its next checkpoint.
func (u *Unit) Suspend() { u.coord.Suspend() }

// Resume lets a suspended unit continue. Resuming a finished unit is a no-op.
func (u *Unit) Resume() { u.coord.Resume() }

// ForceStop discards the unit: its goroutine ends at the next checkpoint
// without starting further steps. A step already in flight runs to its end,
// so a unit stopped during its last step still raises Finished; callers
// check Finished after ForceStop returns. Work done so far is only visible
// through whatever the dispatcher already accounted. It waits up to timeout
// for the goroutine to exit.
func (u *Unit) ForceStop(timeout time.Duration) error {
	u.coord.Stop()
	if !u.started.Load() {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-u.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("unit %s: %w", u.name, ErrStopTimeout)
	}
}

// Finished reports whether the unit completed its whole budget.
func (u *Unit) Finished() bool { return u.finished.Load() }

// Started reports whether Start has been called.
func (u *Unit) Started() bool { return u.started.Load() }

// Done is closed when the unit's goroutine exits, finished or stopped.
func (u *Unit) Done() <-chan struct{} { return u.done }

// Steps returns how many budget steps have completed.
func (u *Unit) Steps() int64 { return u.steps.Load() }

// Budget returns the unit's iteration budget.
func (u *Unit) Budget() Budget { return u.budget }

// spin busy-waits for d, standing in for real CPU work.
func spin(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
