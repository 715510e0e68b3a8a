package engine

import (
	"errors"
	"testing"
	"time"
)

// noopStep makes units finish as fast as the checkpoints allow.
func noopStep(time.Duration) {}

func newTestUnit(iterations int, step func(time.Duration)) *Unit {
	u := NewUnit("t", Budget{Iterations: iterations, Grain: time.Millisecond})
	u.step = step
	return u
}

func waitDone(t *testing.T, u *Unit) {
	t.Helper()
	select {
	case <-u.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("unit did not exit")
	}
}

func TestUnit_RunsWholeBudget(t *testing.T) {
	u := newTestUnit(100, noopStep)
	if err := u.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, u)
	if !u.Finished() {
		t.Error("Finished() = false after budget")
	}
	if got := u.Steps(); got != 100 {
		t.Errorf("Steps() = %d, want 100", got)
	}
}

func TestUnit_StartTwice(t *testing.T) {
	u := newTestUnit(1, noopStep)
	if err := u.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := u.Start(); !errors.Is(err, ErrUnitStarted) {
		t.Errorf("second Start() = %v, want ErrUnitStarted", err)
	}
	waitDone(t, u)
}

func TestUnit_SuspendHaltsProgress(t *testing.T) {
	u := newTestUnit(1_000_000, func(time.Duration) { time.Sleep(100 * time.Microsecond) })
	if err := u.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	u.Suspend()
	time.Sleep(10 * time.Millisecond) // let the in-flight step land

	before := u.Steps()
	time.Sleep(30 * time.Millisecond)
	if after := u.Steps(); after != before {
		t.Errorf("steps advanced while suspended: %d -> %d", before, after)
	}

	u.Resume()
	time.Sleep(20 * time.Millisecond)
	if u.Steps() == before {
		t.Error("no progress after Resume")
	}

	if err := u.ForceStop(time.Second); err != nil {
		t.Fatalf("ForceStop: %v", err)
	}
	if u.Finished() {
		t.Error("Finished() = true after ForceStop")
	}
}

func TestUnit_ForceStopSuspended(t *testing.T) {
	u := newTestUnit(1_000_000, func(time.Duration) { time.Sleep(100 * time.Microsecond) })
	if err := u.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	u.Suspend()
	time.Sleep(5 * time.Millisecond)

	if err := u.ForceStop(time.Second); err != nil {
		t.Fatalf("ForceStop: %v", err)
	}
	steps := u.Steps()
	time.Sleep(10 * time.Millisecond)
	if u.Steps() != steps {
		t.Error("unit kept running after ForceStop")
	}
}

func TestUnit_ForceStopNeverStarted(t *testing.T) {
	u := newTestUnit(10, noopStep)
	if err := u.ForceStop(10 * time.Millisecond); err != nil {
		t.Fatalf("ForceStop on unstarted unit: %v", err)
	}
}

func TestUnit_ForceStopTimeout(t *testing.T) {
	release := make(chan struct{})
	u := newTestUnit(2, func(time.Duration) { <-release })
	if err := u.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := u.ForceStop(20 * time.Millisecond)
	if !errors.Is(err, ErrStopTimeout) {
		t.Errorf("ForceStop() = %v, want ErrStopTimeout", err)
	}
	close(release)
	waitDone(t, u)
}

func TestUnit_ResumeFinishedIsNoop(t *testing.T) {
	u := newTestUnit(3, noopStep)
	if err := u.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, u)
	u.Resume()
	if got := u.Steps(); got != 3 {
		t.Errorf("Steps() = %d after Resume of finished unit, want 3", got)
	}
}

func TestSpin(t *testing.T) {
	start := time.Now()
	spin(2 * time.Millisecond)
	if d := time.Since(start); d < 2*time.Millisecond {
		t.Errorf("spin returned after %v", d)
	}
}
