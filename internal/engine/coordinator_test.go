package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinator_CheckpointPassesWhenRunning(t *testing.T) {
	c := NewCoordinator()
	if !c.Checkpoint() {
		t.Fatal("Checkpoint() = false on a fresh coordinator")
	}
}

func TestCoordinator_SuspendBlocksUntilResume(t *testing.T) {
	c := NewCoordinator()
	c.Suspend()

	var passed atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		passed.Store(c.Checkpoint())
	}()

	select {
	case <-done:
		t.Fatal("Checkpoint returned while suspended")
	case <-time.After(30 * time.Millisecond):
	}

	c.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Checkpoint did not return after Resume")
	}
	if !passed.Load() {
		t.Error("Checkpoint() = false after Resume, want true")
	}
	if c.Suspended() {
		t.Error("Suspended() = true after Resume")
	}
}

func TestCoordinator_StopWakesSuspendedWaiter(t *testing.T) {
	c := NewCoordinator()
	c.Suspend()

	result := make(chan bool, 1)
	go func() { result <- c.Checkpoint() }()

	time.Sleep(10 * time.Millisecond)
	c.Stop()

	select {
	case ok := <-result:
		if ok {
			t.Error("Checkpoint() = true after Stop, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Stop did not wake the waiter")
	}
	if !c.Stopped() {
		t.Error("Stopped() = false")
	}
	// Resume after Stop does not revive the coordinator.
	c.Resume()
	if c.Checkpoint() {
		t.Error("Checkpoint() = true after Stop and Resume")
	}
}

func TestCoordinator_IndependentPerProcess(t *testing.T) {
	a, b := NewCoordinator(), NewCoordinator()
	a.Suspend()
	if b.Suspended() {
		t.Fatal("suspending one coordinator affected another")
	}
	if !b.Checkpoint() {
		t.Fatal("unrelated coordinator blocked")
	}
}
