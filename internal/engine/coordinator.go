package engine

import "sync"

// Coordinator is a level-triggered pause for one workload unit. The
// dispatcher raises and lowers the suspend flag; the unit blocks at its next
// Checkpoint while the flag is set. Each process owns its own Coordinator so
// suspending one unit never contends with another.
type Coordinator struct {
	mu        sync.Mutex
	cond      *sync.Cond
	suspended bool
	stopped   bool
}

// NewCoordinator creates a Coordinator in the running (not suspended) state.
func NewCoordinator() *Coordinator {
	c := &Coordinator{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Suspend sets the suspend flag. It does not wait for the unit to reach a
// checkpoint.
func (c *Coordinator) Suspend() {
	c.mu.Lock()
	c.suspended = true
	c.mu.Unlock()
}

// Resume clears the suspend flag and wakes the unit blocked on this
// coordinator.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	c.suspended = false
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Stop marks the coordinator stopped and wakes any waiter. Every later
// Checkpoint returns false.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Checkpoint blocks while the coordinator is suspended. The flag is
// re-checked after every wake-up, so spurious wake-ups are harmless. It
// returns false once the coordinator has been stopped.
func (c *Coordinator) Checkpoint() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.suspended && !c.stopped {
		c.cond.Wait()
	}
	return !c.stopped
}

// Suspended reports the current value of the suspend flag.
func (c *Coordinator) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

// Stopped reports whether Stop has been called.
func (c *Coordinator) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
