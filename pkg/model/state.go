package model

// ProcessState represents the lifecycle state of a simulated process.
type ProcessState string

const (
	ProcessStateWaiting   ProcessState = "WAITING"
	ProcessStateReady     ProcessState = "READY"
	ProcessStateRunning   ProcessState = "RUNNING"
	ProcessStateSuccess   ProcessState = "SUCCESS"
	ProcessStateDeadline  ProcessState = "DEADLINE"
	ProcessStateCancelled ProcessState = "CANCELLED"
)

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if the process is in a final state.
func (s ProcessState) IsTerminal() bool {
	switch s {
	case ProcessStateSuccess, ProcessStateDeadline, ProcessStateCancelled:
		return true
	}
	return false
}

// ValidProcessTransitions defines the allowed state transitions for processes.
// WAITING and READY may jump straight to CANCELLED when a run is aborted
// before the process was ever dispatched.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateWaiting: {ProcessStateReady, ProcessStateCancelled},
	ProcessStateReady:   {ProcessStateRunning, ProcessStateCancelled},
	ProcessStateRunning: {ProcessStateReady, ProcessStateSuccess, ProcessStateDeadline, ProcessStateCancelled},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
