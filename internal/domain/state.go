package domain

// State is the lifecycle state of the download orchestrator
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCanceling State = "canceling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

var transitions = map[State][]State{
	StateIdle:      {StateRunning},
	StateRunning:   {StateCanceling, StateCompleted, StateFailed},
	StateCanceling: {StateCanceled},
	StateCompleted: {StateIdle},
	StateFailed:    {StateIdle},
	StateCanceled:  {StateIdle},
}

// CanTransitionTo reports whether moving from s to next is a legal transition
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether a session exists in this state
func (s State) IsActive() bool {
	return s == StateRunning || s == StateCanceling
}

// IsTerminal reports whether s is one of the outcomes of a download
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}
