package workflow

// State represents a report lifecycle state.
type State string

const (
	StateDraft           State = "DRAFT"
	StateFuture          State = "FUTURE"
	StatePendingApproval State = "PENDING_APPROVAL"
	StateRejected        State = "REJECTED"
	StateReleased        State = "RELEASED"
	StateCancelled       State = "CANCELLED"
)

var validStates = map[State]bool{
	StateDraft:           true,
	StateFuture:          true,
	StatePendingApproval: true,
	StateRejected:        true,
	StateReleased:        true,
	StateCancelled:       true,
}

var terminalStates = map[State]bool{
	StateReleased:  true,
	StateCancelled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
