package workflow

// State represents an expense package state in the reimbursement lifecycle
type State string

const (
	StateCreated  State = "CREATED"
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateDenied   State = "DENIED"
	StatePaid     State = "PAID"
)

var validStates = map[State]bool{
	StateCreated:  true,
	StatePending:  true,
	StateApproved: true,
	StateDenied:   true,
	StatePaid:     true,
}

var terminalStates = map[State]bool{
	StateDenied: true,
	StatePaid:   true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid package state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
