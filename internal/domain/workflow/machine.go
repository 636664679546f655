package workflow

import "fmt"

// lifecycle is the single permitted transition table for expense packages:
// CREATED -> PENDING -> {APPROVED -> PAID} | DENIED. Nothing re-enters
// CREATED, and approval requires a prior SUBMIT.
var lifecycle = map[State]map[Trigger]State{
	StateCreated: {
		TriggerSubmit: StatePending,
	},
	StatePending: {
		TriggerApprove: StateApproved,
		TriggerDeny:    StateDenied,
	},
	StateApproved: {
		TriggerWithdraw: StatePaid,
	},
}

// Machine tracks the current state of one expense package and validates
// transitions against the lifecycle table.
type Machine struct {
	current State
}

// NewMachine creates a state machine positioned at the given state
func NewMachine(current State) (*Machine, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, current)
	}
	return &Machine{current: current}, nil
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := lifecycle[m.current][trigger]
	return ok
}

// Fire executes the trigger, transitioning to the new state if allowed,
// and returns the resulting state.
func (m *Machine) Fire(trigger Trigger) (State, error) {
	next, ok := lifecycle[m.current][trigger]
	if !ok {
		return m.current, fmt.Errorf("%w: cannot fire trigger %s from state %s",
			ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return next, nil
}

// PermittedTriggers returns all triggers that can be fired in the current state
func (m *Machine) PermittedTriggers() []Trigger {
	transitions := lifecycle[m.current]
	triggers := make([]Trigger, 0, len(transitions))
	for trigger := range transitions {
		triggers = append(triggers, trigger)
	}
	return triggers
}
