package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateCreated, false},
		{StatePending, false},
		{StateApproved, false},
		{StateDenied, true},
		{StatePaid, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateCreated, true},
		{"valid state", StatePaid, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewMachine_InvalidState(t *testing.T) {
	if _, err := NewMachine(State("BOGUS")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("NewMachine() error = %v, want ErrInvalidState", err)
	}
}

func TestMachine_HappyPath(t *testing.T) {
	m, err := NewMachine(StateCreated)
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}

	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerSubmit, StatePending},
		{TriggerApprove, StateApproved},
		{TriggerWithdraw, StatePaid},
	}

	for _, step := range steps {
		got, err := m.Fire(step.trigger)
		if err != nil {
			t.Fatalf("Fire(%s) error = %v", step.trigger, err)
		}
		if got != step.want {
			t.Errorf("Fire(%s) = %v, want %v", step.trigger, got, step.want)
		}
	}

	if !m.State().IsTerminal() {
		t.Errorf("expected terminal state, got %v", m.State())
	}
}

func TestMachine_DenyPath(t *testing.T) {
	m, _ := NewMachine(StatePending)

	got, err := m.Fire(TriggerDeny)
	if err != nil {
		t.Fatalf("Fire(DENY) error = %v", err)
	}
	if got != StateDenied {
		t.Errorf("Fire(DENY) = %v, want %v", got, StateDenied)
	}

	// Terminal: nothing may fire afterwards
	for _, trigger := range []Trigger{TriggerSubmit, TriggerApprove, TriggerDeny, TriggerWithdraw} {
		if m.CanFire(trigger) {
			t.Errorf("CanFire(%s) = true in DENIED, want false", trigger)
		}
	}
}

func TestMachine_RejectsIllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
	}{
		{"approve before submit", StateCreated, TriggerApprove},
		{"deny before submit", StateCreated, TriggerDeny},
		{"withdraw before approve", StatePending, TriggerWithdraw},
		{"resubmit pending", StatePending, TriggerSubmit},
		{"approve paid", StatePaid, TriggerApprove},
		{"withdraw denied", StateDenied, TriggerWithdraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMachine(tt.from)
			if err != nil {
				t.Fatalf("NewMachine() error = %v", err)
			}
			if _, err := m.Fire(tt.trigger); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
			}
			if m.State() != tt.from {
				t.Errorf("state changed on failed transition: %v", m.State())
			}
		})
	}
}

func TestMachine_PermittedTriggers(t *testing.T) {
	m, _ := NewMachine(StatePending)
	triggers := m.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() = %v, want 2 triggers", triggers)
	}
	seen := map[Trigger]bool{}
	for _, tr := range triggers {
		seen[tr] = true
	}
	if !seen[TriggerApprove] || !seen[TriggerDeny] {
		t.Errorf("PermittedTriggers() = %v, want APPROVE and DENY", triggers)
	}
}
