package workflow

import "fmt"

// transitions maps each state to the triggers permitted in it and the states
// those triggers may land in. The lifecycle is closed, so the table is fixed
// at compile time; data-dependent choices between the listed targets (future
// cutoff, cancellation, chain exhaustion, author demotion) are made by the
// caller.
var transitions = map[State]map[Trigger][]State{
	StateDraft: {
		TriggerEdit:   {StateDraft, StateFuture},
		TriggerSubmit: {StatePendingApproval},
		TriggerDelete: nil,
	},
	StateFuture: {
		TriggerEdit:   {StateFuture, StateDraft},
		TriggerSubmit: {StatePendingApproval},
		TriggerDelete: nil,
	},
	StateRejected: {
		TriggerEdit:   {StateRejected},
		TriggerSubmit: {StatePendingApproval},
		TriggerDelete: nil,
	},
	StatePendingApproval: {
		// An author edit withdraws the report back to draft.
		TriggerEdit:    {StatePendingApproval, StateDraft},
		TriggerSubmit:  {StatePendingApproval},
		TriggerApprove: {StatePendingApproval, StateReleased, StateCancelled},
		TriggerReject:  {StateRejected},
		TriggerDelete:  nil,
	},
	StateReleased:  {TriggerDelete: nil},
	StateCancelled: {TriggerDelete: nil},
}

// CanFire returns true if the trigger is permitted in the given state.
func CanFire(state State, trigger Trigger) bool {
	perms, ok := transitions[state]
	if !ok {
		return false
	}
	_, ok = perms[trigger]
	return ok
}

// Targets returns the states the trigger may transition to from the given
// state. A nil slice with ok=true means the trigger is permitted but removes
// the report (delete).
func Targets(state State, trigger Trigger) ([]State, bool) {
	perms, ok := transitions[state]
	if !ok {
		return nil, false
	}
	targets, ok := perms[trigger]
	return targets, ok
}

// Validate checks that moving from one state to another under the trigger is
// listed in the transition table.
func Validate(from, to State, trigger Trigger) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	targets, ok := Targets(from, trigger)
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, from)
	}
	for _, t := range targets {
		if t == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s via %s", ErrInvalidTransition, from, to, trigger)
}
