package wizard

import (
	"errors"
)

var (
	ErrStepMismatch    = errors.New("input does not belong to the current step")
	ErrStepUnreachable = errors.New("step has not been reached yet")
	ErrNotFinalStep    = errors.New("submission is only possible from the last step")
	ErrUnauthenticated = errors.New("login required")
)

// State is the position in the wizard plus the collected draft. Reached
// is the furthest step the user has advanced to.
type State struct {
	Step    Step  `json:"step"`
	Reached Step  `json:"reached"`
	Draft   Draft `json:"draft"`
}

func NewState() State {
	return State{Step: FirstStep, Reached: FirstStep, Draft: NewDraft()}
}

// Next validates the current step's input and, when it passes, merges it
// into the draft and moves forward. On failure the returned error is a
// validation.Errors and the state is returned unchanged.
func Next(s State, in Input) (State, error) {
	if in == nil || in.Step() != s.Step {
		return s, ErrStepMismatch
	}

	if errs := in.validate(s.Draft); len(errs) > 0 {
		return s, errs
	}

	next := s
	in.merge(&next.Draft)

	if next.Step < LastStep {
		next.Step++
	}

	next.Reached = max(next.Reached, next.Step)

	return next, nil
}

// Previous keeps whatever was entered on the current step without
// validating it and moves back one step. in may be nil.
func Previous(s State, in Input) State {
	next := s

	if in != nil && in.Step() == s.Step {
		in.merge(&next.Draft)
	}

	if next.Step > FirstStep {
		next.Step--
	}

	return next
}

// JumpTo moves to an already reached step. Going forward re-validates
// every step in between from the draft, stopping at the first failure.
func JumpTo(s State, target Step) (State, error) {
	if !target.Valid() || target > s.Reached {
		return s, ErrStepUnreachable
	}

	if target <= s.Step {
		s.Step = target
		return s, nil
	}

	cur := s

	for cur.Step < target {
		next, err := Next(cur, cur.Draft.Input(cur.Step))
		if err != nil {
			return s, err
		}

		cur = next
	}

	return cur, nil
}

// Finalize validates the checkout step and returns the state whose draft
// is ready to be assembled into a policy.
func Finalize(s State, in Checkout) (State, error) {
	if s.Step != LastStep {
		return s, ErrNotFinalStep
	}

	return Next(s, in)
}
