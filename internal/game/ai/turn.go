package ai

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/farkle/internal/game/match"
)

// ErrNoScoringDice is returned when the policy is asked to decide on dice
// with no scoring subset. The engine ends such a turn as a bust before a
// decision is needed, so this signals a state the table should not reach.
var ErrNoScoringDice = errors.New("no scoring dice")

// Actions returns the table actions that carry out d: one Toggle per die in
// Lock, in order, then Commit to keep rolling or Bank to stop. A decision
// with nothing to lock has no actions.
func (d Decision) Actions() []match.Action {
	if len(d.Lock) == 0 {
		return nil
	}
	out := make([]match.Action, 0, len(d.Lock)+1)
	for _, i := range d.Lock {
		out = append(out, match.Toggle{Index: i})
	}
	if d.Reroll {
		return append(out, match.Commit{})
	}
	return append(out, match.Bank{})
}

// Turn plays the active player's turn for a policy one action at a time,
// so a caller can show each die being set aside.
//
// A Turn is not safe for concurrent use.
type Turn struct {
	policy  *Policy
	pending []match.Action
	last    Decision
}

// NewTurn starts a turn driven by p.
//
// Precondition: p must be non-nil.
func NewTurn(p *Policy) *Turn {
	if p == nil {
		panic("ai.NewTurn: policy must not be nil")
	}
	return &Turn{policy: p}
}

// Next returns the action to apply to st. It rolls at the start of the turn
// and after a commit, and otherwise consults the policy and replays its
// decision die by die. ok is false once st is no longer one the active
// player acts in.
func (t *Turn) Next(st match.State) (a match.Action, ok bool, err error) {
	if len(t.pending) > 0 {
		a, t.pending = t.pending[0], t.pending[1:]
		return a, true, nil
	}
	switch st.Phase {
	case match.PhaseRolling:
		return match.Roll{}, true, nil
	case match.PhaseSelecting:
		if st.Committed {
			return match.Roll{}, true, nil
		}
	default:
		return nil, false, nil
	}

	active, opp := st.ActivePlayer(), st.Opponent()
	d := t.policy.Decide(Input{
		Dice:          st.Dice,
		TurnScore:     active.TurnScore,
		TotalScore:    active.TotalScore,
		OpponentScore: opp.TotalScore,
		TargetScore:   st.TargetScore,
	})
	t.pending = d.Actions()
	if len(t.pending) == 0 {
		return nil, false, fmt.Errorf("decision on %s: %w", st.Dice, ErrNoScoringDice)
	}
	t.last = d
	a, t.pending = t.pending[0], t.pending[1:]
	return a, true, nil
}

// Revealing reports whether a decision is part way through being applied.
func (t *Turn) Revealing() bool {
	return len(t.pending) > 0
}

// Last returns the most recent decision.
func (t *Turn) Last() Decision {
	return t.last
}

// Play applies Next until the turn is over and returns the final state:
// banked, bust, or won.
func (t *Turn) Play(e *match.Engine, st match.State) (match.State, error) {
	seat := st.Active
	for st.Active == seat {
		a, ok, err := t.Next(st)
		if err != nil {
			return st, err
		}
		if !ok {
			return st, nil
		}
		if st, err = e.Apply(st, a); err != nil {
			return st, fmt.Errorf("%s: %w", a, err)
		}
	}
	return st, nil
}
