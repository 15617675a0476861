package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/match"
	"github.com/cory-johannsen/farkle/internal/game/sequence"
)

// StartMatch debits wager and starts a match against the configured
// challenger, or against a plain computer at the profile's difficulty.
//
// Postcondition: on error the balance is unchanged and no match runs.
func (s *Session) StartMatch(ctx context.Context, wager int) (match.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return match.State{}, ErrNotOpen
	}
	if s.active {
		return s.state, ErrMatchInProgress
	}
	if wager < 0 {
		return match.State{}, match.ErrInvalidWager
	}

	settings := s.profile.Settings
	target := settings.TargetScore
	if target <= 0 {
		target = s.cfg.TargetScore
	}
	difficulty := settings.Difficulty
	computer := match.Player{Name: fmt.Sprintf("Computer (%s)", difficulty), Computer: true}
	for i := range computer.Loadout {
		computer.Loadout[i] = dice.Normal
	}
	var challenger *catalog.Challenger
	if settings.ChallengerID != "" && s.deps.Roster != nil {
		if ch, ok := s.deps.Roster.ByID(settings.ChallengerID); ok {
			challenger = &ch
			target = ch.TargetScore
			difficulty = ch.Difficulty
			computer.Name = ch.Name
			computer.Loadout = ch.Loadout
		}
	}

	if _, err := s.profile.Debit(wager); err != nil {
		return match.State{}, fmt.Errorf("wager: %w", err)
	}
	human := match.Player{Name: s.cfg.PlayerName, Loadout: s.profile.Loadout}
	st, err := s.deps.Engine.Apply(match.New([2]match.Player{human, computer}, target), match.PlaceWager{Amount: wager})
	if err != nil {
		s.profile.Credit(wager)
		return match.State{}, err
	}
	id := ""
	if challenger != nil {
		id = challenger.ID
	}
	s.state = st
	s.active = true
	s.challenger = challenger
	s.policy = s.deps.Policies.Resolve(id, difficulty)
	s.turn = nil
	s.result = nil
	s.hasLastTurn = false
	s.saveLocked(ctx, s.profile)
	s.deps.Logger.Info("match started",
		zap.String("match", st.ID.String()),
		zap.String("opponent", computer.Name),
		zap.Int("target", target),
		zap.Int("wager", wager),
	)
	return st, nil
}

// State returns the current match snapshot and whether a match is running.
func (s *Session) State() (match.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.active
}

// Result returns the settlement of the last finished match.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// LastTurn returns the snapshot that ended the human's most recent turn,
// before the dice passed to the computer. It shows the busting roll or the
// banked total.
func (s *Session) LastTurn() (match.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTurn, s.hasLastTurn
}

// Act applies a human action. When the human's turn ends the turn passes
// and the computer's turn starts in the background.
//
// Forfeit is only accepted on the human's behalf.
//
// Postcondition: on error the match state is unchanged.
func (s *Session) Act(ctx context.Context, a match.Action) (match.State, error) {
	if f, ok := a.(match.Forfeit); ok {
		if f.Player != HumanSeat {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.state, fmt.Errorf("forfeit(%d): %w", f.Player, ErrForfeitOther)
		}
		return s.Forfeit(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return s.state, ErrNoMatch
	}
	if s.state.Active != HumanSeat {
		return s.state, ErrNotYourTurn
	}
	st, err := s.deps.Engine.Apply(s.state, a)
	if err != nil {
		return s.state, err
	}
	s.state = st
	switch st.Phase {
	case match.PhaseMatchOver:
		s.settleLocked(ctx)
	case match.PhaseTurnEnded:
		s.lastTurn = st
		s.hasLastTurn = true
		if st, err = s.deps.Engine.Apply(st, match.PassTurn{}); err != nil {
			return s.state, err
		}
		s.state = st
		s.startComputerTurnLocked()
	}
	return s.state, nil
}

// Forfeit ends the running match as a loss, cancelling any computer turn in
// progress.
func (s *Session) Forfeit(ctx context.Context) (match.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return s.state, ErrNoMatch
	}
	if s.seq != nil {
		s.seq.Cancel()
		s.seq = nil
	}
	st, err := s.deps.Engine.Apply(s.state, match.Forfeit{Player: HumanSeat})
	if err != nil {
		return s.state, err
	}
	s.state = st
	s.settleLocked(ctx)
	return st, nil
}

// Wait blocks until the computer's turn, if any, has finished.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	seq := s.seq
	s.mu.Unlock()
	if seq == nil {
		return nil
	}
	err := seq.Wait(ctx)
	if errors.Is(err, sequence.ErrCancelled) {
		return nil
	}
	return err
}

// Close cancels any running computer turn.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != nil {
		s.seq.Cancel()
		s.seq = nil
	}
}

func (s *Session) startComputerTurnLocked() {
	seq := sequence.New(s.deps.Logger)
	s.seq = seq
	s.turn = ai.NewTurn(s.policy)
	var step sequence.StepFunc
	step = func(ctx context.Context) error {
		st, more, err := s.computerStep(ctx)
		if err != nil {
			return err
		}
		if s.deps.OnUpdate != nil {
			s.deps.OnUpdate(st)
		}
		if !more {
			return sequence.ErrHalt
		}
		seq.Then("computer", s.cfg.ComputerDelay, step)
		return nil
	}
	seq.Then("computer", s.cfg.ComputerDelay, step).Start()
}

// computerStep performs one visible computer action: a roll, one die set
// aside, the commit or bank that follows, or passing the dice back. It
// reports whether another step should follow.
func (s *Session) computerStep(ctx context.Context) (match.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return s.state, false, sequence.ErrCancelled
	}
	if !s.active || s.state.Active != ComputerSeat {
		return s.state, false, nil
	}

	var a match.Action = match.PassTurn{}
	if s.state.Phase != match.PhaseTurnEnded {
		var ok bool
		var err error
		if a, ok, err = s.turn.Next(s.state); err != nil {
			return s.state, false, fmt.Errorf("computer: %w", err)
		} else if !ok {
			return s.state, false, nil
		}
	}
	st, err := s.deps.Engine.Apply(s.state, a)
	if err != nil {
		return s.state, false, fmt.Errorf("computer %s: %w", a, err)
	}
	s.state = st
	if st.Phase == match.PhaseMatchOver {
		s.settleLocked(s.ctx)
		return st, false, nil
	}
	return st, st.Active == ComputerSeat, nil
}
