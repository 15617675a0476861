package match

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/scoring"
)

var (
	// ErrWrongPhase is returned when an action is not valid in the current phase.
	ErrWrongPhase = errors.New("action not allowed in this phase")
	// ErrIllegalSelection is returned when the selected dice do not score as a whole.
	ErrIllegalSelection = errors.New("selection is not a legal scoring combination")
	// ErrNothingCommitted is returned when rerolling or banking without having
	// set aside a scoring selection since the last roll.
	ErrNothingCommitted = errors.New("no scoring dice set aside since the last roll")
	// ErrDieLocked is returned when selecting a die that is already locked.
	ErrDieLocked = errors.New("die is locked")
	// ErrDieIndex is returned for a die index outside [0, 6).
	ErrDieIndex = errors.New("die index out of range")
	// ErrInvalidWager is returned for a negative wager.
	ErrInvalidWager = errors.New("wager must not be negative")
	// ErrInvalidPlayer is returned when a Forfeit names a player other than 0 or 1.
	ErrInvalidPlayer = errors.New("player index out of range")
	// ErrUnknownAction is returned for an Action type the engine does not handle.
	ErrUnknownAction = errors.New("unknown action")
)

// Engine applies actions to match snapshots. It owns the roller so that
// every roll is sampled through the configured source and logged.
type Engine struct {
	roller *dice.Roller
	logger *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: roller and logger must be non-nil.
func NewEngine(roller *dice.Roller, logger *zap.Logger) *Engine {
	if roller == nil {
		panic("match.NewEngine: roller must not be nil")
	}
	if logger == nil {
		panic("match.NewEngine: logger must not be nil")
	}
	return &Engine{roller: roller, logger: logger}
}

// Apply advances s by a and returns the new snapshot.
//
// Postcondition: on error the returned State equals s; s itself is never
// modified since State is passed by value.
func (e *Engine) Apply(s State, a Action) (State, error) {
	next, err := e.apply(s, a)
	if err != nil {
		e.logger.Debug("action rejected",
			zap.String("match", s.ID.String()),
			zap.Stringer("action", a),
			zap.Stringer("phase", s.Phase),
			zap.Error(err),
		)
		return s, err
	}
	return next, nil
}

func (e *Engine) apply(s State, a Action) (State, error) {
	if s.Over() {
		return s, fmt.Errorf("%s: %w", a, ErrWrongPhase)
	}
	switch act := a.(type) {
	case PlaceWager:
		return e.placeWager(s, act)
	case Roll:
		return e.roll(s)
	case Toggle:
		return toggle(s, act)
	case Select:
		return selectDice(s, act)
	case Commit:
		return e.commit(s)
	case Bank:
		return e.bank(s)
	case PassTurn:
		return e.passTurn(s)
	case Forfeit:
		return e.forfeit(s, act)
	default:
		return s, fmt.Errorf("%T: %w", a, ErrUnknownAction)
	}
}

func requirePhase(s State, a Action, phases ...Phase) error {
	for _, p := range phases {
		if s.Phase == p {
			return nil
		}
	}
	return fmt.Errorf("%s during %s: %w", a, s.Phase, ErrWrongPhase)
}

func (e *Engine) placeWager(s State, a PlaceWager) (State, error) {
	if err := requirePhase(s, a, PhaseAwaitingWager); err != nil {
		return s, err
	}
	if a.Amount < 0 {
		return s, ErrInvalidWager
	}
	s.Wager = a.Amount
	s.Phase = PhaseRolling
	e.logger.Info("wager placed",
		zap.String("match", s.ID.String()),
		zap.Int("wager", a.Amount),
	)
	return s, nil
}

func (e *Engine) roll(s State) (State, error) {
	if err := requirePhase(s, Roll{}, PhaseRolling, PhaseSelecting); err != nil {
		return s, err
	}
	if s.Phase == PhaseSelecting && !s.Committed {
		return s, ErrNothingCommitted
	}
	return e.rollUnlocked(s), nil
}

// rollUnlocked rolls every unlocked die and applies the bust check.
func (e *Engine) rollUnlocked(s State) State {
	s.Dice = e.roller.Roll(s.Dice)
	s.RollCount++
	s.Committed = false
	s.Outcome = OutcomeNone
	if scoring.HasScoringSubset(s.UnlockedFaces()) {
		s.Phase = PhaseSelecting
		return s
	}
	lost := s.Players[s.Active].TurnScore
	s.Players[s.Active].TurnScore = 0
	s.Phase = PhaseTurnEnded
	s.Outcome = OutcomeBust
	e.logger.Info("bust",
		zap.String("match", s.ID.String()),
		zap.String("player", s.ActivePlayer().Name),
		zap.Stringer("dice", s.Dice),
		zap.Int("forfeited", lost),
	)
	return s
}

func checkIndex(s State, i int) error {
	if i < 0 || i >= dice.Count {
		return fmt.Errorf("die %d: %w", i, ErrDieIndex)
	}
	if s.Dice[i].Locked {
		return fmt.Errorf("die %d: %w", i, ErrDieLocked)
	}
	return nil
}

func toggle(s State, a Toggle) (State, error) {
	if err := requirePhase(s, a, PhaseSelecting); err != nil {
		return s, err
	}
	if err := checkIndex(s, a.Index); err != nil {
		return s, err
	}
	s.Dice[a.Index].Selected = !s.Dice[a.Index].Selected
	return s, nil
}

func selectDice(s State, a Select) (State, error) {
	if err := requirePhase(s, a, PhaseSelecting); err != nil {
		return s, err
	}
	for _, i := range a.Indices {
		if err := checkIndex(s, i); err != nil {
			return s, err
		}
	}
	for i := range s.Dice {
		s.Dice[i].Selected = false
	}
	for _, i := range a.Indices {
		s.Dice[i].Selected = true
	}
	return s, nil
}

// lockSelection locks the selected dice and adds their score to the turn.
func (e *Engine) lockSelection(s State) (State, error) {
	sel := s.Dice.Selected()
	ev := scoring.Evaluate(s.Dice.Faces(sel))
	if !ev.Legal() {
		return s, fmt.Errorf("%v: %w", s.Dice.Faces(sel), ErrIllegalSelection)
	}
	for _, i := range sel {
		s.Dice[i].Locked = true
		s.Dice[i].Selected = false
	}
	s.Players[s.Active].TurnScore += ev.Score
	s.Committed = true
	s.LastCommit = ev.Score
	e.logger.Info("dice committed",
		zap.String("match", s.ID.String()),
		zap.String("player", s.ActivePlayer().Name),
		zap.Stringer("selection", ev),
		zap.Int("turn_score", s.ActivePlayer().TurnScore),
	)
	return s, nil
}

func (e *Engine) commit(s State) (State, error) {
	if err := requirePhase(s, Commit{}, PhaseSelecting); err != nil {
		return s, err
	}
	s, err := e.lockSelection(s)
	if err != nil {
		return s, err
	}
	if !s.Dice.AllLocked() {
		return s, nil
	}
	e.logger.Info("hot dice",
		zap.String("match", s.ID.String()),
		zap.String("player", s.ActivePlayer().Name),
		zap.Int("turn_score", s.ActivePlayer().TurnScore),
	)
	s.Dice = dice.NewSet(s.ActivePlayer().Loadout)
	return e.rollUnlocked(s), nil
}

func (e *Engine) bank(s State) (State, error) {
	if err := requirePhase(s, Bank{}, PhaseSelecting); err != nil {
		return s, err
	}
	if len(s.Dice.Selected()) > 0 {
		var err error
		if s, err = e.lockSelection(s); err != nil {
			return s, err
		}
	}
	if !s.Committed {
		return s, ErrNothingCommitted
	}
	p := &s.Players[s.Active]
	banked := p.TurnScore
	p.TotalScore += banked
	p.TurnScore = 0
	for i := range s.Dice {
		s.Dice[i].Selected = false
	}
	if p.TotalScore >= s.TargetScore {
		s.Phase = PhaseMatchOver
		s.Winner = s.Active
		s.Outcome = OutcomeWon
	} else {
		s.Phase = PhaseTurnEnded
		s.Outcome = OutcomeBanked
	}
	e.logger.Info("turn banked",
		zap.String("match", s.ID.String()),
		zap.String("player", p.Name),
		zap.Int("banked", banked),
		zap.Int("total", p.TotalScore),
		zap.Bool("won", s.Outcome == OutcomeWon),
	)
	return s, nil
}

func (e *Engine) passTurn(s State) (State, error) {
	if err := requirePhase(s, PassTurn{}, PhaseTurnEnded); err != nil {
		return s, err
	}
	s.Players[s.Active].TurnScore = 0
	s.Active = 1 - s.Active
	s.Dice = dice.NewSet(s.ActivePlayer().Loadout)
	s.RollCount = 0
	s.Committed = false
	s.LastCommit = 0
	s.Outcome = OutcomeNone
	s.Phase = PhaseRolling
	e.logger.Debug("turn passed",
		zap.String("match", s.ID.String()),
		zap.String("player", s.ActivePlayer().Name),
	)
	return s, nil
}

func (e *Engine) forfeit(s State, a Forfeit) (State, error) {
	if a.Player != 0 && a.Player != 1 {
		return s, ErrInvalidPlayer
	}
	s.Players[s.Active].TurnScore = 0
	s.Phase = PhaseMatchOver
	s.Winner = 1 - a.Player
	s.Outcome = OutcomeForfeit
	e.logger.Info("match forfeited",
		zap.String("match", s.ID.String()),
		zap.String("player", s.Players[a.Player].Name),
	)
	return s, nil
}
