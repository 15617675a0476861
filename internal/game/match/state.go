// Package match implements the Farkle turn state machine as a pure
// transition function over immutable match snapshots.
package match

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/scoring"
)

// DefaultTargetScore is the score a player must bank to win.
const DefaultTargetScore = 4000

// Phase is the match's position in the turn cycle.
type Phase int

const (
	// PhaseAwaitingWager is the initial phase; the human places a wager.
	PhaseAwaitingWager Phase = iota
	// PhaseRolling waits for the active player's first roll of the turn.
	PhaseRolling
	// PhaseSelecting lets the active player select and commit dice.
	PhaseSelecting
	// PhaseTurnEnded follows a bank or a bust until the turn is passed.
	PhaseTurnEnded
	// PhaseMatchOver is terminal.
	PhaseMatchOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingWager:
		return "awaiting_wager"
	case PhaseRolling:
		return "rolling"
	case PhaseSelecting:
		return "selecting"
	case PhaseTurnEnded:
		return "turn_ended"
	case PhaseMatchOver:
		return "match_over"
	default:
		return "unknown"
	}
}

// Outcome records how the most recent turn (or the match) ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeBanked
	OutcomeBust
	OutcomeWon
	OutcomeForfeit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBanked:
		return "banked"
	case OutcomeBust:
		return "bust"
	case OutcomeWon:
		return "won"
	case OutcomeForfeit:
		return "forfeit"
	default:
		return "none"
	}
}

// Player is one side of a match.
type Player struct {
	Name       string
	TotalScore int
	// TurnScore is the committed but unbanked score of the current turn.
	TurnScore int
	Computer  bool
	Loadout   [dice.Count]dice.VariantID
}

// NoWinner is the Winner value of a match that has not ended.
const NoWinner = -1

// State is an immutable snapshot of a match. All fields are values (arrays,
// not slices), so assigning a State copies it completely.
type State struct {
	ID          uuid.UUID
	Phase       Phase
	Players     [2]Player
	Active      int
	Dice        dice.Set
	RollCount   int
	TargetScore int
	Wager       int
	Winner      int
	Outcome     Outcome
	// Committed is true once at least one selection has been committed
	// since the last roll; rerolling requires it.
	Committed bool
	// LastCommit is the score of the most recent commit this turn.
	LastCommit int
}

// New creates a match awaiting its wager. Player 0 acts first.
//
// Precondition: targetScore > 0.
func New(players [2]Player, targetScore int) State {
	if targetScore <= 0 {
		targetScore = DefaultTargetScore
	}
	for i := range players {
		players[i].TotalScore = 0
		players[i].TurnScore = 0
	}
	return State{
		ID:          uuid.New(),
		Phase:       PhaseAwaitingWager,
		Players:     players,
		Dice:        dice.NewSet(players[0].Loadout),
		TargetScore: targetScore,
		Winner:      NoWinner,
	}
}

// ActivePlayer returns the player whose turn it is.
func (s State) ActivePlayer() Player {
	return s.Players[s.Active]
}

// Opponent returns the player who is not active.
func (s State) Opponent() Player {
	return s.Players[1-s.Active]
}

// Over reports whether the match is in its terminal phase.
func (s State) Over() bool {
	return s.Phase == PhaseMatchOver
}

// Selection evaluates the currently selected, unlocked dice.
func (s State) Selection() scoring.Evaluation {
	return scoring.Evaluate(s.Dice.Faces(s.Dice.Selected()))
}

// UnlockedFaces returns the faces of every unlocked die.
func (s State) UnlockedFaces() []int {
	return s.Dice.Faces(s.Dice.Unlocked())
}
