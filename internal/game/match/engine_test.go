package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/match"
	"github.com/cory-johannsen/farkle/internal/game/scoring"
	"github.com/cory-johannsen/farkle/internal/testutil"
)

var normalLoadout = [dice.Count]dice.VariantID{
	dice.Normal, dice.Normal, dice.Normal, dice.Normal, dice.Normal, dice.Normal,
}

func newEngine(src dice.Source) *match.Engine {
	logger := zap.NewNop()
	return match.NewEngine(dice.NewLoggedRoller(src, nil, logger), logger)
}

func newMatch(target int) match.State {
	return match.New([2]match.Player{
		{Name: "Henry", Loadout: normalLoadout},
		{Name: "Bernard", Computer: true, Loadout: normalLoadout},
	}, target)
}

// mustApply applies each action in turn and fails the test on any error.
func mustApply(t *testing.T, e *match.Engine, s match.State, actions ...match.Action) match.State {
	t.Helper()
	for _, a := range actions {
		var err error
		s, err = e.Apply(s, a)
		require.NoError(t, err, "action %s", a)
	}
	return s
}

func TestNew(t *testing.T) {
	s := newMatch(0)
	assert.Equal(t, match.PhaseAwaitingWager, s.Phase)
	assert.Equal(t, match.DefaultTargetScore, s.TargetScore)
	assert.Equal(t, match.NoWinner, s.Winner)
	assert.Equal(t, "Henry", s.ActivePlayer().Name)
	assert.Equal(t, "Bernard", s.Opponent().Name)
	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID))
	assert.Equal(t, "[- - - - - -]", s.Dice.String())
}

func TestApply_BustRoundTrip(t *testing.T) {
	e := newEngine(testutil.FacesSource(2, 2, 3, 4, 4, 6))
	s := mustApply(t, e, newMatch(4000), match.PlaceWager{Amount: 10}, match.Roll{})
	assert.Equal(t, match.PhaseTurnEnded, s.Phase)
	assert.Equal(t, match.OutcomeBust, s.Outcome)
	assert.Equal(t, 0, s.ActivePlayer().TurnScore)
	assert.Equal(t, 1, s.RollCount)
	assert.Equal(t, []int{2, 2, 3, 4, 4, 6}, s.UnlockedFaces())

	_, err := e.Apply(s, match.Toggle{Index: 0})
	assert.ErrorIs(t, err, match.ErrWrongPhase)
}

func TestApply_BustForfeitsTurnScore(t *testing.T) {
	// first roll scores a single 1; the reroll of the other five busts
	e := newEngine(testutil.FacesSource(1, 2, 3, 4, 6, 6, 2, 3, 4, 6, 6))
	s := mustApply(t, e, newMatch(4000),
		match.PlaceWager{}, match.Roll{}, match.Select{Indices: []int{0}}, match.Commit{})
	assert.Equal(t, 100, s.ActivePlayer().TurnScore)

	s = mustApply(t, e, s, match.Roll{})
	assert.Equal(t, match.OutcomeBust, s.Outcome)
	assert.Equal(t, 0, s.ActivePlayer().TurnScore)
	assert.Equal(t, 0, s.ActivePlayer().TotalScore)
	assert.True(t, s.Dice[0].Locked)
	assert.Equal(t, 1, s.Dice[0].Face)
}

func TestApply_CommitRerollBank(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 1, 2, 3, 4, 6, 5, 2, 3, 4))
	s := mustApply(t, e, newMatch(4000), match.PlaceWager{}, match.Roll{})
	require.Equal(t, match.PhaseSelecting, s.Phase)

	s = mustApply(t, e, s, match.Select{Indices: []int{0, 1}}, match.Commit{})
	assert.Equal(t, 200, s.ActivePlayer().TurnScore)
	assert.Equal(t, 200, s.LastCommit)
	assert.True(t, s.Committed)
	assert.Equal(t, []int{2, 3, 4, 5}, s.Dice.Unlocked())

	s = mustApply(t, e, s, match.Roll{})
	assert.Equal(t, 2, s.RollCount)
	assert.Equal(t, []int{5, 2, 3, 4}, s.UnlockedFaces())
	assert.Equal(t, []int{1, 1}, s.Dice.Faces([]int{0, 1}))

	// banking with a pending selection commits it first
	s = mustApply(t, e, s, match.Toggle{Index: 2}, match.Bank{})
	assert.Equal(t, match.PhaseTurnEnded, s.Phase)
	assert.Equal(t, match.OutcomeBanked, s.Outcome)
	assert.Equal(t, 250, s.ActivePlayer().TotalScore)
	assert.Equal(t, 0, s.ActivePlayer().TurnScore)
	assert.Empty(t, s.Dice.Selected())
}

func TestApply_IllegalSelectionLeavesStateUnchanged(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 1, 2, 3, 4, 6))
	s := mustApply(t, e, newMatch(4000), match.PlaceWager{}, match.Roll{}, match.Select{Indices: []int{0, 2}})

	next, err := e.Apply(s, match.Commit{})
	assert.ErrorIs(t, err, match.ErrIllegalSelection)
	assert.Equal(t, s, next)

	next, err = e.Apply(s, match.Bank{})
	assert.ErrorIs(t, err, match.ErrIllegalSelection)
	assert.Equal(t, s, next)

	// an empty selection is illegal too
	s = mustApply(t, e, s, match.Select{})
	_, err = e.Apply(s, match.Commit{})
	assert.ErrorIs(t, err, match.ErrIllegalSelection)
}

func TestApply_RequiresCommitBeforeRerollOrBank(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 1, 2, 3, 4, 6))
	s := mustApply(t, e, newMatch(4000), match.PlaceWager{}, match.Roll{})

	_, err := e.Apply(s, match.Roll{})
	assert.ErrorIs(t, err, match.ErrNothingCommitted)
	_, err = e.Apply(s, match.Bank{})
	assert.ErrorIs(t, err, match.ErrNothingCommitted)
}

func TestApply_HotDiceResetIsIdempotent(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 1, 1, 5, 5, 5))
	s := mustApply(t, e, newMatch(10000), match.PlaceWager{}, match.Roll{})
	s = mustApply(t, e, s, match.Select{Indices: []int{0, 1, 2, 3, 4, 5}})
	before := s.ActivePlayer().TurnScore

	s = mustApply(t, e, s, match.Commit{})
	assert.Equal(t, before+1500, s.ActivePlayer().TurnScore)
	assert.Equal(t, match.PhaseSelecting, s.Phase)
	assert.Equal(t, 2, s.RollCount)
	assert.False(t, s.Committed)
	for i, d := range s.Dice {
		assert.Equal(t, i, d.ID)
		assert.False(t, d.Locked, "die %d", i)
		assert.False(t, d.Selected, "die %d", i)
		assert.NotZero(t, d.Face, "die %d", i)
	}
}

func TestApply_BankReachingTargetWins(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 1, 1, 2, 3, 4))
	s := mustApply(t, e, newMatch(1000),
		match.PlaceWager{Amount: 5}, match.Roll{}, match.Select{Indices: []int{0, 1, 2}}, match.Bank{})
	assert.True(t, s.Over())
	assert.Equal(t, 0, s.Winner)
	assert.Equal(t, match.OutcomeWon, s.Outcome)
	assert.Equal(t, 1000, s.Players[0].TotalScore)

	next, err := e.Apply(s, match.PassTurn{})
	assert.ErrorIs(t, err, match.ErrWrongPhase)
	assert.Equal(t, s, next)
}

func TestApply_PassTurnReinitializesDice(t *testing.T) {
	e := newEngine(testutil.FacesSource(2, 2, 3, 4, 4, 6))
	loaded := [dice.Count]dice.VariantID{"LOADED", "LOADED", "LOADED", "LOADED", "LOADED", "LOADED"}
	s := match.New([2]match.Player{
		{Name: "Henry", Loadout: normalLoadout},
		{Name: "Bernard", Computer: true, Loadout: loaded},
	}, 4000)
	s = mustApply(t, e, s, match.PlaceWager{}, match.Roll{}, match.PassTurn{})
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, match.PhaseRolling, s.Phase)
	assert.Equal(t, match.OutcomeNone, s.Outcome)
	assert.Equal(t, 0, s.RollCount)
	for _, d := range s.Dice {
		assert.Equal(t, 0, d.Face)
		assert.Equal(t, dice.VariantID("LOADED"), d.Variant)
	}
}

func TestApply_Forfeit(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 2, 3, 4, 6, 6))
	s := mustApply(t, e, newMatch(4000), match.PlaceWager{}, match.Roll{}, match.Forfeit{Player: 0})
	assert.True(t, s.Over())
	assert.Equal(t, 1, s.Winner)
	assert.Equal(t, match.OutcomeForfeit, s.Outcome)

	_, err := e.Apply(newMatch(4000), match.Forfeit{Player: 2})
	assert.ErrorIs(t, err, match.ErrInvalidPlayer)
}

func TestApply_SelectionErrors(t *testing.T) {
	e := newEngine(testutil.FacesSource(1, 5, 2, 3, 4, 6))
	s := mustApply(t, e, newMatch(4000), match.PlaceWager{}, match.Roll{},
		match.Select{Indices: []int{0}}, match.Commit{})

	_, err := e.Apply(s, match.Toggle{Index: 0})
	assert.ErrorIs(t, err, match.ErrDieLocked)
	_, err = e.Apply(s, match.Toggle{Index: 6})
	assert.ErrorIs(t, err, match.ErrDieIndex)
	_, err = e.Apply(s, match.Select{Indices: []int{1, -1}})
	assert.ErrorIs(t, err, match.ErrDieIndex)

	s = mustApply(t, e, s, match.Toggle{Index: 1}, match.Toggle{Index: 1})
	assert.Empty(t, s.Dice.Selected())
}

func TestApply_WrongPhase(t *testing.T) {
	e := newEngine(testutil.FacesSource(1))
	s := newMatch(4000)
	for _, a := range []match.Action{match.Roll{}, match.Commit{}, match.Bank{}, match.PassTurn{}, match.Toggle{}} {
		_, err := e.Apply(s, a)
		assert.ErrorIs(t, err, match.ErrWrongPhase, "action %s", a)
	}
	_, err := e.Apply(s, match.PlaceWager{Amount: -1})
	assert.ErrorIs(t, err, match.ErrInvalidWager)
}

func TestApply_LogsBust(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	e := match.NewEngine(dice.NewLoggedRoller(testutil.FacesSource(2, 2, 3, 4, 4, 6), nil, logger), logger)
	_ = mustApply(t, e, newMatch(4000), match.PlaceWager{}, match.Roll{})
	entries := logs.FilterMessage("bust").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Henry", entries[0].ContextMap()["player"])
}

func TestNewEngine_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { match.NewEngine(nil, zap.NewNop()) })
}

// TestApply_Invariants drives random action sequences and checks that
// rejected actions never change the state, banked totals never decrease,
// and a selecting player who has not committed always has a scoring roll.
func TestApply_Invariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		e := newEngine(dice.NewSeededSource(seed))
		s := newMatch(rapid.IntRange(500, 3000).Draw(rt, "target"))

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			a := drawAction(rt)
			next, err := e.Apply(s, a)
			if err != nil {
				if next != s {
					rt.Fatalf("rejected %s changed the state", a)
				}
				continue
			}
			for p := range next.Players {
				if next.Players[p].TotalScore < s.Players[p].TotalScore {
					rt.Fatalf("%s decreased player %d total", a, p)
				}
				if next.Players[p].TurnScore < 0 {
					rt.Fatalf("%s made player %d turn score negative", a, p)
				}
			}
			if next.Phase == match.PhaseSelecting && !next.Committed &&
				!scoring.HasScoringSubset(next.UnlockedFaces()) {
				rt.Fatalf("%s left a bust roll selectable: %s", a, next.Dice)
			}
			if next.Over() && next.Winner == match.NoWinner {
				rt.Fatalf("%s ended the match without a winner", a)
			}
			s = next
		}
	})
}

func drawAction(rt *rapid.T) match.Action {
	switch rapid.IntRange(0, 7).Draw(rt, "kind") {
	case 0:
		return match.PlaceWager{Amount: rapid.IntRange(0, 100).Draw(rt, "wager")}
	case 1:
		return match.Roll{}
	case 2:
		return match.Toggle{Index: rapid.IntRange(0, 5).Draw(rt, "index")}
	case 3:
		return match.Select{Indices: rapid.SliceOfNDistinct(rapid.IntRange(0, 5), 0, 6, rapid.ID[int]).Draw(rt, "indices")}
	case 4:
		return match.Commit{}
	case 5:
		return match.Bank{}
	case 6:
		return match.PassTurn{}
	default:
		return match.Roll{}
	}
}
