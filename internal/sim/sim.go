// Package sim plays computer-versus-computer matches in bulk to measure how
// difficulty tiers and dice loadouts perform against each other.
package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/match"
)

// DefaultMaxTurns caps a simulated match. Two policies that never bank
// cannot occur with the shipped tunings, but custom tunings might stall.
const DefaultMaxTurns = 1000

var (
	// ErrTurnLimit is returned when a match exceeds MaxTurns.
	ErrTurnLimit = errors.New("turn limit reached")
	// ErrNoMatchups is returned when Run is called without matchups.
	ErrNoMatchups = errors.New("no matchups to simulate")
)

// Entrant is one simulated player.
type Entrant struct {
	Name       string
	Difficulty ai.Difficulty
	Loadout    [dice.Count]dice.VariantID
}

// Matchup pits two entrants against each other; Players[0] moves first.
type Matchup struct {
	Players [2]Entrant
}

// String names the matchup for reports.
func (m Matchup) String() string {
	return m.Players[0].Name + " vs " + m.Players[1].Name
}

// Config controls a simulation run.
type Config struct {
	// Matches is the number of matches played per matchup.
	Matches     int
	TargetScore int
	// Workers bounds concurrent matches; zero means GOMAXPROCS.
	Workers  int
	Seed     uint64
	MaxTurns int
	// AlternateFirst swaps who moves first on every other match.
	AlternateFirst bool
}

// Outcome is the record of one simulated match, from the matchup's seat
// order regardless of who moved first.
type Outcome struct {
	Winner int
	Turns  int
	Scores [2]int
	Busts  [2]int
}

// Runner plays matchups with the given tunings.
type Runner struct {
	tunings map[ai.Difficulty]ai.Tuning
	lookup  dice.Lookup
	logger  *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: tunings covers every difficulty; lookup and logger are non-nil.
func NewRunner(tunings map[ai.Difficulty]ai.Tuning, lookup dice.Lookup, logger *zap.Logger) *Runner {
	if lookup == nil || logger == nil {
		panic("sim.NewRunner: lookup and logger must not be nil")
	}
	for _, d := range ai.Difficulties {
		if _, ok := tunings[d]; !ok {
			panic(fmt.Sprintf("sim.NewRunner: missing tuning for %s", d))
		}
	}
	return &Runner{tunings: tunings, lookup: lookup, logger: logger}
}

// Run plays cfg.Matches matches of every matchup and returns the raw
// outcomes, indexed [matchup][match]. progress, when non-nil, is called
// once per finished match from worker goroutines.
//
// Every match draws from its own seeded source derived from cfg.Seed and
// its position, so results do not depend on scheduling.
func (r *Runner) Run(ctx context.Context, cfg Config, matchups []Matchup, progress func()) ([][]Outcome, error) {
	if len(matchups) == 0 {
		return nil, ErrNoMatchups
	}
	if cfg.Matches <= 0 {
		return nil, fmt.Errorf("matches %d must be positive", cfg.Matches)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([][]Outcome, len(matchups))
	for i := range results {
		results[i] = make([]Outcome, cfg.Matches)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for mi, m := range matchups {
		for j := 0; j < cfg.Matches; j++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				src := dice.NewSeededSource(matchSeed(cfg.Seed, mi, j))
				out, err := r.Play(src, m, cfg.TargetScore, cfg.MaxTurns, cfg.AlternateFirst && j%2 == 1)
				if err != nil {
					return fmt.Errorf("%s match %d: %w", m, j, err)
				}
				results[mi][j] = out
				if progress != nil {
					progress()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.logger.Info("simulation finished",
		zap.Int("matchups", len(matchups)),
		zap.Int("matches", cfg.Matches),
		zap.Int("workers", workers),
	)
	return results, nil
}

// matchSeed spreads (seed, matchup, match) over the seed space with the
// splitmix64 finalizer.
func matchSeed(seed uint64, matchup, n int) uint64 {
	z := seed + uint64(matchup)<<32 + uint64(n) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Play runs one match to completion with src driving both the dice and the
// policies. When swap is set the second entrant moves first.
func (r *Runner) Play(src dice.Source, m Matchup, target, maxTurns int, swap bool) (Outcome, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	nop := zap.NewNop()
	engine := match.NewEngine(dice.NewLoggedRoller(src, r.lookup, nop), nop)

	seats := [2]int{0, 1}
	if swap {
		seats = [2]int{1, 0}
	}
	var players [2]match.Player
	var policies [2]*ai.Policy
	for seat, idx := range seats {
		e := m.Players[idx]
		players[seat] = match.Player{Name: e.Name, Computer: true, Loadout: e.Loadout}
		policies[seat] = ai.NewPolicy(e.Difficulty, r.tunings[e.Difficulty], src, nop)
	}

	st, err := engine.Apply(match.New(players, target), match.PlaceWager{})
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	for !st.Over() {
		if out.Turns >= maxTurns {
			return Outcome{}, fmt.Errorf("%d turns: %w", maxTurns, ErrTurnLimit)
		}
		if st, err = ai.NewTurn(policies[st.Active]).Play(engine, st); err != nil {
			return Outcome{}, err
		}
		if st.Outcome == match.OutcomeBust {
			out.Busts[seats[st.Active]]++
		}
		out.Turns++
		if st.Phase == match.PhaseTurnEnded {
			if st, err = engine.Apply(st, match.PassTurn{}); err != nil {
				return Outcome{}, err
			}
		}
	}
	out.Winner = seats[st.Winner]
	for seat, idx := range seats {
		out.Scores[idx] = st.Players[seat].TotalScore
	}
	return out, nil
}
