package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/dice"
	"github.com/cory-johannsen/farkle/internal/game/scoring"
)

// BiasHook is the Lua function a challenger script may define to nudge the
// continue probability.
const BiasHook = "continue_bias"

// ScriptCaller is the interface required by the Policy to evaluate
// challenger bias hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Input is everything the policy sees when deciding.
type Input struct {
	Dice          dice.Set
	TurnScore     int
	TotalScore    int
	OpponentScore int
	TargetScore   int
}

// Reason explains which rule produced a Decision.
type Reason int

const (
	// ReasonBust means no unlocked subset scores.
	ReasonBust Reason = iota
	// ReasonWinNow means banking the best subset reaches the target.
	ReasonWinNow
	// ReasonForcedCommit means every unlocked die scores together.
	ReasonForcedCommit
	// ReasonStraight means the unlocked dice complete a straight with
	// every extra die scoring.
	ReasonStraight
	// ReasonRisk means the continue decision was sampled.
	ReasonRisk
)

func (r Reason) String() string {
	switch r {
	case ReasonBust:
		return "bust"
	case ReasonWinNow:
		return "win_now"
	case ReasonForcedCommit:
		return "forced_commit"
	case ReasonStraight:
		return "straight"
	case ReasonRisk:
		return "risk"
	default:
		return "unknown"
	}
}

// Decision is the policy's answer: which dice to lock and whether to reroll
// the rest afterwards.
type Decision struct {
	Reroll bool
	// Lock holds positions in the full six-die set, ascending.
	Lock   []int
	Reason Reason
	// ContinueProbability is the probability the Reroll draw was sampled
	// against; 1 or 0 for the deterministic rules.
	ContinueProbability float64
}

// Policy decides computer turns for one difficulty tier.
//
// Invariant: src and logger are non-nil.
type Policy struct {
	difficulty Difficulty
	tuning     Tuning
	src        dice.Source
	logger     *zap.Logger
	caller     ScriptCaller
	scope      string
}

// NewPolicy constructs a Policy.
//
// Precondition: src and logger must not be nil.
func NewPolicy(difficulty Difficulty, tuning Tuning, src dice.Source, logger *zap.Logger) *Policy {
	if src == nil {
		panic("ai.NewPolicy: src must not be nil")
	}
	if logger == nil {
		panic("ai.NewPolicy: logger must not be nil")
	}
	return &Policy{difficulty: difficulty, tuning: tuning, src: src, logger: logger}
}

// WithScript returns a copy of p that consults the BiasHook in scope.
func (p *Policy) WithScript(caller ScriptCaller, scope string) *Policy {
	cp := *p
	cp.caller = caller
	cp.scope = scope
	return &cp
}

// Difficulty returns the tier this policy plays at.
func (p *Policy) Difficulty() Difficulty {
	return p.difficulty
}

// Decide chooses the dice to lock and whether to reroll.
//
// Postcondition: Lock is the top-ranked scoring subset of the unlocked dice,
// or every unlocked die when they all score together; when no subset scores
// the zero-value decision with ReasonBust is returned.
func (p *Policy) Decide(in Input) Decision {
	unlocked := in.Dice.Unlocked()
	faces := in.Dice.Faces(unlocked)
	best, ok := scoring.Best(faces)
	if !ok {
		return Decision{Reason: ReasonBust}
	}
	lock := mapIndices(unlocked, best.Indices)

	if in.TotalScore+in.TurnScore+best.Score >= in.TargetScore {
		return p.log(in, Decision{Lock: lock, Reason: ReasonWinNow})
	}

	// The top-ranked subset covers every unlocked die exactly when the
	// whole unlocked set is legal, since size ranks first.
	if best.Size() == len(unlocked) {
		reason := ReasonForcedCommit
		if scoring.ContainsStraight(faces) {
			reason = ReasonStraight
		}
		return p.log(in, Decision{Reroll: true, Lock: lock, Reason: reason, ContinueProbability: 1})
	}

	prob := p.ContinueProbability(in.TurnScore+best.Score, best.Score, len(unlocked)-best.Size(), in.OpponentScore, in.TargetScore)
	return p.log(in, Decision{
		Reroll:              p.src.Float64() < prob,
		Lock:                lock,
		Reason:              ReasonRisk,
		ContinueProbability: prob,
	})
}

// ContinueProbability returns the probability of rerolling after committing
// a subset worth subsetScore that leaves remaining dice unlocked, with the
// turn total projected to potential.
//
// Postcondition: the result is in [0, 1]; outside the aggressive tier's
// final adjustments it is in [MinContinue, MaxContinue].
func (p *Policy) ContinueProbability(potential, subsetScore, remaining, opponentScore, target int) float64 {
	if remaining == 0 {
		return 1
	}
	t := p.tuning
	closing := target-opponentScore <= ClosingDistance

	risk := t.Base
	switch {
	case remaining >= 4:
		risk += t.ManyDiceBonus
		if remaining >= 5 {
			risk += t.FiveDiceBonus
		}
	case remaining == 3:
		risk += t.ThreeDiceBonus
	default:
		risk += t.FewDicePenalty
		if t.CautionBelow == 0 || potential < t.CautionBelow {
			risk += t.FewDiceCaution
		}
	}

	switch {
	case potential >= bigTurnScore:
		risk += bigTurnDelta
	case potential >= HighValueScore:
		risk += highTurnDelta
	case potential <= smallTurnScore:
		risk += smallTurnDelta
	}

	if closing {
		switch {
		case remaining > 2:
			risk += closingAggression
		case potential >= protectScore:
			risk += closingProtect
		default:
			risk += closingChase
		}
	}

	risk += p.scriptBias(potential, remaining, opponentScore, target)

	if subsetScore >= HighValueScore {
		if remaining >= 4 {
			return highValueMany
		}
		return highValueFew
	}
	if closing && potential < protectScore && remaining > 2 {
		return closingChaseProb
	}

	prob := clamp(risk, MinContinue, MaxContinue)
	if t.Aggressive {
		switch {
		case remaining <= 2:
			prob *= t.FewDiceScale
		case potential >= HighValueScore:
			prob = t.HighTurnProbability
		case prob < t.Floor:
			prob = t.Floor
		}
	}
	return prob
}

// scriptBias calls the challenger's BiasHook. Script errors and non-numeric
// results contribute no bias.
func (p *Policy) scriptBias(potential, remaining, opponentScore, target int) float64 {
	if p.caller == nil {
		return 0
	}
	ret, err := p.caller.CallHook(p.scope, BiasHook,
		lua.LNumber(potential),
		lua.LNumber(remaining),
		lua.LNumber(opponentScore),
		lua.LNumber(target),
	)
	if err != nil {
		p.logger.Warn("continue bias hook failed",
			zap.String("scope", p.scope),
			zap.Error(err),
		)
		return 0
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0
	}
	return float64(n)
}

func (p *Policy) log(in Input, d Decision) Decision {
	p.logger.Debug("computer decision",
		zap.Stringer("difficulty", p.difficulty),
		zap.Stringer("dice", in.Dice),
		zap.Ints("lock", d.Lock),
		zap.Bool("reroll", d.Reroll),
		zap.Stringer("reason", d.Reason),
		zap.Float64("p_continue", d.ContinueProbability),
	)
	return d
}

// mapIndices maps subset positions within the unlocked-only slice back to
// positions in the full set.
func mapIndices(unlocked, subset []int) []int {
	out := make([]int, len(subset))
	for i, j := range subset {
		out[i] = unlocked[j]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String renders the decision for logs and the console.
func (d Decision) String() string {
	action := "bank"
	if d.Reroll {
		action = "reroll"
	}
	return fmt.Sprintf("lock %v then %s (%s, p=%.2f)", d.Lock, action, d.Reason, d.ContinueProbability)
}
