// Package ai implements the computer opponent: an exhaustive scoring-subset
// search followed by a difficulty-tuned, probabilistic continue-or-bank
// decision.
//
// Each difficulty tier is a Tuning of risk constants. Tunings may be
// overridden from YAML; challenger scripts can add a further bias through a
// Lua hook.
package ai

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Difficulty is the closed set of computer skill tiers.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// Difficulties lists every tier in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty converts "easy", "medium" or "hard" (any case) to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("ai.ParseDifficulty: unknown difficulty %q", s)
	}
}

// UnmarshalYAML lets difficulties appear by name in content files.
func (d *Difficulty) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Tuning is the set of risk constants for one difficulty tier. Adjustments
// are additive deltas to the continue probability.
type Tuning struct {
	// Base is the starting continue probability.
	Base float64 `yaml:"base"`
	// ManyDiceBonus applies when four or more dice would remain.
	ManyDiceBonus float64 `yaml:"many_dice_bonus"`
	// FiveDiceBonus applies on top of ManyDiceBonus when five or more remain.
	FiveDiceBonus float64 `yaml:"five_dice_bonus"`
	// ThreeDiceBonus applies when exactly three dice would remain.
	ThreeDiceBonus float64 `yaml:"three_dice_bonus"`
	// FewDicePenalty applies when two or fewer dice would remain.
	FewDicePenalty float64 `yaml:"few_dice_penalty"`
	// FewDiceCaution is an extra few-dice delta, applied only while the
	// projected turn total is below CautionBelow (0 means always).
	FewDiceCaution float64 `yaml:"few_dice_caution"`
	CautionBelow   int     `yaml:"caution_below"`

	// Aggressive enables the final-draw adjustments of the top tier.
	Aggressive bool `yaml:"aggressive"`
	// FewDiceScale multiplies the clamped probability when two or fewer
	// dice would remain.
	FewDiceScale float64 `yaml:"few_dice_scale"`
	// HighTurnProbability replaces the probability once the projected turn
	// total reaches HighValueScore.
	HighTurnProbability float64 `yaml:"high_turn_probability"`
	// Floor is the minimum probability otherwise.
	Floor float64 `yaml:"floor"`
}

// Shared adjustments, identical across tiers.
const (
	// ClosingDistance is how near the opponent must be to the target for
	// the policy to treat the opponent as closing.
	ClosingDistance = 1000
	// HighValueScore marks a committed subset (or projected turn) as
	// high-value.
	HighValueScore = 500

	bigTurnScore      = 750
	bigTurnDelta      = -0.35
	highTurnDelta     = -0.25
	smallTurnScore    = 200
	smallTurnDelta    = 0.15
	protectScore      = 400
	closingProtect    = -0.30
	closingChase      = 0.20
	closingAggression = 0.25
	highValueMany     = 0.30
	highValueFew      = 0.15
	closingChaseProb  = 0.75

	// MinContinue and MaxContinue bound every sampled probability.
	MinContinue = 0.15
	MaxContinue = 0.85
)

// DefaultTunings returns the built-in tier constants.
func DefaultTunings() map[Difficulty]Tuning {
	return map[Difficulty]Tuning{
		Easy: {
			Base:           0.30,
			ManyDiceBonus:  0.25,
			ThreeDiceBonus: 0.05,
			FewDicePenalty: -0.45,
			FewDiceCaution: -0.10,
		},
		Medium: {
			Base:           0.45,
			ManyDiceBonus:  0.25,
			ThreeDiceBonus: 0.05,
			FewDicePenalty: -0.45,
		},
		Hard: {
			Base:                0.50,
			ManyDiceBonus:       0.25,
			FiveDiceBonus:       0.15,
			ThreeDiceBonus:      0.05,
			FewDicePenalty:      -0.45,
			FewDiceCaution:      -0.05,
			CautionBelow:        300,
			Aggressive:          true,
			FewDiceScale:        0.5,
			HighTurnProbability: 0.2,
			Floor:               0.30,
		},
	}
}

// Validate reports every out-of-range constant.
func (t Tuning) Validate() error {
	var errs []error
	if t.Base < 0 || t.Base > 1 {
		errs = append(errs, fmt.Errorf("base %.2f outside [0, 1]", t.Base))
	}
	if t.CautionBelow < 0 {
		errs = append(errs, fmt.Errorf("caution_below %d must not be negative", t.CautionBelow))
	}
	if t.Aggressive {
		if t.FewDiceScale <= 0 || t.FewDiceScale > 1 {
			errs = append(errs, fmt.Errorf("few_dice_scale %.2f outside (0, 1]", t.FewDiceScale))
		}
		// Both replace the clamped probability, so a sampled continue
		// must stay strictly between certain and impossible.
		if t.HighTurnProbability <= 0 || t.HighTurnProbability >= 1 {
			errs = append(errs, fmt.Errorf("high_turn_probability %.2f outside (0, 1)", t.HighTurnProbability))
		}
		if t.Floor <= 0 || t.Floor >= 1 {
			errs = append(errs, fmt.Errorf("floor %.2f outside (0, 1)", t.Floor))
		}
	}
	return errors.Join(errs...)
}

// yamlTuningFile wraps the YAML top-level key.
type yamlTuningFile struct {
	Tunings map[string]Tuning `yaml:"tunings"`
}

// LoadTunings reads tier overrides from path and merges them over
// DefaultTunings. Tiers absent from the file keep their defaults.
//
// Postcondition: returns an error if the file cannot be parsed, names an
// unknown tier, or any resulting Tuning fails Validate.
func LoadTunings(path string) (map[Difficulty]Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadTunings: reading %q: %w", path, err)
	}
	var f yamlTuningFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ai.LoadTunings: parsing %q: %w", path, err)
	}
	out := DefaultTunings()
	for name, t := range f.Tunings {
		d, err := ParseDifficulty(name)
		if err != nil {
			return nil, fmt.Errorf("ai.LoadTunings: %w", err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("ai.LoadTunings: tier %s: %w", d, err)
		}
		out[d] = t
	}
	return out, nil
}
