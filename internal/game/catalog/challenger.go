package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// Challenger is a named computer opponent.
type Challenger struct {
	ID                string                     `yaml:"id"`
	Name              string                     `yaml:"name"`
	Description       string                     `yaml:"description"`
	Difficulty        ai.Difficulty              `yaml:"difficulty"`
	Loadout           [dice.Count]dice.VariantID `yaml:"loadout"`
	TargetScore       int                        `yaml:"target_score"`
	RewardDice        []dice.VariantID           `yaml:"reward_dice"`
	RewardProbability float64                    `yaml:"reward_probability"`
	// Script is an optional Lua file, relative to the script directory,
	// defining the challenger's continue_bias hook.
	Script string `yaml:"script"`
}

// Validate checks the challenger against c.
func (ch Challenger) Validate(c *Catalog) error {
	var errs []error
	if ch.ID == "" {
		errs = append(errs, errors.New("empty id"))
	}
	if ch.TargetScore <= 0 {
		errs = append(errs, fmt.Errorf("target_score %d must be positive", ch.TargetScore))
	}
	if ch.RewardProbability < 0 || ch.RewardProbability > 1 {
		errs = append(errs, fmt.Errorf("reward_probability %v outside [0, 1]", ch.RewardProbability))
	}
	for i, id := range ch.Loadout {
		if _, ok := c.Variant(id); !ok {
			errs = append(errs, fmt.Errorf("loadout[%d] %q: %w", i, id, ErrUnknownVariant))
		}
	}
	for _, id := range ch.RewardDice {
		if _, ok := c.Variant(id); !ok {
			errs = append(errs, fmt.Errorf("reward %q: %w", id, ErrUnknownVariant))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("challenger %q: %w", ch.ID, err)
	}
	return nil
}

// RollReward decides whether the challenger drops a reward die after a
// human win and which. Variants capped in owned are excluded before the
// uniform pick.
func (ch Challenger) RollReward(c *Catalog, src dice.Source, owned map[dice.VariantID]int) (dice.VariantID, bool) {
	if len(ch.RewardDice) == 0 || src.Float64() >= ch.RewardProbability {
		return "", false
	}
	var eligible []dice.VariantID
	for _, id := range ch.RewardDice {
		v, ok := c.Variant(id)
		if ok && owned[id] < v.MaxOwned {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}
	return eligible[src.Intn(len(eligible))], true
}

// Roster is the ordered set of challengers.
type Roster struct {
	list []Challenger
	byID map[string]int
}

type rosterFile struct {
	Challengers []Challenger `yaml:"challengers"`
}

// NewRoster validates challengers against c.
func NewRoster(c *Catalog, challengers []Challenger) (*Roster, error) {
	r := &Roster{byID: make(map[string]int, len(challengers))}
	var errs []error
	for _, ch := range challengers {
		if err := ch.Validate(c); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byID[ch.ID]; dup {
			errs = append(errs, fmt.Errorf("challenger %q: duplicate id", ch.ID))
			continue
		}
		r.byID[ch.ID] = len(r.list)
		r.list = append(r.list, ch)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return r, nil
}

// LoadChallengers reads the roster at path and validates it against c.
func LoadChallengers(path string, c *Catalog) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %q: %w", path, err)
	}
	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parsing %q: %w", path, err)
	}
	r, err := NewRoster(c, f.Challengers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// All returns the challengers in file order.
func (r *Roster) All() []Challenger {
	out := make([]Challenger, len(r.list))
	copy(out, r.list)
	return out
}

// ByID returns the challenger with id.
func (r *Roster) ByID(id string) (Challenger, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Challenger{}, false
	}
	return r.list[i], true
}
