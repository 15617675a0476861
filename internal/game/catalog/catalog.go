// Package catalog loads the immutable dice-variant catalog and the
// challenger roster from YAML content files.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// Tolerance is the maximum deviation of a variant's face probabilities from 1.
const Tolerance = 1e-6

// SellRatio is the default share of the price returned when selling a die.
const SellRatio = 0.7

// ErrUnknownVariant is returned when a referenced variant is not in the catalog.
var ErrUnknownVariant = errors.New("unknown dice variant")

// variantYAML is the on-disk form of a variant. Exactly one of Faces
// (probabilities) and Weights (relative, normalized at load) is set.
type variantYAML struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Price       int       `yaml:"price"`
	SellPrice   *int      `yaml:"sell_price"`
	Sellable    bool      `yaml:"sellable"`
	Purchasable bool      `yaml:"purchasable"`
	DropRate    float64   `yaml:"drop_rate"`
	MaxOwned    int       `yaml:"max_owned"`
	Faces       []float64 `yaml:"faces"`
	Weights     []float64 `yaml:"weights"`
}

type catalogFile struct {
	Variants []variantYAML `yaml:"variants"`
	Sets     []setYAML     `yaml:"sets"`
}

// Catalog is the read-only set of die variants.
//
// Invariant: every variant's face probabilities sum to 1 within Tolerance;
// the NORMAL variant is always present.
type Catalog struct {
	byID  map[dice.VariantID]dice.Variant
	order []dice.VariantID
	sets  []Set
}

// New validates variants and builds a Catalog. A uniform NORMAL variant is
// added when the list does not define one.
//
// Postcondition: returns an error naming every invalid variant.
func New(variants []dice.Variant) (*Catalog, error) {
	c := &Catalog{byID: make(map[dice.VariantID]dice.Variant, len(variants)+1)}
	var errs []error
	for _, v := range variants {
		if err := validate(v); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byID[v.ID]; dup {
			errs = append(errs, fmt.Errorf("variant %q: duplicate id", v.ID))
			continue
		}
		c.byID[v.ID] = v
		c.order = append(c.order, v.ID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if _, ok := c.byID[dice.Normal]; !ok {
		n := dice.Uniform(dice.Normal)
		n.Name = "Normal die"
		n.Purchasable = true
		c.byID[dice.Normal] = n
		c.order = append([]dice.VariantID{dice.Normal}, c.order...)
	}
	return c, nil
}

func validate(v dice.Variant) error {
	if v.ID == "" {
		return errors.New("variant with empty id")
	}
	sum := 0.0
	for i, p := range v.Faces {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("variant %q: face %d probability %v is negative", v.ID, i+1, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("variant %q: face probabilities sum to %.9f", v.ID, sum)
	}
	if v.Price < 0 || v.SellPrice < 0 {
		return fmt.Errorf("variant %q: negative price", v.ID)
	}
	if v.MaxOwned < 1 {
		return fmt.Errorf("variant %q: max_owned must be at least 1", v.ID)
	}
	if v.DropRate < 0 || v.DropRate > 1 {
		return fmt.Errorf("variant %q: drop_rate %v outside [0, 1]", v.ID, v.DropRate)
	}
	return nil
}

func (y variantYAML) variant() (dice.Variant, error) {
	v := dice.Variant{
		ID:          dice.VariantID(y.ID),
		Name:        y.Name,
		Description: y.Description,
		Price:       y.Price,
		SellPrice:   int(math.Floor(float64(y.Price) * SellRatio)),
		Sellable:    y.Sellable,
		Purchasable: y.Purchasable,
		DropRate:    y.DropRate,
		MaxOwned:    y.MaxOwned,
	}
	if y.SellPrice != nil {
		v.SellPrice = *y.SellPrice
	}
	if v.Name == "" {
		v.Name = y.ID
	}
	switch {
	case len(y.Faces) > 0 && len(y.Weights) > 0:
		return v, fmt.Errorf("variant %q: set faces or weights, not both", y.ID)
	case len(y.Faces) == dice.Sides:
		copy(v.Faces[:], y.Faces)
	case len(y.Weights) == dice.Sides:
		total := 0.0
		for _, w := range y.Weights {
			if w < 0 {
				return v, fmt.Errorf("variant %q: negative weight", y.ID)
			}
			total += w
		}
		if total <= 0 {
			return v, fmt.Errorf("variant %q: weights sum to zero", y.ID)
		}
		for i, w := range y.Weights {
			v.Faces[i] = w / total
		}
	default:
		return v, fmt.Errorf("variant %q: need exactly %d faces or weights", y.ID, dice.Sides)
	}
	return v, nil
}

// Parse decodes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parsing: %w", err)
	}
	variants := make([]dice.Variant, 0, len(f.Variants))
	var errs []error
	for _, y := range f.Variants {
		v, err := y.variant()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		variants = append(variants, v)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	c, err := New(variants)
	if err != nil {
		return nil, err
	}
	if err := c.setSets(f.Sets); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads and validates the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %q: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Variant returns the variant registered under id. Catalog implements
// dice.Lookup.
func (c *Catalog) Variant(id dice.VariantID) (dice.Variant, bool) {
	v, ok := c.byID[id]
	return v, ok
}

// Get returns the variant for id or ErrUnknownVariant.
func (c *Catalog) Get(id dice.VariantID) (dice.Variant, error) {
	v, ok := c.byID[id]
	if !ok {
		return dice.Variant{}, fmt.Errorf("%q: %w", id, ErrUnknownVariant)
	}
	return v, nil
}

// All returns every variant in file order, NORMAL first when implicit.
func (c *Catalog) All() []dice.Variant {
	out := make([]dice.Variant, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Purchasable returns the variants sold in the shop, in file order.
func (c *Catalog) Purchasable() []dice.Variant {
	var out []dice.Variant
	for _, id := range c.order {
		if v := c.byID[id]; v.Purchasable {
			out = append(out, v)
		}
	}
	return out
}

// RollReward draws a reward variant weighted by drop rate, normalized over
// every variant with a positive drop rate that owned has not capped.
//
// Postcondition: returns false when no variant is eligible; the returned
// variant always satisfies owned[id] < MaxOwned.
func (c *Catalog) RollReward(src dice.Source, owned map[dice.VariantID]int) (dice.VariantID, bool) {
	var eligible []dice.Variant
	total := 0.0
	for _, id := range c.order {
		v := c.byID[id]
		if v.DropRate <= 0 || owned[id] >= v.MaxOwned {
			continue
		}
		eligible = append(eligible, v)
		total += v.DropRate
	}
	if len(eligible) == 0 {
		return "", false
	}
	draw := src.Float64() * total
	sum := 0.0
	for _, v := range eligible {
		sum += v.DropRate
		if draw < sum {
			return v.ID, true
		}
	}
	return eligible[len(eligible)-1].ID, true
}
