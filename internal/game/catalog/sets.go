package catalog

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// Set is a named collection of dice a player works towards owning.
type Set struct {
	ID          string
	Name        string
	Description string
	// Dice lists the collection; a variant listed n times needs n owned.
	Dice []dice.VariantID
	// Hidden sets stay out of view until the player owns one of their dice.
	Hidden bool
}

type setYAML struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Dice        []string `yaml:"dice"`
	Hidden      bool     `yaml:"hidden"`
}

// Required returns how many of each variant the set needs.
func (s Set) Required() map[dice.VariantID]int {
	req := make(map[dice.VariantID]int, len(s.Dice))
	for _, id := range s.Dice {
		req[id]++
	}
	return req
}

// Progress returns how many of the set's dice owned covers, counting no
// more of a variant than the set needs, and the set size.
func (s Set) Progress(owned map[dice.VariantID]int) (collected, total int) {
	for id, n := range s.Required() {
		collected += min(owned[id], n)
	}
	return collected, len(s.Dice)
}

// Complete reports whether owned covers the whole set.
func (s Set) Complete(owned map[dice.VariantID]int) bool {
	c, t := s.Progress(owned)
	return c == t
}

// Visible reports whether the set is shown to a player owning owned.
func (s Set) Visible(owned map[dice.VariantID]int) bool {
	if !s.Hidden {
		return true
	}
	for _, id := range s.Dice {
		if owned[id] > 0 {
			return true
		}
	}
	return false
}

// setSets validates and installs the collections. Every set must name
// known variants and be completable within their ownership caps.
func (c *Catalog) setSets(sets []setYAML) error {
	seen := make(map[string]bool, len(sets))
	var errs []error
	for _, y := range sets {
		s := Set{ID: y.ID, Name: y.Name, Description: y.Description, Hidden: y.Hidden}
		if s.Name == "" {
			s.Name = s.ID
		}
		switch {
		case s.ID == "":
			errs = append(errs, errors.New("set with empty id"))
			continue
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("set %q: duplicate id", s.ID))
			continue
		case len(y.Dice) == 0:
			errs = append(errs, fmt.Errorf("set %q: no dice", s.ID))
			continue
		}
		seen[s.ID] = true
		for _, id := range y.Dice {
			s.Dice = append(s.Dice, dice.VariantID(id))
		}
		bad := false
		for id, n := range s.Required() {
			v, ok := c.byID[id]
			if !ok {
				errs = append(errs, fmt.Errorf("set %q: %q: %w", s.ID, id, ErrUnknownVariant))
				bad = true
				continue
			}
			if n > v.MaxOwned {
				errs = append(errs, fmt.Errorf("set %q: needs %d %s but at most %d may be owned", s.ID, n, id, v.MaxOwned))
				bad = true
			}
		}
		if !bad {
			c.sets = append(c.sets, s)
		}
	}
	return errors.Join(errs...)
}

// Sets returns every collection in file order.
func (c *Catalog) Sets() []Set {
	return append([]Set(nil), c.sets...)
}

// VisibleSets returns the collections shown to a player owning owned.
func (c *Catalog) VisibleSets(owned map[dice.VariantID]int) []Set {
	var out []Set
	for _, s := range c.sets {
		if s.Visible(owned) {
			out = append(out, s)
		}
	}
	return out
}
