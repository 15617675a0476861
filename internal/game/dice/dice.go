// Package dice provides the randomness abstraction, die variants and the
// per-die state shared by the Farkle rules engine.
package dice

import (
	"fmt"
	"strings"
)

// Count is the number of dice in play for every turn.
const Count = 6

// Sides is the number of faces on every die.
const Sides = 6

// VariantID identifies a die variant in the catalog, e.g. "NORMAL".
type VariantID string

// Normal is the uniform variant every profile can always use.
const Normal VariantID = "NORMAL"

// Variant is an immutable die type with a probability for each face.
//
// Invariant: Faces[i] is the probability of rolling face i+1; the six values
// sum to 1.0 within catalog tolerance (validated at catalog load).
type Variant struct {
	ID          VariantID
	Name        string
	Description string
	Faces       [Sides]float64
	Price       int
	SellPrice   int
	Sellable    bool
	Purchasable bool
	DropRate    float64
	MaxOwned    int
}

// Uniform returns a variant with equal probability on every face.
func Uniform(id VariantID) Variant {
	v := Variant{ID: id, Name: string(id), MaxOwned: 999}
	for i := range v.Faces {
		v.Faces[i] = 1.0 / Sides
	}
	return v
}

// Fixed returns a variant that always rolls face. Useful for tests and for
// the "rigged" catalog entries.
//
// Precondition: 1 <= face <= 6.
func Fixed(id VariantID, face int) Variant {
	if face < 1 || face > Sides {
		panic(fmt.Sprintf("dice: Fixed called with face %d", face))
	}
	v := Variant{ID: id, Name: string(id), MaxOwned: 1}
	v.Faces[face-1] = 1
	return v
}

// SampleFace draws a face for v using inverse-CDF sampling over faces 1..6.
//
// The cumulative probability is accumulated in ascending face order and the
// first face whose cumulative sum exceeds the draw is returned. Rounding
// shortfalls fall back to face 6, so the result is always in [1, 6].
func SampleFace(v Variant, src Source) int {
	draw := src.Float64()
	sum := 0.0
	for i, p := range v.Faces {
		sum += p
		if draw < sum {
			return i + 1
		}
	}
	return Sides
}

// Die is one of the six dice in play.
//
// Invariant: Face is 0 only before the die's first roll of a turn; a Locked
// die's Face does not change until the set is reinitialized.
type Die struct {
	ID       int
	Face     int
	Selected bool
	Locked   bool
	Variant  VariantID
}

// Set is the fixed-size array of dice in play. Being an array, it is copied
// by value, which keeps match snapshots independent.
type Set [Count]Die

// NewSet returns six unrolled, unlocked dice using the given loadout.
func NewSet(loadout [Count]VariantID) Set {
	var s Set
	for i := range s {
		s[i] = Die{ID: i, Variant: loadout[i]}
	}
	return s
}

// Faces returns the faces of the dice at the given indices.
func (s Set) Faces(indices []int) []int {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		out = append(out, s[i].Face)
	}
	return out
}

// Unlocked returns the indices of all dice that are not locked, ascending.
func (s Set) Unlocked() []int {
	out := make([]int, 0, Count)
	for i, d := range s {
		if !d.Locked {
			out = append(out, i)
		}
	}
	return out
}

// Selected returns the indices of all selected, unlocked dice, ascending.
func (s Set) Selected() []int {
	out := make([]int, 0, Count)
	for i, d := range s {
		if d.Selected && !d.Locked {
			out = append(out, i)
		}
	}
	return out
}

// AllLocked reports whether every die in the set is locked.
func (s Set) AllLocked() bool {
	for _, d := range s {
		if !d.Locked {
			return false
		}
	}
	return true
}

// String renders the set as "[1 5* 3# ...]" where * marks a selected die and
// # a locked one. Unrolled dice render as "-".
func (s Set) String() string {
	parts := make([]string, 0, Count)
	for _, d := range s {
		face := "-"
		if d.Face > 0 {
			face = fmt.Sprintf("%d", d.Face)
		}
		switch {
		case d.Locked:
			face += "#"
		case d.Selected:
			face += "*"
		}
		parts = append(parts, face)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Source is the randomness provider for dice rolls and computer decisions.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}
