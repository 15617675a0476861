package scoring

import "sort"

// Subset is a scoring subset of a larger roll.
//
// Indices are positions in the faces slice passed to Subsets, ascending.
type Subset struct {
	Mask    uint
	Indices []int
	Score   int
}

// Size returns the number of dice in the subset.
func (s Subset) Size() int {
	return len(s.Indices)
}

// Subsets enumerates every non-empty subset of faces whose score is positive.
// Results are in ascending mask order.
//
// Precondition: len(faces) <= 6 (at most 63 subsets are evaluated).
func Subsets(faces []int) []Subset {
	n := len(faces)
	if n == 0 {
		return nil
	}
	out := make([]Subset, 0, 1<<n-1)
	buf := make([]int, 0, n)
	for mask := uint(1); mask < 1<<n; mask++ {
		buf = buf[:0]
		idx := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				buf = append(buf, faces[i])
				idx = append(idx, i)
			}
		}
		if score := Score(buf); score > 0 {
			out = append(out, Subset{Mask: mask, Indices: idx, Score: score})
		}
	}
	return out
}

// Rank sorts subsets best first: more dice first, then higher score, then
// lower mask so the ordering is deterministic.
func Rank(subsets []Subset) {
	sort.SliceStable(subsets, func(i, j int) bool {
		return Better(subsets[i], subsets[j])
	})
}

// Better reports whether a ranks strictly ahead of b.
func Better(a, b Subset) bool {
	if a.Size() != b.Size() {
		return a.Size() > b.Size()
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Mask < b.Mask
}

// Best returns the top-ranked scoring subset of faces and whether any exists.
func Best(faces []int) (Subset, bool) {
	subs := Subsets(faces)
	if len(subs) == 0 {
		return Subset{}, false
	}
	best := subs[0]
	for _, s := range subs[1:] {
		if Better(s, best) {
			best = s
		}
	}
	return best, true
}

// HasScoringSubset reports whether any non-empty subset of faces scores.
// A roll for which this is false is a bust.
func HasScoringSubset(faces []int) bool {
	return len(Subsets(faces)) > 0
}

// ContainsStraight reports whether faces include 1-2-3-4-5 or 2-3-4-5-6,
// regardless of any extra dice.
func ContainsStraight(faces []int) bool {
	c := CountFaces(faces)
	return c.hasAll(1, 2, 3, 4, 5) || c.hasAll(2, 3, 4, 5, 6)
}
