// Package scoring is the single source of truth for Farkle combination rules.
//
// Every function here is a pure function of the multiset of selected faces,
// so callers may evaluate any subset of the dice as often as they like.
package scoring

import "fmt"

// Point values for the recognized combinations.
const (
	FullStraightScore = 1500
	LowStraightScore  = 500
	HighStraightScore = 750
	SingleOneScore    = 100
	SingleFiveScore   = 50
	TripleOnesScore   = 1000
)

// Kind classifies how a selection was scored.
type Kind int

const (
	// Illegal marks a selection that is empty or contains an unscorable die.
	Illegal Kind = iota
	// FullStraight is 1-2-3-4-5-6.
	FullStraight
	// LowStraight is 1-2-3-4-5 plus optional extra 1s and 5s.
	LowStraight
	// HighStraight is 2-3-4-5-6 plus optional 1s and extra 5s.
	HighStraight
	// Sets covers N-of-a-kind groups and loose 1s and 5s.
	Sets
)

func (k Kind) String() string {
	switch k {
	case FullStraight:
		return "full straight"
	case LowStraight:
		return "low straight"
	case HighStraight:
		return "high straight"
	case Sets:
		return "sets"
	default:
		return "illegal"
	}
}

// Group is one scoring component of an evaluated selection.
type Group struct {
	Face   int // face value, 0 for straights
	Count  int // dice consumed
	Points int
}

// Evaluation is the full breakdown of a selection's score.
//
// Invariant: Score == sum(Groups[i].Points); Score == 0 iff Kind == Illegal.
type Evaluation struct {
	Kind   Kind
	Score  int
	Groups []Group
}

// Legal reports whether the evaluated selection may be committed.
func (e Evaluation) Legal() bool {
	return e.Kind != Illegal
}

// Counts is a histogram of faces: Counts[f] is the number of dice showing f.
// Index 0 is unused.
type Counts [7]int

// CountFaces builds the histogram for faces. Faces outside 1..6 are recorded
// in bucket 0, which makes the selection illegal.
func CountFaces(faces []int) Counts {
	var c Counts
	for _, f := range faces {
		if f < 1 || f > 6 {
			c[0]++
			continue
		}
		c[f]++
	}
	return c
}

// Total returns the number of dice counted.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

func (c Counts) hasAll(faces ...int) bool {
	for _, f := range faces {
		if c[f] < 1 {
			return false
		}
	}
	return true
}

// Evaluate classifies and scores the selected faces.
//
// Every die must contribute to a recognized combination; otherwise the whole
// selection is illegal and worth zero. Straights take precedence over sets
// and are never double-counted by the set rules.
func Evaluate(faces []int) Evaluation {
	return EvaluateCounts(CountFaces(faces))
}

// EvaluateCounts is Evaluate over a precomputed histogram.
func EvaluateCounts(c Counts) Evaluation {
	n := c.Total()
	if n == 0 || c[0] > 0 {
		return Evaluation{Kind: Illegal}
	}

	if n == 6 && c.hasAll(1, 2, 3, 4, 5, 6) {
		return Evaluation{
			Kind:   FullStraight,
			Score:  FullStraightScore,
			Groups: []Group{{Count: 6, Points: FullStraightScore}},
		}
	}
	if n >= 5 && c.hasAll(1, 2, 3, 4, 5) {
		if e, ok := lowStraight(c); ok {
			return e
		}
	}
	if n >= 5 && c.hasAll(2, 3, 4, 5, 6) {
		if e, ok := highStraight(c); ok {
			return e
		}
	}
	return sets(c)
}

// lowStraight scores 1-2-3-4-5 whose only extras are 1s and 5s.
func lowStraight(c Counts) (Evaluation, bool) {
	if c[2] != 1 || c[3] != 1 || c[4] != 1 || c[6] != 0 {
		return Evaluation{}, false
	}
	e := Evaluation{
		Kind:   LowStraight,
		Groups: []Group{{Count: 5, Points: LowStraightScore}},
	}
	e.addSingles(1, c[1]-1, SingleOneScore)
	e.addSingles(5, c[5]-1, SingleFiveScore)
	e.Score = e.sum()
	return e, true
}

// highStraight scores 2-3-4-5-6 whose only extras are 1s and 5s.
func highStraight(c Counts) (Evaluation, bool) {
	if c[2] != 1 || c[3] != 1 || c[4] != 1 || c[6] != 1 {
		return Evaluation{}, false
	}
	e := Evaluation{
		Kind:   HighStraight,
		Groups: []Group{{Count: 5, Points: HighStraightScore}},
	}
	e.addSingles(1, c[1], SingleOneScore)
	e.addSingles(5, c[5]-1, SingleFiveScore)
	e.Score = e.sum()
	return e, true
}

// sets scores N-of-a-kind groups plus loose 1s and 5s.
func sets(c Counts) Evaluation {
	e := Evaluation{Kind: Sets}
	for face := 1; face <= 6; face++ {
		count := c[face]
		switch {
		case count >= 3:
			e.Groups = append(e.Groups, Group{Face: face, Count: count, Points: KindScore(face, count)})
		case count == 0:
		case face == 1:
			e.addSingles(1, count, SingleOneScore)
		case face == 5:
			e.addSingles(5, count, SingleFiveScore)
		default:
			return Evaluation{Kind: Illegal}
		}
	}
	e.Score = e.sum()
	return e
}

// KindScore returns the value of count dice showing face, for count >= 3:
// the base (1000 for ones, face*100 otherwise) doubled for every die beyond
// the third.
func KindScore(face, count int) int {
	if count < 3 {
		return 0
	}
	base := face * 100
	if face == 1 {
		base = TripleOnesScore
	}
	return base << (count - 3)
}

func (e *Evaluation) addSingles(face, count, each int) {
	if count <= 0 {
		return
	}
	e.Groups = append(e.Groups, Group{Face: face, Count: count, Points: count * each})
}

func (e Evaluation) sum() int {
	total := 0
	for _, g := range e.Groups {
		total += g.Points
	}
	return total
}

// Score returns the point value of the selection, or 0 when it is illegal.
func Score(faces []int) int {
	return Evaluate(faces).Score
}

// IsLegal reports whether faces is a non-empty selection in which every die
// belongs to a scoring combination.
func IsLegal(faces []int) bool {
	return Evaluate(faces).Legal()
}

// String renders an evaluation as e.g. "sets: 3x2=200 1x1=100 (300)".
func (e Evaluation) String() string {
	if !e.Legal() {
		return "illegal (0)"
	}
	s := e.Kind.String() + ":"
	for _, g := range e.Groups {
		if g.Face == 0 {
			s += fmt.Sprintf(" straight=%d", g.Points)
			continue
		}
		s += fmt.Sprintf(" %dx%d=%d", g.Count, g.Face, g.Points)
	}
	return fmt.Sprintf("%s (%d)", s, e.Score)
}
