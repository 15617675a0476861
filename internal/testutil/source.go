package testutil

import (
	"sync"

	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// ScriptedSource is a dice.Source that replays a fixed sequence of draws.
// When the script is exhausted it cycles from the start.
type ScriptedSource struct {
	mu     sync.Mutex
	floats []float64
	pos    int
}

// NewScriptedSource returns a source that yields floats in order.
//
// Precondition: len(floats) > 0 and every value is in [0, 1).
func NewScriptedSource(floats ...float64) *ScriptedSource {
	if len(floats) == 0 {
		panic("testutil.NewScriptedSource: at least one draw required")
	}
	return &ScriptedSource{floats: floats}
}

// FacesSource returns a source whose draws make uniform dice roll exactly the
// given faces, in order.
func FacesSource(faces ...int) *ScriptedSource {
	floats := make([]float64, len(faces))
	for i, f := range faces {
		floats[i] = FaceDraw(f)
	}
	return NewScriptedSource(floats...)
}

// FaceDraw returns the uniform draw that lands in the middle of face's bucket
// for a uniform die.
func FaceDraw(face int) float64 {
	return (float64(face) - 0.5) / dice.Sides
}

// Float64 returns the next scripted draw.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.floats[s.pos%len(s.floats)]
	s.pos++
	return v
}

// Intn maps the next scripted draw onto [0, n).
func (s *ScriptedSource) Intn(n int) int {
	if n <= 0 {
		panic("testutil: Intn called with n <= 0")
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Draws returns how many values have been consumed.
func (s *ScriptedSource) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
