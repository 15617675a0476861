package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/farkle/internal/game/ai"
)

func fallbacks() map[ai.Difficulty]*ai.Policy {
	out := make(map[ai.Difficulty]*ai.Policy)
	for _, d := range ai.Difficulties {
		out[d] = policy(d)
	}
	return out
}

func TestRegistry_Register_And_PolicyFor(t *testing.T) {
	reg := ai.NewRegistry(fallbacks())
	p := policy(ai.Hard)
	require.NoError(t, reg.Register("bernard", p))
	got, ok := reg.PolicyFor("bernard")
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestRegistry_Register_CollisionError(t *testing.T) {
	reg := ai.NewRegistry(fallbacks())
	_ = reg.Register("bernard", policy(ai.Easy))
	assert.Error(t, reg.Register("bernard", policy(ai.Easy)))
}

func TestRegistry_ResolveFallsBackToDifficulty(t *testing.T) {
	fb := fallbacks()
	reg := ai.NewRegistry(fb)
	_, ok := reg.PolicyFor("missing")
	assert.False(t, ok)
	assert.Same(t, fb[ai.Hard], reg.Resolve("missing", ai.Hard))
	assert.Equal(t, ai.Hard, reg.Resolve("missing", ai.Hard).Difficulty())
}

func TestNewRegistry_PanicsWithoutFallbacks(t *testing.T) {
	assert.Panics(t, func() { ai.NewRegistry(map[ai.Difficulty]*ai.Policy{ai.Easy: policy(ai.Easy)}) })
}
