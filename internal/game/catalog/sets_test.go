package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/dice"
)

const setsYAML = `
variants:
  - id: ODD
    max_owned: 9
    weights: [1, 0, 1, 0, 1, 0]
  - id: LOADED
    max_owned: 2
    weights: [3, 1, 1, 1, 1, 1]
sets:
  - id: odd-set
    name: Odd set
    dice: [ODD, ODD, ODD]
  - id: cheat
    hidden: true
    dice: [LOADED, ODD]
`

func TestContent_SetsLoad(t *testing.T) {
	c, err := catalog.LoadFile(diceFile)
	require.NoError(t, err)
	sets := c.Sets()
	require.NotEmpty(t, sets)
	for _, s := range sets {
		for id, n := range s.Required() {
			v, ok := c.Variant(id)
			require.True(t, ok, "set %s names %s", s.ID, id)
			assert.LessOrEqual(t, n, v.MaxOwned, "set %s", s.ID)
		}
	}
	visible := c.VisibleSets(nil)
	assert.Less(t, len(visible), len(sets), "hidden sets stay out of a new player's view")
}

func TestSets_ProgressAndVisibility(t *testing.T) {
	c, err := catalog.Parse([]byte(setsYAML))
	require.NoError(t, err)
	sets := c.Sets()
	require.Len(t, sets, 2)
	odd, cheat := sets[0], sets[1]
	assert.Equal(t, "cheat", cheat.Name)

	owned := map[dice.VariantID]int{"ODD": 5}
	got, total := odd.Progress(owned)
	assert.Equal(t, 3, got, "extra copies do not count")
	assert.Equal(t, 3, total)
	assert.True(t, odd.Complete(owned))

	got, total = cheat.Progress(owned)
	assert.Equal(t, 1, got)
	assert.Equal(t, 2, total)
	assert.False(t, cheat.Complete(owned))

	assert.True(t, cheat.Visible(owned), "owning one die reveals a hidden set")
	assert.False(t, cheat.Visible(map[dice.VariantID]int{}))
	assert.Equal(t, []catalog.Set{odd}, c.VisibleSets(nil))
}

func TestSets_Errors(t *testing.T) {
	for name, body := range map[string]string{
		"unknown variant": "sets:\n  - id: s\n    dice: [GHOST]\n",
		"over cap":        "sets:\n  - id: s\n    dice: [LOADED, LOADED, LOADED]\n",
		"empty":           "sets:\n  - id: s\n    dice: []\n",
		"no id":           "sets:\n  - dice: [LOADED]\n",
		"duplicate":       "sets:\n  - id: s\n    dice: [LOADED]\n  - id: s\n    dice: [LOADED]\n",
	} {
		_, err := catalog.Parse([]byte(`
variants:
  - id: LOADED
    max_owned: 2
    weights: [3, 1, 1, 1, 1, 1]
` + body))
		assert.Error(t, err, name)
	}
}

// Property: progress never exceeds the set size and reaches it exactly when
// every required count is owned.
func TestPropertySetProgress(t *testing.T) {
	c, err := catalog.Parse([]byte(setsYAML))
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		owned := map[dice.VariantID]int{
			"ODD":    rapid.IntRange(0, 9).Draw(rt, "odd"),
			"LOADED": rapid.IntRange(0, 2).Draw(rt, "loaded"),
		}
		for _, s := range c.Sets() {
			got, total := s.Progress(owned)
			if got < 0 || got > total {
				rt.Fatalf("set %s progress %d/%d", s.ID, got, total)
			}
			full := true
			for id, n := range s.Required() {
				full = full && owned[id] >= n
			}
			if full != s.Complete(owned) {
				rt.Fatalf("set %s complete=%v with %v", s.ID, s.Complete(owned), owned)
			}
		}
	})
}
