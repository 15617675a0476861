package console_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/console"
	"github.com/cory-johannsen/farkle/internal/game/dice"
)

func TestParse(t *testing.T) {
	assert.Equal(t, console.ParseResult{}, console.Parse("   "))
	assert.Equal(t, console.ParseResult{Command: "roll"}, console.Parse("ROLL"))
	assert.Equal(t, console.ParseResult{Command: "select", Args: []string{"1", "3", "5"}}, console.Parse("  select 1  3 5 "))
}

func TestParseDice(t *testing.T) {
	for _, in := range [][]string{{"1", "3", "5"}, {"1,3,5"}, {"135"}, {"1,", "35"}} {
		got, err := console.ParseDice(in)
		require.NoError(t, err, in)
		assert.Equal(t, []int{0, 2, 4}, got, in)
	}

	_, err := console.ParseDice([]string{"7"})
	assert.ErrorIs(t, err, console.ErrBadDie)
	_, err = console.ParseDice([]string{"0"})
	assert.ErrorIs(t, err, console.ErrBadDie)
	_, err = console.ParseDice([]string{"x"})
	assert.ErrorIs(t, err, console.ErrBadDie)
	_, err = console.ParseDice([]string{"19"})
	assert.ErrorIs(t, err, console.ErrBadDie)
}

func TestParseAmount(t *testing.T) {
	n, err := console.ParseAmount("1,250")
	require.NoError(t, err)
	assert.Equal(t, 1250, n)

	_, err = console.ParseAmount("-1")
	assert.Error(t, err)
	_, err = console.ParseAmount("lots")
	assert.Error(t, err)
}

func TestParseVariant(t *testing.T) {
	assert.Equal(t, dice.VariantID("LUCKY_ONE"), console.ParseVariant(" lucky_one "))
}

func TestProperty_ParseDice_RoundTripsDieNumbers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.SliceOfN(rapid.IntRange(0, dice.Count-1), 1, dice.Count).Draw(t, "idx")
		args := make([]string, len(idx))
		for i, v := range idx {
			args[i] = string(rune('1' + v))
		}
		got, err := console.ParseDice(args)
		if err != nil {
			t.Fatalf("ParseDice(%v): %v", args, err)
		}
		if len(got) != len(idx) {
			t.Fatalf("ParseDice(%v) = %v", args, got)
		}
		for i := range idx {
			if got[i] != idx[i] {
				t.Fatalf("ParseDice(%v) = %v, want %v", args, got, idx)
			}
		}
	})
}
