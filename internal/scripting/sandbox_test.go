package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/scripting"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := scripting.NewSandboxedState()
	require.NotNil(t, L)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	err := scripting.WithBudget(L, 0, func() error {
		return L.DoString(`
			assert(math.floor(2.5) == 2, "math.floor failed")
			assert(string.upper("bank") == "BANK", "string.upper failed")
			assert(#table.concat({"a", "b"}) == 2, "table.concat failed")
		`)
	})
	assert.NoError(t, err)
}

func TestWithBudget_LimitExceeded(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	err := scripting.WithBudget(L, 10, func() error { return L.DoString(`while true do end`) })
	assert.Error(t, err)
}

func TestWithBudget_ResetsPerCall(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	for i := 0; i < 20; i++ {
		err := scripting.WithBudget(L, 500, func() error {
			return L.DoString(`local s = 0 for i = 1, 20 do s = s + i end`)
		})
		require.NoError(t, err, "call %d", i)
	}
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(rt, "limit")
		L := scripting.NewSandboxedState()
		defer L.Close()
		err := scripting.WithBudget(L, limit, func() error { return L.DoString(`while true do end`) })
		if err == nil {
			rt.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
