package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/farkle/internal/game/scoring"
	"github.com/cory-johannsen/farkle/internal/scripting"
	"github.com/cory-johannsen/farkle/internal/testutil"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	scope := "modtest_" + t.Name()
	require.NoError(t, mgr.LoadDir(scope, dir, 0))
	ret, err := mgr.CallHook(scope, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestFarkleScore(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function s() return farkle.score({1, 1, 1, 5}) end
	`, "s")
	assert.Equal(t, lua.LNumber(1050), ret)

	ret = runScript(t, mgr, `
		function s() return farkle.score({2, 3}) end
	`, "s")
	assert.Equal(t, lua.LNumber(0), ret)
}

func TestFarkleLegal(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function l() return tostring(farkle.legal({1, 2, 3, 4, 5})) .. tostring(farkle.legal({4})) end
	`, "l")
	assert.Equal(t, lua.LString("truefalse"), ret)
}

func TestFarkleScore_BadArgumentIsRuntimeError(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret := runScript(t, mgr, `
		function s() return farkle.score({"one"}) end
	`, "s")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestFarkleRandom_UsesManagerSource(t *testing.T) {
	mgr := scripting.NewManager(testutil.NewScriptedSource(0.25), zap.NewNop())
	defer mgr.Close()
	ret := runScript(t, mgr, `function r() return farkle.random() end`, "r")
	assert.Equal(t, lua.LNumber(0.25), ret)
}

func TestFarkleLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(testutil.NewScriptedSource(0.5), zap.New(core))
	defer mgr.Close()

	runScript(t, mgr, `
		function do_all_logs()
			farkle.log.debug("d")
			farkle.log.info("i")
			farkle.log.warn("w")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.FilterField(zap.String("source", "lua")).All() {
		levels[e.Level.String()] = true
		assert.Equal(t, "modtest_"+t.Name(), e.ContextMap()["scope"])
	}
	assert.Equal(t, map[string]bool{"debug": true, "info": true, "warn": true}, levels)
}

// TestProperty_FarkleScoreMatchesGo checks the Lua binding against the
// scoring package for arbitrary face lists.
func TestProperty_FarkleScoreMatchesGo(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "score.lua", `
		function score_of(...) return farkle.score({...}) end
	`)
	require.NoError(t, mgr.LoadDir("prop", dir, 0))
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.SliceOfN(rapid.IntRange(1, 6), 0, 6).Draw(rt, "faces")
		args := make([]lua.LValue, len(faces))
		for i, f := range faces {
			args[i] = lua.LNumber(f)
		}
		ret, err := mgr.CallHook("prop", "score_of", args...)
		if err != nil {
			rt.Fatal(err)
		}
		if want := lua.LNumber(scoring.Score(faces)); ret != want {
			rt.Fatalf("farkle.score(%v) = %v, want %v", faces, ret, want)
		}
	})
}
