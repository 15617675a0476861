package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/scoring"
)

// RegisterModules installs the farkle global table into L:
//
//	farkle.score({faces})   -> number, 0 when illegal
//	farkle.legal({faces})   -> boolean
//	farkle.random()         -> number in [0, 1) from the manager's source
//	farkle.log.debug/info/warn(msg)
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState, scope string) {
	farkle := L.NewTable()
	L.SetField(farkle, "score", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(scoring.Score(facesArg(L))))
		return 1
	}))
	L.SetField(farkle, "legal", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(scoring.IsLegal(facesArg(L))))
		return 1
	}))
	L.SetField(farkle, "random", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.src.Float64()))
		return 1
	}))

	logger := m.logger.With(zap.String("scope", scope))
	log := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
	} {
		fn := fn
		L.SetField(log, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(farkle, "log", log)
	L.SetGlobal("farkle", farkle)
}

// facesArg reads argument 1 as an array of faces. Non-numeric entries raise
// a Lua argument error.
func facesArg(L *lua.LState) []int {
	tbl := L.CheckTable(1)
	faces := make([]int, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		n, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok {
			L.ArgError(1, "faces must be numbers")
			return nil
		}
		faces = append(faces, int(n))
	}
	return faces
}
