// Package scripting provides a sandboxed GopherLua environment for
// challenger scripts. Each scope (usually a challenger id) owns one VM;
// hooks are dispatched by name with a per-call instruction budget.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes a single load
// or hook call may execute when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext cancels itself after Done has been called limit times.
// GopherLua's main loop calls Done once per opcode when a context is set.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	c := &countingContext{Context: base, cancel: cancel}
	c.remaining.Store(int64(limit))
	return c, cancel
}

// NewSandboxedState creates an LState with only the base, table, string and
// math libraries, and with dofile, loadfile, load, collectgarbage and require
// removed.
//
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// WithBudget runs fn with L limited to limit opcodes. The budget is fresh on
// every call, so a long-lived VM never exhausts it across hooks.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
func WithBudget(L *lua.LState, limit int, fn func() error) error {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := newCountingContext(limit)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()
	return fn()
}
