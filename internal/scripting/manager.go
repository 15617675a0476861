package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/dice"
)

// GlobalScope is the reserved scope for shared scripts. CallHook falls back
// to it when the requested scope has no VM.
const GlobalScope = "__global__"

// vm is a single-threaded LState plus its budget.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed VM per scope and dispatches hooks.
//
// Manager is safe for concurrent use; calls into the same scope are
// serialized.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	src    dice.Source
	logger *zap.Logger
}

// NewManager creates a Manager. src backs farkle.random() in scripts.
//
// Precondition: src and logger must be non-nil.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	if src == nil {
		panic("scripting.NewManager: src must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		src:    src,
		logger: logger,
	}
}

// LoadFile creates a VM for scope and executes the script at path in it,
// replacing any VM previously loaded for scope.
//
// Precondition: scope must be non-empty.
func (m *Manager) LoadFile(scope, path string, instLimit int) error {
	return m.load(scope, []string{path}, instLimit)
}

// LoadDir creates a VM for scope and executes every *.lua file in dir in
// lexicographic order.
func (m *Manager) LoadDir(scope, dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, scope, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return m.load(scope, files, instLimit)
}

// LoadGlobal loads dir into GlobalScope.
func (m *Manager) LoadGlobal(dir string, instLimit int) error {
	return m.LoadDir(GlobalScope, dir, instLimit)
}

func (m *Manager) load(scope string, files []string, instLimit int) error {
	if scope == "" {
		return fmt.Errorf("scripting: empty scope")
	}
	L := NewSandboxedState()
	m.RegisterModules(L, scope)
	for _, path := range files {
		err := WithBudget(L, instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}

	m.mu.Lock()
	old := m.vms[scope]
	m.vms[scope] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Debug("scripts loaded", zap.String("scope", scope), zap.Int("files", len(files)))
	return nil
}

// HasScope reports whether a VM is loaded for scope.
func (m *Manager) HasScope(scope string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[scope]
	return ok
}

// CallHook calls the named global function in scope's VM, falling back to
// GlobalScope. Returns (LNil, nil) if no VM exists or the hook is not
// defined. Lua runtime errors, including an exhausted budget, are logged at
// Warn level and never propagated.
//
// Postcondition: returns the hook's first return value, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[scope]
	if !ok {
		v = m.vms[GlobalScope]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Debug("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L.IsClosed() {
		return lua.LNil, nil
	}
	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	var ret lua.LValue = lua.LNil
	err := WithBudget(v.L, v.limit, func() error {
		if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = v.L.Get(-1)
		v.L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
