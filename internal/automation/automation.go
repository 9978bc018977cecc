// Package automation drives engine parameters from Lua scripts.
//
// A script defines a global function automate(t) that receives the time in
// seconds and returns a table of parameter keys to values, or nil for no
// change:
//
//	function automate(t)
//	  return { pitch = 1 + 0.5 * math.sin(t), reverse = t > 4 }
//	end
//
// The global table "params" describes every parameter as
// { min = ..., max = ..., default = ... }.
package automation

import (
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/algo-granular/dsp/params"
	lua "github.com/yuin/gopher-lua"
)

const entryPoint = "automate"

var (
	// ErrNoEntryPoint is returned when a script does not define automate.
	ErrNoEntryPoint = errors.New("automation script defines no automate function")
	// ErrClosed is returned by Eval after Close.
	ErrClosed = errors.New("automation script closed")
)

// Script is a loaded automation script. It is not safe for concurrent use.
type Script struct {
	name  string
	state *lua.LState
	fn    lua.LValue
}

// Load reads and runs the script at path.
func Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return LoadString(path, string(src))
}

// LoadString runs src under name and resolves its automate function.
func LoadString(name, src string) (*Script, error) {
	L := lua.NewState()
	L.SetGlobal("params", paramTable(L))

	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("run script %s: %w", name, err)
	}

	fn := L.GetGlobal(entryPoint)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNoEntryPoint)
	}

	return &Script{name: name, state: L, fn: fn}, nil
}

// Name returns the path or name the script was loaded under.
func (s *Script) Name() string { return s.name }

// Eval calls automate(t) and returns the assigned parameters. Booleans map
// to 0 and 1. Keys are not checked against the parameter table.
func (s *Script) Eval(t float64) (map[string]float64, error) {
	if s.state == nil {
		return nil, fmt.Errorf("%s: %w", s.name, ErrClosed)
	}

	err := s.state.CallByParam(lua.P{Fn: s.fn, NRet: 1, Protect: true}, lua.LNumber(t))
	if err != nil {
		return nil, fmt.Errorf("%s: automate(%g): %w", s.name, t, err)
	}

	ret := s.state.Get(-1)
	s.state.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: automate(%g) returned %s, want table", s.name, t, ret.Type())
	}

	out := make(map[string]float64)

	var convErr error
	tbl.ForEach(func(k, v lua.LValue) {
		if convErr != nil {
			return
		}

		key, ok := k.(lua.LString)
		if !ok {
			convErr = fmt.Errorf("%s: automate key %v is %s, want string", s.name, k, k.Type())
			return
		}

		switch x := v.(type) {
		case lua.LNumber:
			out[string(key)] = float64(x)
		case lua.LBool:
			if x {
				out[string(key)] = 1
			} else {
				out[string(key)] = 0
			}
		default:
			convErr = fmt.Errorf("%s: automate value for %q is %s, want number or boolean", s.name, key, v.Type())
		}
	})

	if convErr != nil {
		return nil, convErr
	}

	return out, nil
}

// Apply evaluates the script at t and writes the result to store. Values
// are clamped by the store; unknown keys fail before anything is written.
func (s *Script) Apply(store *params.Store, t float64) error {
	m, err := s.Eval(t)
	if err != nil {
		return err
	}

	ids := make([]params.ID, 0, len(m))
	vals := make([]float64, 0, len(m))

	for key, v := range m {
		spec, err := params.Lookup(key)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}

		ids = append(ids, spec.ID)
		vals = append(vals, v)
	}

	for i, id := range ids {
		store.Set(id, vals[i])
	}

	return nil
}

// Close releases the interpreter.
func (s *Script) Close() {
	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}

func paramTable(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()

	for _, spec := range params.All() {
		entry := L.NewTable()
		entry.RawSetString("min", lua.LNumber(spec.Min))
		entry.RawSetString("max", lua.LNumber(spec.Max))
		entry.RawSetString("default", lua.LNumber(spec.Default))
		tbl.RawSetString(spec.Key, entry)
	}

	return tbl
}
