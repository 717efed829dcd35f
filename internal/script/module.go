package script

import (
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/table"
)

func (s *State) module() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"get":       s.luaGet,
		"set":       s.luaSet,
		"version":   s.luaVersion,
		"on_table":  s.luaOnTable,
		"on_column": s.luaOnColumn,
		"on_row":    s.luaOnRow,
		"on_cell":   s.luaOnCell,
		"on_range":  s.luaOnRange,
		"off":       s.luaOff,
	}
}

func (s *State) spend(L *lua.LState) {
	if !s.charge() {
		raise(L, ErrInstructionLimit)
	}
}

// raise throws err as a userdata so execute can recover the Go error.
func raise(L *lua.LState, err error) {
	ud := L.NewUserData()
	ud.Value = err
	L.Error(ud, 1)
}

// unwrap returns the Go error thrown by raise, or err itself.
func unwrap(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if ud, ok := apiErr.Object.(*lua.LUserData); ok {
			if goErr, ok := ud.Value.(error); ok {
				return goErr
			}
		}
	}
	return err
}

func (s *State) luaGet(L *lua.LState) int {
	s.spend(L)
	h := checkHeader(L, 1)
	row := L.CheckInt64(2)
	v, err := s.table.Get(h, row)
	if err != nil {
		raise(L, err)
	}
	L.Push(toLua(v))
	return 1
}

func (s *State) luaSet(L *lua.LState) int {
	s.spend(L)
	h := checkHeader(L, 1)
	row := L.CheckInt64(2)
	v, err := fromLua(L.Get(3))
	if err != nil {
		L.ArgError(3, err.Error())
	}
	if err := s.table.Set(s.ctx, h, row, v); err != nil {
		raise(L, err)
	}
	return 0
}

func (s *State) luaVersion(L *lua.LState) int {
	L.Push(lua.LNumber(s.table.Version()))
	return 1
}

func (s *State) luaOnTable(L *lua.LState) int {
	return s.subscribe(L, s.table, 1)
}

func (s *State) luaOnColumn(L *lua.LState) int {
	return s.subscribe(L, s.table.ColumnAt(checkHeader(L, 1)...), 2)
}

func (s *State) luaOnRow(L *lua.LState) int {
	return s.subscribe(L, s.table.RowAt(L.CheckInt64(1)), 2)
}

func (s *State) luaOnCell(L *lua.LState) int {
	return s.subscribe(L, s.table.CellAt(checkHeader(L, 1), L.CheckInt64(2)), 3)
}

func (s *State) luaOnRange(L *lua.LState) int {
	r := s.table.Range(checkHeader(L, 1), L.CheckInt64(2), checkHeader(L, 3), L.CheckInt64(4))
	return s.subscribe(L, r, 5)
}

// subscribe registers the function at argument n with the options table at
// argument n+1 and pushes the listener id.
func (s *State) subscribe(L *lua.LState, subject table.Subject, n int) int {
	s.spend(L)
	fn := L.CheckFunction(n)
	opts := s.listenerOptions(L, L.OptTable(n+1, nil))

	ref, err := table.On(s.ctx, subject, s.handler(fn), opts...)
	if err != nil {
		raise(L, err)
	}
	s.refs[ref.ID()] = ref
	L.Push(lua.LString(ref.ID()))
	return 1
}

func (s *State) luaOff(L *lua.LState) int {
	id := L.CheckString(1)
	ref, ok := s.refs[id]
	if ok {
		table.Off(ref)
		delete(s.refs, id)
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (s *State) listenerOptions(L *lua.LState, opts *lua.LTable) []event.Option {
	out := []event.Option{
		event.WithOrder(int64(s.listeners.DefaultOrder)),
		event.WithSkipHistory(s.listeners.SkipHistory),
		event.WithAllowLoop(s.listeners.AllowLoop),
	}
	if opts == nil {
		return out
	}
	if v, ok := opts.RawGetString("name").(lua.LString); ok {
		out = append(out, event.WithName(string(v)))
	}
	if v, ok := opts.RawGetString("order").(lua.LNumber); ok {
		out = append(out, event.WithOrder(int64(v)))
	}
	if v, ok := opts.RawGetString("skip_history").(lua.LBool); ok {
		out = append(out, event.WithSkipHistory(bool(v)))
	}
	if v, ok := opts.RawGetString("allow_loop").(lua.LBool); ok {
		out = append(out, event.WithAllowLoop(bool(v)))
	}
	return out
}
