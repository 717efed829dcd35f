// Package script runs Lua against a table.
//
// A State exposes one table to Lua through the global cell module:
//
//	cell.get(header, row)
//	cell.set(header, row, value)
//	cell.on_table(fn [, opts])
//	cell.on_column(header, fn [, opts])
//	cell.on_row(row, fn [, opts])
//	cell.on_cell(header, row, fn [, opts])
//	cell.on_range(header1, row1, header2, row2, fn [, opts])
//	cell.off(id)
//
// A header is a string label or a list of labels. Listener functions receive
// a list of events {header, labels, row, old, new, version}; opts may set
// name, order, skip_history and allow_loop.
//
// Only the base, table, string and math libraries are available. Each
// execution runs under the state's context, which is cancelled when the
// timeout passes or the cell API call budget is spent.
package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cellstore/internal/config"
	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/table"
)

// runKey marks a context as belonging to an execution of a State.
type runKey struct{}

// State is a sandboxed Lua state bound to one table.
//
// gopher-lua's LState is not goroutine-safe. State serializes executions
// with a mutex; listener calls made from inside a running execution reuse
// it without locking.
type State struct {
	L     *lua.LState
	table *table.Table

	mu        sync.Mutex
	limits    config.ScriptConfig
	listeners config.ListenerConfig
	out       io.Writer

	// Set while an execution is running.
	ctx    context.Context
	cancel context.CancelCauseFunc
	calls  int

	refs   map[string]*event.Ref
	closed bool
}

// Option configures a State.
type Option func(*State)

// WithLimits sets the timeout and call budget of each execution.
func WithLimits(limits config.ScriptConfig) Option {
	return func(s *State) { s.limits = limits }
}

// WithListenerDefaults sets the options applied to listeners registered
// from Lua before the script's own opts.
func WithListenerDefaults(defaults config.ListenerConfig) Option {
	return func(s *State) { s.listeners = defaults }
}

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(s *State) { s.out = w }
}

// NewState creates a sandboxed Lua state operating on t.
func NewState(t *table.Table, opts ...Option) *State {
	cfg := config.Default()
	s := &State{
		table:     t,
		limits:    cfg.Script(),
		listeners: cfg.Listeners(),
		out:       os.Stdout,
		refs:      make(map[string]*event.Ref),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	installPrint(s.L, s.out)
	s.L.SetGlobal("cell", s.L.SetFuncs(s.L.NewTable(), s.module()))
	return s
}

// Table returns the table the state operates on.
func (s *State) Table() *table.Table {
	return s.table
}

// DoString executes code.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.execute(ctx, "<string>", func() error {
		return s.L.DoString(code)
	})
}

// DoFile executes the Lua file at path.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.execute(ctx, path, func() error {
		return s.L.DoFile(path)
	})
}

// Listeners returns the number of active listeners registered from Lua.
func (s *State) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, ref := range s.refs {
		if !ref.IsActive() {
			delete(s.refs, id)
			continue
		}
		n++
	}
	return n
}

// Close unsubscribes every listener and releases the Lua state.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for id, ref := range s.refs {
		table.Off(ref)
		delete(s.refs, id)
	}
	s.L.Close()
	s.closed = true
	return nil
}

// execute runs fn as one execution, or nested inside the current one when
// ctx already belongs to it.
func (s *State) execute(ctx context.Context, source string, fn func() error) error {
	if s.reentrant(ctx) {
		return s.nested(ctx, source, fn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}

	base, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	runCtx := base
	if s.limits.Timeout > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeoutCause(base, s.limits.Timeout, ErrTimeout)
		defer stop()
	}
	runCtx = context.WithValue(runCtx, runKey{}, s)

	s.ctx, s.cancel, s.calls = runCtx, cancel, 0
	s.L.SetContext(runCtx)
	defer func() {
		s.L.RemoveContext()
		s.ctx, s.cancel = nil, nil
	}()

	err := unwrap(s.recovered(fn))
	if err == nil {
		return nil
	}
	if cause := context.Cause(runCtx); cause != nil {
		err = cause
	}
	glog.V(1).Infof("script: %s failed: %v", source, err)
	return &ScriptError{Source: source, Err: err}
}

// nested runs fn inside the current execution with ctx as the context for
// cell writes.
func (s *State) nested(ctx context.Context, source string, fn func() error) error {
	prev := s.ctx
	s.ctx = ctx
	defer func() { s.ctx = prev }()

	err := unwrap(s.recovered(fn))
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		err = cause
	}
	return &ScriptError{Source: source, Err: err}
}

func (s *State) reentrant(ctx context.Context) bool {
	owner, _ := ctx.Value(runKey{}).(*State)
	return owner == s && s.ctx != nil
}

func (s *State) recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// charge spends one unit of the call budget and cancels the execution when
// the budget is exhausted.
func (s *State) charge() bool {
	if s.limits.InstructionLimit <= 0 {
		return true
	}
	s.calls++
	if s.calls > s.limits.InstructionLimit {
		s.cancel(ErrInstructionLimit)
		return false
	}
	return true
}

// handler adapts fn to a table.Handler.
func (s *State) handler(fn *lua.LFunction) table.Handler {
	return func(ctx context.Context, ref *event.Ref, events []table.Event) error {
		return s.execute(ctx, ref.String(), func() error {
			return s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, eventsToLua(s.L, events))
		})
	}
}
