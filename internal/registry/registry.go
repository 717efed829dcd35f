// Package registry maps names to tables.
//
// A Registry is an explicit, injectable value. Default returns the single
// process-wide instance for callers that want name-based lookup without
// passing a registry around.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"

	"github.com/dshills/cellstore/internal/table"
)

// Signal identifies a registry notification.
type Signal int

const (
	// SignalClosed is sent after a registered table is closed by Replace or
	// Delete.
	SignalClosed Signal = iota
	// SignalCloned is sent after Clone registers a new table.
	SignalCloned
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalClosed:
		return "closed"
	case SignalCloned:
		return "cloned"
	default:
		return "unknown"
	}
}

// Notice is delivered to observers.
type Notice struct {
	Signal Signal
	Name   string
	Table  *table.Table

	// Source is the cloned table for SignalCloned.
	Source *table.Table
}

// Observer receives notices synchronously, after the registry lock is
// released.
type Observer func(Notice)

// Registry is a name -> table lookup.
type Registry interface {
	// Table returns the table called name, creating it when missing or
	// closed.
	Table(name string) (*table.Table, error)

	// Lookup returns the table called name.
	Lookup(name string) (*table.Table, bool)

	// Replace registers t under name and closes the table it displaces.
	Replace(name string, t *table.Table) error

	// Delete closes and unregisters name.
	Delete(name string) bool

	// Names returns the registered names, sorted.
	Names() []string

	// Clone registers a clone of name under newName.
	Clone(name, newName string) (*table.Table, error)

	// Observe registers fn and returns a function that removes it.
	Observe(fn Observer) (cancel func())
}

// Memory is the in-process Registry.
type Memory struct {
	mu        sync.RWMutex
	tables    map[string]*table.Table
	observers map[uint64]Observer
	nextID    uint64
}

var _ Registry = (*Memory)(nil)

// New returns an empty registry.
func New() *Memory {
	return &Memory{
		tables:    make(map[string]*table.Table),
		observers: make(map[uint64]Observer),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() Registry {
	return defaultRegistry
}

// Table returns the table called name. A missing or closed table is
// replaced by a new empty one.
func (m *Memory) Table(name string) (*table.Table, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	m.mu.RLock()
	t, ok := m.tables[name]
	m.mu.RUnlock()
	if ok && !t.IsClosed() {
		return t, nil
	}

	m.mu.Lock()
	if t, ok := m.tables[name]; ok && !t.IsClosed() {
		m.mu.Unlock()
		return t, nil
	}
	t = table.New(name)
	m.tables[name] = t
	m.mu.Unlock()
	return t, nil
}

// Lookup returns the open table called name.
func (m *Memory) Lookup(name string) (*table.Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok || t.IsClosed() {
		return nil, false
	}
	return t, true
}

// Replace registers t under name. The table it displaces is closed and
// observers are notified.
func (m *Memory) Replace(name string, t *table.Table) error {
	if name == "" {
		return ErrEmptyName
	}
	if t == nil {
		return fmt.Errorf("%w: nil table for %q", ErrNotFound, name)
	}

	m.mu.Lock()
	prev := m.tables[name]
	m.tables[name] = t
	m.mu.Unlock()

	if prev != nil && prev != t {
		m.close(name, prev)
	}
	glog.Infof("registry: %q now holds %s", name, t.ID())
	return nil
}

// Delete closes the table called name and unregisters it. It reports
// whether the name was registered.
func (m *Memory) Delete(name string) bool {
	m.mu.Lock()
	t, ok := m.tables[name]
	delete(m.tables, name)
	m.mu.Unlock()

	if ok {
		m.close(name, t)
	}
	return ok
}

// Names returns the names of the open tables, sorted. Tables closed
// directly are left out, as in Lookup.
func (m *Memory) Names() []string {
	m.mu.RLock()
	open := maps.Clone(m.tables)
	m.mu.RUnlock()

	maps.DeleteFunc(open, func(_ string, t *table.Table) bool { return t.IsClosed() })
	names := maps.Keys(open)
	slices.Sort(names)
	return names
}

// Clone registers a clone of the table called name under newName and
// sends SignalCloned.
func (m *Memory) Clone(name, newName string) (*table.Table, error) {
	src, ok := m.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	c, err := src.Clone(newName)
	if err != nil {
		return nil, err
	}
	if err := m.Replace(newName, c); err != nil {
		c.Close()
		return nil, err
	}
	m.notify(Notice{Signal: SignalCloned, Name: newName, Table: c, Source: src})
	return c, nil
}

// Observe registers fn for closed and cloned notices.
func (m *Memory) Observe(fn Observer) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

func (m *Memory) close(name string, t *table.Table) {
	t.Close()
	m.notify(Notice{Signal: SignalClosed, Name: name, Table: t})
}

func (m *Memory) notify(n Notice) {
	m.mu.RLock()
	ids := maps.Keys(m.observers)
	slices.Sort(ids)
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = m.observers[id]
	}
	m.mu.RUnlock()

	for _, fn := range observers {
		fn(n)
	}
}
