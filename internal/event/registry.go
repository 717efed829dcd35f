package event

import (
	"slices"
	"sync"
	"sync/atomic"
)

// listener is a registered handler together with its replay high-water mark.
type listener[E Event] struct {
	ref     *Ref
	subject Subject[E]
	handler Handler[E]

	// mu serializes invocations of this listener and guards hwm.
	mu  sync.Mutex
	hwm int64
}

// registry holds the listeners of one kind sorted by (order, sequence).
// Dispatch reads the current slice without locking; writers replace it.
type registry[E Event] struct {
	mu   sync.Mutex
	list atomic.Pointer[[]*listener[E]]
}

func (r *registry[E]) listeners() []*listener[E] {
	if p := r.list.Load(); p != nil {
		return *p
	}
	return nil
}

func (r *registry[E]) add(l *listener[E]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners()
	i, _ := slices.BinarySearchFunc(cur, l, func(a, b *listener[E]) int {
		switch {
		case a.ref.before(b.ref):
			return -1
		case b.ref.before(a.ref):
			return 1
		}
		return 0
	})
	next := slices.Insert(slices.Clone(cur), i, l)
	r.list.Store(&next)
}

func (r *registry[E]) remove(l *listener[E]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners()
	i := slices.Index(cur, l)
	if i < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	r.list.Store(&next)
	return true
}

func (r *registry[E]) clear() []*listener[E] {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners()
	r.list.Store(nil)
	return cur
}

func (r *registry[E]) len() int {
	return len(r.listeners())
}
