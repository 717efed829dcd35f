package event

import (
	"context"
	"slices"
	"sync"
)

type frameKey struct{}

// queue is the pending batch of one hub inside a frame.
type queue interface {
	flush(ctx context.Context, f *frame) error
}

// frame is the dispatch state of one outermost publish. It travels down the
// call stack in the context handed to handlers, so nested publishes append
// to it instead of dispatching themselves.
type frame struct {
	mu      sync.Mutex
	pending []queue
	byHub   map[any]queue
	active  *Ref
	ran     map[*Ref]struct{}
}

func frameFrom(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

// enter returns the frame carried by ctx, or installs a new one. outer is
// true when the caller owns draining.
func enter(ctx context.Context) (context.Context, *frame, bool) {
	if f := frameFrom(ctx); f != nil {
		return ctx, f, false
	}
	f := &frame{
		byHub: make(map[any]queue),
		ran:   make(map[*Ref]struct{}),
	}
	return context.WithValue(ctx, frameKey{}, f), f, true
}

type hubQueue[E Event] struct {
	hub    *Hub[E]
	events []E
}

func (q *hubQueue[E]) flush(ctx context.Context, f *frame) error {
	return q.hub.sweep(ctx, f, q.events)
}

// enqueue appends events to h's pending batch and records the listener
// currently running, if any, as having run.
func enqueue[E Event](f *frame, h *Hub[E], events []E) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if q, ok := f.byHub[h]; ok {
		hq := q.(*hubQueue[E])
		hq.events = append(hq.events, events...)
	} else {
		hq := &hubQueue[E]{hub: h, events: slices.Clone(events)}
		f.byHub[h] = hq
		f.pending = append(f.pending, hq)
	}

	if f.active != nil {
		f.ran[f.active] = struct{}{}
	}
}

func (f *frame) take() []queue {
	f.mu.Lock()
	defer f.mu.Unlock()

	batch := f.pending
	f.pending = nil
	clear(f.byHub)
	return batch
}

// drain dispatches pending batches until none remain.
func (f *frame) drain(ctx context.Context) error {
	for {
		batch := f.take()
		if len(batch) == 0 {
			return nil
		}
		for _, q := range batch {
			if err := q.flush(ctx, f); err != nil {
				return err
			}
		}
	}
}

// reset drops all state. It runs on every exit from the outermost publish.
func (f *frame) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = nil
	clear(f.byHub)
	clear(f.ran)
	f.active = nil
}

// run invokes fn as ref, applying loop detection unless ref allows loops.
func (f *frame) run(ref *Ref, fn func() error) error {
	if ref.config.AllowLoop {
		return fn()
	}

	f.mu.Lock()
	if _, seen := f.ran[ref]; seen {
		f.mu.Unlock()
		return &LoopError{ListenerID: ref.ID(), Name: ref.Name()}
	}
	prev := f.active
	f.active = ref
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active = prev
		f.mu.Unlock()
	}()
	return fn()
}
