package event

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// Hub fans events out to listeners registered at five granularities.
//
// Listeners of one kind run in (order, registration sequence) order and the
// kinds are swept table, column, row, range, cell. Dispatch is synchronous in
// the publishing goroutine. Publishes issued by handlers are queued on the
// outermost publish and drained as further rounds, so every listener sees
// the cumulative effect of the listeners that ran before it.
type Hub[E Event] struct {
	config     hubConfig
	registries [numKinds]registry[E]
	closed     atomic.Bool

	// Stats
	published atomic.Uint64
	rounds    atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	loops     atomic.Uint64
	failed    atomic.Uint64
}

// Stats contains hub statistics.
type Stats struct {
	// Published is the number of events handed to Publish.
	Published uint64

	// Rounds is the number of batches swept.
	Rounds uint64

	// Delivered is the number of handler invocations, replays included.
	Delivered uint64

	// Dropped is the number of matching events filtered out by a
	// listener's high-water mark.
	Dropped uint64

	// Loops is the number of loop detections.
	Loops uint64

	// Failed is the number of handler invocations that returned an error.
	Failed uint64
}

// NewHub creates an empty hub.
func NewHub[E Event](opts ...HubOption) *Hub[E] {
	h := &Hub[E]{}
	for _, opt := range opts {
		opt(&h.config)
	}
	return h
}

// Subscribe registers handler for events matching subject.
//
// Unless the config skips history, the handler is invoked once before
// Subscribe returns with the events produced by history. The listener then
// ignores every event whose version is not newer than the version history
// reported. When replay fails the listener is removed and the error returned.
func (h *Hub[E]) Subscribe(ctx context.Context, subject Subject[E], handler Handler[E], history History[E], opts ...Option) (*Ref, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if subject == nil {
		return nil, ErrNilSubject
	}
	if h.closed.Load() {
		return nil, ErrHubClosed
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	ref := newRef(subject.Kind(), config)
	l := &listener[E]{
		ref:     ref,
		subject: subject,
		handler: handler,
		hwm:     math.MinInt64,
	}
	ref.detach = func() { h.unregister(l) }

	l.mu.Lock()
	h.registries[ref.kind].add(l)
	if glog.V(1) {
		glog.Infof("event: %s subscribed to %s", ref, h.config.name)
	}

	replayed := false
	defer func() {
		if !replayed {
			ref.finishRegistration()
			ref.Unsubscribe()
		}
	}()
	err := h.replay(ctx, l, history)
	replayed = true
	ref.finishRegistration()
	if err != nil {
		ref.Unsubscribe()
		return nil, err
	}
	return ref, nil
}

// replay runs with l.mu held and releases it before draining any writes the
// replay produced. l.mu is released on every exit, panics included.
func (h *Hub[E]) replay(ctx context.Context, l *listener[E], history History[E]) error {
	unlock := sync.OnceFunc(l.mu.Unlock)
	defer unlock()

	if history == nil {
		return nil
	}
	version, events, err := history(!l.ref.config.SkipHistory)
	if err != nil {
		return err
	}
	l.hwm = version
	if len(events) == 0 {
		return nil
	}

	ctx, f, outer := enter(ctx)
	if outer {
		defer f.reset()
	}
	err = h.invoke(ctx, f, l, events)
	unlock()

	if outer && err == nil {
		err = f.drain(ctx)
	}
	return err
}

// Publish dispatches events. Inside a handler it only queues them on the
// running dispatch and returns nil. Handler errors and loop detections
// abort the dispatch and are returned to the outermost caller.
func (h *Hub[E]) Publish(ctx context.Context, events []E) error {
	if len(events) == 0 || h.closed.Load() {
		return nil
	}
	h.published.Add(uint64(len(events)))

	ctx, f, outer := enter(ctx)
	enqueue(f, h, events)
	if !outer {
		return nil
	}

	defer f.reset()
	return f.drain(ctx)
}

// sweep delivers one batch to every matching listener.
func (h *Hub[E]) sweep(ctx context.Context, f *frame, batch []E) error {
	h.rounds.Add(1)
	if glog.V(2) {
		glog.Infof("event: %s dispatching %d events", h.config.name, len(batch))
	}

	for k := range h.registries {
		for _, l := range h.registries[k].listeners() {
			if !l.ref.IsActive() {
				continue
			}
			var matched []E
			for _, e := range batch {
				if l.subject.Match(e) {
					matched = append(matched, e)
				}
			}
			if len(matched) == 0 {
				continue
			}
			if err := h.deliver(ctx, f, l, matched); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Hub[E]) deliver(ctx context.Context, f *frame, l *listener[E], matched []E) error {
	if !l.mu.TryLock() {
		// Busy in another dispatch. If that dispatch is the caller's own,
		// waiting never ends: a handler wrote with a context other than
		// the one it was given.
		glog.Warningf("event: %s busy, waiting; handlers must pass their ctx to writes", l.ref)
		l.mu.Lock()
	}
	defer l.mu.Unlock()

	if !l.ref.IsActive() {
		return nil
	}

	events := matched[:0]
	for _, e := range matched {
		if e.Version() > l.hwm {
			events = append(events, e)
		}
	}
	if dropped := len(matched) - len(events); dropped > 0 {
		h.dropped.Add(uint64(dropped))
	}
	if len(events) == 0 {
		return nil
	}
	return h.invoke(ctx, f, l, events)
}

// invoke calls the handler; l.mu must be held.
func (h *Hub[E]) invoke(ctx context.Context, f *frame, l *listener[E], events []E) error {
	err := f.run(l.ref, func() error {
		h.delivered.Add(1)
		if err := l.handler(ctx, l.ref, events); err != nil {
			return &HandlerError{ListenerID: l.ref.ID(), Name: l.ref.Name(), Err: err}
		}
		return nil
	})

	switch e := err.(type) {
	case nil:
	case *LoopError:
		h.loops.Add(1)
		glog.Errorf("event: %s: %v", h.config.name, e)
	default:
		h.failed.Add(1)
		glog.Errorf("event: %s: %v", h.config.name, err)
	}
	return err
}

func (h *Hub[E]) unregister(l *listener[E]) {
	if !h.registries[l.ref.kind].remove(l) {
		return
	}
	if glog.V(1) {
		glog.Infof("event: %s removed from %s", l.ref, h.config.name)
	}
}

// HasListeners reports whether any listener is registered.
func (h *Hub[E]) HasListeners() bool {
	return h.Len() > 0
}

// Len returns the number of registered listeners.
func (h *Hub[E]) Len() int {
	n := 0
	for k := range h.registries {
		n += h.registries[k].len()
	}
	return n
}

// LenKind returns the number of listeners registered for kind.
func (h *Hub[E]) LenKind(kind Kind) int {
	if kind < 0 || kind >= numKinds {
		return 0
	}
	return h.registries[kind].len()
}

// Close removes every listener. Later subscribes fail with ErrHubClosed and
// later publishes are ignored.
func (h *Hub[E]) Close() {
	if h.closed.Swap(true) {
		return
	}
	for k := range h.registries {
		for _, l := range h.registries[k].clear() {
			l.ref.removed.Store(true)
		}
	}
}

// IsClosed reports whether Close has been called.
func (h *Hub[E]) IsClosed() bool {
	return h.closed.Load()
}

// Stats returns dispatch statistics.
// Counters are read individually and may be slightly inconsistent under
// concurrent dispatch.
func (h *Hub[E]) Stats() Stats {
	return Stats{
		Published: h.published.Load(),
		Rounds:    h.rounds.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
		Loops:     h.loops.Load(),
		Failed:    h.failed.Load(),
	}
}
