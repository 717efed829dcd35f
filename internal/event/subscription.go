package event

import (
	"fmt"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// seq orders registrations across every hub in the process.
var seq atomic.Uint64

// Ref is the handle of one registered listener.
//
// Unsubscribe is safe from any goroutine at any time, including from the
// listener's own handler and before registration has finished.
type Ref struct {
	id     ulid.ULID
	seq    uint64
	kind   Kind
	config Config

	removed    atomic.Bool
	registered atomic.Bool
	detach     func()
}

func newRef(kind Kind, config Config) *Ref {
	return &Ref{
		id:     ulid.Make(),
		seq:    seq.Add(1),
		kind:   kind,
		config: config,
	}
}

// ID returns the unique listener identifier.
func (r *Ref) ID() string {
	return r.id.String()
}

// Name returns the configured name.
func (r *Ref) Name() string {
	return r.config.Name
}

// Order returns the configured order.
func (r *Ref) Order() int64 {
	return r.config.Order
}

// Kind returns the registry the listener belongs to.
func (r *Ref) Kind() Kind {
	return r.kind
}

// Config returns the listener configuration.
func (r *Ref) Config() Config {
	return r.config
}

// IsActive reports whether the listener still receives events.
func (r *Ref) IsActive() bool {
	return !r.removed.Load()
}

// Unsubscribe stops future deliveries. An invocation already in flight runs
// to completion.
func (r *Ref) Unsubscribe() {
	if r.removed.Swap(true) {
		return
	}
	if r.registered.Load() && r.detach != nil {
		r.detach()
	}
}

// String returns a short description for logs.
func (r *Ref) String() string {
	if r.config.Name != "" {
		return fmt.Sprintf("%s listener %q (%s)", r.kind, r.config.Name, r.id)
	}
	return fmt.Sprintf("%s listener %s", r.kind, r.id)
}

// before reports whether r dispatches ahead of o.
func (r *Ref) before(o *Ref) bool {
	if r.config.Order != o.config.Order {
		return r.config.Order < o.config.Order
	}
	return r.seq < o.seq
}

// finishRegistration marks r registered and applies an Unsubscribe that
// arrived while registration was in progress.
func (r *Ref) finishRegistration() {
	r.registered.Store(true)
	if r.removed.Load() && r.detach != nil {
		r.detach()
	}
}
