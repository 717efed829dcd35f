package event

import "context"

// Event is one change delivered to listeners.
type Event interface {
	// Version is the version of the snapshot that produced the event.
	Version() int64
}

// Kind is the granularity a listener subscribes at. Registries are swept in
// Kind order during dispatch.
type Kind int

const (
	// KindTable receives every event.
	KindTable Kind = iota
	// KindColumn receives events for one column.
	KindColumn
	// KindRow receives events for one row.
	KindRow
	// KindRange receives events inside a rectangular range.
	KindRange
	// KindCell receives events for one cell.
	KindCell

	numKinds
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindColumn:
		return "column"
	case KindRow:
		return "row"
	case KindRange:
		return "range"
	case KindCell:
		return "cell"
	default:
		return "unknown"
	}
}

// Subject selects the events a listener receives.
type Subject[E Event] interface {
	// Kind returns the registry the listener is kept in.
	Kind() Kind

	// Match reports whether e concerns the subject.
	Match(e E) bool
}

// Handler processes a batch of matching events.
//
// The handler must pass ctx to any write it performs. The context carries the
// dispatch state of the outermost publish; a write issued with an unrelated
// context starts a separate dispatch that can block on this listener. A
// delivery that has to wait for a busy listener logs a warning.
type Handler[E Event] func(ctx context.Context, ref *Ref, events []E) error

// History produces the replay for a new listener. It is called after the
// listener is registered and returns the version of the state it read. When
// replay is true it also returns one event per populated cell in scope.
type History[E Event] func(replay bool) (version int64, events []E, err error)
