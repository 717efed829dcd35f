package table

import (
	"context"
	"errors"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// Handler receives matching events. Writes made by the handler must use ctx.
type Handler = event.Handler[Event]

// Subject is something a listener can be registered on: a *Table, Column,
// Row, CellRange or CellAddress.
type Subject interface {
	event.Subject[Event]

	owner() *Table
	history(s *snapshot.Snapshot) []Event
}

// On registers handler for events on subject.
//
// Unless event.WithSkipHistory is given, handler is called before On returns
// with one Empty -> value event for every populated cell of subject.
func On(ctx context.Context, subject Subject, handler Handler, opts ...event.Option) (*event.Ref, error) {
	t := subject.owner()
	if t == nil {
		return nil, ErrInvalidTable
	}
	if t.closed.Load() {
		return nil, t.invalid()
	}

	history := func(replay bool) (int64, []Event, error) {
		s, err := t.Snapshot()
		if err != nil {
			return 0, nil, err
		}
		if !replay {
			return s.Version(), nil, nil
		}
		return s.Version(), subject.history(s), nil
	}

	ref, err := t.hub.Subscribe(ctx, subject, handler, history, opts...)
	if errors.Is(err, event.ErrHubClosed) {
		return nil, t.invalid()
	}
	return ref, err
}

// Off removes a listener. It is safe to call from the listener's own handler.
func Off(ref *event.Ref) {
	if ref != nil {
		ref.Unsubscribe()
	}
}

// Kind implements the listener subject for whole-table listeners.
func (t *Table) Kind() event.Kind { return event.KindTable }

// Match reports whether e belongs to t.
func (t *Table) Match(e Event) bool { return e.Table == t }

func (t *Table) owner() *Table { return t }

func (t *Table) history(s *snapshot.Snapshot) []Event {
	var events []Event
	s.Each(func(h Header, row int64, v value.Value) bool {
		events = append(events, t.replayEvent(s, h, row, v))
		return true
	})
	return events
}

func (t *Table) replayEvent(s *snapshot.Snapshot, h Header, row int64, v value.Value) Event {
	return Event{
		Table: t,
		Old:   Cell{Snapshot: s, Header: h, Index: row, Value: value.Empty},
		New:   Cell{Snapshot: s, Header: h, Index: row, Value: v},
	}
}
