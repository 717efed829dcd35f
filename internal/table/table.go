package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// Header is a column label path.
type Header = snapshot.Header

// Relation selects which cell a positional lookup returns.
type Relation = snapshot.Relation

// Row lookup relations.
const (
	At         = snapshot.At
	AtOrBefore = snapshot.AtOrBefore
	AtOrAfter  = snapshot.AtOrAfter
	Before     = snapshot.Before
	After      = snapshot.After
)

// Table is a named, reactive set of cells.
//
// All state lives in an immutable snapshot swapped atomically on every
// mutation, so reads never block and any number of goroutines may read and
// write concurrently. Every mutation publishes before/after cell events to
// the table's hub.
type Table struct {
	id     uuid.UUID
	name   string
	store  *snapshot.Store
	hub    *event.Hub[Event]
	closed atomic.Bool
}

// New creates an empty table.
func New(name string) *Table {
	return newTable(name, snapshot.Empty())
}

func newTable(name string, s *snapshot.Snapshot) *Table {
	t := &Table{
		id:    uuid.New(),
		name:  name,
		store: snapshot.NewStore(s),
		hub:   event.NewHub[Event](event.WithHubName(name)),
	}
	glog.Infof("table: created %q (%s)", name, t.id)
	return t
}

// ID returns the identity of this table instance. Clones get a new ID.
func (t *Table) ID() uuid.UUID {
	return t.id
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// String returns the table name.
func (t *Table) String() string {
	return t.name
}

// Snapshot returns the current state.
func (t *Table) Snapshot() (*snapshot.Snapshot, error) {
	if t.closed.Load() {
		return nil, t.invalid()
	}
	s, err := t.store.Load()
	if err != nil {
		return nil, t.invalid()
	}
	return s, nil
}

// Version returns the current snapshot version, or -1 once closed.
func (t *Table) Version() int64 {
	s, err := t.Snapshot()
	if err != nil {
		return -1
	}
	return s.Version()
}

// Close removes every listener and releases the snapshot. Later calls on t
// fail with ErrInvalidTable.
func (t *Table) Close() {
	if t.closed.Swap(true) {
		return
	}
	t.hub.Close()
	t.store.Release()
	glog.Infof("table: closed %q (%s)", t.name, t.id)
}

// IsClosed reports whether Close has been called.
func (t *Table) IsClosed() bool {
	return t.closed.Load()
}

// Clone returns a new table holding the current snapshot of t. The clone
// shares structure with t but has its own hub, listeners and identity.
func (t *Table) Clone(name string) (*Table, error) {
	s, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	c := newTable(name, s)
	glog.Infof("table: cloned %q into %q at version %d", t.name, name, s.Version())
	return c, nil
}

// Stats returns the dispatch statistics of the table's hub.
func (t *Table) Stats() event.Stats {
	return t.hub.Stats()
}

// Listeners returns the number of registered listeners.
func (t *Table) Listeners() int {
	return t.hub.Len()
}

// Get returns the value at (h, row).
func (t *Table) Get(h Header, row int64) (value.Value, error) {
	s, err := t.Snapshot()
	if err != nil {
		return value.Empty, err
	}
	return s.Get(h, row), nil
}

// Find returns the cell selected by rel relative to row within column h.
func (t *Table) Find(h Header, rel Relation, row int64) (Cell, bool, error) {
	s, err := t.Snapshot()
	if err != nil {
		return Cell{}, false, err
	}
	idx, v, ok := s.Find(h, rel, row)
	if !ok {
		return Cell{}, false, nil
	}
	return Cell{Snapshot: s, Header: h, Index: idx, Value: v}, true, nil
}

// Set writes v at (h, row). An Empty v clears the cell. The write publishes
// one event even when the value is unchanged.
func (t *Table) Set(ctx context.Context, h Header, row int64, v value.Value) error {
	old, next, err := t.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		return s.WithValue(h, row, v), nil
	})
	if err != nil {
		return err
	}
	return t.publish(ctx, []Event{t.event(old, next, h, row)})
}

// SetAny converts v with value.Of and writes it at (h, row).
func (t *Table) SetAny(ctx context.Context, h Header, row int64, v any) error {
	cv, err := value.Of(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCell, err)
	}
	return t.Set(ctx, h, row, cv)
}

// Columns returns a handle for every column in ColumnOrder.
func (t *Table) Columns() ([]Column, error) {
	s, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	headers := s.Headers()
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{table: t, header: h}
	}
	return cols, nil
}

// Rows returns a handle for every populated row, ascending.
func (t *Table) Rows() ([]Row, error) {
	s, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	indexes := s.Rows()
	rows := make([]Row, len(indexes))
	for i, r := range indexes {
		rows[i] = Row{table: t, index: r}
	}
	return rows, nil
}

// ColumnAt returns a handle for the column labeled labels. The column need
// not exist.
func (t *Table) ColumnAt(labels ...string) Column {
	return Column{table: t, header: snapshot.NewHeader(labels...)}
}

// RowAt returns a handle for row index.
func (t *Table) RowAt(index int64) Row {
	return Row{table: t, index: index}
}

// CellAt returns a handle for the cell at (h, row).
func (t *Table) CellAt(h Header, row int64) CellAddress {
	return CellAddress{table: t, header: h, index: row}
}

// Clear empties every cell and keeps the columns.
func (t *Table) Clear(ctx context.Context) error {
	old, next, err := t.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		for _, h := range s.Headers() {
			s = s.WithCells(h, snapshot.Cells{})
		}
		return s, nil
	})
	if err != nil {
		return err
	}
	return t.publish(ctx, t.diffColumns(old, next, old.Headers()))
}

// Replace installs the columns and cells of contents as the table's data.
// Columns missing from contents are dropped. One event is published per
// location populated on either side.
func (t *Table) Replace(ctx context.Context, contents *snapshot.Snapshot) error {
	if contents == nil {
		contents = snapshot.Empty()
	}
	old, next, err := t.update(func(*snapshot.Snapshot) (*snapshot.Snapshot, error) {
		return contents, nil
	})
	if err != nil {
		return err
	}
	return t.publish(ctx, t.diffColumns(old, next, unionHeaders(next.Headers(), old.Headers())))
}

// update runs fn through the store's CAS loop.
func (t *Table) update(fn func(*snapshot.Snapshot) (*snapshot.Snapshot, error)) (old, next *snapshot.Snapshot, err error) {
	if t.closed.Load() {
		return nil, nil, t.invalid()
	}
	old, next, err = t.store.Update(fn)
	if errors.Is(err, snapshot.ErrStoreClosed) {
		return nil, nil, t.invalid()
	}
	return old, next, err
}

// publish hands events to the hub, or to the enclosing Batch for t.
func (t *Table) publish(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	if c := collectorFrom(ctx, t); c != nil {
		c.add(events)
		return nil
	}
	return t.hub.Publish(ctx, events)
}

// undo publishes the source events of a failed two-step edit together with
// the events of putting the source back, and returns cause.
func (t *Table) undo(ctx context.Context, removed, restored []Event, cause, restoreErr error) error {
	if restoreErr != nil {
		glog.Errorf("table: restoring %s: %v", t, restoreErr)
		cause = errors.Join(cause, restoreErr)
	} else {
		glog.Warningf("table: %s restored after failed edit: %v", t, cause)
	}
	events := append(slices.Clone(removed), restored...)
	if err := t.publish(ctx, events); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (t *Table) invalid() error {
	return fmt.Errorf("%w: %s is closed", ErrInvalidTable, t.name)
}
