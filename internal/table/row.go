package table

import (
	"context"
	"fmt"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// Row is a handle to one row index of a table.
type Row struct {
	table *Table
	index int64
}

// Table returns the owning table.
func (r Row) Table() *Table { return r.table }

// Index returns the row index.
func (r Row) Index() int64 { return r.index }

// String renders the row as table@index.
func (r Row) String() string {
	return fmt.Sprintf("%s@%d", r.table, r.index)
}

// Get returns the value of column h in this row.
func (r Row) Get(h Header) (value.Value, error) {
	return r.table.Get(h, r.index)
}

// Set writes v to column h in this row.
func (r Row) Set(ctx context.Context, h Header, v value.Value) error {
	return r.table.Set(ctx, h, r.index, v)
}

// Cell returns a handle for the cell of column h in this row.
func (r Row) Cell(h Header) CellAddress {
	return CellAddress{table: r.table, header: h, index: r.index}
}

// Cells returns the populated cells of the row in ColumnOrder.
func (r Row) Cells() ([]Cell, error) {
	s, err := r.table.Snapshot()
	if err != nil {
		return nil, err
	}
	var cells []Cell
	for _, h := range s.Headers() {
		if v := s.Get(h, r.index); !v.IsEmpty() {
			cells = append(cells, Cell{Snapshot: s, Header: h, Index: r.index, Value: v})
		}
	}
	return cells, nil
}

// Clear empties every cell of the row. Other rows keep their indexes.
func (r Row) Clear(ctx context.Context) error {
	old, next, err := r.table.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		return s.WithoutRow(r.index), nil
	})
	if err != nil {
		return err
	}
	return r.table.publish(ctx, r.table.diffRows(old, next, []int64{r.index}))
}

// Kind implements the listener subject.
func (r Row) Kind() event.Kind { return event.KindRow }

// Match reports whether e touches this row on either side.
func (r Row) Match(e Event) bool {
	return e.Table == r.table && (e.Old.Index == r.index || e.New.Index == r.index)
}

func (r Row) owner() *Table { return r.table }

func (r Row) history(s *snapshot.Snapshot) []Event {
	var events []Event
	for _, h := range s.Headers() {
		if v := s.Get(h, r.index); !v.IsEmpty() {
			events = append(events, r.table.replayEvent(s, h, r.index, v))
		}
	}
	return events
}
