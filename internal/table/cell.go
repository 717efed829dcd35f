package table

import (
	"context"
	"fmt"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// CellAddress is a handle to the cell at (header, row) of a table.
type CellAddress struct {
	table  *Table
	header Header
	index  int64
}

// Table returns the owning table.
func (a CellAddress) Table() *Table { return a.table }

// Header returns the column header.
func (a CellAddress) Header() Header { return a.header }

// Index returns the row index.
func (a CellAddress) Index() int64 { return a.index }

// Column returns the column holding the cell.
func (a CellAddress) Column() Column { return Column{table: a.table, header: a.header} }

// Row returns the row holding the cell.
func (a CellAddress) Row() Row { return Row{table: a.table, index: a.index} }

// String renders the address as table[A, B]@row.
func (a CellAddress) String() string {
	return fmt.Sprintf("%s%s@%d", a.table, a.header, a.index)
}

// Get returns the current value.
func (a CellAddress) Get() (value.Value, error) {
	return a.table.Get(a.header, a.index)
}

// Set writes v.
func (a CellAddress) Set(ctx context.Context, v value.Value) error {
	return a.table.Set(ctx, a.header, a.index, v)
}

// SetAny converts v and writes it.
func (a CellAddress) SetAny(ctx context.Context, v any) error {
	return a.table.SetAny(ctx, a.header, a.index, v)
}

// Clear empties the cell.
func (a CellAddress) Clear(ctx context.Context) error {
	return a.table.Set(ctx, a.header, a.index, value.Empty)
}

// Kind implements the listener subject.
func (a CellAddress) Kind() event.Kind { return event.KindCell }

// Match reports whether e is about this cell on either side.
func (a CellAddress) Match(e Event) bool {
	if e.Table != a.table {
		return false
	}
	return (e.Old.Index == a.index && e.Old.Header.Equal(a.header)) ||
		(e.New.Index == a.index && e.New.Header.Equal(a.header))
}

func (a CellAddress) owner() *Table { return a.table }

func (a CellAddress) history(s *snapshot.Snapshot) []Event {
	v := s.Get(a.header, a.index)
	if v.IsEmpty() {
		return nil
	}
	return []Event{a.table.replayEvent(s, a.header, a.index, v)}
}
