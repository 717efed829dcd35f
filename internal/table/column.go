package table

import (
	"context"
	"fmt"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// Column is a handle to a column of a table, identified by its header.
// A handle may name a column that does not exist yet.
type Column struct {
	table  *Table
	header Header
}

// Table returns the owning table.
func (c Column) Table() *Table { return c.table }

// Header returns the column header.
func (c Column) Header() Header { return c.header }

// String renders the column as table[A, B].
func (c Column) String() string {
	return fmt.Sprintf("%s%s", c.table, c.header)
}

// Exists reports whether the column is present in the current snapshot.
func (c Column) Exists() bool {
	s, err := c.table.Snapshot()
	return err == nil && s.HasColumn(c.header)
}

// Order returns the current ColumnOrder.
func (c Column) Order() (int64, bool) {
	s, err := c.table.Snapshot()
	if err != nil {
		return 0, false
	}
	return s.Order(c.header)
}

// Get returns the value at row.
func (c Column) Get(row int64) (value.Value, error) {
	return c.table.Get(c.header, row)
}

// Find returns the cell selected by rel relative to row.
func (c Column) Find(rel Relation, row int64) (Cell, bool, error) {
	return c.table.Find(c.header, rel, row)
}

// Set writes v at row.
func (c Column) Set(ctx context.Context, row int64, v value.Value) error {
	return c.table.Set(ctx, c.header, row, v)
}

// Cell returns a handle for the cell at row.
func (c Column) Cell(row int64) CellAddress {
	return CellAddress{table: c.table, header: c.header, index: row}
}

// Cells returns the populated cells, rows ascending.
func (c Column) Cells() ([]Cell, error) {
	s, err := c.table.Snapshot()
	if err != nil {
		return nil, err
	}
	var cells []Cell
	s.Cells(c.header).Each(func(row int64, v value.Value) bool {
		cells = append(cells, Cell{Snapshot: s, Header: c.header, Index: row, Value: v})
		return true
	})
	return cells, nil
}

// Clear empties every cell of the column and keeps the column.
func (c Column) Clear(ctx context.Context) error {
	old, next, err := c.table.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		if !s.HasColumn(c.header) {
			return nil, c.missing()
		}
		return s.WithCells(c.header, snapshot.Cells{}), nil
	})
	if err != nil {
		return err
	}
	return c.table.publish(ctx, c.table.diffColumns(old, next, []Header{c.header}))
}

// Remove deletes the column and its cells.
func (c Column) Remove(ctx context.Context) error {
	old, next, err := c.table.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		if !s.HasColumn(c.header) {
			return nil, c.missing()
		}
		return s.WithoutColumn(c.header), nil
	})
	if err != nil {
		return err
	}
	return c.table.publish(ctx, c.table.diffColumns(old, next, []Header{c.header}))
}

// Rename moves the column onto itself under a new header, keeping its
// position and ColumnOrder.
func (c Column) Rename(ctx context.Context, labels ...string) error {
	return MoveColumn(ctx, c.To(c).As(labels...))
}

// Kind implements the listener subject.
func (c Column) Kind() event.Kind { return event.KindColumn }

// Match reports whether e touches this column on either side.
func (c Column) Match(e Event) bool {
	return e.Table == c.table && (e.Old.Header.Equal(c.header) || e.New.Header.Equal(c.header))
}

func (c Column) owner() *Table { return c.table }

func (c Column) history(s *snapshot.Snapshot) []Event {
	var events []Event
	s.Cells(c.header).Each(func(row int64, v value.Value) bool {
		events = append(events, c.table.replayEvent(s, c.header, row, v))
		return true
	})
	return events
}

func (c Column) missing() error {
	return fmt.Errorf("%w: %s", ErrInvalidColumn, c)
}
