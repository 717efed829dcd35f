package table

import (
	"fmt"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// CellRange is the rectangle spanned by two cells of one table.
//
// The column span is resolved by ColumnOrder in whichever snapshot is being
// inspected, so a range follows its corner columns when they move.
type CellRange struct {
	table      *Table
	start, end CellAddress
}

// NewRange returns the range with corners start and end, inclusive.
func NewRange(start, end CellAddress) (CellRange, error) {
	if start.table != end.table {
		return CellRange{}, fmt.Errorf("%w: range spans %s and %s", ErrInvalidTable, start.table, end.table)
	}
	return CellRange{table: start.table, start: start, end: end}, nil
}

// Range returns the range from (h1, r1) to (h2, r2), inclusive.
func (t *Table) Range(h1 Header, r1 int64, h2 Header, r2 int64) CellRange {
	return CellRange{
		table: t,
		start: CellAddress{table: t, header: h1, index: r1},
		end:   CellAddress{table: t, header: h2, index: r2},
	}
}

// Table returns the owning table.
func (r CellRange) Table() *Table { return r.table }

// Start returns the first corner.
func (r CellRange) Start() CellAddress { return r.start }

// End returns the second corner.
func (r CellRange) End() CellAddress { return r.end }

// String renders the range as table[A]@0..[B]@9.
func (r CellRange) String() string {
	return fmt.Sprintf("%s%s@%d..%s@%d", r.table, r.start.header, r.start.index, r.end.header, r.end.index)
}

// Contains reports whether c lies inside the range in c's own snapshot.
func (r CellRange) Contains(c Cell) bool {
	if c.Snapshot == nil {
		return false
	}
	lo, hi, ok := r.orders(c.Snapshot)
	if !ok {
		return false
	}
	order, ok := c.Snapshot.Order(c.Header)
	if !ok || order < lo || order > hi {
		return false
	}
	top, bottom := r.rows()
	return c.Index >= top && c.Index <= bottom
}

// Cells returns the populated cells of the range, columns in ColumnOrder
// and rows ascending within a column.
func (r CellRange) Cells() ([]Cell, error) {
	s, err := r.table.Snapshot()
	if err != nil {
		return nil, err
	}
	return r.cells(s), nil
}

// Kind implements the listener subject.
func (r CellRange) Kind() event.Kind { return event.KindRange }

// Match reports whether either side of e lies inside the range.
func (r CellRange) Match(e Event) bool {
	return e.Table == r.table && (r.Contains(e.Old) || r.Contains(e.New))
}

func (r CellRange) owner() *Table { return r.table }

func (r CellRange) history(s *snapshot.Snapshot) []Event {
	cells := r.cells(s)
	events := make([]Event, len(cells))
	for i, c := range cells {
		events[i] = r.table.replayEvent(s, c.Header, c.Index, c.Value)
	}
	return events
}

func (r CellRange) cells(s *snapshot.Snapshot) []Cell {
	lo, hi, ok := r.orders(s)
	if !ok {
		return nil
	}
	top, bottom := r.rows()

	var cells []Cell
	for _, col := range s.Columns() {
		if col.Order < lo || col.Order > hi {
			continue
		}
		s.Cells(col.Header).Each(func(row int64, v value.Value) bool {
			if row > bottom {
				return false
			}
			if row >= top {
				cells = append(cells, Cell{Snapshot: s, Header: col.Header, Index: row, Value: v})
			}
			return true
		})
	}
	return cells
}

// orders returns the column span in s. It fails when a corner column is
// missing from s.
func (r CellRange) orders(s *snapshot.Snapshot) (lo, hi int64, ok bool) {
	a, ok := s.Order(r.start.header)
	if !ok {
		return 0, 0, false
	}
	b, ok := s.Order(r.end.header)
	if !ok {
		return 0, 0, false
	}
	return min(a, b), max(a, b), true
}

func (r CellRange) rows() (top, bottom int64) {
	return min(r.start.index, r.end.index), max(r.start.index, r.end.index)
}
