package snapshot

import (
	"cmp"
	"slices"

	"github.com/benbjohnson/immutable"

	"github.com/dshills/cellstore/internal/value"
)

// Column is a header together with its ColumnOrder.
type Column struct {
	Header Header
	Order  int64
}

// Snapshot is one immutable state of a table.
//
// A Snapshot is never modified after construction. Transforms such as
// WithValue and Place return a new Snapshot that shares structure with the
// receiver. Versions are assigned by the Store when a snapshot is installed.
type Snapshot struct {
	columns *immutable.Map[Header, int64]
	cells   *immutable.Map[Header, Cells]
	rows    *immutable.SortedMap[int64, int]
	version int64
	counter int64
}

// Empty returns a snapshot with no columns at version 0.
func Empty() *Snapshot {
	return &Snapshot{
		columns: immutable.NewMap[Header, int64](headerHasher{}),
		cells:   immutable.NewMap[Header, Cells](headerHasher{}),
		rows:    immutable.NewSortedMap[int64, int](indexComparer{}),
	}
}

// Version returns the snapshot version.
func (s *Snapshot) Version() int64 {
	return s.version
}

// ColumnCount returns the number of columns, including empty ones.
func (s *Snapshot) ColumnCount() int {
	return s.columns.Len()
}

// RowCount returns the number of rows holding at least one value.
func (s *Snapshot) RowCount() int {
	return s.rows.Len()
}

// HasColumn reports whether h names a column.
func (s *Snapshot) HasColumn(h Header) bool {
	_, ok := s.columns.Get(h)
	return ok
}

// Order returns the ColumnOrder of h.
func (s *Snapshot) Order(h Header) (int64, bool) {
	return s.columns.Get(h)
}

// Columns returns every column sorted by ColumnOrder.
func (s *Snapshot) Columns() []Column {
	cols := make([]Column, 0, s.columns.Len())
	itr := s.columns.Iterator()
	for !itr.Done() {
		h, order, _ := itr.Next()
		cols = append(cols, Column{Header: h, Order: order})
	}
	slices.SortFunc(cols, func(a, b Column) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.Header.Compare(b.Header)
	})
	return cols
}

// Headers returns every header sorted by ColumnOrder.
func (s *Snapshot) Headers() []Header {
	cols := s.Columns()
	headers := make([]Header, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}
	return headers
}

// Cells returns the cell map of column h. Missing columns yield an empty map.
func (s *Snapshot) Cells(h Header) Cells {
	c, _ := s.cells.Get(h)
	return c
}

// Get returns the value at (h, row), Empty when unset.
func (s *Snapshot) Get(h Header, row int64) value.Value {
	v, _ := s.Cells(h).Get(row)
	return v
}

// Find returns the row and value selected by rel within column h.
func (s *Snapshot) Find(h Header, rel Relation, row int64) (int64, value.Value, bool) {
	return s.Cells(h).Find(rel, row)
}

// Rows returns every row holding at least one value, ascending.
func (s *Snapshot) Rows() []int64 {
	rows := make([]int64, 0, s.rows.Len())
	itr := s.rows.Iterator()
	for !itr.Done() {
		row, _, _ := itr.Next()
		rows = append(rows, row)
	}
	return rows
}

// RowIndex returns the populated row selected by rel relative to row,
// looking across all columns.
func (s *Snapshot) RowIndex(rel Relation, row int64) (int64, bool) {
	idx, _, ok := seek(s.rows, rel, row)
	return idx, ok
}

// RowUsage returns how many columns hold a value at row.
func (s *Snapshot) RowUsage(row int64) int {
	n, _ := s.rows.Get(row)
	return n
}

// Each calls fn for every populated cell, columns in ColumnOrder and rows
// ascending within a column, until fn returns false.
func (s *Snapshot) Each(fn func(h Header, row int64, v value.Value) bool) {
	for _, h := range s.Headers() {
		stop := false
		s.Cells(h).Each(func(row int64, v value.Value) bool {
			if !fn(h, row, v) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// WithValue returns a snapshot with (h, row) set to v. An Empty v clears
// the cell. Writing a non-empty value to a missing column creates it with a
// fresh ColumnOrder.
func (s *Snapshot) WithValue(h Header, row int64, v value.Value) *Snapshot {
	if v.IsEmpty() && !s.HasColumn(h) {
		return s.edit().snapshot()
	}
	b := s.edit()
	b.ensure(h)
	b.put(h, row, v)
	return b.snapshot()
}

// WithColumn returns a snapshot where h exists, appended at the end if new.
func (s *Snapshot) WithColumn(h Header) *Snapshot {
	b := s.edit()
	b.ensure(h)
	return b.snapshot()
}

// WithoutColumn returns a snapshot with column h and its cells removed.
func (s *Snapshot) WithoutColumn(h Header) *Snapshot {
	b := s.edit()
	b.drop(h)
	return b.snapshot()
}

// WithCells returns a snapshot where column h holds exactly cells.
// The column is created if it does not exist.
func (s *Snapshot) WithCells(h Header, cells Cells) *Snapshot {
	b := s.edit()
	b.ensure(h)
	b.replace(h, cells)
	return b.snapshot()
}

// Restore returns a snapshot where column h holds cells again, undoing a
// removal. Values written under h since then are kept. A missing h gets
// order back unless another column holds it, in which case it gets a fresh
// order.
func (s *Snapshot) Restore(h Header, order int64, cells Cells) *Snapshot {
	b := s.edit()
	if _, ok := b.columns.Get(h); !ok {
		if s.orderUsed(order) {
			b.ensure(h)
		} else {
			b.columns = b.columns.Set(h, order)
		}
	}
	cells.Each(func(row int64, v value.Value) bool {
		if _, ok := b.get(h).Get(row); !ok {
			b.put(h, row, v)
		}
		return true
	})
	return b.snapshot()
}

func (s *Snapshot) orderUsed(order int64) bool {
	for _, c := range s.Columns() {
		if c.Order == order {
			return true
		}
	}
	return false
}

// withVersion returns a shallow copy stamped with version.
func (s *Snapshot) withVersion(version int64) *Snapshot {
	c := *s
	c.version = version
	return &c
}
