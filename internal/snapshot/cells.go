package snapshot

import (
	"cmp"

	"github.com/benbjohnson/immutable"

	"github.com/dshills/cellstore/internal/value"
)

// Relation selects which cell a positional lookup returns.
type Relation int

const (
	// At selects the cell at exactly the given row.
	At Relation = iota
	// AtOrBefore selects the cell at the greatest row <= the given row.
	AtOrBefore
	// AtOrAfter selects the cell at the least row >= the given row.
	AtOrAfter
	// Before selects the cell at the greatest row < the given row.
	Before
	// After selects the cell at the least row > the given row.
	After
)

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case At:
		return "AT"
	case AtOrBefore:
		return "AT_OR_BEFORE"
	case AtOrAfter:
		return "AT_OR_AFTER"
	case Before:
		return "BEFORE"
	case After:
		return "AFTER"
	default:
		return "UNKNOWN"
	}
}

type indexComparer struct{}

func (indexComparer) Compare(a, b int64) int {
	return cmp.Compare(a, b)
}

// Cells is the persistent row -> value map of one column.
// The zero Cells is an empty map. Empty values are never stored.
type Cells struct {
	m *immutable.SortedMap[int64, value.Value]
}

// Len returns the number of populated rows.
func (c Cells) Len() int {
	if c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Get returns the value at row.
func (c Cells) Get(row int64) (value.Value, bool) {
	if c.m == nil {
		return value.Empty, false
	}
	return c.m.Get(row)
}

// Find returns the row and value selected by rel relative to row.
func (c Cells) Find(rel Relation, row int64) (int64, value.Value, bool) {
	if c.m == nil {
		return 0, value.Empty, false
	}
	return seek(c.m, rel, row)
}

// Each calls fn for every populated row in ascending order until fn returns false.
func (c Cells) Each(fn func(row int64, v value.Value) bool) {
	if c.m == nil {
		return
	}
	itr := c.m.Iterator()
	for !itr.Done() {
		row, v, _ := itr.Next()
		if !fn(row, v) {
			return
		}
	}
}

// Indexes returns the populated rows in ascending order.
func (c Cells) Indexes() []int64 {
	rows := make([]int64, 0, c.Len())
	c.Each(func(row int64, _ value.Value) bool {
		rows = append(rows, row)
		return true
	})
	return rows
}

func (c Cells) set(row int64, v value.Value) Cells {
	if v.IsEmpty() {
		return c.delete(row)
	}
	if c.m == nil {
		c.m = immutable.NewSortedMap[int64, value.Value](indexComparer{})
	}
	return Cells{m: c.m.Set(row, v)}
}

func (c Cells) delete(row int64) Cells {
	if c.m == nil {
		return c
	}
	return Cells{m: c.m.Delete(row)}
}

// seek implements Relation lookups over a sorted map keyed by row.
func seek[V any](m *immutable.SortedMap[int64, V], rel Relation, row int64) (int64, V, bool) {
	var zero V
	if rel == At {
		v, ok := m.Get(row)
		return row, v, ok
	}

	itr := m.Iterator()
	itr.Seek(row)

	switch rel {
	case AtOrAfter, After:
		for !itr.Done() {
			k, v, _ := itr.Next()
			if k > row || (rel == AtOrAfter && k == row) {
				return k, v, true
			}
		}
	case AtOrBefore, Before:
		if itr.Done() {
			itr.Last()
		}
		for !itr.Done() {
			k, v, _ := itr.Prev()
			if k < row || (rel == AtOrBefore && k == row) {
				return k, v, true
			}
		}
	}
	return 0, zero, false
}
