package snapshot

import (
	"slices"

	"github.com/dshills/cellstore/internal/value"
)

// Entry is one column's value within a row.
type Entry struct {
	Header Header
	Value  value.Value
}

// Row returns the value of every column at row in ColumnOrder, including
// Empty entries for columns with no value there.
func (s *Snapshot) Row(row int64) []Entry {
	headers := s.Headers()
	entries := make([]Entry, len(headers))
	for i, h := range headers {
		entries[i] = Entry{Header: h, Value: s.Get(h, row)}
	}
	return entries
}

// WithoutRow returns a snapshot with every cell at row cleared.
func (s *Snapshot) WithoutRow(row int64) *Snapshot {
	b := s.edit()
	for _, h := range s.Headers() {
		b.put(h, row, value.Empty)
	}
	return b.snapshot()
}

// RestoreRow writes entries back at row, undoing a WithoutRow. Cells
// written since then are kept and missing columns are created.
func (s *Snapshot) RestoreRow(row int64, entries []Entry) *Snapshot {
	b := s.edit()
	for _, e := range entries {
		if e.Value.IsEmpty() {
			continue
		}
		b.ensure(e.Header)
		if _, ok := b.get(e.Header).Get(row); !ok {
			b.put(e.Header, row, e.Value)
		}
	}
	return b.snapshot()
}

// RowSplice describes a row insertion applied to every column at once.
type RowSplice struct {
	// Entries is the content of the inserted row. Columns missing from the
	// snapshot are created in Entries order.
	Entries []Entry

	// Anchor is the row the insertion is relative to.
	Anchor int64

	// Position is PlaceBefore, PlaceAfter or PlaceTo.
	Position Position

	// Remove, when set, is cleared before the splice. A same-table move
	// passes the source row.
	Remove *int64
}

// Target returns the row the spliced content lands on.
func (r RowSplice) Target() int64 {
	switch r.Position {
	case PlaceAfter:
		return r.Anchor + 1
	case PlaceBefore:
		return r.Anchor - 1
	}
	return r.Anchor
}

// SpliceRow returns a snapshot with r applied.
//
// PlaceAfter shifts every row > Anchor down by one and writes Anchor+1.
// PlaceBefore shifts every row < Anchor up by one and writes Anchor-1.
// PlaceTo overwrites Anchor in the columns named by Entries.
func (s *Snapshot) SpliceRow(r RowSplice) *Snapshot {
	b := s.edit()

	if r.Remove != nil {
		for _, h := range s.Headers() {
			b.put(h, *r.Remove, value.Empty)
		}
	}
	for _, e := range r.Entries {
		b.ensure(e.Header)
	}

	target := r.Target()
	if r.Position != PlaceTo {
		for _, c := range b.snapshot().Columns() {
			b.shift(c.Header, r.Position, target)
		}
	}

	for _, e := range r.Entries {
		b.put(e.Header, target, e.Value)
	}
	return b.snapshot()
}

// shift opens target in column h. For PlaceAfter rows >= target move down
// by one, for PlaceBefore rows <= target move up by one.
func (b *builder) shift(h Header, pos Position, target int64) {
	cells := b.get(h)

	var moving []int64
	cells.Each(func(row int64, _ value.Value) bool {
		if (pos == PlaceAfter && row >= target) || (pos == PlaceBefore && row <= target) {
			moving = append(moving, row)
		}
		return true
	})

	delta := int64(-1)
	if pos == PlaceAfter {
		delta = 1
		slices.Reverse(moving)
	}
	for _, row := range moving {
		v, _ := cells.Get(row)
		b.put(h, row, value.Empty)
		b.put(h, row+delta, v)
	}
}
