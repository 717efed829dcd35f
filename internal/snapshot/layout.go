package snapshot

import (
	"fmt"
	"slices"
)

// Position places a column or row relative to an anchor.
type Position int

const (
	// PlaceBefore inserts ahead of the anchor.
	PlaceBefore Position = iota
	// PlaceAfter inserts behind the anchor.
	PlaceAfter
	// PlaceTo replaces the anchor.
	PlaceTo
	// PlaceEnd appends after every other column. The anchor is ignored.
	PlaceEnd
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case PlaceBefore:
		return "before"
	case PlaceAfter:
		return "after"
	case PlaceTo:
		return "to"
	case PlaceEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Placement describes one column insertion.
type Placement struct {
	// Header is the destination header.
	Header Header

	// Cells is the content installed under Header.
	Cells Cells

	// Anchor is the column Header is placed relative to.
	Anchor Header

	// Position selects where Header goes relative to Anchor.
	Position Position

	// Drop lists headers removed before placement, such as the source of
	// a same-table move.
	Drop []Header

	// Reuse, when set, is the order handed to Header if Header is new.
	// A same-table move passes the source order so no fresh order is spent.
	Reuse *int64
}

// Place returns a snapshot with p applied.
//
// The other columns keep their relative order. The sorted order values of
// the remaining columns, plus one slot for Header, are zipped against the
// new sequence prefix ++ [Header] ++ suffix, so columns outside the touched
// span keep their order numbers. Header's slot is the anchor's order for
// PlaceTo, Header's own order when it already exists, Reuse when given, and a
// fresh counter value otherwise.
func (s *Snapshot) Place(p Placement) (*Snapshot, error) {
	var anchorOrder int64
	if p.Position != PlaceEnd {
		o, ok := s.Order(p.Anchor)
		if !ok {
			return nil, fmt.Errorf("%w: anchor %s", ErrColumnNotFound, p.Anchor)
		}
		anchorOrder = o
	}

	b := s.edit()

	removed := slices.Clone(p.Drop)
	removed = append(removed, p.Header)
	if p.Position == PlaceTo {
		removed = append(removed, p.Anchor)
	}
	isRemoved := func(h Header) bool {
		return slices.ContainsFunc(removed, h.Equal)
	}

	var slot int64
	existing, exists := s.Order(p.Header)
	switch {
	case p.Position == PlaceTo:
		slot = anchorOrder
	case exists:
		slot = existing
	case p.Reuse != nil:
		slot = *p.Reuse
	default:
		slot = b.nextOrder()
	}

	var prefix, suffix []Header
	pool := []int64{slot}
	for _, c := range s.Columns() {
		if isRemoved(c.Header) {
			continue
		}
		pool = append(pool, c.Order)
		if p.Position == PlaceEnd || c.Order < anchorOrder || (p.Position == PlaceAfter && c.Order == anchorOrder) {
			prefix = append(prefix, c.Header)
		} else {
			suffix = append(suffix, c.Header)
		}
	}
	slices.Sort(pool)

	for _, h := range removed {
		b.drop(h)
	}

	seq := append(append(prefix, p.Header), suffix...)
	for i, h := range seq {
		b.columns = b.columns.Set(h, pool[i])
	}
	b.replace(p.Header, p.Cells)

	return b.snapshot(), nil
}
