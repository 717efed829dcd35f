package table

import (
	"fmt"
	"slices"

	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// Cell is one cell as seen in a particular snapshot.
type Cell struct {
	Snapshot *snapshot.Snapshot
	Header   Header
	Index    int64
	Value    value.Value
}

// Order returns the ColumnOrder of the cell's column in its snapshot.
func (c Cell) Order() (int64, bool) {
	if c.Snapshot == nil {
		return 0, false
	}
	return c.Snapshot.Order(c.Header)
}

// String renders the cell as [A, B]@row=value.
func (c Cell) String() string {
	return fmt.Sprintf("%s@%d=%#v", c.Header, c.Index, c.Value)
}

// Event is a before/after pair for one cell location of one table.
type Event struct {
	Table *Table
	Old   Cell
	New   Cell
}

// Version returns the version of the snapshot that produced the event.
func (e Event) Version() int64 {
	return e.New.Snapshot.Version()
}

// String renders the event for logs and test failures.
func (e Event) String() string {
	return fmt.Sprintf("%s: %s -> %s", e.Table, e.Old, e.New)
}

func (t *Table) event(old, next *snapshot.Snapshot, h Header, row int64) Event {
	return Event{
		Table: t,
		Old:   Cell{Snapshot: old, Header: h, Index: row, Value: old.Get(h, row)},
		New:   Cell{Snapshot: next, Header: h, Index: row, Value: next.Get(h, row)},
	}
}

// diffColumns returns one event per row populated on either side, for each
// of headers in turn. Duplicate headers are visited once.
func (t *Table) diffColumns(old, next *snapshot.Snapshot, headers []Header) []Event {
	var events []Event
	for i, h := range headers {
		if slices.ContainsFunc(headers[:i], h.Equal) {
			continue
		}
		for _, row := range unionRows(old.Cells(h).Indexes(), next.Cells(h).Indexes()) {
			events = append(events, t.event(old, next, h, row))
		}
	}
	return events
}

// diffRows returns, row by row, one event per column populated on either
// side. Columns are taken from both snapshots in ColumnOrder.
func (t *Table) diffRows(old, next *snapshot.Snapshot, rows []int64) []Event {
	headers := unionHeaders(next.Headers(), old.Headers())
	var events []Event
	for _, row := range rows {
		for _, h := range headers {
			if old.Get(h, row).IsEmpty() && next.Get(h, row).IsEmpty() {
				continue
			}
			events = append(events, t.event(old, next, h, row))
		}
	}
	return events
}

// unionRows merges two ascending row lists.
func unionRows(a, b []int64) []int64 {
	out := make([]int64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// unionHeaders returns a followed by the headers of b missing from a.
func unionHeaders(a, b []Header) []Header {
	out := slices.Clone(a)
	for _, h := range b {
		if !slices.ContainsFunc(out, h.Equal) {
			out = append(out, h)
		}
	}
	return out
}
