package snapshot

import (
	"github.com/benbjohnson/immutable"

	"github.com/dshills/cellstore/internal/value"
)

// builder accumulates edits against persistent maps and keeps rowUsage in
// step with every cell change.
type builder struct {
	columns *immutable.Map[Header, int64]
	cells   *immutable.Map[Header, Cells]
	rows    *immutable.SortedMap[int64, int]
	version int64
	counter int64
}

func (s *Snapshot) edit() *builder {
	return &builder{
		columns: s.columns,
		cells:   s.cells,
		rows:    s.rows,
		version: s.version,
		counter: s.counter,
	}
}

func (b *builder) snapshot() *Snapshot {
	return &Snapshot{
		columns: b.columns,
		cells:   b.cells,
		rows:    b.rows,
		version: b.version,
		counter: b.counter,
	}
}

func (b *builder) nextOrder() int64 {
	b.counter++
	return b.counter
}

// ensure creates h with a fresh order if it does not already exist.
func (b *builder) ensure(h Header) {
	if _, ok := b.columns.Get(h); !ok {
		b.columns = b.columns.Set(h, b.nextOrder())
	}
}

func (b *builder) get(h Header) Cells {
	c, _ := b.cells.Get(h)
	return c
}

func (b *builder) put(h Header, row int64, v value.Value) {
	cells := b.get(h)
	_, had := cells.Get(row)
	cells = cells.set(row, v)
	switch {
	case had && v.IsEmpty():
		b.use(row, -1)
	case !had && !v.IsEmpty():
		b.use(row, 1)
	}
	b.store(h, cells)
}

// replace swaps the whole cell map of h.
func (b *builder) replace(h Header, cells Cells) {
	b.get(h).Each(func(row int64, _ value.Value) bool {
		b.use(row, -1)
		return true
	})
	cells.Each(func(row int64, _ value.Value) bool {
		b.use(row, 1)
		return true
	})
	b.store(h, cells)
}

// drop removes h and its cells.
func (b *builder) drop(h Header) {
	if _, ok := b.columns.Get(h); !ok {
		return
	}
	b.replace(h, Cells{})
	b.columns = b.columns.Delete(h)
}

func (b *builder) store(h Header, cells Cells) {
	if cells.Len() == 0 {
		b.cells = b.cells.Delete(h)
		return
	}
	b.cells = b.cells.Set(h, cells)
}

func (b *builder) use(row int64, delta int) {
	n, _ := b.rows.Get(row)
	n += delta
	if n <= 0 {
		b.rows = b.rows.Delete(row)
		return
	}
	b.rows = b.rows.Set(row, n)
}
