package table

import (
	"context"
	"slices"
	"sync"
)

type batchKey struct{}

// batchState holds the open collectors of one Batch call chain.
type batchState struct {
	mu         sync.Mutex
	collectors map[*Table]*collector
}

func (st *batchState) get(t *Table) *collector {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.collectors[t]
}

func (st *batchState) set(t *Table, c *collector) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if c == nil {
		delete(st.collectors, t)
		return
	}
	st.collectors[t] = c
}

func collectorFrom(ctx context.Context, t *Table) *collector {
	st, _ := ctx.Value(batchKey{}).(*batchState)
	if st == nil {
		return nil
	}
	return st.get(t)
}

// Batch runs fn and holds back the events t produces inside it. When fn
// returns, the held events are coalesced to one per cell location and
// published together: each carries the value before the first write and
// after the last, in the order the locations were last written.
//
// fn must pass its ctx to every write. Nested Batch calls for the same
// table join the outer batch. The held events are published even when fn
// fails; fn's error takes precedence.
func Batch(ctx context.Context, t *Table, fn func(ctx context.Context) error) error {
	st, _ := ctx.Value(batchKey{}).(*batchState)
	if st == nil {
		st = &batchState{collectors: make(map[*Table]*collector)}
		ctx = context.WithValue(ctx, batchKey{}, st)
	} else if st.get(t) != nil {
		return fn(ctx)
	}

	c := &collector{index: make(map[location]int)}
	st.set(t, c)
	err := fn(ctx)
	st.set(t, nil)

	if perr := t.publish(ctx, c.events()); err == nil {
		err = perr
	}
	return err
}

type location struct {
	header string
	row    int64
}

type pending struct {
	event Event
	last  int
}

// collector coalesces events by cell location.
type collector struct {
	mu      sync.Mutex
	seq     int
	index   map[location]int
	pending []pending
}

func (c *collector) add(events []Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range events {
		c.seq++
		loc := location{header: e.New.Header.Path("\x00"), row: e.New.Index}
		if i, ok := c.index[loc]; ok {
			c.pending[i].event.New = e.New
			c.pending[i].last = c.seq
			continue
		}
		c.index[loc] = len(c.pending)
		c.pending = append(c.pending, pending{event: e, last: c.seq})
	}
}

func (c *collector) events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := slices.Clone(c.pending)
	slices.SortFunc(sorted, func(a, b pending) int {
		return a.last - b.last
	})
	events := make([]Event, len(sorted))
	for i, p := range sorted {
		events[i] = p.event
	}
	return events
}
