package snapshot

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/dshills/cellstore/internal/value"
)

func h(labels ...string) Header {
	return NewHeader(labels...)
}

func headerNames(s *Snapshot) []string {
	var names []string
	for _, hd := range s.Headers() {
		names = append(names, hd.Path("/"))
	}
	return names
}

func TestHeaderCompare(t *testing.T) {
	tests := []struct {
		a, b Header
		want int
	}{
		{h("A"), h("A"), 0},
		{h("A"), h("A", ""), 0},
		{h("A"), h("B"), -1},
		{h("A", "B"), h("A"), 1},
		{h("B"), h("A", "Z"), 1},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s vs %s: expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}

	hasher := headerHasher{}
	if hasher.Hash(h("A")) != hasher.Hash(h("A", "")) {
		t.Error("expected padded headers to hash equally")
	}
}

func TestWithValue(t *testing.T) {
	s := Empty().WithValue(h("A"), 1, value.Text("x"))

	if !s.HasColumn(h("A")) {
		t.Fatal("expected column A to exist")
	}
	if got := s.Get(h("A"), 1); !got.Equal(value.Text("x")) {
		t.Errorf("expected x, got %#v", got)
	}
	if s.RowUsage(1) != 1 {
		t.Errorf("expected row usage 1, got %d", s.RowUsage(1))
	}

	cleared := s.WithValue(h("A"), 1, value.Empty)
	if cleared.Cells(h("A")).Len() != 0 {
		t.Error("expected cleared cell to be removed")
	}
	if cleared.RowCount() != 0 {
		t.Errorf("expected no rows, got %d", cleared.RowCount())
	}
	if !cleared.HasColumn(h("A")) {
		t.Error("expected column to survive clearing its cells")
	}

	// the original snapshot is untouched
	if got := s.Get(h("A"), 1); !got.Equal(value.Text("x")) {
		t.Errorf("expected original snapshot to keep x, got %#v", got)
	}
}

func TestEmptyWriteDoesNotCreateColumn(t *testing.T) {
	s := Empty().WithValue(h("A"), 0, value.Empty)
	if s.HasColumn(h("A")) {
		t.Error("expected no column for an empty write")
	}
}

func TestRowUsageAcrossColumns(t *testing.T) {
	s := Empty().
		WithValue(h("A"), 3, value.Int(1)).
		WithValue(h("B"), 3, value.Int(2)).
		WithValue(h("B"), 7, value.Int(3))

	if s.RowUsage(3) != 2 {
		t.Errorf("expected usage 2 at row 3, got %d", s.RowUsage(3))
	}
	if !slices.Equal(s.Rows(), []int64{3, 7}) {
		t.Errorf("expected rows [3 7], got %v", s.Rows())
	}

	s = s.WithoutColumn(h("B"))
	if s.RowUsage(3) != 1 {
		t.Errorf("expected usage 1 at row 3, got %d", s.RowUsage(3))
	}
	if !slices.Equal(s.Rows(), []int64{3}) {
		t.Errorf("expected rows [3], got %v", s.Rows())
	}
}

func TestFind(t *testing.T) {
	s := Empty().
		WithValue(h("A"), 2, value.Int(2)).
		WithValue(h("A"), 5, value.Int(5)).
		WithValue(h("A"), 9, value.Int(9))

	tests := []struct {
		rel   Relation
		row   int64
		found bool
		want  int64
	}{
		{At, 5, true, 5},
		{At, 4, false, 0},
		{AtOrBefore, 5, true, 5},
		{AtOrBefore, 4, true, 2},
		{AtOrBefore, 1, false, 0},
		{AtOrBefore, 100, true, 9},
		{AtOrAfter, 5, true, 5},
		{AtOrAfter, 6, true, 9},
		{AtOrAfter, 10, false, 0},
		{Before, 5, true, 2},
		{Before, 2, false, 0},
		{Before, 100, true, 9},
		{After, 5, true, 9},
		{After, 9, false, 0},
		{After, -1, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.rel.String(), func(t *testing.T) {
			row, v, ok := s.Find(h("A"), tt.rel, tt.row)
			if ok != tt.found {
				t.Fatalf("%s %d: expected found=%v, got %v", tt.rel, tt.row, tt.found, ok)
			}
			if !ok {
				return
			}
			if row != tt.want {
				t.Errorf("%s %d: expected row %d, got %d", tt.rel, tt.row, tt.want, row)
			}
			if !v.Equal(value.Int(tt.want)) {
				t.Errorf("%s %d: expected value %d, got %#v", tt.rel, tt.row, tt.want, v)
			}
		})
	}
}

func TestRowIndex(t *testing.T) {
	s := Empty().
		WithValue(h("A"), 1, value.Int(1)).
		WithValue(h("B"), 4, value.Int(4))

	if row, ok := s.RowIndex(After, 1); !ok || row != 4 {
		t.Errorf("expected row 4, got %d (%v)", row, ok)
	}
	if row, ok := s.RowIndex(Before, 4); !ok || row != 1 {
		t.Errorf("expected row 1, got %d (%v)", row, ok)
	}
}

func threeColumns() *Snapshot {
	return Empty().
		WithValue(h("A"), 0, value.Text("a")).
		WithValue(h("B"), 0, value.Text("b")).
		WithValue(h("C"), 0, value.Text("c"))
}

func TestPlaceAfter(t *testing.T) {
	s := threeColumns()
	order, _ := s.Order(h("A"))

	next, err := s.Place(Placement{
		Header:   h("A"),
		Cells:    s.Cells(h("A")),
		Anchor:   h("B"),
		Position: PlaceAfter,
		Reuse:    &order,
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if got := headerNames(next); !slices.Equal(got, []string{"B", "A", "C"}) {
		t.Errorf("expected [B A C], got %v", got)
	}
	if got := next.Get(h("A"), 0); !got.Equal(value.Text("a")) {
		t.Errorf("expected a, got %#v", got)
	}

	// orders are renumbered from the same pool
	var orders []int64
	for _, c := range next.Columns() {
		orders = append(orders, c.Order)
	}
	if !slices.Equal(orders, []int64{1, 2, 3}) {
		t.Errorf("expected orders [1 2 3], got %v", orders)
	}
}

func TestPlaceRoundTrip(t *testing.T) {
	s := threeColumns()
	move := func(s *Snapshot, src, anchor string, pos Position) *Snapshot {
		t.Helper()
		order, _ := s.Order(h(src))
		next, err := s.Place(Placement{
			Header:   h(src),
			Cells:    s.Cells(h(src)),
			Anchor:   h(anchor),
			Position: pos,
			Reuse:    &order,
		})
		if err != nil {
			t.Fatalf("Place failed: %v", err)
		}
		return next
	}

	s = move(s, "A", "B", PlaceAfter)
	s = move(s, "B", "A", PlaceAfter)

	if got := headerNames(s); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("expected [A B C], got %v", got)
	}
	for _, name := range []string{"A", "B", "C"} {
		want := value.Text(string(rune(name[0] + 32)))
		if got := s.Get(h(name), 0); !got.Equal(want) {
			t.Errorf("column %s: expected %#v, got %#v", name, want, got)
		}
	}
}

func TestPlaceRenameBefore(t *testing.T) {
	s := threeColumns()
	order, _ := s.Order(h("C"))

	next, err := s.Place(Placement{
		Header:   h("C2"),
		Cells:    s.Cells(h("C")),
		Anchor:   h("A"),
		Position: PlaceBefore,
		Drop:     []Header{h("C")},
		Reuse:    &order,
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if got := headerNames(next); !slices.Equal(got, []string{"C2", "A", "B"}) {
		t.Errorf("expected [C2 A B], got %v", got)
	}
	if next.HasColumn(h("C")) {
		t.Error("expected C to be dropped")
	}
}

func TestPlaceToOverwrites(t *testing.T) {
	s := threeColumns()
	bOrder, _ := s.Order(h("B"))

	next, err := s.Place(Placement{
		Header:   h("B"),
		Cells:    s.Cells(h("A")),
		Anchor:   h("B"),
		Position: PlaceTo,
		Drop:     []Header{h("A")},
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if got := headerNames(next); !slices.Equal(got, []string{"B", "C"}) {
		t.Errorf("expected [B C], got %v", got)
	}
	if got := next.Get(h("B"), 0); !got.Equal(value.Text("a")) {
		t.Errorf("expected B to hold a, got %#v", got)
	}
	if o, _ := next.Order(h("B")); o > bOrder {
		t.Errorf("expected B to keep a slot no later than %d, got %d", bOrder, o)
	}
}

func TestPlaceCopyGetsFreshOrder(t *testing.T) {
	s := threeColumns()

	next, err := s.Place(Placement{
		Header:   h("A2"),
		Cells:    s.Cells(h("A")),
		Anchor:   h("C"),
		Position: PlaceAfter,
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if got := headerNames(next); !slices.Equal(got, []string{"A", "B", "C", "A2"}) {
		t.Errorf("expected [A B C A2], got %v", got)
	}
	if o, _ := next.Order(h("A2")); o != 4 {
		t.Errorf("expected fresh order 4, got %d", o)
	}
	if next.RowUsage(0) != 4 {
		t.Errorf("expected row usage 4, got %d", next.RowUsage(0))
	}
}

func TestPlaceEnd(t *testing.T) {
	s := threeColumns()
	next, err := s.Place(Placement{
		Header:   h("A"),
		Cells:    s.Cells(h("A")),
		Position: PlaceEnd,
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if got := headerNames(next); !slices.Equal(got, []string{"B", "C", "A"}) {
		t.Errorf("expected [B C A], got %v", got)
	}
}

func TestPlaceMissingAnchor(t *testing.T) {
	_, err := threeColumns().Place(Placement{
		Header:   h("A"),
		Anchor:   h("Z"),
		Position: PlaceBefore,
	})
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func rowTable() *Snapshot {
	s := Empty()
	for i := int64(0); i < 5; i++ {
		s = s.WithValue(h("A"), i, value.Int(i))
	}
	return s
}

func columnValues(s *Snapshot, hd Header) []int64 {
	var out []int64
	s.Cells(hd).Each(func(row int64, v value.Value) bool {
		i, _ := v.AsInt()
		out = append(out, row*100+i)
		return true
	})
	return out
}

func TestSpliceRowAfter(t *testing.T) {
	s := rowTable()
	src := int64(4)

	next := s.SpliceRow(RowSplice{
		Entries:  s.Row(4),
		Anchor:   1,
		Position: PlaceAfter,
		Remove:   &src,
	})

	// rows 0,1 stay, 4 lands at 2, 2 and 3 shift to 3 and 4
	want := []int64{0, 101, 204, 302, 403}
	if got := columnValues(next, h("A")); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSpliceRowBefore(t *testing.T) {
	s := rowTable()
	src := int64(0)

	next := s.SpliceRow(RowSplice{
		Entries:  s.Row(0),
		Anchor:   3,
		Position: PlaceBefore,
		Remove:   &src,
	})

	// rows 1,2 shift up to 0,1 and 0 lands at 2
	want := []int64{1, 102, 200, 303, 404}
	if got := columnValues(next, h("A")); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSpliceRowTo(t *testing.T) {
	s := rowTable()
	src := int64(0)

	next := s.SpliceRow(RowSplice{
		Entries:  s.Row(0),
		Anchor:   3,
		Position: PlaceTo,
		Remove:   &src,
	})

	want := []int64{101, 202, 300, 404}
	if got := columnValues(next, h("A")); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if next.RowUsage(0) != 0 {
		t.Errorf("expected row 0 to be unused, got %d", next.RowUsage(0))
	}
}

func TestSpliceRowCreatesColumns(t *testing.T) {
	dst := Empty().WithValue(h("X"), 0, value.Int(1))

	next := dst.SpliceRow(RowSplice{
		Entries:  []Entry{{Header: h("A"), Value: value.Int(7)}, {Header: h("B"), Value: value.Empty}},
		Anchor:   0,
		Position: PlaceTo,
	})

	if got := headerNames(next); !slices.Equal(got, []string{"X", "A", "B"}) {
		t.Errorf("expected [X A B], got %v", got)
	}
	if got := next.Get(h("A"), 0); !got.Equal(value.Int(7)) {
		t.Errorf("expected 7, got %#v", got)
	}
}

func TestStoreVersionMonotonic(t *testing.T) {
	st := NewStore(nil)

	for i := 0; i < 10; i++ {
		prev, next, err := st.Update(func(s *Snapshot) (*Snapshot, error) {
			return s.WithValue(h("A"), int64(i), value.Int(int64(i))), nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if next.Version() != prev.Version()+1 {
			t.Errorf("expected version %d, got %d", prev.Version()+1, next.Version())
		}
	}

	cur, _ := st.Load()
	if cur.Version() != 10 {
		t.Errorf("expected version 10, got %d", cur.Version())
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	st := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _, err := st.Update(func(s *Snapshot) (*Snapshot, error) {
					return s.WithValue(h("A"), int64(i*50+j), value.Int(1)), nil
				})
				if err != nil {
					t.Errorf("Update failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	cur, _ := st.Load()
	if cur.Version() != 400 {
		t.Errorf("expected version 400, got %d", cur.Version())
	}
	if cur.Cells(h("A")).Len() != 400 {
		t.Errorf("expected 400 cells, got %d", cur.Cells(h("A")).Len())
	}
}

func TestStoreMutatorError(t *testing.T) {
	st := NewStore(nil)
	boom := errors.New("boom")

	_, _, err := st.Update(func(*Snapshot) (*Snapshot, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	cur, _ := st.Load()
	if cur.Version() != 0 {
		t.Errorf("expected version 0 after failed update, got %d", cur.Version())
	}
}

func TestStoreRelease(t *testing.T) {
	st := NewStore(nil)
	st.Release()

	if _, err := st.Load(); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
	_, _, err := st.Update(func(s *Snapshot) (*Snapshot, error) { return s, nil })
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	s := Empty().
		WithValue(h("A"), 0, value.Int(1)).
		WithValue(h("A"), 1, value.Int(2)).
		WithValue(h("B"), 0, value.Int(3))
	order, _ := s.Order(h("A"))
	cells := s.Cells(h("A"))

	// a write lands under A between removal and restore
	removed := s.WithoutColumn(h("A")).WithValue(h("A"), 1, value.Int(9))
	restored := removed.Restore(h("A"), order, cells)

	if got := headerNames(restored); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("expected [B A] since A was recreated, got %v", got)
	}
	if got := restored.Get(h("A"), 0); !got.Equal(value.Int(1)) {
		t.Errorf("expected A@0 restored, got %#v", got)
	}
	if got := restored.Get(h("A"), 1); !got.Equal(value.Int(9)) {
		t.Errorf("expected the newer write kept, got %#v", got)
	}

	clean := s.WithoutColumn(h("A")).Restore(h("A"), order, cells)
	if got, _ := clean.Order(h("A")); got != order {
		t.Errorf("expected order %d, got %d", order, got)
	}
	if clean.RowUsage(0) != 2 || clean.RowUsage(1) != 1 {
		t.Errorf("expected row usage 2 and 1, got %d and %d", clean.RowUsage(0), clean.RowUsage(1))
	}
}

func TestRestoreRow(t *testing.T) {
	s := Empty().
		WithValue(h("A"), 2, value.Text("x")).
		WithValue(h("B"), 2, value.Text("y"))
	entries := s.Row(2)

	restored := s.WithoutRow(2).WithValue(h("B"), 2, value.Text("z")).RestoreRow(2, entries)
	if got := restored.Get(h("A"), 2); !got.Equal(value.Text("x")) {
		t.Errorf("expected A@2 restored, got %#v", got)
	}
	if got := restored.Get(h("B"), 2); !got.Equal(value.Text("z")) {
		t.Errorf("expected the newer write kept, got %#v", got)
	}
}
