package event

import (
	"sync"
	"testing"
)

func newTestListener(order int64) *listener[testEvent] {
	ref := newRef(KindTable, Config{Order: order})
	return &listener[testEvent]{ref: ref, subject: onAll()}
}

func TestRegistry_AddSorted(t *testing.T) {
	var r registry[testEvent]

	l3 := newTestListener(3)
	l1 := newTestListener(1)
	l2a := newTestListener(2)
	l2b := newTestListener(2)

	for _, l := range []*listener[testEvent]{l3, l1, l2a, l2b} {
		r.add(l)
	}

	got := r.listeners()
	want := []*listener[testEvent]{l1, l2a, l2b, l3}
	if len(got) != len(want) {
		t.Fatalf("expected %d listeners, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected order %d seq %d, got order %d seq %d",
				i, want[i].ref.Order(), want[i].ref.seq, got[i].ref.Order(), got[i].ref.seq)
		}
	}
}

func TestRegistry_Remove(t *testing.T) {
	var r registry[testEvent]
	l1 := newTestListener(0)
	l2 := newTestListener(0)
	r.add(l1)
	r.add(l2)

	snapshot := r.listeners()

	if !r.remove(l1) {
		t.Error("expected remove to succeed")
	}
	if r.remove(l1) {
		t.Error("expected second remove to fail")
	}
	if r.len() != 1 {
		t.Errorf("expected 1 listener, got %d", r.len())
	}

	// slices handed out earlier are not mutated
	if len(snapshot) != 2 || snapshot[0] != l1 {
		t.Error("expected earlier listener slice to be unchanged")
	}
}

func TestRegistry_Clear(t *testing.T) {
	var r registry[testEvent]
	r.add(newTestListener(0))
	r.add(newTestListener(0))

	cleared := r.clear()
	if len(cleared) != 2 {
		t.Errorf("expected 2 cleared listeners, got %d", len(cleared))
	}
	if r.len() != 0 {
		t.Errorf("expected empty registry, got %d", r.len())
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	var r registry[testEvent]
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l := newTestListener(int64(j % 3))
				r.add(l)
				_ = r.listeners()
				if j%2 == 0 {
					r.remove(l)
				}
			}
		}(i)
	}
	wg.Wait()

	if r.len() != 100 {
		t.Errorf("expected 100 listeners, got %d", r.len())
	}
	list := r.listeners()
	for i := 1; i < len(list); i++ {
		if list[i].ref.before(list[i-1].ref) {
			t.Fatalf("registry out of order at %d", i)
		}
	}
}
