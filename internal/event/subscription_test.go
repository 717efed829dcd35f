package event

import (
	"strings"
	"sync"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindTable, "table"},
		{KindColumn, "column"},
		{KindRow, "row"},
		{KindRange, "range"},
		{KindCell, "cell"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewRef(t *testing.T) {
	config := DefaultConfig()
	for _, opt := range []Option{WithName("sum"), WithOrder(7), WithAllowLoop(true), WithSkipHistory(true)} {
		opt(&config)
	}
	ref := newRef(KindColumn, config)

	if ref.ID() == "" {
		t.Error("expected non-empty ID")
	}
	if ref.Name() != "sum" {
		t.Errorf("expected name sum, got %q", ref.Name())
	}
	if ref.Order() != 7 {
		t.Errorf("expected order 7, got %d", ref.Order())
	}
	if ref.Kind() != KindColumn {
		t.Errorf("expected KindColumn, got %v", ref.Kind())
	}
	if !ref.Config().AllowLoop || !ref.Config().SkipHistory {
		t.Errorf("expected AllowLoop and SkipHistory, got %+v", ref.Config())
	}
	if !ref.IsActive() {
		t.Error("expected new ref to be active")
	}
	if !strings.Contains(ref.String(), `"sum"`) {
		t.Errorf("expected String to include name, got %s", ref.String())
	}
}

func TestRef_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newRef(KindTable, Config{}).ID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestRef_Before(t *testing.T) {
	a := newRef(KindTable, Config{Order: 1})
	b := newRef(KindTable, Config{Order: 1})
	c := newRef(KindTable, Config{Order: 0})

	if !a.before(b) || b.before(a) {
		t.Error("expected equal orders to sort by registration")
	}
	if !c.before(a) {
		t.Error("expected lower order first")
	}
}

func TestRef_UnsubscribeBeforeRegistration(t *testing.T) {
	ref := newRef(KindTable, Config{})
	detached := 0
	ref.detach = func() { detached++ }

	ref.Unsubscribe()
	if detached != 0 {
		t.Errorf("expected detach to wait for registration, got %d", detached)
	}
	if ref.IsActive() {
		t.Error("expected ref to be inactive")
	}

	ref.finishRegistration()
	if detached != 1 {
		t.Errorf("expected 1 detach, got %d", detached)
	}
}

func TestRef_UnsubscribeConcurrent(t *testing.T) {
	ref := newRef(KindTable, Config{})
	var mu sync.Mutex
	detached := 0
	ref.detach = func() {
		mu.Lock()
		detached++
		mu.Unlock()
	}
	ref.finishRegistration()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref.Unsubscribe()
		}()
	}
	wg.Wait()

	if detached != 1 {
		t.Errorf("expected 1 detach, got %d", detached)
	}
}
