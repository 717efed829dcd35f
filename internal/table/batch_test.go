package table

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/value"
)

func TestBatchCoalesces(t *testing.T) {
	tbl := New("T")
	set(t, tbl, "A", 0, value.Int(1))
	rec := listen(t, tbl, event.WithSkipHistory(true))

	err := Batch(context.Background(), tbl, func(ctx context.Context) error {
		for _, step := range []struct {
			h string
			v int64
		}{{"A", 2}, {"B", 5}, {"A", 3}} {
			if err := tbl.Set(ctx, hdr(step.h), 0, value.Int(step.v)); err != nil {
				return err
			}
		}
		if rec.calls != 0 {
			t.Errorf("expected no delivery inside the batch, got %d", rec.calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	if rec.calls != 1 {
		t.Errorf("expected 1 delivery, got %d", rec.calls)
	}
	events := rec.take()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(events), events)
	}

	// last-touched order: B was last written before A
	b, a := events[0], events[1]
	if !b.New.Header.Equal(hdr("B")) || !b.Old.Value.IsEmpty() || !b.New.Value.Equal(value.Int(5)) {
		t.Errorf("expected B Empty -> 5, got %s", b)
	}
	if !a.New.Header.Equal(hdr("A")) || !a.Old.Value.Equal(value.Int(1)) || !a.New.Value.Equal(value.Int(3)) {
		t.Errorf("expected A 1 -> 3, got %s", a)
	}
	if a.Version() != tbl.Version() {
		t.Errorf("expected version %d, got %d", tbl.Version(), a.Version())
	}
}

func TestBatchNested(t *testing.T) {
	tbl := New("T")
	rec := listen(t, tbl, event.WithSkipHistory(true))

	err := Batch(context.Background(), tbl, func(ctx context.Context) error {
		if err := tbl.Set(ctx, hdr("A"), 0, value.Int(1)); err != nil {
			return err
		}
		return Batch(ctx, tbl, func(ctx context.Context) error {
			return tbl.Set(ctx, hdr("A"), 1, value.Int(2))
		})
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("expected 1 delivery, got %d", rec.calls)
	}
	if n := len(rec.take()); n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}
}

func TestBatchOtherTableUnaffected(t *testing.T) {
	t1, t2 := New("T1"), New("T2")
	rec2 := listen(t, t2, event.WithSkipHistory(true))

	Batch(context.Background(), t1, func(ctx context.Context) error {
		if err := t2.Set(ctx, hdr("A"), 0, value.Int(1)); err != nil {
			return err
		}
		if rec2.calls != 1 {
			t.Errorf("expected immediate delivery on T2, got %d", rec2.calls)
		}
		return nil
	})
}

func TestBatchPublishesOnError(t *testing.T) {
	tbl := New("T")
	rec := listen(t, tbl, event.WithSkipHistory(true))
	boom := errors.New("boom")

	err := Batch(context.Background(), tbl, func(ctx context.Context) error {
		if err := tbl.Set(ctx, hdr("A"), 0, value.Int(1)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if n := len(rec.take()); n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}
