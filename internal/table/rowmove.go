package table

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"

	"github.com/dshills/cellstore/internal/snapshot"
)

// RowAction describes where a row move or copy puts its source. Build one
// with Row.Before, Row.After or Row.To.
type RowAction struct {
	source   Row
	target   Row
	position snapshot.Position
}

// Before inserts r ahead of other, shifting the rows above other up by one.
func (r Row) Before(other Row) RowAction {
	return RowAction{source: r, target: other, position: snapshot.PlaceBefore}
}

// After inserts r behind other, shifting the rows below other down by one.
func (r Row) After(other Row) RowAction {
	return RowAction{source: r, target: other, position: snapshot.PlaceAfter}
}

// To overwrites other with r.
func (r Row) To(other Row) RowAction {
	return RowAction{source: r, target: other, position: snapshot.PlaceTo}
}

// String renders the action for logs.
func (a RowAction) String() string {
	return fmt.Sprintf("%s %s %s", a.source, a.position, a.target)
}

// MoveRow moves the source row as described by a.
func MoveRow(ctx context.Context, a RowAction) error {
	return applyRow(ctx, a, false)
}

// CopyRow copies the source row as described by a.
func CopyRow(ctx context.Context, a RowAction) error {
	return applyRow(ctx, a, true)
}

func applyRow(ctx context.Context, a RowAction, keep bool) error {
	src, dst := a.source.table, a.target.table
	if src == nil || dst == nil {
		return ErrInvalidTable
	}
	if src == dst && a.position != snapshot.PlaceTo && a.source.index == a.target.index {
		return fmt.Errorf("%w: %s", ErrInvalidSelfMove, a)
	}
	if (a.position == snapshot.PlaceAfter && a.target.index == math.MaxInt64) ||
		(a.position == snapshot.PlaceBefore && a.target.index == math.MinInt64) {
		return fmt.Errorf("%w: no row %s %s", ErrInvalidRow, a.position, a.target)
	}
	if glog.V(1) {
		op := "move"
		if keep {
			op = "copy"
		}
		glog.Infof("table: %s row %s", op, a)
	}
	if src == dst {
		return spliceWithin(ctx, a, keep)
	}
	return spliceAcross(ctx, a, keep)
}

func spliceWithin(ctx context.Context, a RowAction, keep bool) error {
	t := a.source.table
	from := a.source.index

	old, next, err := t.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		if s.RowUsage(from) == 0 {
			return nil, a.source.empty()
		}
		sp := snapshot.RowSplice{
			Entries:  s.Row(from),
			Anchor:   a.target.index,
			Position: a.position,
		}
		if !keep {
			sp.Remove = &from
		}
		return s.SpliceRow(sp), nil
	})
	if err != nil {
		return err
	}

	var extra []int64
	if !keep {
		extra = append(extra, from)
	}
	rows := affectedRows(old, next, a.position, a.target.index, extra...)
	return t.publish(ctx, t.diffRows(old, next, rows))
}

// spliceAcross clears the source row, then splices its content into the
// destination, as two separate CAS steps. When the destination step fails
// the row is put back.
func spliceAcross(ctx context.Context, a RowAction, keep bool) error {
	src, dst := a.source.table, a.target.table
	from := a.source.index

	s, err := src.Snapshot()
	if err != nil {
		return err
	}
	if s.RowUsage(from) == 0 {
		return a.source.empty()
	}
	if _, err := dst.Snapshot(); err != nil {
		return err
	}

	var (
		entries   []snapshot.Entry
		srcEvents []Event
	)
	if keep {
		entries = s.Row(from)
	} else {
		old, next, err := src.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
			if s.RowUsage(from) == 0 {
				return nil, a.source.empty()
			}
			return s.WithoutRow(from), nil
		})
		if err != nil {
			return err
		}
		entries = old.Row(from)
		srcEvents = src.diffRows(old, next, []int64{from})
	}
	testHookAcross()

	old, next, err := dst.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		return s.SpliceRow(snapshot.RowSplice{
			Entries:  entries,
			Anchor:   a.target.index,
			Position: a.position,
		}), nil
	})
	if err != nil {
		if keep {
			return err
		}
		rold, rnext, rerr := src.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
			return s.RestoreRow(from, entries), nil
		})
		var restored []Event
		if rerr == nil {
			restored = src.diffRows(rold, rnext, []int64{from})
		}
		return src.undo(ctx, srcEvents, restored, err, rerr)
	}
	dstEvents := dst.diffRows(old, next, affectedRows(old, next, a.position, a.target.index))

	err = src.publish(ctx, srcEvents)
	if derr := dst.publish(ctx, dstEvents); err == nil {
		err = derr
	}
	return err
}

// affectedRows returns the rows a splice relative to anchor may have changed:
// the anchor itself for PlaceTo, otherwise every row on the shifted side of
// the anchor, plus extra. The result is ascending.
func affectedRows(old, next *snapshot.Snapshot, pos snapshot.Position, anchor int64, extra ...int64) []int64 {
	set := make(map[int64]struct{}, len(extra)+1)
	for _, r := range extra {
		set[r] = struct{}{}
	}
	if pos == snapshot.PlaceTo {
		set[anchor] = struct{}{}
	} else {
		for _, r := range unionRows(old.Rows(), next.Rows()) {
			if (pos == snapshot.PlaceAfter && r > anchor) || (pos == snapshot.PlaceBefore && r < anchor) {
				set[r] = struct{}{}
			}
		}
	}
	rows := maps.Keys(set)
	slices.Sort(rows)
	return rows
}

func (r Row) empty() error {
	return fmt.Errorf("%w: %s has no values", ErrInvalidRow, r)
}
