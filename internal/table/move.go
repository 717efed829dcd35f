package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/dshills/cellstore/internal/snapshot"
)

// ColumnAction describes where a column move or copy puts its source.
// Build one with Column.Before, Column.After, Column.To or Column.ToTable.
type ColumnAction struct {
	source   Column
	target   Column
	dest     *Table
	position snapshot.Position
	rename   Header
}

// Before places c ahead of other.
func (c Column) Before(other Column) ColumnAction {
	return ColumnAction{source: c, target: other, dest: other.table, position: snapshot.PlaceBefore}
}

// After places c behind other.
func (c Column) After(other Column) ColumnAction {
	return ColumnAction{source: c, target: other, dest: other.table, position: snapshot.PlaceAfter}
}

// To replaces other with c. Without a rename the result takes other's header.
func (c Column) To(other Column) ColumnAction {
	return ColumnAction{source: c, target: other, dest: other.table, position: snapshot.PlaceTo}
}

// ToTable appends c after the last column of t.
func (c Column) ToTable(t *Table) ColumnAction {
	return ColumnAction{source: c, dest: t, position: snapshot.PlaceEnd}
}

// As sets the destination header.
func (a ColumnAction) As(labels ...string) ColumnAction {
	a.rename = snapshot.NewHeader(labels...)
	return a
}

// Source returns the column being moved or copied.
func (a ColumnAction) Source() Column { return a.source }

// Destination returns the header the column ends up under.
func (a ColumnAction) Destination() Header {
	switch {
	case a.rename != nil:
		return a.rename
	case a.position == snapshot.PlaceTo:
		return a.target.header
	default:
		return a.source.header
	}
}

// String renders the action for logs.
func (a ColumnAction) String() string {
	if a.position == snapshot.PlaceEnd {
		return fmt.Sprintf("%s to %s as %s", a.source, a.dest, a.Destination())
	}
	return fmt.Sprintf("%s %s %s as %s", a.source, a.position, a.target, a.Destination())
}

// MoveColumn moves the source column as described by a.
func MoveColumn(ctx context.Context, a ColumnAction) error {
	return applyColumn(ctx, a, false)
}

// CopyColumn copies the source column as described by a. The source is left
// untouched.
func CopyColumn(ctx context.Context, a ColumnAction) error {
	return applyColumn(ctx, a, true)
}

func applyColumn(ctx context.Context, a ColumnAction, keep bool) error {
	src := a.source.table
	if src == nil || a.dest == nil {
		return ErrInvalidTable
	}
	if src == a.dest && (a.position == snapshot.PlaceBefore || a.position == snapshot.PlaceAfter) &&
		a.target.header.Equal(a.source.header) {
		return fmt.Errorf("%w: %s", ErrInvalidSelfMove, a)
	}
	if glog.V(1) {
		op := "move"
		if keep {
			op = "copy"
		}
		glog.Infof("table: %s %s", op, a)
	}
	if src == a.dest {
		return placeWithin(ctx, a, keep)
	}
	return placeAcross(ctx, a, keep)
}

func placeWithin(ctx context.Context, a ColumnAction, keep bool) error {
	t := a.source.table
	srcHeader, destHeader := a.source.header, a.Destination()

	old, next, err := t.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		order, ok := s.Order(srcHeader)
		if !ok {
			return nil, a.source.missing()
		}
		p := snapshot.Placement{
			Header:   destHeader,
			Cells:    s.Cells(srcHeader),
			Anchor:   a.target.header,
			Position: a.position,
		}
		if !keep {
			if !srcHeader.Equal(destHeader) {
				p.Drop = []Header{srcHeader}
			}
			p.Reuse = &order
		}
		return place(s, p, a.target)
	})
	if err != nil {
		return err
	}

	var headers []Header
	if !keep {
		headers = append(headers, srcHeader)
	}
	if a.position == snapshot.PlaceTo {
		headers = append(headers, a.target.header)
	}
	headers = append(headers, destHeader)
	return t.publish(ctx, t.diffColumns(old, next, headers))
}

// testHookAcross runs between the source and destination steps of a
// cross-table move or copy.
var testHookAcross = func() {}

// placeAcross runs two CAS steps: the source table drops the column, then
// the destination inserts it. A reader between the steps sees the column in
// neither table. When the destination step fails the column is put back.
func placeAcross(ctx context.Context, a ColumnAction, keep bool) error {
	src, dst := a.source.table, a.dest
	srcHeader, destHeader := a.source.header, a.Destination()

	if a.position != snapshot.PlaceEnd {
		s, err := dst.Snapshot()
		if err != nil {
			return err
		}
		if !s.HasColumn(a.target.header) {
			return a.target.missing()
		}
	}

	var (
		cells     snapshot.Cells
		srcOrder  int64
		srcEvents []Event
	)
	if keep {
		s, err := src.Snapshot()
		if err != nil {
			return err
		}
		if !s.HasColumn(srcHeader) {
			return a.source.missing()
		}
		cells = s.Cells(srcHeader)
	} else {
		old, next, err := src.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
			if !s.HasColumn(srcHeader) {
				return nil, a.source.missing()
			}
			return s.WithoutColumn(srcHeader), nil
		})
		if err != nil {
			return err
		}
		cells = old.Cells(srcHeader)
		srcOrder, _ = old.Order(srcHeader)
		srcEvents = src.diffColumns(old, next, []Header{srcHeader})
	}
	testHookAcross()

	old, next, err := dst.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		return place(s, snapshot.Placement{
			Header:   destHeader,
			Cells:    cells,
			Anchor:   a.target.header,
			Position: a.position,
		}, a.target)
	})
	if err != nil {
		if keep {
			return err
		}
		rold, rnext, rerr := src.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
			return s.Restore(srcHeader, srcOrder, cells), nil
		})
		var restored []Event
		if rerr == nil {
			restored = src.diffColumns(rold, rnext, []Header{srcHeader})
		}
		return src.undo(ctx, srcEvents, restored, err, rerr)
	}

	var headers []Header
	if a.position == snapshot.PlaceTo {
		headers = append(headers, a.target.header)
	}
	headers = append(headers, destHeader)
	dstEvents := dst.diffColumns(old, next, headers)

	err = src.publish(ctx, srcEvents)
	if derr := dst.publish(ctx, dstEvents); err == nil {
		err = derr
	}
	return err
}

// place applies p and reports a missing anchor as an invalid column.
func place(s *snapshot.Snapshot, p snapshot.Placement, anchor Column) (*snapshot.Snapshot, error) {
	next, err := s.Place(p)
	if errors.Is(err, snapshot.ErrColumnNotFound) {
		return nil, anchor.missing()
	}
	return next, err
}
