package table

import (
	"context"
	"slices"

	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/value"
)

// SwapColumns exchanges the cells of a and b, which may belong to different
// tables. Both columns must exist and keep their headers and positions. The
// events of each table are published as one batch.
func SwapColumns(ctx context.Context, a, b Column) error {
	if a.table == nil || b.table == nil {
		return ErrInvalidTable
	}
	if a.table == b.table {
		return Batch(ctx, a.table, func(ctx context.Context) error {
			t := a.table
			old, next, err := t.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
				if !s.HasColumn(a.header) {
					return nil, a.missing()
				}
				if !s.HasColumn(b.header) {
					return nil, b.missing()
				}
				ca, cb := s.Cells(a.header), s.Cells(b.header)
				return s.WithCells(a.header, cb).WithCells(b.header, ca), nil
			})
			if err != nil {
				return err
			}
			return t.publish(ctx, t.diffColumns(old, next, []Header{a.header, b.header}))
		})
	}

	sa, err := a.table.Snapshot()
	if err != nil {
		return err
	}
	sb, err := b.table.Snapshot()
	if err != nil {
		return err
	}
	if !sa.HasColumn(a.header) {
		return a.missing()
	}
	if !sb.HasColumn(b.header) {
		return b.missing()
	}
	ca, cb := sa.Cells(a.header), sb.Cells(b.header)

	if err := replaceCells(ctx, a, cb); err != nil {
		return err
	}
	return replaceCells(ctx, b, ca)
}

func replaceCells(ctx context.Context, c Column, cells snapshot.Cells) error {
	return Batch(ctx, c.table, func(ctx context.Context) error {
		old, next, err := c.table.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
			if !s.HasColumn(c.header) {
				return nil, c.missing()
			}
			return s.WithCells(c.header, cells), nil
		})
		if err != nil {
			return err
		}
		return c.table.publish(ctx, c.table.diffColumns(old, next, []Header{c.header}))
	})
}

// SwapRows exchanges the contents of rows a and b, which may belong to
// different tables. Columns missing from the receiving table are created.
func SwapRows(ctx context.Context, a, b Row) error {
	if a.table == nil || b.table == nil {
		return ErrInvalidTable
	}
	if a.table == b.table {
		t := a.table
		return Batch(ctx, t, func(ctx context.Context) error {
			old, next, err := t.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
				ea, eb := s.Row(a.index), s.Row(b.index)
				s = s.SpliceRow(snapshot.RowSplice{Entries: eb, Anchor: a.index, Position: snapshot.PlaceTo})
				return s.SpliceRow(snapshot.RowSplice{Entries: ea, Anchor: b.index, Position: snapshot.PlaceTo}), nil
			})
			if err != nil {
				return err
			}
			return t.publish(ctx, t.diffRows(old, next, uniqueRows(a.index, b.index)))
		})
	}

	sa, err := a.table.Snapshot()
	if err != nil {
		return err
	}
	sb, err := b.table.Snapshot()
	if err != nil {
		return err
	}
	ea, eb := rowEntries(sa, sb, a.index), rowEntries(sb, sa, b.index)

	if err := replaceRow(ctx, a, eb); err != nil {
		return err
	}
	return replaceRow(ctx, b, ea)
}

func replaceRow(ctx context.Context, r Row, entries []snapshot.Entry) error {
	return Batch(ctx, r.table, func(ctx context.Context) error {
		old, next, err := r.table.update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
			return s.SpliceRow(snapshot.RowSplice{Entries: entries, Anchor: r.index, Position: snapshot.PlaceTo}), nil
		})
		if err != nil {
			return err
		}
		return r.table.publish(ctx, r.table.diffRows(old, next, []int64{r.index}))
	})
}

// rowEntries returns the row of from at index, followed by Empty entries
// for the columns of to that from lacks, so that writing the result into to
// clears those columns.
func rowEntries(from, to *snapshot.Snapshot, index int64) []snapshot.Entry {
	entries := from.Row(index)
	for _, h := range to.Headers() {
		if !from.HasColumn(h) {
			entries = append(entries, snapshot.Entry{Header: h, Value: value.Empty})
		}
	}
	return entries
}

func uniqueRows(rows ...int64) []int64 {
	slices.Sort(rows)
	return slices.Compact(rows)
}
