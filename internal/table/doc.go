// Package table is the reactive cell store.
//
// A Table pairs a snapshot.Store with an event.Hub. Reads take the current
// immutable snapshot. Every mutation computes a new snapshot through the
// store's CAS loop, derives before/after cell events from the old and new
// snapshots, and publishes them to the table's hub.
//
// Listeners are registered with On on a subject: the *Table itself, a
// Column, a Row, a CellRange or a CellAddress.
//
//	ref, err := table.On(ctx, t.ColumnAt("Price"), func(ctx context.Context, ref *event.Ref, events []table.Event) error {
//	    for _, e := range events {
//	        // writes must use ctx
//	        if err := t.Set(ctx, table.Header{"Seen"}, e.New.Index, e.New.Value); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}, event.WithName("mirror"), event.WithOrder(10))
//
// Structural edits are described by actions: column.After(other),
// column.To(other).As("New"), column.ToTable(t2), row.Before(other).
// MoveColumn, CopyColumn, MoveRow and CopyRow apply them. Edits spanning two
// tables run as two CAS steps, one per table, and are not atomic across the
// pair.
package table
