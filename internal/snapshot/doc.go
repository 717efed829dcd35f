// Package snapshot implements the versioned table state and its
// compare-and-swap update protocol.
//
// A Snapshot holds three persistent maps built on
// github.com/benbjohnson/immutable:
//
//	columns  Header -> ColumnOrder
//	cells    Header -> sorted row -> value
//	rows     sorted row -> number of columns holding a value at that row
//
// Nothing mutates a Snapshot in place. Every transform (WithValue, Place,
// SpliceRow, ...) returns a new Snapshot sharing structure with the old one,
// so readers can hold any snapshot for as long as they like without copying.
//
// A Store keeps the current snapshot of one table behind an atomic pointer.
// Store.Update runs a pure mutator in a CAS retry loop and stamps the result
// with the previous version plus one:
//
//	prev, next, err := store.Update(func(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
//		return s.WithValue(snapshot.NewHeader("A"), 1, value.Text("x")), nil
//	})
//
// Under contention the mutator runs again against the newer snapshot, so it
// must not have side effects. Version order follows swap order, which may
// differ from the order callers issued their updates.
package snapshot
