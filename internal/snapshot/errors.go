package snapshot

import "errors"

// Sentinel errors for the snapshot store.
var (
	// ErrStoreClosed is returned when a released store is read or updated.
	ErrStoreClosed = errors.New("snapshot store is closed")

	// ErrColumnNotFound is returned when a transform names a missing column.
	ErrColumnNotFound = errors.New("column not found")
)
