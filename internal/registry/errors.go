package registry

import "errors"

var (
	// ErrEmptyName is returned for an empty table name.
	ErrEmptyName = errors.New("table name is empty")

	// ErrNotFound is returned when a named table is not registered.
	ErrNotFound = errors.New("table not found")
)
