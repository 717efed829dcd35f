package table

import "errors"

// Sentinel errors for table operations.
var (
	// ErrInvalidTable is returned for any access to a closed table and for
	// handles that belong to a different table than the operation expects.
	ErrInvalidTable = errors.New("invalid table")

	// ErrInvalidColumn is returned when an operation names a missing column.
	ErrInvalidColumn = errors.New("invalid column")

	// ErrInvalidRow is returned when a row operation has nothing to act on.
	ErrInvalidRow = errors.New("invalid row")

	// ErrInvalidSelfMove is returned when a column or row is moved or copied
	// before or after itself.
	ErrInvalidSelfMove = errors.New("cannot move or copy relative to itself")

	// ErrInvalidCell is returned when a Go value cannot be stored in a cell.
	ErrInvalidCell = errors.New("invalid cell value")
)
