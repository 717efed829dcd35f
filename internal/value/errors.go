package value

import "errors"

// Sentinel errors for cell values.
var (
	// ErrNotNumeric is returned when arithmetic is attempted on a non-numeric value.
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrUnsupportedType is returned when a Go value has no cell value equivalent.
	ErrUnsupportedType = errors.New("unsupported value type")
)
