package value

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind identifies which variant of the cell value union is held.
type Kind uint8

const (
	// KindEmpty is the absence of a value.
	KindEmpty Kind = iota
	// KindText is a string.
	KindText
	// KindInteger is a signed 64-bit integer.
	KindInteger
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBigInt is an arbitrary-precision integer.
	KindBigInt
	// KindBigDecimal is an arbitrary-precision decimal.
	KindBigDecimal
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBigInt:
		return "bigint"
	case KindBigDecimal:
		return "bigdecimal"
	default:
		return "unknown"
	}
}

// Value is an immutable cell value. The zero Value is Empty.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    *big.Int
	d    decimal.Decimal
}

// Empty is the empty value.
var Empty = Value{}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, s: s}
}

// Int returns an integer value.
func Int(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// BigInt returns an arbitrary-precision integer value.
// The argument is copied; a nil argument yields Empty.
func BigInt(b *big.Int) Value {
	if b == nil {
		return Empty
	}
	return Value{kind: KindBigInt, b: new(big.Int).Set(b)}
}

// Decimal returns an arbitrary-precision decimal value.
func Decimal(d decimal.Decimal) Value {
	return Value{kind: KindBigDecimal, d: d}
}

// Of converts a Go value to a cell value.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Empty, nil
	case Value:
		return x, nil
	case string:
		return Text(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case *big.Int:
		return BigInt(x), nil
	case decimal.Decimal:
		return Decimal(x), nil
	default:
		return Empty, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsEmpty reports whether v is Empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindEmpty
}

// IsNumeric reports whether v holds one of the numeric kinds.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInteger, KindFloat, KindBigInt, KindBigDecimal:
		return true
	}
	return false
}

// AsText returns the string held by a text value.
func (v Value) AsText() (string, bool) {
	return v.s, v.kind == KindText
}

// AsInt returns the integer held by an integer value.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// AsFloat returns the float held by a float value.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsBigInt returns a copy of the integer held by a big integer value.
func (v Value) AsBigInt() (*big.Int, bool) {
	if v.kind != KindBigInt {
		return nil, false
	}
	return new(big.Int).Set(v.b), true
}

// AsDecimal returns the decimal held by a big decimal value.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	return v.d, v.kind == KindBigDecimal
}

// Any returns the held value as a plain Go value, nil for Empty.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBigInt:
		return new(big.Int).Set(v.b)
	case KindBigDecimal:
		return v.d
	}
	return nil
}

// Equal reports whether v and o are the same kind and hold equal values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindText:
		return v.s == o.s
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBigInt:
		return v.b.Cmp(o.b) == 0
	case KindBigDecimal:
		return v.d.Equal(o.d)
	}
	return false
}

// String renders the value the way it is printed in tables and CSV output.
// Empty renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBigInt:
		return v.b.String()
	case KindBigDecimal:
		return v.d.String()
	}
	return ""
}

// GoString renders the value with its kind, for debugging and test output.
func (v Value) GoString() string {
	if v.kind == KindEmpty {
		return "Empty"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}
