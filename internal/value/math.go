package value

import (
	"cmp"
	"math/big"

	"github.com/shopspring/decimal"
)

// Add returns a + b.
//
// A Float operand makes the result Float. Otherwise the result takes the wider
// of the operand kinds in the order Integer < BigInt < BigDecimal. Integer
// overflow promotes to BigInt.
func Add(a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Empty, ErrNotNumeric
	}

	switch {
	case a.kind == KindFloat || b.kind == KindFloat:
		return Float(toFloat(a) + toFloat(b)), nil
	case a.kind == KindBigDecimal || b.kind == KindBigDecimal:
		return Decimal(toDecimal(a).Add(toDecimal(b))), nil
	case a.kind == KindBigInt || b.kind == KindBigInt:
		return Value{kind: KindBigInt, b: new(big.Int).Add(toBig(a), toBig(b))}, nil
	}

	sum := a.i + b.i
	if (a.i > 0 && b.i > 0 && sum < 0) || (a.i < 0 && b.i < 0 && sum >= 0) {
		return Value{kind: KindBigInt, b: new(big.Int).Add(toBig(a), toBig(b))}, nil
	}
	return Int(sum), nil
}

// Compare orders two numeric values, returning -1, 0 or +1.
func Compare(a, b Value) (int, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return 0, ErrNotNumeric
	}

	switch {
	case a.kind == KindInteger && b.kind == KindInteger:
		return cmp.Compare(a.i, b.i), nil
	case a.kind == KindFloat || b.kind == KindFloat:
		return cmp.Compare(toFloat(a), toFloat(b)), nil
	}
	return toDecimal(a).Cmp(toDecimal(b)), nil
}

func toFloat(v Value) float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.i)
	case KindBigInt:
		f, _ := new(big.Float).SetInt(v.b).Float64()
		return f
	case KindBigDecimal:
		return v.d.InexactFloat64()
	}
	return v.f
}

func toDecimal(v Value) decimal.Decimal {
	switch v.kind {
	case KindInteger:
		return decimal.NewFromInt(v.i)
	case KindBigInt:
		return decimal.NewFromBigInt(v.b, 0)
	case KindFloat:
		return decimal.NewFromFloat(v.f)
	}
	return v.d
}

func toBig(v Value) *big.Int {
	if v.kind == KindBigInt {
		return v.b
	}
	return big.NewInt(v.i)
}
