package value

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse infers a value from text. Integers that fit in int64 become Integer,
// larger integers become BigInt, other numeric literals become Float and
// everything else is Text. The empty string is Empty.
func Parse(s string) Value {
	return parse(s, false)
}

// ParseDecimal is like Parse but numbers with a fractional part or exponent
// become BigDecimal instead of Float.
func ParseDecimal(s string) Value {
	return parse(s, true)
}

func parse(s string, decimals bool) Value {
	if s == "" {
		return Empty
	}
	if !numeric(s) {
		return Text(s)
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return Int(i)
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
		if b, ok := new(big.Int).SetString(s, 10); ok {
			return Value{kind: KindBigInt, b: b}
		}
	}

	if decimals {
		if d, err := decimal.NewFromString(s); err == nil {
			return Decimal(d)
		}
		return Text(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return Text(s)
}

// numeric rejects words ParseFloat would accept, such as "inf" and "nan".
func numeric(s string) bool {
	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case strings.ContainsRune("+-.eE", r):
		default:
			return false
		}
	}
	return digits
}
