package value

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestZeroValueIsEmpty(t *testing.T) {
	var v Value
	if !v.IsEmpty() {
		t.Error("expected zero Value to be empty")
	}
	if v.Kind() != KindEmpty {
		t.Errorf("expected KindEmpty, got %v", v.Kind())
	}
	if v.String() != "" {
		t.Errorf("expected empty string, got %q", v.String())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		str  string
	}{
		{"", KindEmpty, ""},
		{"hello", KindText, "hello"},
		{"42", KindInteger, "42"},
		{"-7", KindInteger, "-7"},
		{"1.5", KindFloat, "1.5"},
		{"1e3", KindFloat, "1000"},
		{"123456789012345678901234567890", KindBigInt, "123456789012345678901234567890"},
		{"inf", KindText, "inf"},
		{"NaN", KindText, "NaN"},
		{"1-2", KindText, "1-2"},
		{"-", KindText, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v := Parse(tt.in)
			if v.Kind() != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, v.Kind())
			}
			if v.String() != tt.str {
				t.Errorf("expected %q, got %q", tt.str, v.String())
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	v := ParseDecimal("10.25")
	if v.Kind() != KindBigDecimal {
		t.Fatalf("expected KindBigDecimal, got %v", v.Kind())
	}
	d, _ := v.AsDecimal()
	if !d.Equal(decimal.RequireFromString("10.25")) {
		t.Errorf("expected 10.25, got %s", d)
	}

	if ParseDecimal("3").Kind() != KindInteger {
		t.Error("expected integers to stay Integer")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"empty", Empty, Value{}, true},
		{"text", Text("a"), Text("a"), true},
		{"text differs", Text("a"), Text("b"), false},
		{"int vs float", Int(1), Float(1), false},
		{"bigint", BigInt(big.NewInt(5)), BigInt(big.NewInt(5)), true},
		{"decimal scale", Decimal(decimal.RequireFromString("1.50")), Decimal(decimal.RequireFromString("1.5")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBigIntIsCopied(t *testing.T) {
	b := big.NewInt(10)
	v := BigInt(b)
	b.SetInt64(20)

	got, ok := v.AsBigInt()
	if !ok {
		t.Fatal("expected big int")
	}
	if got.Int64() != 10 {
		t.Errorf("expected 10, got %d", got.Int64())
	}
}

func TestOf(t *testing.T) {
	v, err := Of(3)
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	if i, ok := v.AsInt(); !ok || i != 3 {
		t.Errorf("expected Integer(3), got %#v", v)
	}

	if _, err := Of(struct{}{}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		kind Kind
		str  string
	}{
		{"ints", Int(2), Int(3), KindInteger, "5"},
		{"int float", Int(2), Float(0.5), KindFloat, "2.5"},
		{"int decimal", Int(2), ParseDecimal("0.25"), KindBigDecimal, "2.25"},
		{"int bigint", Int(1), Parse("99999999999999999999"), KindBigInt, "100000000000000000000"},
		{"overflow", Int(9223372036854775807), Int(1), KindBigInt, "9223372036854775808"},
		{"decimal float", ParseDecimal("1.5"), Float(1), KindFloat, "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			if got.Kind() != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, got.Kind())
			}
			if got.String() != tt.str {
				t.Errorf("expected %s, got %s", tt.str, got.String())
			}
		})
	}

	if _, err := Add(Text("x"), Int(1)); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Value
		want int
	}{
		{Int(1), Int(2), -1},
		{Float(2), Int(2), 0},
		{ParseDecimal("2.5"), Int(2), 1},
		{Parse("99999999999999999999"), Int(5), 1},
	}

	for _, tt := range tests {
		got, err := Compare(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Compare(%#v, %#v) failed: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%#v, %#v): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}
