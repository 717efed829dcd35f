// Package value provides the immutable cell value held by table cells.
//
// A Value is a tagged union over Empty, Text, Integer, Float, BigInt and
// BigDecimal. The zero Value is Empty. Tables never store Empty: writing it
// deletes the cell.
//
// Values are built with the constructors (Text, Int, Float, BigInt, Decimal),
// converted from plain Go values with Of, or inferred from text with Parse and
// ParseDecimal:
//
//	v := value.Parse("42")          // Integer(42)
//	w := value.Parse("1.5")         // Float(1.5)
//	d := value.ParseDecimal("1.5")  // BigDecimal(1.5)
//
// Add and Compare implement the numeric promotion used by derived cells.
package value
