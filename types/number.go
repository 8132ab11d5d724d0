package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Number is a decimal value carried through normalization as an exact
// decimal rather than a binary float. It unmarshals from a JSON number or a
// quoted numeric string and keeps the source text, so cost and fee
// arithmetic never loses precision and String returns the venue's own
// rendering, trailing zeros included. Values derived by arithmetic have no
// source text and render canonically. The zero value means the field was
// absent, which is distinct from an explicit "0".
type Number struct {
	dec decimal.Decimal
	src string
	set bool
}

// NewNumberFromString constructs a Number from exact decimal text.
func NewNumberFromString(s string) (Number, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}, err
	}
	return Number{dec: d, src: s, set: true}, nil
}

// NewNumberFromFloat converts a float at the boundary. Prefer the string
// constructor when the source text is available.
func NewNumberFromFloat(f float64) Number {
	return Number{dec: decimal.NewFromFloat(f), set: true}
}

// NewNumberFromDecimal wraps an existing decimal.
func NewNumberFromDecimal(d decimal.Decimal) Number {
	return Number{dec: d, set: true}
}

// UnmarshalJSON deserializes a JSON number or quoted numeric string.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*n = Number{}
		return nil
	}
	if s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into Number: %w", string(data), err)
	}
	*n = Number{dec: d, src: s, set: true}
	return nil
}

// MarshalJSON serializes the number as exact decimal text.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return []byte(n.dec.String()), nil
}

// IsSet returns whether the field was present in the source payload.
func (n Number) IsSet() bool { return n.set }

// IsZero returns whether the number is unset or exactly zero.
func (n Number) IsZero() bool { return !n.set || n.dec.IsZero() }

// Decimal returns the underlying decimal value.
func (n Number) Decimal() decimal.Decimal { return n.dec }

// Float64 converts to a float at the response boundary.
func (n Number) Float64() float64 {
	f, _ := n.dec.Float64()
	return f
}

// String returns the source text when the value came off the wire, canonical
// decimal text for derived values, or an empty string when unset.
func (n Number) String() string {
	switch {
	case !n.set:
		return ""
	case n.src != "":
		return n.src
	}
	return n.dec.String()
}

// Mul returns n * x.
func (n Number) Mul(x Number) Number {
	if !n.set || !x.set {
		return Number{}
	}
	return Number{dec: n.dec.Mul(x.dec), set: true}
}

// Div returns n / x, or the unset value when x is zero.
func (n Number) Div(x Number) Number {
	if !n.set || !x.set || x.dec.IsZero() {
		return Number{}
	}
	return Number{dec: n.dec.Div(x.dec), set: true}
}

// Add returns n + x, treating unset operands as zero.
func (n Number) Add(x Number) Number {
	switch {
	case !n.set:
		return x
	case !x.set:
		return n
	}
	return Number{dec: n.dec.Add(x.dec), set: true}
}

// Neg returns the negated value.
func (n Number) Neg() Number {
	if !n.set {
		return Number{}
	}
	return Number{dec: n.dec.Neg(), set: true}
}

// Abs returns the absolute value.
func (n Number) Abs() Number {
	if !n.set {
		return Number{}
	}
	return Number{dec: n.dec.Abs(), set: true}
}

// Equal reports whether two numbers represent the same value.
func (n Number) Equal(x Number) bool {
	if n.set != x.set {
		return false
	}
	return !n.set || n.dec.Equal(x.dec)
}
