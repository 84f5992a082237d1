// Package money provides the exact decimal amount type used by all invoice
// arithmetic. Amounts are rounded half-up to the currency minor unit (two
// decimal places); binary floating point is never involved.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the number of decimal places of the currency minor unit.
const minorUnitPlaces = 2

var oneHundred = decimal.NewFromInt(100)

// Money is an exact decimal monetary amount.
//
// The zero value is a valid zero amount. Money is a value type; all
// operations return a new Money and never mutate the receiver.
type Money struct {
	d decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{}
}

// New wraps a decimal as a Money amount.
func New(d decimal.Decimal) Money {
	return Money{d: d}
}

// FromString parses an exact decimal string such as "97.20".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustFromString parses an exact decimal string and panics on failure.
// Intended for constants and tests.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt returns a whole-unit amount.
func FromInt(n int64) Money {
	return Money{d: decimal.NewFromInt(n)}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m − o.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// MulQuantity returns m × q rounded to the minor unit.
func (m Money) MulQuantity(q decimal.Decimal) Money {
	return Money{d: m.d.Mul(q).Round(minorUnitPlaces)}
}

// MulPercent returns m × (rate / 100) rounded to the minor unit.
func (m Money) MulPercent(rate decimal.Decimal) Money {
	return Money{d: m.d.Mul(rate).DivRound(oneHundred, minorUnitPlaces)}
}

// Round returns m rounded half-up to the minor unit.
func (m Money) Round() Money {
	return Money{d: m.d.Round(minorUnitPlaces)}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(o Money) bool {
	return m.d.Cmp(o.d) == 0
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// IsZero reports whether m == 0.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String formats the amount with exactly two decimal places.
func (m Money) String() string {
	return m.d.StringFixed(minorUnitPlaces)
}

// MarshalJSON serializes the amount as an exact decimal string, e.g. "97.20".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON number. Numbers are
// parsed through the decimal library, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		m.d = decimal.Decimal{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	m.d = d
	return nil
}
