// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Conversions to and from decimal text go
// through shopspring/decimal so that no value ever passes through a float.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// MaxAmountCents bounds a single entry: 100.000.000.000,00. Sums of up to
// 900.000 such entries still fit in an int64.
const MaxAmountCents int64 = 1e13

var (
	hundred     = decimal.NewFromInt(100)
	maxCentsDec = decimal.NewFromInt(MaxAmountCents)
)

// NewMoney converts a decimal amount to cents, rounding half-up on the third
// fractional digit. Negative values and values above MaxAmountCents are
// rejected.
func NewMoney(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCentsDec) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents (half-up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d)
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display and ratios.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Percent returns pct percent of m rounded half-up to the cent.
func (m Money) Percent(pct int64) Money {
	d := m.Decimal().Mul(decimal.NewFromInt(pct)).Div(hundred)
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount as a plain decimal with two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount for people: thousands separated by dots, decimal
// comma, no fractional part when it is zero.
func (m Money) Format() string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	whole := decimal.NewFromInt(cents / 100).String()
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "$ " + b.String()
	if frac := cents % 100; frac != 0 {
		out += "," + decimal.NewFromInt(100 + frac).String()[1:]
	}
	if neg {
		return "-" + out
	}
	return out
}

// MarshalJSON encodes the amount as a JSON number (1500.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number only. Strings and booleans are rejected so
// that a wrongly typed body is reported instead of coerced.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) == 0 || !(data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		return ErrInvalidAmount
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return ErrInvalidAmount
	}
	v, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
