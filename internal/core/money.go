// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Input typed by a user may be a decimal
// literal ("12.34", "$1,200.50") or a left-to-right chain of additions and
// subtractions of such literals ("10+5", "-$20 + 4.50").
package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount converts user input into Money.
//
// The whole input fails if any token is not a number or an operator; in
// that case the returned Money is zero, which is the value callers assign.
// Fractions beyond the cent are rounded half away from zero.
//
// Examples:
//
//	ParseAmount("12.34")      -> $12.34
//	ParseAmount("10+5")       -> $15.00
//	ParseAmount("-$1,200.50") -> -$1,200.50
//	ParseAmount("10+abc")     -> $0.00, ErrInvalidAmount
func ParseAmount(input string) (Money, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}

	total := decimal.Zero
	negative := false
	rest := s
	if rest[0] == '-' || rest[0] == '+' {
		negative = rest[0] == '-'
		rest = rest[1:]
	}

	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		var lit string
		if end := strings.IndexAny(rest, "+-"); end < 0 {
			lit, rest = rest, ""
		} else {
			lit, rest = rest[:end], rest[end:]
		}

		v, err := parseLiteral(strings.TrimSpace(lit))
		if err != nil {
			return Money{}, fmt.Errorf("%w: %q", err, input)
		}
		if negative {
			total = total.Sub(v)
		} else {
			total = total.Add(v)
		}

		if rest == "" {
			break
		}
		negative = rest[0] == '-'
		rest = rest[1:]
		if strings.TrimSpace(rest) == "" {
			return Money{}, fmt.Errorf("%w: trailing operator in %q", ErrInvalidAmount, input)
		}
	}

	m, err := FromDecimal(total)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", err, input)
	}
	return m, nil
}

// AmountOrZero parses input and falls back to zero when it is invalid.
// Assignment fields use this: an invalid entry assigns nothing, it never
// keeps the previous value.
func AmountOrZero(input string) Money {
	m, err := ParseAmount(input)
	if err != nil {
		return Money{}
	}
	return m
}

func parseLiteral(lit string) (decimal.Decimal, error) {
	lit = strings.TrimPrefix(lit, "$")
	if lit == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	intPart, fracPart, hasFrac := strings.Cut(lit, ".")
	if strings.Contains(intPart, ",") {
		if !validGrouping(intPart) {
			return decimal.Zero, ErrInvalidAmount
		}
		intPart = strings.ReplaceAll(intPart, ",", "")
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !asciiDigits(intPart) || !asciiDigits(fracPart) {
		return decimal.Zero, ErrInvalidAmount
	}

	num := intPart
	if hasFrac && fracPart != "" {
		num += "." + fracPart
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// validGrouping reports whether s is a comma-grouped integer like "1,234,567".
func validGrouping(s string) bool {
	groups := strings.Split(s, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FromDecimal converts a decimal amount of dollars into cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the amount in dollars.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// FormatMoney renders m as a $-prefixed, comma-grouped, two-decimal string,
// e.g. "-$1,234.56". ParseAmount(FormatMoney(m)) == m for every m.
func FormatMoney(m Money) string {
	neg := m.Cents < 0
	abs := uint64(m.Cents)
	if neg {
		abs = uint64(-(m.Cents + 1)) + 1
	}
	digits := strconv.FormatUint(abs/100, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(digits[i])
	}
	fmt.Fprintf(&b, ".%02d", abs%100)
	return b.String()
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return FormatMoney(m)
}

// MarshalJSON encodes the amount as a JSON number of dollars ("12.30").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Cents builds Money from a number of cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// Dollars builds Money from a whole number of dollars.
func Dollars(d int64) Money {
	return Money{Cents: d * 100}
}

// Add, Sub and Neg do unchecked arithmetic; the ledger uses the Checked
// variants where overflow is possible.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

// IsZero, IsNegative and IsPositive test the sign of m.
func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

// CheckedAdd returns m+o, or ErrAmountOverflow when the sum does not fit.
func (m Money) CheckedAdd(o Money) (Money, error) {
	s := m.Cents + o.Cents
	if (o.Cents > 0 && s < m.Cents) || (o.Cents < 0 && s > m.Cents) {
		return m, ErrAmountOverflow
	}
	return Money{Cents: s}, nil
}

// CheckedSub returns m-o, or ErrAmountOverflow when the difference does not fit.
func (m Money) CheckedSub(o Money) (Money, error) {
	s := m.Cents - o.Cents
	if (o.Cents < 0 && s < m.Cents) || (o.Cents > 0 && s > m.Cents) {
		return m, ErrAmountOverflow
	}
	return Money{Cents: s}, nil
}
