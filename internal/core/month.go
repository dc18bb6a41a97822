package core

import (
	"fmt"
	"time"
)

// MonthLayout is the storage key layout of a budget month.
const MonthLayout = "2006-01"

// Month identifies one calendar month of a budget. It is comparable and
// usable as a map key; the zero value means "no month".
type Month struct {
	year  int
	month time.Month
}

// NewMonth normalises year and month (month 13 of 2024 is January 2025).
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{year: t.Year(), month: t.Month()}
}

// MonthOf returns the month t falls in.
func MonthOf(t time.Time) Month {
	return Month{year: t.Year(), month: t.Month()}
}

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// MustMonth is ParseMonth for constants and tests.
func MustMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Year and Month return the calendar fields of m.
func (m Month) Year() int         { return m.year }
func (m Month) Month() time.Month { return m.month }

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool { return m.year == 0 && m.month == 0 }

// Next, Prev and AddMonths step through the calendar.
func (m Month) Next() Month           { return NewMonth(m.year, m.month+1) }
func (m Month) Prev() Month           { return NewMonth(m.year, m.month-1) }
func (m Month) AddMonths(n int) Month { return NewMonth(m.year, m.month+time.Month(n)) }

// Before, After and Contains compare months and dates.
func (m Month) Before(o Month) bool  { return m.Compare(o) < 0 }
func (m Month) After(o Month) bool   { return m.Compare(o) > 0 }
func (m Month) Contains(d Date) bool { return MonthOf(d.Time) == m }

// Compare returns -1, 0 or 1.
func (m Month) Compare(o Month) int {
	switch {
	case m.year != o.year:
		if m.year < o.year {
			return -1
		}
		return 1
	case m.month < o.month:
		return -1
	case m.month > o.month:
		return 1
	}
	return 0
}

// String returns the "YYYY-MM" key.
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
