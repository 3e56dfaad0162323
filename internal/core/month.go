package core

import (
	"fmt"
	"time"
)

// MonthLayout is the textual form of a month key.
const MonthLayout = "2006-01"

// Month identifies a calendar month. Its text form is YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month from year and month number (1-12).
func NewMonth(year, month int) Month {
	return Month{Year: year, Month: time.Month(month)}
}

// MonthOf returns the calendar month of t, evaluated in UTC.
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	if len(s) != len(MonthLayout) {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Validate checks the month number and year range.
func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December || m.Year < 1 || m.Year > 9999 {
		return ErrInvalidMonth
	}
	return nil
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether t falls in the month. The comparison is done on
// the UTC calendar date, the same as prefix-matching an ISO-8601 UTC timestamp.
func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return u.Year() == m.Year && u.Month() == m.Month
}

// Next returns the following month.
func (m Month) Next() Month { return MonthOf(m.Start().AddDate(0, 1, 0)) }

// Prev returns the preceding month.
func (m Month) Prev() Month { return MonthOf(m.Start().AddDate(0, -1, 0)) }

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
