package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies one monthly billing cycle (value type).
// Payments are matched to periods by this key, never by payment date.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Valid reports whether the period has a month in 1..12 and a positive year.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Prev returns the preceding calendar month.
func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return DaysInMonth(p.Year, p.Month)
}

// DueDate projects a due day onto the period.
// Days past the end of the month fall due on the month's last day.
func (p Period) DueDate(dueDay int) time.Time {
	day := dueDay
	if last := p.Days(); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// AdjustedDueDate is p.DueDate(dueDay).
func AdjustedDueDate(p Period, dueDay int) time.Time {
	return p.DueDate(dueDay)
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod parses a YYYY-MM string.
func ParsePeriod(s string) (Period, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", year, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period month %q: %w", month, err)
	}
	p := Period{Year: y, Month: time.Month(m)}
	if !p.Valid() {
		return Period{}, fmt.Errorf("invalid period %q: month must be 1-12", s)
	}
	return p, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date truncates t to its calendar date (midnight UTC), keeping the
// year, month and day as seen in t's own location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
