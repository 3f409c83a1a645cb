// Package core holds the ledger domain: bills, payments, income entries and
// the parsing rules that turn loosely-typed persisted input into canonical
// values.
//
// This file contains date handling. Persisted data comes from several app
// generations, so dates arrive as ISO strings, Brazilian D/M/YYYY strings or
// full timestamps; parsing never fails, it degrades to a zero value that
// downstream aggregation excludes.
package core

import (
	"strings"
	"time"
)

// Date is a calendar date with no time-of-day component, anchored at local
// midnight so that due-date math does not shift across time zones.
type Date struct {
	time.Time
}

// NewDate creates a Date at local midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)}
}

// DateOf truncates a timestamp to its local calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDateFlex parses the date forms found in persisted ledgers:
//
//   - "2006-01-02" (optionally with a trailing time), at local midnight
//   - "2/1/06" and "2/1/2006" (two-digit years are 2000s)
//   - common timestamp layouts as a fallback
//
// The second return value is false for anything unparseable. Callers must
// exclude such dates from aggregation rather than treat them as epoch.
func ParseDateFlex(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	// ISO date, possibly with a time suffix. Parsed in the local zone: a bare
	// "2024-01-15" means local midnight, not UTC.
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], time.Local); err == nil {
			return DateOf(t), true
		}
	}

	if d, ok := parseBRDate(s); ok {
		return d, true
	}

	if t, ok := parseGenericTime(s); ok {
		return DateOf(t), true
	}

	return Date{}, false
}

// parseBRDate parses D/M/YY and D/M/YYYY.
func parseBRDate(s string) (Date, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, false
	}
	day, ok1 := atoiStrict(parts[0])
	month, ok2 := atoiStrict(parts[1])
	year, ok3 := atoiStrict(parts[2])
	if !ok1 || !ok2 || !ok3 {
		return Date{}, false
	}
	if len(parts[2]) == 2 {
		year += 2000
	} else if len(parts[2]) != 4 {
		return Date{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	d := NewDate(year, month, day)
	// time.Date normalizes overflow (31/2 becomes 2/3 or 3/3); reject those.
	if d.Day() != day || int(d.Month()) != month {
		return Date{}, false
	}
	return d, true
}

func parseGenericTime(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006/01/02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func atoiStrict(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// AddMonths advances a date by n calendar months (n may be negative),
// preserving the day of month and clamping to the target month's last day, so
// Jan 31 + 1 month is Feb 29 in a leap year rather than Mar 2.
func AddMonths(d Date, n int) Date {
	if d.IsZero() {
		return d
	}
	year, month, day := d.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.Local)
	if last := lastDayOfMonth(first); day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// WeekOfMonth buckets a day of month into weeks 1..5; days 29-31 fold into
// week 5.
func WeekOfMonth(t time.Time) int {
	week := (t.Day() + 6) / 7
	if week < 1 {
		week = 1
	}
	if week > 5 {
		week = 5
	}
	return week
}

// SameMonth reports whether t falls in the given year and month.
func SameMonth(t time.Time, year int, month int) bool {
	return t.Year() == year && int(t.Month()) == month
}

// MarshalJSON renders the date as "YYYY-MM-DD"; the zero date renders as an
// empty string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts any flexible date form and degrades unparseable input
// to the zero date instead of failing, so one bad record cannot poison a
// whole collection decode.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseDateFlex(s)
	if !ok {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// FlexTime is a timestamp with the same tolerant decoding contract as Date
// but keeping time-of-day, used for payment and income timestamps where
// intra-day ordering matters.
type FlexTime struct {
	time.Time
}

// NewFlexTime wraps a timestamp.
func NewFlexTime(t time.Time) FlexTime {
	return FlexTime{Time: t}
}

// ParseTimeFlex parses a timestamp, preferring full layouts and falling back
// to the date-only forms at local midnight.
func ParseTimeFlex(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseGenericTime(s); ok {
		return t, true
	}
	if d, ok := ParseDateFlex(s); ok {
		return d.Time, true
	}
	return time.Time{}, false
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*t = FlexTime{}
		return nil
	}
	parsed, ok := ParseTimeFlex(s)
	if !ok {
		*t = FlexTime{}
		return nil
	}
	*t = FlexTime{Time: parsed}
	return nil
}
