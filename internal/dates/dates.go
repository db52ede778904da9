// Package dates provides a day-granular date value type. All ledger,
// rate and price data in this system is keyed by calendar day; carrying
// time.Time around invites timezone and sub-day precision bugs.
package dates

import (
	"fmt"
	"time"
)

// Format is the canonical textual form of a date.
const Format = "2006-01-02"

// Date is a calendar date with day granularity. The zero value is the
// zero date and sorts before any real date.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date. Out-of-range components roll over the
// way time.Date rolls them over, so New(2023, 12, 32) is 2024-01-01.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// FromTime truncates t to its UTC calendar day.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return Date{u.Year(), u.Month(), u.Day()}
}

// Parse parses a date in the canonical "YYYY-MM-DD" form.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Year returns the calendar year.
func (d Date) Year() int { return d.y }

// Month returns the month.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// Add returns the date shifted by the given number of days.
func (d Date) Add(days int) Date { return New(d.y, d.m, d.d+days) }

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool { return d.time().Before(other.time()) }

// After reports whether d falls after other.
func (d Date) After(other Date) bool { return d.time().After(other.time()) }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d == Date{} }

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string { return d.time().Format(Format) }

// Today returns the current date in UTC.
func Today() Date { return FromTime(time.Now()) }

// LastDayOfPreviousMonth returns the final calendar day of the month
// preceding d's month, e.g. 2023-06-15 -> 2023-05-31.
func (d Date) LastDayOfPreviousMonth() Date {
	return New(d.y, d.m, 1).Add(-1)
}

// Span is a calendar difference expressed in whole years, months and
// days, the way a tax holding period is counted.
type Span struct {
	Years  int
	Months int
	Days   int
}

// Diff returns the calendar span from `from` up to `to`. It expects
// from <= to; callers compare acquisition to sale dates.
func Diff(from, to Date) Span {
	years := to.y - from.y
	months := int(to.m) - int(from.m)
	days := to.d - from.d
	if days < 0 {
		months--
		// Borrow the length of the month preceding `to`.
		prev := New(to.y, to.m, 1).Add(-1)
		days += prev.d
	}
	if months < 0 {
		years--
		months += 12
	}
	return Span{Years: years, Months: months, Days: days}
}
