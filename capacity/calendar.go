package capacity

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (UTC, time-of-day ignored)
// =============================================================================

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.normalize().AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DaysBetween returns the signed whole-day distance from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// DATE RANGE - Inclusive day range
// =============================================================================

// DateRange is an inclusive range of calendar days: [Start, End].
type DateRange struct {
	Start Date
	End   Date
}

// TotalDays returns the inclusive day count of the range, minimum 1. A
// contract that starts and ends on the same day counts as one day, not
// zero, so downstream proration never divides by zero.
func (r DateRange) TotalDays() int {
	days := DaysBetween(r.Start, r.End) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Contains returns true if the date falls within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// OverlapDays returns the number of whole days two inclusive ranges
// share. Inclusive counting: a single-day range overlapping itself
// returns 1. Degenerate or disjoint overlaps return 0.
func OverlapDays(a, b DateRange) int {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if end.Before(start) {
		return 0
	}
	return DaysBetween(start, end) + 1
}

// =============================================================================
// MONTH BOUNDARIES
// =============================================================================

// StartOfMonth returns the first calendar day of the month containing d.
func StartOfMonth(d Date) Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last calendar day of the month containing d.
func EndOfMonth(d Date) Date {
	return StartOfMonth(d).AddMonths(1).AddDays(-1)
}

// MonthRange returns the inclusive first-to-last day range of the month
// containing d, ignoring time-of-day.
func MonthRange(d Date) DateRange {
	return DateRange{Start: StartOfMonth(d), End: EndOfMonth(d)}
}
