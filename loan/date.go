package loan

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day, no time of day
// =============================================================================

// DefaultDateLayout is the fixed layout of the issue_date column.
const DefaultDateLayout = "2006-01-02"

type Date struct {
	Time time.Time
}

// NewDate returns the calendar date year-month-day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s with layout. The result is rejected unless it is a real
// calendar date (time.Parse already refuses 2021-02-30).
func ParseDate(layout, s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// MustDate parses an ISO date and panics on failure. For tests and constants.
func MustDate(s string) Date {
	d, err := ParseDate(DefaultDateLayout, s)
	if err != nil {
		panic(fmt.Sprintf("loan: invalid date %q: %v", s, err))
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

// YearMonth returns year*100 + month, e.g. 202103.
func (d Date) YearMonth() int { return d.Year()*100 + int(d.Month()) }

// MonthLabel returns the displayable year-month, e.g. "2021-03".
func (d Date) MonthLabel() string { return d.Time.Format("2006-01") }

func (d Date) String() string { return d.Time.Format(DefaultDateLayout) }

// MaxDate returns the later of a and b.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of a and b.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End]
// =============================================================================

type DateRange struct {
	Start Date
	End   Date
}

// FallbackRange is used for the date controls when there is no data.
var FallbackRange = DateRange{
	Start: NewDate(2017, time.January, 1),
	End:   NewDate(2025, time.December, 31),
}

// Contains returns true if d is within [Start, End].
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Empty reports whether the range selects no day at all.
func (r DateRange) Empty() bool { return r.End.Before(r.Start) }

// Clamp narrows r to lie inside bounds.
func (r DateRange) Clamp(bounds DateRange) DateRange {
	return DateRange{
		Start: MaxDate(r.Start, bounds.Start),
		End:   MinDate(r.End, bounds.End),
	}
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// ObservedRange returns the min/max issue date of rows, or FallbackRange
// when rows is empty.
func ObservedRange(rows []FactRow) DateRange {
	if len(rows) == 0 {
		return FallbackRange
	}
	r := DateRange{Start: rows[0].IssueDate, End: rows[0].IssueDate}
	for _, row := range rows[1:] {
		r.Start = MinDate(r.Start, row.IssueDate)
		r.End = MaxDate(r.End, row.IssueDate)
	}
	return r
}
