package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date (this system never looks below day granularity)
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day, always stored as midnight UTC.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping the calendar day as seen in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) String() string        { return d.Time.Format(dateLayout) }

// IsRegularDay reports whether d falls Monday through Saturday.
func (d Date) IsRegularDay() bool { return d.Weekday() != time.Sunday }

func (d Date) StartOfMonth() Date { return NewDate(d.Year(), d.Month(), 1) }
func (d Date) EndOfMonth() Date   { return d.StartOfMonth().AddMonths(1).AddDays(-1) }

// SameMonth reports whether both dates share year and month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return NewDate(year, month, 1).EndOfMonth().Day()
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// =============================================================================
// CLOCK - Injected "today"
// =============================================================================

// Clock supplies the current date. The engine itself never reads the wall
// clock; callers resolve "today" once and pass it down as asOf.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Today() Date { return DateOf(time.Now().UTC()) }

// FixedClock always returns the same date.
type FixedClock struct {
	Date Date
}

func (c FixedClock) Today() Date { return c.Date }

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a company-wide non-working date. Holidays apply to every
// department and employee.
type Holiday struct {
	Date Date
	Name string
}

// HolidayCalendar answers holiday lookups for the engine.
type HolidayCalendar interface {
	IsHoliday(d Date) bool
}

// HolidaySet is the in-memory calendar built from the full holiday list.
type HolidaySet map[string]struct{}

func NewHolidaySet(dates ...Date) HolidaySet {
	s := make(HolidaySet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// HolidaySetOf builds a set from stored holidays.
func HolidaySetOf(holidays []Holiday) HolidaySet {
	s := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		s.Add(h.Date)
	}
	return s
}

func (s HolidaySet) Add(d Date) { s[d.String()] = struct{}{} }

func (s HolidaySet) IsHoliday(d Date) bool {
	_, ok := s[d.String()]
	return ok
}

func isHoliday(cal HolidayCalendar, d Date) bool {
	return cal != nil && cal.IsHoliday(d)
}

// isWorkingDay is a Monday-Saturday date that is not a holiday.
func isWorkingDay(cal HolidayCalendar, d Date) bool {
	return d.IsRegularDay() && !isHoliday(cal, d)
}
