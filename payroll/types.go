/*
Package payroll computes daily pay ledgers for employees.

PURPOSE:
  Given an employee's salary history, the department's working-hours
  history and the company holiday calendar, the engine derives one ledger
  entry per working day (Monday-Saturday, not a holiday) between the
  employee's start date and min(end date, today), each carrying the hours
  worked and the pay earned that day.

KEY CONCEPTS IN THIS FILE (types.go):
  - History:    effective-dated values (salary, hours per day), sorted on write
  - Department: hours-per-day owner, referenced by name
  - Employee:   salary owner with an embedded entry ledger
  - Entry:      one priced working day

DESIGN PRINCIPLES:
  1. Purity: the engine functions take every input explicitly, "today" included
  2. Precision: hours, salaries and pay are decimal.Decimal
  3. Embedded sequences: histories and entries are owned slices, never shared
  4. Determinism: rebuilding twice with the same inputs yields the same ledger

SEE ALSO:
  - calendar.go: working days per month
  - resolve.go:  effective-dated lookups and the hourly rate
  - worktype.go: work declarations and their labels
  - rebuild.go:  full ledger regeneration
  - mutate.go:   single-day and department-wide edits
  - service.go:  lifecycle operations against a Store
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HISTORY - Effective-dated values
// =============================================================================

// Effective is a value that applies from EffectiveDate until superseded.
type Effective[T any] struct {
	Value         T
	EffectiveDate Date
}

// History is kept ascending by EffectiveDate. Entries sharing a date keep
// their recording order.
type History[T any] []Effective[T]

// Insert returns a copy of h with the new value placed after every entry
// effective on or before eff.
func (h History[T]) Insert(value T, eff Date) History[T] {
	i := sort.Search(len(h), func(i int) bool {
		return h[i].EffectiveDate.After(eff)
	})
	out := make(History[T], 0, len(h)+1)
	out = append(out, h[:i]...)
	out = append(out, Effective[T]{Value: value, EffectiveDate: eff})
	return append(out, h[i:]...)
}

// =============================================================================
// DEPARTMENT
// =============================================================================

type Department struct {
	Name string

	// Hours is the cached hours-per-day currently in force.
	Hours        decimal.Decimal
	HoursHistory History[decimal.Decimal]

	// Version is the optimistic-locking counter maintained by stores.
	// Zero means the department has never been saved.
	Version int64
}

// HoursAsOf resolves the hours-per-day effective on asOf, falling back to
// the cached current value when no history entry qualifies.
func (d Department) HoursAsOf(asOf Date) decimal.Decimal {
	if v, ok := ResolveAsOf(d.HoursHistory, asOf); ok {
		return v
	}
	return d.Hours
}

// Clone returns a deep copy.
func (d Department) Clone() Department {
	d.HoursHistory = append(History[decimal.Decimal](nil), d.HoursHistory...)
	return d
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	Name string

	// BaseSalary is the cached monthly salary currently in force.
	BaseSalary    decimal.Decimal
	SalaryHistory History[decimal.Decimal]

	StartDate Date
	EndDate   *Date // nil while active

	// Department is a name reference, not ownership.
	Department string

	// Entries are ordered by date, one per working day.
	Entries []Entry

	// NextEntryID is the id high-water mark. Ids of entries dropped by a
	// rebuild are never handed out again.
	NextEntryID int64

	Version int64
}

// SalaryAsOf resolves the salary effective on asOf, falling back to the
// cached current value when no history entry qualifies.
func (e Employee) SalaryAsOf(asOf Date) decimal.Decimal {
	if v, ok := ResolveAsOf(e.SalaryHistory, asOf); ok {
		return v
	}
	return e.BaseSalary
}

// IsActive reports whether the employee has not been terminated.
func (e Employee) IsActive() bool { return e.EndDate == nil }

// IsActiveOn reports startDate <= d <= endDate (open-ended while active).
func (e Employee) IsActiveOn(d Date) bool {
	if d.Before(e.StartDate) {
		return false
	}
	return e.EndDate == nil || d.BeforeOrEqual(*e.EndDate)
}

// LastPayableDay is min(endDate, asOf).
func (e Employee) LastPayableDay(asOf Date) Date {
	if e.EndDate != nil {
		return MinDate(*e.EndDate, asOf)
	}
	return asOf
}

// EntryOn returns the ledger entry for d, if any.
func (e Employee) EntryOn(d Date) (Entry, bool) {
	for _, entry := range e.Entries {
		if entry.Date.Equal(d) {
			return entry, true
		}
	}
	return Entry{}, false
}

// nextEntryID is max(NextEntryID, max(existing ids)+1). Ids start at 0.
func (e Employee) nextEntryID() int64 {
	next := e.NextEntryID
	for _, entry := range e.Entries {
		if entry.ID >= next {
			next = entry.ID + 1
		}
	}
	return next
}

// Clone returns a deep copy.
func (e Employee) Clone() Employee {
	e.SalaryHistory = append(History[decimal.Decimal](nil), e.SalaryHistory...)
	e.Entries = append([]Entry(nil), e.Entries...)
	if e.EndDate != nil {
		end := *e.EndDate
		e.EndDate = &end
	}
	return e
}

// =============================================================================
// ENTRY - One priced working day
// =============================================================================

type Entry struct {
	ID    int64
	Date  Date
	Hours decimal.Decimal
	Pay   decimal.Decimal
	Work  WorkType
}

// Day is the weekday label, e.g. "Tuesday".
func (e Entry) Day() string { return e.Date.Weekday().String() }

// placeEntry returns a copy of entries with e replacing the entry on the
// same date, or inserted in date order.
func placeEntry(entries []Entry, e Entry) []Entry {
	i := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Date.Before(e.Date)
	})
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, entries[:i]...)
	out = append(out, e)
	if i < len(entries) && entries[i].Date.Equal(e.Date) {
		i++
	}
	return append(out, entries[i:]...)
}
