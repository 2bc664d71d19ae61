package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolveAsOf returns the value of the last entry whose EffectiveDate is on
// or before asOf. With several entries on the same date the later-recorded
// one wins. ok is false when nothing qualifies; callers then fall back to
// the record's cached current value.
//
// The engine resolves as of the first day of a month, so a change taking
// effect mid-month only applies from the following month. The mutators
// resolve as of the exact entry date.
func ResolveAsOf[T any](history History[T], asOf Date) (value T, ok bool) {
	for _, eff := range history {
		if eff.EffectiveDate.After(asOf) {
			break
		}
		value, ok = eff.Value, true
	}
	return value, ok
}

// HourlyRate is salary / (deptHours * workingDays).
func HourlyRate(salary, deptHours decimal.Decimal, workingDays int) (decimal.Decimal, error) {
	if workingDays <= 0 {
		return decimal.Zero, &ComputationError{Reason: "month has no working days"}
	}
	if !deptHours.IsPositive() {
		return decimal.Zero, &ComputationError{Reason: "department hours per day must be positive"}
	}
	return salary.Div(deptHours.Mul(decimal.NewFromInt(int64(workingDays)))), nil
}

// monthlyRate resolves salary and hours for a month and prices it. resolveOn
// is the first of the month for rebuilds and the entry date for edits.
func monthlyRate(emp Employee, dept Department, holidays HolidayCalendar, month, resolveOn Date) (rate, deptHours decimal.Decimal, err error) {
	salary := emp.SalaryAsOf(resolveOn)
	deptHours = dept.HoursAsOf(resolveOn)
	rate, err = HourlyRate(salary, deptHours, WorkingDaysInMonth(month.Year(), month.Month(), holidays))
	if err != nil {
		return decimal.Zero, decimal.Zero, withPeriod(err, emp.Name, month.Year(), month.Month())
	}
	return rate, deptHours, nil
}

func withPeriod(err error, employee string, year int, month time.Month) error {
	if ce, ok := err.(*ComputationError); ok {
		ce.Employee, ce.Year, ce.Month = employee, year, month
	}
	return err
}
