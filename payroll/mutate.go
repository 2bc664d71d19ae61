package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER MUTATORS
// =============================================================================

// EntryInput is a single-day declaration for one employee.
type EntryInput struct {
	Date Date
	Work WorkType
}

// UpsertEntry prices one declaration and places it in the ledger, replacing
// the entry on the same date (keeping its id) or inserting a new one.
//
// Unlike a rebuild, salary and department hours are resolved as of the
// entry date itself. The hourly rate still uses that month's working days.
func UpsertEntry(emp Employee, dept Department, holidays HolidayCalendar, in EntryInput, asOf Date) (Employee, Entry, error) {
	if err := checkEntryDate(emp, holidays, in.Date, asOf); err != nil {
		return Employee{}, Entry{}, err
	}

	entry, err := priceEntry(emp, dept, holidays, in.Date, in.Work)
	if err != nil {
		return Employee{}, Entry{}, err
	}

	out := emp.Clone()
	if existing, ok := emp.EntryOn(in.Date); ok {
		entry.ID = existing.ID
		out.NextEntryID = emp.nextEntryID()
	} else {
		entry.ID = emp.nextEntryID()
		out.NextEntryID = entry.ID + 1
	}
	out.Entries = placeEntry(out.Entries, entry)
	return out, entry, nil
}

// UpsertMassEntries applies CUSTOM_HOURS(hours) on date to every employee
// of dept employed on that date, terminated or not. employees may include
// other departments and people not employed on date; both are skipped. The edit fails as a whole, touching nobody,
// when date is a holiday or a Sunday or when no employee qualifies.
func UpsertMassEntries(dept Department, employees []Employee, holidays HolidayCalendar, date Date, hours decimal.Decimal, asOf Date) ([]Employee, error) {
	if hours.IsNegative() || hours.GreaterThan(MaxDailyHours) {
		return nil, invalid("hours", "must be between 0 and 24")
	}
	if date.After(asOf) {
		return nil, invalid("date", "cannot be in the future")
	}
	if isHoliday(holidays, date) {
		return nil, conflict("cannot apply a mass edit on a holiday (%s)", date)
	}

	var targets []Employee
	for _, emp := range employees {
		if emp.Department == dept.Name && emp.IsActiveOn(date) {
			targets = append(targets, emp)
		}
	}
	if len(targets) == 0 {
		return nil, conflict("no active employees in department %s", dept.Name)
	}
	if date.Weekday() == time.Sunday {
		return nil, conflict("cannot apply a mass edit on a Sunday (%s)", date)
	}

	updated := make([]Employee, 0, len(targets))
	for _, emp := range targets {
		out, _, err := UpsertEntry(emp, dept, holidays, EntryInput{Date: date, Work: CustomHours(hours)}, asOf)
		if err != nil {
			return nil, err
		}
		updated = append(updated, out)
	}
	return updated, nil
}

// checkEntryDate rejects dates the next rebuild would drop.
func checkEntryDate(emp Employee, holidays HolidayCalendar, date, asOf Date) error {
	switch {
	case date.IsZero():
		return invalid("date", "is required")
	case date.After(asOf):
		return invalid("date", "cannot be in the future")
	case isHoliday(holidays, date):
		return invalid("date", "%s is a holiday", date)
	case !date.IsRegularDay():
		return invalid("date", "%s is a Sunday", date)
	case !emp.IsActiveOn(date):
		return invalid("date", "%s is outside the employment of %s", date, emp.Name)
	}
	return nil
}

func priceEntry(emp Employee, dept Department, holidays HolidayCalendar, date Date, work WorkType) (Entry, error) {
	rate, deptHours, err := monthlyRate(emp, dept, holidays, date.StartOfMonth(), date)
	if err != nil {
		return Entry{}, err
	}
	hours, _, err := work.Evaluate(deptHours)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Date: date, Hours: hours, Pay: hours.Mul(rate), Work: work}, nil
}
