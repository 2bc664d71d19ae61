package payroll

// =============================================================================
// RECALCULATION ENGINE
// =============================================================================

// Rebuild is the regenerated ledger of one employee.
type Rebuild struct {
	Entries     []Entry
	NextEntryID int64
}

// Apply returns a copy of emp carrying the rebuilt ledger.
func (r Rebuild) Apply(emp Employee) Employee {
	out := emp.Clone()
	out.Entries = r.Entries
	out.NextEntryID = r.NextEntryID
	return out
}

// RebuildEntries regenerates the ledger of emp from scratch.
//
// Months run from the first of the start month to the month of
// min(endDate, asOf). Each month resolves salary and department hours as
// of its first day and prices one hourly rate over the month's working days.
// Within a month every Monday-Saturday, non-holiday day in
// [startDate, min(endDate, asOf)] gets exactly one entry:
//   - an existing entry for that date keeps its id and declaration and is
//     re-evaluated and repriced
//   - a missing day gets a FULL_DAY entry with the next id
//
// Existing entries on days that no longer qualify (a new holiday, a date
// past a termination) are dropped. Their ids are not reused.
//
// The function is pure. Rebuilding twice with the same inputs yields the
// same ledger.
func RebuildEntries(emp Employee, dept Department, holidays HolidayCalendar, asOf Date) (Rebuild, error) {
	nextID := emp.nextEntryID()
	last := emp.LastPayableDay(asOf)
	if last.Before(emp.StartDate) {
		return Rebuild{NextEntryID: nextID}, nil
	}

	existing := make(map[string]Entry, len(emp.Entries))
	for _, e := range emp.Entries {
		existing[e.Date.String()] = e
	}

	var entries []Entry
	for month := emp.StartDate.StartOfMonth(); !month.After(last); month = month.AddMonths(1) {
		rate, deptHours, err := monthlyRate(emp, dept, holidays, month, month)
		if err != nil {
			return Rebuild{}, err
		}

		for day := month; day.SameMonth(month) && !day.After(last); day = day.AddDays(1) {
			if day.Before(emp.StartDate) || !isWorkingDay(holidays, day) {
				continue
			}

			entry, ok := existing[day.String()]
			if !ok {
				entry = Entry{ID: nextID, Date: day, Work: FullDay()}
				nextID++
			}
			hours, _, err := entry.Work.Evaluate(deptHours)
			if err != nil {
				return Rebuild{}, err
			}
			entry.Hours = hours
			entry.Pay = hours.Mul(rate)
			entries = append(entries, entry)
		}
	}

	return Rebuild{Entries: entries, NextEntryID: nextID}, nil
}
