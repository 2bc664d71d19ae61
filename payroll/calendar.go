package payroll

import "time"

// WorkingDaysInMonth counts the Monday-Saturday days of the month that are
// not holidays. The count always uses the calendar it is given, so adding a
// holiday later changes the divisor for past months on the next rebuild.
func WorkingDaysInMonth(year int, month time.Month, holidays HolidayCalendar) int {
	n := 0
	for day := 1; day <= DaysInMonth(year, month); day++ {
		if isWorkingDay(holidays, NewDate(year, month, day)) {
			n++
		}
	}
	return n
}
