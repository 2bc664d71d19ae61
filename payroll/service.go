package payroll

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/logger"
)

// =============================================================================
// SERVICE - Lifecycle operations
// =============================================================================

const MaxNameLength = 50

var (
	MinSalary = decimal.NewFromInt(1000)
	MinHours  = decimal.NewFromInt(1)
)

// Service applies lifecycle operations to stored records and keeps every
// affected ledger rebuilt. Each write runs in one store transaction: a
// failed rebuild leaves every ledger as it was.
type Service struct {
	Store TxStore
	Clock Clock
}

func NewService(store TxStore, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{Store: store, Clock: clock}
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.Store.ListDepartments(ctx)
}

// CreateDepartment seeds the hours history with (hours, today).
func (s *Service) CreateDepartment(ctx context.Context, name string, hours decimal.Decimal) (*Department, error) {
	name = strings.TrimSpace(name)
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if err := validateHours(hours); err != nil {
		return nil, err
	}
	today := s.Clock.Today()

	var created *Department
	err := s.Store.WithTx(ctx, func(st Store) error {
		existing, err := st.GetDepartment(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("department %s already exists", name)
		}
		dept := &Department{
			Name:         name,
			Hours:        hours,
			HoursHistory: History[decimal.Decimal]{}.Insert(hours, today),
		}
		if err := st.SaveDepartment(ctx, dept); err != nil {
			return duplicateAsConflict(err, "department %s already exists", name)
		}
		created = dept
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Str("department", name).Str("hours", hours.String()).Msg("department created")
	return created, nil
}

// DeleteDepartment refuses while any employee, active or not, references it.
func (s *Service) DeleteDepartment(ctx context.Context, name string) error {
	err := s.Store.WithTx(ctx, func(st Store) error {
		if _, err := mustDepartment(ctx, st, name); err != nil {
			return err
		}
		emps, err := st.ListEmployeesByDepartment(ctx, name)
		if err != nil {
			return err
		}
		if len(emps) > 0 {
			return conflict("department %s still has %d employee(s)", name, len(emps))
		}
		return st.DeleteDepartment(ctx, name)
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info().Str("department", name).Msg("department deleted")
	return nil
}

// ChangeDepartmentHours records new hours per day from eff and rebuilds
// every employee of the department.
func (s *Service) ChangeDepartmentHours(ctx context.Context, name string, hours decimal.Decimal, eff Date) (*Department, error) {
	if err := validateHours(hours); err != nil {
		return nil, err
	}
	today := s.Clock.Today()
	if err := validatePast("effectiveDate", eff, today); err != nil {
		return nil, err
	}

	var updated *Department
	var rebuilt int
	err := s.Store.WithTx(ctx, func(st Store) error {
		dept, err := mustDepartment(ctx, st, name)
		if err != nil {
			return err
		}
		if dept.Hours.Equal(hours) {
			return conflict("department %s already works %s hours per day", name, hours)
		}
		dept.HoursHistory = dept.HoursHistory.Insert(hours, eff)
		dept.Hours = hours
		if err := st.SaveDepartment(ctx, dept); err != nil {
			return err
		}

		emps, err := st.ListEmployeesByDepartment(ctx, name)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		for i := range emps {
			if err := rebuildAndSave(ctx, st, &emps[i], *dept, holidays, today); err != nil {
				return err
			}
		}
		updated, rebuilt = dept, len(emps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("department", name).
		Str("hours", hours.String()).
		Stringer("effective_date", eff).
		Int("rebuilt", rebuilt).
		Msg("department hours changed")
	return updated, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.Store.ListEmployees(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, name string) (*Employee, error) {
	emp, err := s.Store.GetEmployee(ctx, name)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, &NotFoundError{Kind: "employee", Key: name}
	}
	return emp, nil
}

// CreateEmployee seeds the salary history with (salary, start) and builds
// the ledger up to today.
func (s *Service) CreateEmployee(ctx context.Context, name string, salary decimal.Decimal, start Date, department string) (*Employee, error) {
	name = strings.TrimSpace(name)
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if err := validateSalary(salary); err != nil {
		return nil, err
	}
	today := s.Clock.Today()
	if err := validatePast("startDate", start, today); err != nil {
		return nil, err
	}
	if strings.TrimSpace(department) == "" {
		return nil, invalid("department", "is required")
	}

	var created *Employee
	err := s.Store.WithTx(ctx, func(st Store) error {
		existing, err := st.GetEmployee(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("employee %s already exists", name)
		}
		dept, err := mustDepartment(ctx, st, department)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}

		emp := &Employee{
			Name:          name,
			BaseSalary:    salary,
			SalaryHistory: History[decimal.Decimal]{}.Insert(salary, start),
			StartDate:     start,
			Department:    dept.Name,
		}
		if err := rebuildAndSave(ctx, st, emp, *dept, holidays, today); err != nil {
			return duplicateAsConflict(err, "employee %s already exists", name)
		}
		created = emp
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("employee", name).
		Str("department", department).
		Stringer("start_date", start).
		Int("entries", len(created.Entries)).
		Msg("employee created")
	return created, nil
}

// TransferEmployee moves the employee and reprices the whole ledger with the
// new department's hours history.
func (s *Service) TransferEmployee(ctx context.Context, name, department string) (*Employee, error) {
	if strings.TrimSpace(department) == "" {
		return nil, invalid("department", "is required")
	}
	today := s.Clock.Today()

	var updated *Employee
	err := s.Store.WithTx(ctx, func(st Store) error {
		emp, err := mustEmployee(ctx, st, name)
		if err != nil {
			return err
		}
		if emp.Department == department {
			return conflict("employee %s is already in department %s", name, department)
		}
		dept, err := mustDepartment(ctx, st, department)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		emp.Department = dept.Name
		if err := rebuildAndSave(ctx, st, emp, *dept, holidays, today); err != nil {
			return err
		}
		updated = emp
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Str("employee", name).Str("department", department).Msg("employee transferred")
	return updated, nil
}

// TerminateEmployee sets the end date and drops entries past it.
func (s *Service) TerminateEmployee(ctx context.Context, name string, end Date) (*Employee, error) {
	today := s.Clock.Today()
	if err := validatePast("endDate", end, today); err != nil {
		return nil, err
	}

	var updated *Employee
	err := s.Store.WithTx(ctx, func(st Store) error {
		emp, err := mustEmployee(ctx, st, name)
		if err != nil {
			return err
		}
		if end.Before(emp.StartDate) {
			return invalid("endDate", "cannot be before start date %s", emp.StartDate)
		}
		if !emp.IsActive() {
			return conflict("employee %s is already inactive", name)
		}
		dept, err := mustDepartment(ctx, st, emp.Department)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		emp.EndDate = &end
		if err := rebuildAndSave(ctx, st, emp, *dept, holidays, today); err != nil {
			return err
		}
		updated = emp
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Str("employee", name).Stringer("end_date", end).Msg("employee terminated")
	return updated, nil
}

// ChangeSalary records a new monthly salary from eff. Months starting on or
// after eff are repriced; a mid-month change applies from the next month.
func (s *Service) ChangeSalary(ctx context.Context, name string, salary decimal.Decimal, eff Date) (*Employee, error) {
	if err := validateSalary(salary); err != nil {
		return nil, err
	}
	today := s.Clock.Today()
	if err := validatePast("effectiveDate", eff, today); err != nil {
		return nil, err
	}

	var updated *Employee
	err := s.Store.WithTx(ctx, func(st Store) error {
		emp, err := mustEmployee(ctx, st, name)
		if err != nil {
			return err
		}
		if emp.BaseSalary.Equal(salary) {
			return conflict("employee %s already earns %s", name, salary)
		}
		dept, err := mustDepartment(ctx, st, emp.Department)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		emp.SalaryHistory = emp.SalaryHistory.Insert(salary, eff)
		emp.BaseSalary = salary
		if err := rebuildAndSave(ctx, st, emp, *dept, holidays, today); err != nil {
			return err
		}
		updated = emp
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("employee", name).
		Str("salary", salary.String()).
		Stringer("effective_date", eff).
		Msg("salary changed")
	return updated, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Service) ListHolidays(ctx context.Context) ([]Holiday, error) {
	return s.Store.ListHolidays(ctx)
}

// AddHoliday records a company-wide holiday and rebuilds every ledger, since
// the day loses its entry and the month's divisor shrinks.
func (s *Service) AddHoliday(ctx context.Context, date Date, name string) (*Holiday, error) {
	today := s.Clock.Today()
	if err := validatePast("date", date, today); err != nil {
		return nil, err
	}
	h := Holiday{Date: date, Name: strings.TrimSpace(name)}

	var rebuilt int
	err := s.Store.WithTx(ctx, func(st Store) error {
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		if holidays.IsHoliday(date) {
			return conflict("%s is already a holiday", date)
		}
		if err := st.SaveHoliday(ctx, h); err != nil {
			return duplicateAsConflict(err, "%s is already a holiday", date)
		}
		holidays.Add(date)

		rebuilt, err = rebuildEmployees(ctx, st, holidays, today, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Stringer("date", date).Int("rebuilt", rebuilt).Msg("holiday added")
	return &h, nil
}

// =============================================================================
// ENTRIES
// =============================================================================

// UpsertEntry records one employee's declaration for a day.
func (s *Service) UpsertEntry(ctx context.Context, name string, in EntryInput) (*Employee, Entry, error) {
	today := s.Clock.Today()

	var updated *Employee
	var entry Entry
	err := s.Store.WithTx(ctx, func(st Store) error {
		emp, err := mustEmployee(ctx, st, name)
		if err != nil {
			return err
		}
		dept, err := mustDepartment(ctx, st, emp.Department)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		out, e, err := UpsertEntry(*emp, *dept, holidays, in, today)
		if err != nil {
			return err
		}
		if err := st.SaveEmployee(ctx, &out); err != nil {
			return err
		}
		updated, entry = &out, e
		return nil
	})
	if err != nil {
		return nil, Entry{}, err
	}

	logger.FromContext(ctx).Info().
		Str("employee", name).
		Stringer("date", in.Date).
		Str("work", in.Work.Label()).
		Int64("entry_id", entry.ID).
		Msg("entry recorded")
	return updated, entry, nil
}

// UpsertMassEntries sets CUSTOM_HOURS(hours) on date for every employee
// of the department employed on date, all or none.
func (s *Service) UpsertMassEntries(ctx context.Context, department string, date Date, hours decimal.Decimal) ([]Employee, error) {
	today := s.Clock.Today()
	if date.IsZero() {
		return nil, invalid("date", "is required")
	}

	var updated []Employee
	err := s.Store.WithTx(ctx, func(st Store) error {
		dept, err := mustDepartment(ctx, st, department)
		if err != nil {
			return err
		}
		emps, err := st.ListEmployeesByDepartment(ctx, department)
		if err != nil {
			return err
		}
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		out, err := UpsertMassEntries(*dept, emps, holidays, date, hours, today)
		if err != nil {
			return err
		}
		for i := range out {
			if err := st.SaveEmployee(ctx, &out[i]); err != nil {
				return err
			}
		}
		updated = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("department", department).
		Stringer("date", date).
		Str("hours", hours.String()).
		Int("employees", len(updated)).
		Msg("mass entry recorded")
	return updated, nil
}

// =============================================================================
// CATCH-UP
// =============================================================================

// RebuildAll extends every ledger to today. Ledgers only reach the day of
// their last mutation, so this runs periodically. Only changed employees
// are saved; the count of those is returned.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	today := s.Clock.Today()

	var changed int
	err := s.Store.WithTx(ctx, func(st Store) error {
		holidays, err := holidaySet(ctx, st)
		if err != nil {
			return err
		}
		changed, err = rebuildEmployees(ctx, st, holidays, today, true)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.FromContext(ctx).Info().Stringer("as_of", today).Int("changed", changed).Msg("ledgers rebuilt")
	return changed, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// rebuildEmployees rebuilds every stored employee. With onlyChanged, ledgers
// that come out identical are not saved.
func rebuildEmployees(ctx context.Context, st Store, holidays HolidayCalendar, asOf Date, onlyChanged bool) (int, error) {
	emps, err := st.ListEmployees(ctx)
	if err != nil {
		return 0, err
	}
	depts := make(map[string]*Department)
	saved := 0
	for i := range emps {
		emp := &emps[i]
		dept, ok := depts[emp.Department]
		if !ok {
			if dept, err = mustDepartment(ctx, st, emp.Department); err != nil {
				return 0, err
			}
			depts[emp.Department] = dept
		}

		r, err := RebuildEntries(*emp, *dept, holidays, asOf)
		if err != nil {
			return 0, err
		}
		if onlyChanged && sameLedger(emp.Entries, r.Entries) && emp.NextEntryID == r.NextEntryID {
			continue
		}
		out := r.Apply(*emp)
		if err := st.SaveEmployee(ctx, &out); err != nil {
			return 0, err
		}
		saved++
	}
	return saved, nil
}

func rebuildAndSave(ctx context.Context, st Store, emp *Employee, dept Department, holidays HolidayCalendar, asOf Date) error {
	r, err := RebuildEntries(*emp, dept, holidays, asOf)
	if err != nil {
		return err
	}
	emp.Entries = r.Entries
	emp.NextEntryID = r.NextEntryID

	logger.FromContext(ctx).Debug().
		Str("employee", emp.Name).
		Int("entries", len(r.Entries)).
		Stringer("as_of", asOf).
		Msg("ledger rebuilt")
	return st.SaveEmployee(ctx, emp)
}

func sameLedger(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].Date.Equal(b[i].Date) ||
			!a[i].Hours.Equal(b[i].Hours) || !a[i].Pay.Equal(b[i].Pay) ||
			a[i].Work.Label() != b[i].Work.Label() {
			return false
		}
	}
	return true
}

func mustDepartment(ctx context.Context, st Store, name string) (*Department, error) {
	dept, err := st.GetDepartment(ctx, name)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, &NotFoundError{Kind: "department", Key: name}
	}
	return dept, nil
}

func mustEmployee(ctx context.Context, st Store, name string) (*Employee, error) {
	emp, err := st.GetEmployee(ctx, name)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, &NotFoundError{Kind: "employee", Key: name}
	}
	return emp, nil
}

func holidaySet(ctx context.Context, st Store) (HolidaySet, error) {
	holidays, err := st.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return HolidaySetOf(holidays), nil
}

func duplicateAsConflict(err error, format string, args ...any) error {
	if errors.Is(err, ErrDuplicateKey) {
		c := conflict(format, args...)
		c.Err = err
		return c
	}
	return err
}

func validateName(field, name string) error {
	if name == "" {
		return invalid(field, "is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid(field, "must be at most %d characters", MaxNameLength)
	}
	return nil
}

func validateHours(hours decimal.Decimal) error {
	if hours.LessThan(MinHours) || hours.GreaterThan(MaxDailyHours) {
		return invalid("hours", "must be between 1 and 24")
	}
	return nil
}

func validateSalary(salary decimal.Decimal) error {
	if salary.LessThan(MinSalary) {
		return invalid("salary", "must be at least %s", MinSalary)
	}
	return nil
}

func validatePast(field string, d, today Date) error {
	if d.IsZero() {
		return invalid(field, "is required")
	}
	if d.After(today) {
		return invalid(field, "cannot be in the future")
	}
	return nil
}
