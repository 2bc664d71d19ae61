package payroll_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) payroll.Date { return payroll.MustParseDate(s) }

func n(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newService(today string) *payroll.Service {
	return payroll.NewService(store.NewTxMemory(), payroll.FixedClock{Date: d(today)})
}

// withAlice sets up Eng at 8h from 2024-01-01 and Alice from 2024-01-02 on
// 3000, as of 2024-01-31.
func withAlice(t *testing.T) *payroll.Service {
	t.Helper()
	ctx := context.Background()
	svc := newService("2024-01-01")
	_, err := svc.CreateDepartment(ctx, "Eng", n(8))
	require.NoError(t, err)
	svc.Clock = payroll.FixedClock{Date: d("2024-01-31")}
	_, err = svc.CreateEmployee(ctx, "Alice", n(3000), d("2024-01-02"), "Eng")
	require.NoError(t, err)
	return svc
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func TestCreateDepartment(t *testing.T) {
	ctx := context.Background()
	svc := newService("2024-01-31")

	dept, err := svc.CreateDepartment(ctx, "  Eng ", n(8))
	require.NoError(t, err)
	assert.Equal(t, "Eng", dept.Name)
	require.Len(t, dept.HoursHistory, 1)
	assert.Equal(t, "2024-01-31", dept.HoursHistory[0].EffectiveDate.String())
	assert.Equal(t, int64(1), dept.Version)

	_, err = svc.CreateDepartment(ctx, "Eng", n(6))
	assert.True(t, errors.Is(err, payroll.ErrConflict))
}

func TestCreateDepartment_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService("2024-01-31")

	tests := []struct {
		name  string
		dept  string
		hours decimal.Decimal
	}{
		{"empty name", "", n(8)},
		{"long name", strings.Repeat("x", 51), n(8)},
		{"zero hours", "Eng", n(0)},
		{"too many hours", "Eng", n(25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateDepartment(ctx, tt.dept, tt.hours)
			assert.True(t, errors.Is(err, payroll.ErrValidation), "got %v", err)
		})
	}
}

func TestDeleteDepartment(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)

	err := svc.DeleteDepartment(ctx, "Eng")
	assert.True(t, errors.Is(err, payroll.ErrConflict), "has employees")

	err = svc.DeleteDepartment(ctx, "Missing")
	assert.True(t, payroll.IsNotFound(err))

	_, err = svc.CreateDepartment(ctx, "Ops", n(6))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteDepartment(ctx, "Ops"))

	depts, err := svc.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	assert.Equal(t, "Eng", depts[0].Name)
}

func TestChangeDepartmentHours_RebuildsEmployees(t *testing.T) {
	// GIVEN: Alice in Eng at 8h, ledger through Feb 29
	// WHEN: Eng moves to 10h effective Feb 1
	// THEN: February entries carry 10h, January keeps 8h

	ctx := context.Background()
	svc := withAlice(t)
	svc.Clock = payroll.FixedClock{Date: d("2024-02-29")}

	_, err := svc.ChangeDepartmentHours(ctx, "Eng", n(10), d("2024-02-01"))
	require.NoError(t, err)

	emp, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	jan, _ := emp.EntryOn(d("2024-01-31"))
	feb, _ := emp.EntryOn(d("2024-02-29"))
	assert.Equal(t, "8", jan.Hours.String())
	assert.Equal(t, "10", feb.Hours.String())

	_, err = svc.ChangeDepartmentHours(ctx, "Eng", n(10), d("2024-02-10"))
	assert.True(t, errors.Is(err, payroll.ErrConflict), "same as current")

	_, err = svc.ChangeDepartmentHours(ctx, "Eng", n(9), d("2024-03-01"))
	assert.True(t, errors.Is(err, payroll.ErrValidation), "future date")
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestCreateEmployee(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)

	emp, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, emp.Entries, 26)
	assert.True(t, emp.IsActive())
	require.Len(t, emp.SalaryHistory, 1)
	assert.Equal(t, "2024-01-02", emp.SalaryHistory[0].EffectiveDate.String())

	_, err = svc.CreateEmployee(ctx, "Alice", n(3000), d("2024-01-02"), "Eng")
	assert.True(t, errors.Is(err, payroll.ErrConflict))

	_, err = svc.CreateEmployee(ctx, "Bob", n(3000), d("2024-01-02"), "Missing")
	assert.True(t, payroll.IsNotFound(err))

	_, err = svc.CreateEmployee(ctx, "Bob", n(999), d("2024-01-02"), "Eng")
	assert.True(t, errors.Is(err, payroll.ErrValidation))

	_, err = svc.CreateEmployee(ctx, "Bob", n(3000), d("2024-02-01"), "Eng")
	assert.True(t, errors.Is(err, payroll.ErrValidation))

	_, err = svc.GetEmployee(ctx, "Bob")
	assert.True(t, payroll.IsNotFound(err))
}

func TestTransferEmployee(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)
	_, err := svc.CreateDepartment(ctx, "Ops", n(4))
	require.NoError(t, err)

	_, err = svc.TransferEmployee(ctx, "Alice", "Eng")
	assert.True(t, errors.Is(err, payroll.ErrConflict))

	_, err = svc.TransferEmployee(ctx, "Alice", "")
	assert.True(t, errors.Is(err, payroll.ErrValidation))

	emp, err := svc.TransferEmployee(ctx, "Alice", "Ops")
	require.NoError(t, err)
	assert.Equal(t, "Ops", emp.Department)
	assert.Equal(t, "4", emp.Entries[0].Hours.String())
}

func TestTerminateEmployee(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)

	_, err := svc.TerminateEmployee(ctx, "Alice", d("2024-01-01"))
	assert.True(t, errors.Is(err, payroll.ErrValidation), "before start")

	emp, err := svc.TerminateEmployee(ctx, "Alice", d("2024-01-10"))
	require.NoError(t, err)
	assert.False(t, emp.IsActive())
	assert.Len(t, emp.Entries, 8)

	_, err = svc.TerminateEmployee(ctx, "Alice", d("2024-01-20"))
	assert.True(t, errors.Is(err, payroll.ErrConflict), "already inactive")

	// The date check comes first, even for an inactive employee.
	_, err = svc.TerminateEmployee(ctx, "Alice", d("2024-01-01"))
	assert.True(t, errors.Is(err, payroll.ErrValidation), "before start, already inactive")
}

func TestChangeSalary(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)
	svc.Clock = payroll.FixedClock{Date: d("2024-02-29")}

	_, err := svc.ChangeSalary(ctx, "Alice", n(3000), d("2024-02-01"))
	assert.True(t, errors.Is(err, payroll.ErrConflict), "same as current")

	emp, err := svc.ChangeSalary(ctx, "Alice", n(5000), d("2024-02-01"))
	require.NoError(t, err)
	require.Len(t, emp.SalaryHistory, 2)

	// 5000 over 25 days of 8h.
	feb, ok := emp.EntryOn(d("2024-02-01"))
	require.True(t, ok)
	assert.Equal(t, "200", feb.Pay.Round(2).String())
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestAddHoliday_RebuildsEveryone(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)

	h, err := svc.AddHoliday(ctx, d("2024-01-02"), "Bank holiday")
	require.NoError(t, err)
	assert.Equal(t, "Bank holiday", h.Name)

	emp, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, emp.Entries, 25)
	_, ok := emp.EntryOn(d("2024-01-02"))
	assert.False(t, ok)

	_, err = svc.AddHoliday(ctx, d("2024-01-02"), "")
	assert.True(t, errors.Is(err, payroll.ErrConflict))

	_, err = svc.AddHoliday(ctx, d("2024-02-02"), "")
	assert.True(t, errors.Is(err, payroll.ErrValidation))
}

func TestAddHoliday_FailedRebuildRollsBack(t *testing.T) {
	// GIVEN: Every January working day but the 31st is a holiday
	// WHEN: The 31st is added too
	// THEN: The month has no working days, nothing is saved

	ctx := context.Background()
	svc := withAlice(t)
	for day := d("2024-01-01"); day.Before(d("2024-01-31")); day = day.AddDays(1) {
		if day.Weekday() == time.Sunday {
			continue
		}
		_, err := svc.AddHoliday(ctx, day, "")
		require.NoError(t, err)
	}
	before, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, before.Entries, 1)

	_, err = svc.AddHoliday(ctx, d("2024-01-31"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, payroll.ErrComputation))

	holidays, err := svc.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, holidays, 26)

	after, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, after.Entries, 1)
	assert.Equal(t, before.Version, after.Version)
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestServiceUpsertEntry(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)

	work, err := payroll.ParseWorkType("CUSTOM", "09:00", "13:30", nil)
	require.NoError(t, err)

	emp, entry, err := svc.UpsertEntry(ctx, "Alice", payroll.EntryInput{Date: d("2024-01-03"), Work: work})
	require.NoError(t, err)
	assert.Equal(t, "4.5", entry.Hours.String())
	stored, _ := emp.EntryOn(d("2024-01-03"))
	assert.Equal(t, entry.ID, stored.ID)

	_, _, err = svc.UpsertEntry(ctx, "Nobody", payroll.EntryInput{Date: d("2024-01-03"), Work: work})
	assert.True(t, payroll.IsNotFound(err))
}

func TestServiceUpsertMassEntries_SundayMutatesNothing(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)
	before, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)

	_, err = svc.UpsertMassEntries(ctx, "Eng", d("2024-01-07"), n(5))
	require.Error(t, err)
	assert.True(t, payroll.IsClientError(err))

	after, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Entries, len(before.Entries))

	_, err = svc.UpsertMassEntries(ctx, "Missing", d("2024-01-08"), n(5))
	assert.True(t, payroll.IsNotFound(err))

	updated, err := svc.UpsertMassEntries(ctx, "Eng", d("2024-01-08"), n(5))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	e, _ := updated[0].EntryOn(d("2024-01-08"))
	assert.Equal(t, "HOURS_5", e.Work.Label())
}

// =============================================================================
// CATCH-UP
// =============================================================================

func TestRebuildAll_ExtendsToToday(t *testing.T) {
	ctx := context.Background()
	svc := withAlice(t)

	changed, err := svc.RebuildAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed, "nothing new today")

	svc.Clock = payroll.FixedClock{Date: d("2024-02-02")}
	changed, err = svc.RebuildAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	emp, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	assert.Len(t, emp.Entries, 28)
	assert.Equal(t, int64(27), emp.Entries[27].ID)
}
