package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func d(s string) payroll.Date { return payroll.MustParseDate(s) }

func TestDepartment_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dept := &payroll.Department{
		Name:  "Eng",
		Hours: decimal.RequireFromString("7.5"),
		HoursHistory: payroll.History[decimal.Decimal]{}.
			Insert(decimal.NewFromInt(8), d("2024-01-01")).
			Insert(decimal.RequireFromString("7.5"), d("2024-03-01")),
	}
	require.NoError(t, s.SaveDepartment(ctx, dept))
	assert.Equal(t, int64(1), dept.Version)

	got, err := s.GetDepartment(ctx, "Eng")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "7.5", got.Hours.String())
	require.Len(t, got.HoursHistory, 2)
	assert.Equal(t, "2024-03-01", got.HoursHistory[1].EffectiveDate.String())
	assert.Equal(t, int64(1), got.Version)

	missing, err := s.GetDepartment(ctx, "Ops")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDepartment_Versioning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveDepartment(ctx, &payroll.Department{Name: "Eng", Hours: decimal.NewFromInt(8)}))

	err := s.SaveDepartment(ctx, &payroll.Department{Name: "Eng", Hours: decimal.NewFromInt(6)})
	assert.True(t, errors.Is(err, payroll.ErrDuplicateKey), "got %v", err)

	a, err := s.GetDepartment(ctx, "Eng")
	require.NoError(t, err)
	b, err := s.GetDepartment(ctx, "Eng")
	require.NoError(t, err)

	a.Hours = decimal.NewFromInt(9)
	require.NoError(t, s.SaveDepartment(ctx, a))
	b.Hours = decimal.NewFromInt(10)
	assert.True(t, errors.Is(s.SaveDepartment(ctx, b), payroll.ErrConcurrentModification))
}

func TestDepartment_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveDepartment(ctx, &payroll.Department{
		Name:         "Ops",
		Hours:        decimal.NewFromInt(6),
		HoursHistory: payroll.History[decimal.Decimal]{}.Insert(decimal.NewFromInt(6), d("2024-01-01")),
	}))

	require.NoError(t, s.DeleteDepartment(ctx, "Ops"))
	depts, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Empty(t, depts)
}

func TestEmployee_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	end := d("2024-01-10")
	emp := &payroll.Employee{
		Name:          "Alice",
		BaseSalary:    decimal.NewFromInt(3000),
		SalaryHistory: payroll.History[decimal.Decimal]{}.Insert(decimal.NewFromInt(3000), d("2024-01-02")),
		StartDate:     d("2024-01-02"),
		EndDate:       &end,
		Department:    "Eng",
		NextEntryID:   4,
		Entries: []payroll.Entry{
			{ID: 0, Date: d("2024-01-02"), Hours: decimal.NewFromInt(8), Pay: decimal.RequireFromString("111.11"), Work: payroll.FullDay()},
			{ID: 1, Date: d("2024-01-03"), Hours: decimal.RequireFromString("4.5"), Pay: decimal.RequireFromString("62.5"),
				Work: payroll.CustomRange(payroll.ClockTime{Hour: 9}, payroll.ClockTime{Hour: 13, Minute: 30})},
			{ID: 3, Date: d("2024-01-04"), Hours: decimal.NewFromInt(5), Pay: decimal.RequireFromString("69.44"),
				Work: payroll.CustomHours(decimal.NewFromInt(5))},
		},
	}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	got, err := s.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "3000", got.BaseSalary.String())
	require.NotNil(t, got.EndDate)
	assert.Equal(t, "2024-01-10", got.EndDate.String())
	assert.Equal(t, int64(4), got.NextEntryID)
	require.Len(t, got.SalaryHistory, 1)

	require.Len(t, got.Entries, 3)
	assert.Equal(t, "FULL_DAY", got.Entries[0].Work.Label())
	assert.Equal(t, "09:00-13:30", got.Entries[1].Work.Label())
	assert.Equal(t, "4.5", got.Entries[1].Hours.String())
	assert.Equal(t, "HOURS_5", got.Entries[2].Work.Label())
	assert.Equal(t, int64(3), got.Entries[2].ID)
	assert.Equal(t, "69.44", got.Entries[2].Pay.String())
}

func TestEmployee_UpdateReplacesLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	emp := &payroll.Employee{
		Name: "Alice", BaseSalary: decimal.NewFromInt(3000), StartDate: d("2024-01-02"), Department: "Eng",
		Entries: []payroll.Entry{
			{ID: 0, Date: d("2024-01-02"), Work: payroll.FullDay()},
			{ID: 1, Date: d("2024-01-03"), Work: payroll.FullDay()},
		},
	}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	emp.Entries = emp.Entries[1:]
	emp.Department = "Ops"
	require.NoError(t, s.SaveEmployee(ctx, emp))
	assert.Equal(t, int64(2), emp.Version)

	got, err := s.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, int64(1), got.Entries[0].ID)
	assert.Equal(t, "Ops", got.Department)
	assert.Nil(t, got.EndDate)

	ops, err := s.ListEmployeesByDepartment(ctx, "Ops")
	require.NoError(t, err)
	assert.Len(t, ops, 1)
	eng, err := s.ListEmployeesByDepartment(ctx, "Eng")
	require.NoError(t, err)
	assert.Empty(t, eng)
}

func TestEmployee_LargeLedgerBatches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var entries []payroll.Entry
	day := d("2023-01-02")
	for i := 0; i < 450; i++ {
		entries = append(entries, payroll.Entry{ID: int64(i), Date: day, Hours: decimal.NewFromInt(8), Work: payroll.FullDay()})
		day = day.AddDays(1)
	}
	emp := &payroll.Employee{Name: "Alice", BaseSalary: decimal.NewFromInt(3000), StartDate: d("2023-01-02"), Department: "Eng", Entries: entries}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	all, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Entries, 450)
}

func TestHolidays(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveHoliday(ctx, payroll.Holiday{Date: d("2024-12-25"), Name: "Christmas"}))
	require.NoError(t, s.SaveHoliday(ctx, payroll.Holiday{Date: d("2024-01-01")}))
	err := s.SaveHoliday(ctx, payroll.Holiday{Date: d("2024-01-01")})
	assert.True(t, errors.Is(err, payroll.ErrDuplicateKey), "got %v", err)

	holidays, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "2024-01-01", holidays[0].Date.String())
	assert.Equal(t, "Christmas", holidays[1].Name)
}

func TestWithTx_Rollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(st payroll.Store) error {
		if err := st.SaveHoliday(ctx, payroll.Holiday{Date: d("2024-01-01")}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	holidays, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, holidays)
}

func TestService_OnSQLite(t *testing.T) {
	// GIVEN: The payroll service backed by SQLite
	// WHEN: Running the Alice scenario and adding a holiday
	// THEN: The stored ledger matches the engine's output

	ctx := context.Background()
	s := newTestStore(t)
	svc := payroll.NewService(s, payroll.FixedClock{Date: d("2024-01-01")})

	_, err := svc.CreateDepartment(ctx, "Eng", decimal.NewFromInt(8))
	require.NoError(t, err)
	svc.Clock = payroll.FixedClock{Date: d("2024-01-31")}
	_, err = svc.CreateEmployee(ctx, "Alice", decimal.NewFromInt(3000), d("2024-01-02"), "Eng")
	require.NoError(t, err)
	_, err = svc.AddHoliday(ctx, d("2024-01-02"), "")
	require.NoError(t, err)

	emp, err := svc.GetEmployee(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, emp.Entries, 25)
	assert.Equal(t, int64(1), emp.Entries[0].ID)
	assert.Equal(t, "115.38", emp.Entries[0].Pay.Round(2).String())
	assert.Equal(t, int64(26), emp.NextEntryID)

	err = svc.DeleteDepartment(ctx, "Eng")
	assert.True(t, errors.Is(err, payroll.ErrConflict))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveHoliday(ctx, payroll.Holiday{Date: d("2024-01-01")}))

	require.NoError(t, s.Reset(ctx))
	holidays, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, holidays)
}

func TestMigrationStatus(t *testing.T) {
	s := newTestStore(t)

	status, err := s.MigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.CurrentVersion)
	assert.Equal(t, uint(1), status.LatestVersion)
	assert.False(t, status.Pending)
	assert.False(t, status.Dirty)
}
