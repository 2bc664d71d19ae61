package payroll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertEntry_CustomRange(t *testing.T) {
	// GIVEN: Alice's January ledger
	// WHEN: Declaring 09:00-13:30 on 2024-01-03
	// THEN: 4.5 hours at the January rate, same id as the rebuilt entry

	emp := rebuilt(t, alice(), eng(), nil, "2024-01-31")
	original := entryOn(t, emp, "2024-01-03")

	work, err := ParseWorkType("CUSTOM", "09:00", "13:30", nil)
	require.NoError(t, err)

	out, entry, err := UpsertEntry(emp, eng(), nil, EntryInput{Date: MustParseDate("2024-01-03"), Work: work}, MustParseDate("2024-01-31"))
	require.NoError(t, err)

	assert.Equal(t, original.ID, entry.ID)
	assert.Equal(t, "4.5", entry.Hours.String())
	assert.Equal(t, "09:00-13:30", entry.Work.Label())
	assert.Equal(t, "62.5", entry.Pay.Round(2).String())

	assert.Len(t, out.Entries, len(emp.Entries))
	assert.Equal(t, "4.5", entryOn(t, out, "2024-01-03").Hours.String())
	assert.Equal(t, "8", entryOn(t, emp, "2024-01-03").Hours.String(), "input employee untouched")
}

func TestUpsertEntry_ResolvesAsOfExactDate(t *testing.T) {
	// GIVEN: A raise to 4000 effective 2024-02-15
	// WHEN: Declaring a full day on 2024-02-16
	// THEN: The edit prices at 4000/(8*25) = 20/h while a rebuild uses Feb 1

	emp := alice()
	emp.SalaryHistory = emp.SalaryHistory.Insert(dec("4000"), MustParseDate("2024-02-15"))
	emp.BaseSalary = dec("4000")
	emp = rebuilt(t, emp, eng(), nil, "2024-02-29")
	assert.Equal(t, "120", entryOn(t, emp, "2024-02-16").Pay.Round(2).String())

	_, entry, err := UpsertEntry(emp, eng(), nil, EntryInput{Date: MustParseDate("2024-02-16"), Work: FullDay()}, MustParseDate("2024-02-29"))
	require.NoError(t, err)
	assert.Equal(t, "160", entry.Pay.Round(2).String())
}

func TestUpsertEntry_NewDayGetsNextID(t *testing.T) {
	emp := rebuilt(t, alice(), eng(), nil, "2024-01-31")

	out, entry, err := UpsertEntry(emp, eng(), nil, EntryInput{Date: MustParseDate("2024-02-01"), Work: HalfDay()}, MustParseDate("2024-02-01"))
	require.NoError(t, err)

	assert.Equal(t, int64(26), entry.ID)
	assert.Equal(t, int64(27), out.NextEntryID)
	assert.Equal(t, "4", entry.Hours.String())
	assert.Equal(t, "2024-02-01", out.Entries[len(out.Entries)-1].Date.String())
}

func TestUpsertEntry_RejectsDates(t *testing.T) {
	emp := rebuilt(t, alice(), eng(), nil, "2024-01-31")
	holidays := NewHolidaySet(MustParseDate("2024-01-05"))

	tests := []struct {
		name string
		date string
	}{
		{"future", "2024-02-01"},
		{"holiday", "2024-01-05"},
		{"sunday", "2024-01-07"},
		{"before start", "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := UpsertEntry(emp, eng(), holidays, EntryInput{Date: MustParseDate(tt.date), Work: FullDay()}, MustParseDate("2024-01-31"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestUpsertEntry_AfterTermination(t *testing.T) {
	emp := alice()
	end := MustParseDate("2024-01-10")
	emp.EndDate = &end
	emp = rebuilt(t, emp, eng(), nil, "2024-01-31")

	_, _, err := UpsertEntry(emp, eng(), nil, EntryInput{Date: MustParseDate("2024-01-11"), Work: FullDay()}, MustParseDate("2024-01-31"))
	assert.True(t, errors.Is(err, ErrValidation))
}

// =============================================================================
// MASS EDIT
// =============================================================================

func massFixture(t *testing.T) []Employee {
	t.Helper()
	a := rebuilt(t, alice(), eng(), nil, "2024-01-31")

	b := alice()
	b.Name = "Bob"
	end := MustParseDate("2024-01-05")
	b.EndDate = &end
	b = rebuilt(t, b, eng(), nil, "2024-01-31")

	c := alice()
	c.Name = "Carol"
	c.Department = "Ops"
	c = rebuilt(t, c, eng(), nil, "2024-01-31")

	return []Employee{a, b, c}
}

func TestUpsertMassEntries(t *testing.T) {
	// GIVEN: Alice active in Eng, Bob terminated in Eng, Carol in Ops
	// WHEN: Mass editing Eng on Wed 2024-01-10 with 5 hours
	// THEN: Only Alice changes, as HOURS_5

	emps := massFixture(t)
	out, err := UpsertMassEntries(eng(), emps, nil, MustParseDate("2024-01-10"), dec("5"), MustParseDate("2024-01-31"))
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "Alice", out[0].Name)
	jan10 := entryOn(t, out[0], "2024-01-10")
	assert.Equal(t, "HOURS_5", jan10.Work.Label())
	assert.Equal(t, "5", jan10.Hours.String())
	assert.Equal(t, entryOn(t, emps[0], "2024-01-10").ID, jan10.ID)
}

func TestUpsertMassEntries_TerminatedLaterIsIncluded(t *testing.T) {
	// GIVEN: Bob left Eng on 2024-01-20, after the edited day
	// WHEN: Mass editing Eng on 2024-01-10
	// THEN: Bob is edited like anyone employed that day

	b := alice()
	b.Name = "Bob"
	end := MustParseDate("2024-01-20")
	b.EndDate = &end
	b = rebuilt(t, b, eng(), nil, "2024-01-31")

	out, err := UpsertMassEntries(eng(), []Employee{b}, nil, MustParseDate("2024-01-10"), dec("5"), MustParseDate("2024-01-31"))
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "Bob", out[0].Name)
	assert.Equal(t, "HOURS_5", entryOn(t, out[0], "2024-01-10").Work.Label())
	assert.Equal(t, end, *out[0].EndDate)
}

func TestUpsertMassEntries_FailsWhole(t *testing.T) {
	emps := massFixture(t)
	before := len(emps[0].Entries)

	tests := []struct {
		name     string
		emps     []Employee
		holidays HolidayCalendar
		date     string
		hours    string
		kind     error
	}{
		{"sunday", emps, nil, "2024-01-07", "5", ErrConflict},
		{"holiday", emps, NewHolidaySet(MustParseDate("2024-01-10")), "2024-01-10", "5", ErrConflict},
		{"no active employee", emps[1:2], nil, "2024-01-10", "5", ErrConflict},
		{"hours out of range", emps, nil, "2024-01-10", "25", ErrValidation},
		{"future", emps, nil, "2024-02-01", "5", ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := UpsertMassEntries(eng(), tt.emps, tt.holidays, MustParseDate(tt.date), dec(tt.hours), MustParseDate("2024-01-31"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Nil(t, out)
		})
	}
	assert.Len(t, emps[0].Entries, before)
	assert.Equal(t, KindFullDay, entryOn(t, emps[0], "2024-01-10").Work.Kind)
}

func TestPlaceEntry(t *testing.T) {
	entries := []Entry{
		{ID: 0, Date: MustParseDate("2024-01-02")},
		{ID: 1, Date: MustParseDate("2024-01-04")},
	}

	inserted := placeEntry(entries, Entry{ID: 2, Date: MustParseDate("2024-01-03")})
	require.Len(t, inserted, 3)
	assert.Equal(t, int64(2), inserted[1].ID)

	replaced := placeEntry(inserted, Entry{ID: 9, Date: MustParseDate("2024-01-04")})
	require.Len(t, replaced, 3)
	assert.Equal(t, int64(9), replaced[2].ID)

	appended := placeEntry(entries, Entry{ID: 3, Date: MustParseDate("2024-01-05")})
	assert.Equal(t, int64(3), appended[2].ID)
	assert.Len(t, entries, 2, "input untouched")
}
