package payroll

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAsOf(t *testing.T) {
	h := History[int]{}.
		Insert(3000, MustParseDate("2024-01-02")).
		Insert(4000, MustParseDate("2024-03-01")).
		Insert(3500, MustParseDate("2024-02-10"))

	require.Len(t, h, 3)
	assert.Equal(t, 3500, h[1].Value, "insert keeps history sorted")

	tests := []struct {
		asOf   string
		want   int
		wantOK bool
	}{
		{"2024-01-01", 0, false},
		{"2024-01-02", 3000, true},
		{"2024-02-01", 3000, true},
		{"2024-02-10", 3500, true},
		{"2024-03-01", 4000, true},
		{"2025-01-01", 4000, true},
	}
	for _, tt := range tests {
		t.Run(tt.asOf, func(t *testing.T) {
			got, ok := ResolveAsOf(h, MustParseDate(tt.asOf))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAsOf_SameDateLaterRecordedWins(t *testing.T) {
	day := MustParseDate("2024-01-01")
	h := History[string]{}.Insert("first", day).Insert("second", day)

	got, ok := ResolveAsOf(h, day)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestEmployeeSalaryAsOf_FallsBackToCurrent(t *testing.T) {
	emp := Employee{
		BaseSalary:    decimal.NewFromInt(5000),
		SalaryHistory: History[decimal.Decimal]{}.Insert(decimal.NewFromInt(3000), MustParseDate("2024-01-15")),
	}

	assert.True(t, emp.SalaryAsOf(MustParseDate("2024-01-01")).Equal(decimal.NewFromInt(5000)))
	assert.True(t, emp.SalaryAsOf(MustParseDate("2024-01-15")).Equal(decimal.NewFromInt(3000)))
}

func TestHourlyRate(t *testing.T) {
	rate, err := HourlyRate(decimal.NewFromInt(4320), decimal.NewFromInt(8), 27)
	require.NoError(t, err)
	assert.Equal(t, "20", rate.String())

	_, err = HourlyRate(decimal.NewFromInt(3000), decimal.NewFromInt(8), 0)
	assert.True(t, errors.Is(err, ErrComputation))

	_, err = HourlyRate(decimal.NewFromInt(3000), decimal.Zero, 27)
	assert.True(t, errors.Is(err, ErrComputation))
}
