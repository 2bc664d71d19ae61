package payroll

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WORK TYPE - What an employee declared for a day
// =============================================================================

// WorkKind is the wire tag of a declaration.
type WorkKind string

const (
	KindFullDay     WorkKind = "FULL_DAY"
	KindHalfDay     WorkKind = "HALF_DAY"
	KindCustomRange WorkKind = "CUSTOM"
	KindCustomHours WorkKind = "CUSTOM_HOURS"
)

// MaxDailyHours bounds CUSTOM_HOURS declarations and department hours.
var MaxDailyHours = decimal.NewFromInt(24)

// WorkType is a tagged variant. Range is set for KindCustomRange and Hours
// for KindCustomHours; any other Kind is an unrecognized tag carried through
// unchanged.
type WorkType struct {
	Kind  WorkKind
	Range *TimeRange
	Hours decimal.Decimal
}

func FullDay() WorkType { return WorkType{Kind: KindFullDay} }
func HalfDay() WorkType { return WorkType{Kind: KindHalfDay} }

func CustomRange(start, end ClockTime) WorkType {
	return WorkType{Kind: KindCustomRange, Range: &TimeRange{Start: start, End: end}}
}

func CustomHours(hours decimal.Decimal) WorkType {
	return WorkType{Kind: KindCustomHours, Hours: hours}
}

// ParseWorkType builds a declaration from its wire form. start and end are
// only read for CUSTOM, hours only for CUSTOM_HOURS.
func ParseWorkType(tag, start, end string, hours *decimal.Decimal) (WorkType, error) {
	switch WorkKind(tag) {
	case "":
		return WorkType{}, invalid("workType", "is required")
	case KindFullDay:
		return FullDay(), nil
	case KindHalfDay:
		return HalfDay(), nil
	case KindCustomRange:
		if start == "" || end == "" {
			return WorkType{}, invalid("workType", "start and end times are required for custom time")
		}
		from, err := ParseClockTime(start)
		if err != nil {
			return WorkType{}, invalid("startTime", "%v", err)
		}
		to, err := ParseClockTime(end)
		if err != nil {
			return WorkType{}, invalid("endTime", "%v", err)
		}
		if to.Minutes() < from.Minutes() {
			return WorkType{}, invalid("endTime", "must not be before start time")
		}
		return CustomRange(from, to), nil
	case KindCustomHours:
		if hours == nil {
			return WorkType{}, invalid("hours", "is required for custom hours")
		}
		if hours.IsNegative() || hours.GreaterThan(MaxDailyHours) {
			return WorkType{}, invalid("hours", "must be between 0 and 24")
		}
		return CustomHours(*hours), nil
	default:
		return WorkType{Kind: WorkKind(tag)}, nil
	}
}

// Evaluate returns the hours worked and the display label given the
// department's hours per day for the month.
//
//	FULL_DAY      -> deptHours,     "FULL_DAY"
//	HALF_DAY      -> deptHours / 2, "HALF_DAY"
//	CUSTOM        -> end - start,   "HH:MM-HH:MM"
//	CUSTOM_HOURS  -> n,             "HOURS_<n>"
//	anything else -> 0,             tag unchanged
func (w WorkType) Evaluate(deptHours decimal.Decimal) (decimal.Decimal, string, error) {
	switch w.Kind {
	case KindFullDay:
		return deptHours, string(KindFullDay), nil
	case KindHalfDay:
		return deptHours.Div(decimal.NewFromInt(2)), string(KindHalfDay), nil
	case KindCustomRange:
		if w.Range == nil {
			return decimal.Zero, "", invalid("workType", "start and end times are required for custom time")
		}
		return w.Range.Hours(), w.Range.String(), nil
	case KindCustomHours:
		return w.Hours, "HOURS_" + w.Hours.String(), nil
	default:
		return decimal.Zero, string(w.Kind), nil
	}
}

// Label is the display label, independent of department hours.
func (w WorkType) Label() string {
	_, label, _ := w.Evaluate(decimal.Zero)
	return label
}

// StartTime, EndTime and HoursInput expose the raw inputs for serialization.
// They are empty or nil for kinds that do not carry them.
func (w WorkType) StartTime() string {
	if w.Range == nil {
		return ""
	}
	return w.Range.Start.String()
}

func (w WorkType) EndTime() string {
	if w.Range == nil {
		return ""
	}
	return w.Range.End.String()
}

func (w WorkType) HoursInput() *decimal.Decimal {
	if w.Kind != KindCustomHours {
		return nil
	}
	h := w.Hours
	return &h
}

// =============================================================================
// CLOCK TIME
// =============================================================================

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" (24-hour).
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time %q (use HH:MM)", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) Minutes() int   { return c.Hour*60 + c.Minute }
func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// TimeRange is a same-day span.
type TimeRange struct {
	Start ClockTime
	End   ClockTime
}

// Hours is the span length in hours, e.g. 09:00-13:30 is 4.5.
func (r TimeRange) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(r.End.Minutes() - r.Start.Minutes())).Div(decimal.NewFromInt(60))
}

func (r TimeRange) String() string { return r.Start.String() + "-" + r.End.String() }
