/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario creates departments, employees, holidays
	and ledger edits that demonstrate specific features.

AVAILABLE SCENARIOS:

	single-employee: One department, one employee, full-day ledger
	mixed-work:      Half day, custom time range and custom hours entries
	holiday:         Holiday inside a month plus a department-wide mass edit
	salary-change:   Raise effective from the start of last month
	team:            Several departments, a transfer and a termination

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create departments and employees through payroll.Service
 3. Apply holidays, salary changes and ledger edits

	All dates are relative to the service clock, so scenarios stay valid
	whenever they are loaded.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "holiday"}

USAGE VIA CLI:

	payroll seed --scenario team

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, svc)
 3. Add case to LoadScenario

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: route list
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// ErrUnknownScenario is returned by LoadScenario for an unlisted id.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-employee",
		Name:        "Single Employee",
		Description: "One 8-hour department and one employee hired two months ago",
	},
	{
		ID:          "mixed-work",
		Name:        "Mixed Work Types",
		Description: "Half day, 09:00-13:30 range and 6-hour custom entries",
	},
	{
		ID:          "holiday",
		Name:        "Holiday and Mass Edit",
		Description: "Holiday last month shrinks the divisor; today set to 4 hours for the whole department",
	},
	{
		ID:          "salary-change",
		Name:        "Salary Change",
		Description: "Raise effective from the first of last month reprices that month onward",
	},
	{
		ID:          "team",
		Name:        "Team",
		Description: "Two departments with a transfer and a terminated employee",
	},
}

// Scenarios returns the available scenarios.
func Scenarios() []ScenarioDTO {
	return append([]ScenarioDTO(nil), scenarios...)
}

// LoadScenario resets the store and loads the scenario with the given id.
func LoadScenario(ctx context.Context, svc *payroll.Service, id string) error {
	var load func(context.Context, *payroll.Service) error
	switch id {
	case "single-employee":
		load = loadSingleEmployeeScenario
	case "mixed-work":
		load = loadMixedWorkScenario
	case "holiday":
		load = loadHolidayScenario
	case "salary-change":
		load = loadSalaryChangeScenario
	case "team":
		load = loadTeamScenario
	default:
		return fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}

	resetter, ok := svc.Store.(payroll.Resetter)
	if !ok {
		return fmt.Errorf("store %T cannot be reset", svc.Store)
	}
	if err := resetter.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	if err := load(ctx, svc); err != nil {
		return fmt.Errorf("failed to load scenario %s: %w", id, err)
	}
	return nil
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = "" // Cleared on reset
	if err := LoadScenario(r.Context(), h.Service, req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadSingleEmployeeScenario(ctx context.Context, svc *payroll.Service) error {
	today := svc.Clock.Today()

	if _, err := svc.CreateDepartment(ctx, "Engineering", decimal.NewFromInt(8)); err != nil {
		return err
	}
	_, err := svc.CreateEmployee(ctx, "Alice Johnson", decimal.NewFromInt(3000), monthsBack(today, 2), "Engineering")
	return err
}

func loadMixedWorkScenario(ctx context.Context, svc *payroll.Service) error {
	today := svc.Clock.Today()

	if _, err := svc.CreateDepartment(ctx, "Engineering", decimal.NewFromInt(8)); err != nil {
		return err
	}
	if _, err := svc.CreateEmployee(ctx, "Alice Johnson", decimal.NewFromInt(3000), monthsBack(today, 1), "Engineering"); err != nil {
		return err
	}

	none := payroll.NewHolidaySet()
	d1 := workingDayOnOrBefore(today, none)
	d2 := workingDayOnOrBefore(d1.AddDays(-1), none)
	d3 := workingDayOnOrBefore(d2.AddDays(-1), none)

	nineAM := payroll.ClockTime{Hour: 9}
	halfPastOne := payroll.ClockTime{Hour: 13, Minute: 30}
	inputs := []payroll.EntryInput{
		{Date: d1, Work: payroll.HalfDay()},
		{Date: d2, Work: payroll.CustomRange(nineAM, halfPastOne)},
		{Date: d3, Work: payroll.CustomHours(decimal.NewFromInt(6))},
	}
	for _, in := range inputs {
		if _, _, err := svc.UpsertEntry(ctx, "Alice Johnson", in); err != nil {
			return err
		}
	}
	return nil
}

func loadHolidayScenario(ctx context.Context, svc *payroll.Service) error {
	today := svc.Clock.Today()

	if _, err := svc.CreateDepartment(ctx, "Operations", decimal.NewFromInt(9)); err != nil {
		return err
	}
	if _, err := svc.CreateEmployee(ctx, "Bob Smith", decimal.NewFromInt(4200), monthsBack(today, 2), "Operations"); err != nil {
		return err
	}
	if _, err := svc.CreateEmployee(ctx, "Carol White", decimal.NewFromInt(3500), monthsBack(today, 1), "Operations"); err != nil {
		return err
	}

	holidays := payroll.NewHolidaySet()
	holiday := workingDayOnOrBefore(monthsBack(today, 1).AddDays(14), holidays)
	if _, err := svc.AddHoliday(ctx, holiday, "Founders Day"); err != nil {
		return err
	}
	holidays.Add(holiday)

	_, err := svc.UpsertMassEntries(ctx, "Operations", workingDayOnOrBefore(today, holidays), decimal.NewFromInt(4))
	return err
}

func loadSalaryChangeScenario(ctx context.Context, svc *payroll.Service) error {
	today := svc.Clock.Today()

	if _, err := svc.CreateDepartment(ctx, "Sales", decimal.NewFromInt(8)); err != nil {
		return err
	}
	if _, err := svc.CreateEmployee(ctx, "Dave Brown", decimal.NewFromInt(3000), monthsBack(today, 3), "Sales"); err != nil {
		return err
	}
	_, err := svc.ChangeSalary(ctx, "Dave Brown", decimal.NewFromInt(3600), monthsBack(today, 1))
	return err
}

func loadTeamScenario(ctx context.Context, svc *payroll.Service) error {
	today := svc.Clock.Today()

	depts := []struct {
		name  string
		hours int64
	}{
		{"Engineering", 8},
		{"Design", 7},
	}
	for _, d := range depts {
		if _, err := svc.CreateDepartment(ctx, d.name, decimal.NewFromInt(d.hours)); err != nil {
			return err
		}
	}

	emps := []struct {
		name   string
		salary int64
		start  payroll.Date
		dept   string
	}{
		{"Alice Johnson", 3000, monthsBack(today, 2), "Engineering"},
		{"Erin Green", 2800, monthsBack(today, 2), "Design"},
		{"Frank Miller", 2500, monthsBack(today, 2), "Engineering"},
		{"Grace Lee", 3200, monthsBack(today, 1), "Design"},
	}
	for _, e := range emps {
		if _, err := svc.CreateEmployee(ctx, e.name, decimal.NewFromInt(e.salary), e.start, e.dept); err != nil {
			return err
		}
	}

	if _, err := svc.TransferEmployee(ctx, "Grace Lee", "Engineering"); err != nil {
		return err
	}
	end := workingDayOnOrBefore(monthsBack(today, 1).AddDays(9), payroll.NewHolidaySet())
	_, err := svc.TerminateEmployee(ctx, "Frank Miller", end)
	return err
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// monthsBack is the first day of the month n months before today's.
func monthsBack(today payroll.Date, n int) payroll.Date {
	return today.StartOfMonth().AddMonths(-n)
}

// workingDayOnOrBefore walks back from d past Sundays and holidays.
func workingDayOnOrBefore(d payroll.Date, holidays payroll.HolidaySet) payroll.Date {
	for !d.IsRegularDay() || holidays.IsHoliday(d) {
		d = d.AddDays(-1)
	}
	return d
}
