/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names follow the
  payroll front-end (camelCase). Decimals travel as JSON numbers and dates as
  "YYYY-MM-DD" strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Departments: DepartmentDTO, CreateDepartmentRequest, ChangeHoursRequest
  Employees:   EmployeeDTO, EmployeeSummaryDTO, CreateEmployeeRequest,
               TransferRequest, TerminateRequest, ChangeSalaryRequest
  Entries:     EntryDTO, EntryRequest, MassEntryRequest, MassEntryResponse
  Holidays:    HolidayDTO, CreateHolidayRequest
  Scenarios:   ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the payroll service, not in DTOs. Handlers only
  parse dates and work types.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// DEPARTMENTS
// =============================================================================

type DepartmentDTO struct {
	Name         string       `json:"name"`
	Hours        float64      `json:"hours"`
	HoursHistory []HistoryDTO `json:"hoursHistory"`
	Version      int64        `json:"version"`
}

// HistoryDTO is one effective-dated value.
type HistoryDTO struct {
	Value         float64 `json:"value"`
	EffectiveDate string  `json:"effectiveDate"`
}

type CreateDepartmentRequest struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

type ChangeHoursRequest struct {
	Hours         float64 `json:"hours"`
	EffectiveDate string  `json:"effectiveDate"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO is the full employee with ledger.
type EmployeeDTO struct {
	EmployeeSummaryDTO
	SalaryHistory []HistoryDTO `json:"salaryHistory"`
	Entries       []EntryDTO   `json:"entries"`
}

// EmployeeSummaryDTO is used in listings.
type EmployeeSummaryDTO struct {
	Name       string  `json:"name"`
	BaseSalary float64 `json:"baseSalary"`
	StartDate  string  `json:"startDate"`
	EndDate    *string `json:"endDate"`
	Department string  `json:"department"`
	IsActive   bool    `json:"isActive"`
	EntryCount int     `json:"entryCount"`
	TotalHours float64 `json:"totalHours"`
	TotalPay   float64 `json:"totalPay"`
	Version    int64   `json:"version"`
}

type CreateEmployeeRequest struct {
	Name       string  `json:"name"`
	BaseSalary float64 `json:"baseSalary"`
	StartDate  string  `json:"startDate"`
	Department string  `json:"department"`
}

type TransferRequest struct {
	Department string `json:"department"`
}

type TerminateRequest struct {
	EndDate string `json:"endDate"`
}

type ChangeSalaryRequest struct {
	Salary        float64 `json:"salary"`
	EffectiveDate string  `json:"effectiveDate"`
}

// =============================================================================
// ENTRIES
// =============================================================================

type EntryDTO struct {
	ID          int64    `json:"id"`
	Date        string   `json:"date"`
	Day         string   `json:"day"`
	Hours       float64  `json:"hours"`
	Pay         float64  `json:"pay"`
	WorkType    string   `json:"workType"`
	StartTime   string   `json:"startTime,omitempty"`
	EndTime     string   `json:"endTime,omitempty"`
	HoursWorked *float64 `json:"hoursWorked,omitempty"`
}

// EntryRequest declares one employee's work for a day. WorkType is one of
// FULL_DAY, HALF_DAY, CUSTOM (with startTime/endTime) or CUSTOM_HOURS (with
// hours).
type EntryRequest struct {
	EmpName   string   `json:"empName"`
	Date      string   `json:"date"`
	WorkType  string   `json:"workType"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
	Hours     *float64 `json:"hours,omitempty"`
}

type MassEntryRequest struct {
	Department string   `json:"department"`
	Date       string   `json:"date"`
	Hours      *float64 `json:"hours"`
}

type MassEntryResponse struct {
	Updated   int      `json:"updated"`
	Employees []string `json:"employees"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// =============================================================================
// MISC
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// RebuildResponse reports a catch-up rebuild.
type RebuildResponse struct {
	Changed int    `json:"changed"`
	AsOf    string `json:"asOf"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toHistoryDTOs(h payroll.History[decimal.Decimal]) []HistoryDTO {
	out := make([]HistoryDTO, len(h))
	for i, e := range h {
		out[i] = HistoryDTO{Value: e.Value.InexactFloat64(), EffectiveDate: e.EffectiveDate.String()}
	}
	return out
}

func toDepartmentDTO(d payroll.Department) DepartmentDTO {
	return DepartmentDTO{
		Name:         d.Name,
		Hours:        d.Hours.InexactFloat64(),
		HoursHistory: toHistoryDTOs(d.HoursHistory),
		Version:      d.Version,
	}
}

func toEmployeeSummaryDTO(e payroll.Employee) EmployeeSummaryDTO {
	hours, pay := decimal.Zero, decimal.Zero
	for _, entry := range e.Entries {
		hours = hours.Add(entry.Hours)
		pay = pay.Add(entry.Pay)
	}
	dto := EmployeeSummaryDTO{
		Name:       e.Name,
		BaseSalary: e.BaseSalary.InexactFloat64(),
		StartDate:  e.StartDate.String(),
		Department: e.Department,
		IsActive:   e.IsActive(),
		EntryCount: len(e.Entries),
		TotalHours: hours.InexactFloat64(),
		TotalPay:   pay.Round(2).InexactFloat64(),
		Version:    e.Version,
	}
	if e.EndDate != nil {
		end := e.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	entries := make([]EntryDTO, len(e.Entries))
	for i, entry := range e.Entries {
		entries[i] = toEntryDTO(entry)
	}
	return EmployeeDTO{
		EmployeeSummaryDTO: toEmployeeSummaryDTO(e),
		SalaryHistory:      toHistoryDTOs(e.SalaryHistory),
		Entries:            entries,
	}
}

func toEntryDTO(e payroll.Entry) EntryDTO {
	dto := EntryDTO{
		ID:        e.ID,
		Date:      e.Date.String(),
		Day:       e.Day(),
		Hours:     e.Hours.InexactFloat64(),
		Pay:       e.Pay.Round(2).InexactFloat64(),
		WorkType:  e.Work.Label(),
		StartTime: e.Work.StartTime(),
		EndTime:   e.Work.EndTime(),
	}
	if h := e.Work.HoursInput(); h != nil {
		v := h.InexactFloat64()
		dto.HoursWorked = &v
	}
	return dto
}
