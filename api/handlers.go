/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to payroll.Service.

ENDPOINTS:
  Departments:
    GET    /api/departments                  List departments
    POST   /api/departments                  Create department
    DELETE /api/departments/{name}           Delete department (no employees)
    PUT    /api/departments/{name}/hours     Change hours per day

  Employees:
    GET    /api/employees                    List employees (summaries)
    POST   /api/employees                    Create employee
    GET    /api/employees/{name}             Employee with full ledger
    GET    /api/employees/{name}/export      Ledger as XLSX
    PUT    /api/employees/{name}/department  Transfer
    PUT    /api/employees/{name}/inactive    Terminate
    PUT    /api/employees/{name}/salary      Change salary

  Holidays:
    GET    /api/holidays                     List holidays
    POST   /api/holidays                     Add holiday (rebuilds every ledger)

  Entries:
    POST   /api/entries                      Upsert one employee's day
    POST   /api/entries/mass                 Set hours for a whole department

  Admin:
    POST   /api/rebuild                      Extend every ledger to today

  Scenarios:
    GET    /api/scenarios                    List demo scenarios
    GET    /api/scenarios/current            Currently loaded scenario
    POST   /api/scenarios/load               Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request (JSON body, path params, dates)
  2. Call payroll.Service, which validates and runs in one transaction
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee or department not found
  - 409: Conflict (duplicate, no-op, blocked delete, concurrent update)
  - 422: Pay cannot be computed (month without working days)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the service.
func NewHandler(svc *payroll.Service) *Handler {
	return &Handler{Service: svc}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	dtos := make([]DepartmentDTO, len(depts))
	for i, d := range depts {
		dtos[i] = toDepartmentDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dept, err := h.Service.CreateDepartment(r.Context(), req.Name, decimal.NewFromFloat(req.Hours))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepartmentDTO(*dept))
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if err := h.Service.DeleteDepartment(r.Context(), name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Department %s deleted", name)})
}

// ChangeDepartmentHours records new hours per day and rebuilds the
// department's ledgers.
func (h *Handler) ChangeDepartmentHours(w http.ResponseWriter, r *http.Request) {
	var req ChangeHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	eff, ok := parseDateField(w, "effectiveDate", req.EffectiveDate)
	if !ok {
		return
	}

	dept, err := h.Service.ChangeDepartmentHours(r.Context(), pathName(r), decimal.NewFromFloat(req.Hours), eff)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentDTO(*dept))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns summaries sorted by name; use GetEmployee for the
// ledger.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	sort.Slice(emps, func(i, j int) bool { return emps[i].Name < emps[j].Name })
	dtos := make([]EmployeeSummaryDTO, len(emps))
	for i, e := range emps {
		dtos[i] = toEmployeeSummaryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), pathName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, ok := parseDateField(w, "startDate", req.StartDate)
	if !ok {
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), req.Name, decimal.NewFromFloat(req.BaseSalary), start, req.Department)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

func (h *Handler) TransferEmployee(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Service.TransferEmployee(r.Context(), pathName(r), req.Department)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) TerminateEmployee(w http.ResponseWriter, r *http.Request) {
	var req TerminateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	end, ok := parseDateField(w, "endDate", req.EndDate)
	if !ok {
		return
	}

	emp, err := h.Service.TerminateEmployee(r.Context(), pathName(r), end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) ChangeSalary(w http.ResponseWriter, r *http.Request) {
	var req ChangeSalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	eff, ok := parseDateField(w, "effectiveDate", req.EffectiveDate)
	if !ok {
		return
	}

	emp, err := h.Service.ChangeSalary(r.Context(), pathName(r), decimal.NewFromFloat(req.Salary), eff)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// ExportEmployee streams the ledger as an XLSX workbook.
func (h *Handler) ExportEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), pathName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.LedgerFilename(*emp)))
	if err := export.WriteLedger(w, *emp); err != nil {
		// Headers are gone by now; all we can do is log.
		logger.FromContext(r.Context()).Error().Err(err).Str("employee", emp.Name).Msg("ledger export failed")
	}
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Service.ListHolidays(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{Date: hol.Date.String(), Name: hol.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a company-wide holiday. Every ledger is rebuilt.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, ok := parseDateField(w, "date", req.Date)
	if !ok {
		return
	}

	hol, err := h.Service.AddHoliday(r.Context(), date, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: hol.Date.String(), Name: hol.Name})
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// UpsertEntry records or replaces one employee's day.
func (h *Handler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmpName == "" {
		writeError(w, http.StatusBadRequest, "empName is required", nil)
		return
	}
	date, ok := parseDateField(w, "date", req.Date)
	if !ok {
		return
	}

	var hours *decimal.Decimal
	if req.Hours != nil {
		v := decimal.NewFromFloat(*req.Hours)
		hours = &v
	}
	work, err := payroll.ParseWorkType(req.WorkType, req.StartTime, req.EndTime, hours)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	_, entry, err := h.Service.UpsertEntry(r.Context(), req.EmpName, payroll.EntryInput{Date: date, Work: work})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// UpsertMassEntries sets the same hours for every employee of a
// department employed on that day. hours is required.
func (h *Handler) UpsertMassEntries(w http.ResponseWriter, r *http.Request) {
	var req MassEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Department == "" {
		writeError(w, http.StatusBadRequest, "department is required", nil)
		return
	}
	if req.Hours == nil {
		writeError(w, http.StatusBadRequest, "hours is required", nil)
		return
	}
	date, ok := parseDateField(w, "date", req.Date)
	if !ok {
		return
	}

	emps, err := h.Service.UpsertMassEntries(r.Context(), req.Department, date, decimal.NewFromFloat(*req.Hours))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := MassEntryResponse{Updated: len(emps), Employees: make([]string, len(emps))}
	for i, e := range emps {
		resp.Employees[i] = e.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerRebuild runs the catch-up rebuild now (what the scheduler does
// periodically).
func (h *Handler) TriggerRebuild(w http.ResponseWriter, r *http.Request) {
	changed, err := h.Service.RebuildAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Changed: changed, AsOf: h.Service.Clock.Today().String()})
}

// =============================================================================
// HELPERS
// =============================================================================

// pathName returns the {name} path parameter, unescaped.
func pathName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// parseDateField writes a 400 and returns false when s is not YYYY-MM-DD.
func parseDateField(w http.ResponseWriter, field, s string) (payroll.Date, bool) {
	if s == "" {
		writeError(w, http.StatusBadRequest, field+" is required", nil)
		return payroll.Date{}, false
	}
	d, err := payroll.ParseDate(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format (use YYYY-MM-DD)", field), err)
		return payroll.Date{}, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps payroll error kinds to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *payroll.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := ErrorResponse{Error: verr.Error()}
		if verr.Field != "" {
			resp.Details = map[string]string{"field": verr.Field}
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, payroll.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, payroll.ErrConflict):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case payroll.IsRetryable(err):
		writeError(w, http.StatusConflict, "Record was modified concurrently, retry the request", err)
	case errors.Is(err, payroll.ErrComputation):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err)
	}
}
