package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// entryBatchSize bounds rows per multi-row INSERT, well under SQLite's
// host-parameter limit.
const entryBatchSize = 200

// repo runs queries against either the pool or an open transaction.
type repo struct {
	q sqlx.ExtContext
}

// =============================================================================
// ROWS
// =============================================================================

type departmentRow struct {
	Name    string          `db:"name"`
	Hours   decimal.Decimal `db:"hours"`
	Version int64           `db:"version"`
}

type historyRow struct {
	Owner         string          `db:"owner"`
	Seq           int             `db:"seq"`
	Value         decimal.Decimal `db:"value"`
	EffectiveDate string          `db:"effective_date"`
}

type employeeRow struct {
	Name        string          `db:"name"`
	BaseSalary  decimal.Decimal `db:"base_salary"`
	StartDate   string          `db:"start_date"`
	EndDate     sql.NullString  `db:"end_date"`
	Department  string          `db:"department"`
	NextEntryID int64           `db:"next_entry_id"`
	Version     int64           `db:"version"`
}

type entryRow struct {
	Employee    string              `db:"employee"`
	ID          int64               `db:"id"`
	Date        string              `db:"date"`
	Hours       decimal.Decimal     `db:"hours"`
	Pay         decimal.Decimal     `db:"pay"`
	WorkType    string              `db:"work_type"`
	StartTime   sql.NullString      `db:"start_time"`
	EndTime     sql.NullString      `db:"end_time"`
	HoursWorked decimal.NullDecimal `db:"hours_worked"`
}

type holidayRow struct {
	Date string `db:"date"`
	Name string `db:"name"`
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (r *repo) GetDepartment(ctx context.Context, name string) (*payroll.Department, error) {
	depts, err := r.loadDepartments(ctx, "WHERE name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, nil
	}
	return &depts[0], nil
}

func (r *repo) ListDepartments(ctx context.Context) ([]payroll.Department, error) {
	return r.loadDepartments(ctx, "")
}

func (r *repo) loadDepartments(ctx context.Context, where string, args ...any) ([]payroll.Department, error) {
	var rows []departmentRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT name, hours, version FROM departments `+where+` ORDER BY name`, args...); err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var hist []historyRow
	if err := sqlx.SelectContext(ctx, r.q, &hist,
		`SELECT department AS owner, seq, hours AS value, effective_date
		FROM department_hours
		WHERE department IN (SELECT name FROM departments `+where+`)
		ORDER BY department, seq`, args...); err != nil {
		return nil, fmt.Errorf("failed to load department hours: %w", err)
	}
	byOwner, err := groupHistory(hist)
	if err != nil {
		return nil, err
	}

	depts := make([]payroll.Department, 0, len(rows))
	for _, row := range rows {
		depts = append(depts, payroll.Department{
			Name:         row.Name,
			Hours:        row.Hours,
			HoursHistory: byOwner[row.Name],
			Version:      row.Version,
		})
	}
	return depts, nil
}

func (r *repo) SaveDepartment(ctx context.Context, dept *payroll.Department) error {
	next := dept.Version + 1
	if dept.Version == 0 {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO departments (name, hours, version) VALUES (?, ?, ?)`,
			dept.Name, dept.Hours, next)
		if err != nil {
			return duplicateOr(err, "failed to insert department")
		}
	} else {
		if err := r.update(ctx,
			`UPDATE departments SET hours = ?, version = ? WHERE name = ? AND version = ?`,
			dept.Hours, next, dept.Name, dept.Version); err != nil {
			return err
		}
		if _, err := r.q.ExecContext(ctx, `DELETE FROM department_hours WHERE department = ?`, dept.Name); err != nil {
			return fmt.Errorf("failed to clear department hours: %w", err)
		}
	}

	for i, h := range dept.HoursHistory {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO department_hours (department, seq, hours, effective_date) VALUES (?, ?, ?, ?)`,
			dept.Name, i, h.Value, h.EffectiveDate.String()); err != nil {
			return fmt.Errorf("failed to insert department hours: %w", err)
		}
	}

	dept.Version = next
	return nil
}

func (r *repo) DeleteDepartment(ctx context.Context, name string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM departments WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (r *repo) GetEmployee(ctx context.Context, name string) (*payroll.Employee, error) {
	emps, err := r.loadEmployees(ctx, "WHERE name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(emps) == 0 {
		return nil, nil
	}
	return &emps[0], nil
}

func (r *repo) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return r.loadEmployees(ctx, "")
}

func (r *repo) ListEmployeesByDepartment(ctx context.Context, department string) ([]payroll.Employee, error) {
	return r.loadEmployees(ctx, "WHERE department = ?", department)
}

// loadEmployees reads matching employees with history and ledger in three
// queries, whatever the number of employees.
func (r *repo) loadEmployees(ctx context.Context, where string, args ...any) ([]payroll.Employee, error) {
	var rows []employeeRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT name, base_salary, start_date, end_date, department, next_entry_id, version
		FROM employees `+where+` ORDER BY name`, args...); err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var hist []historyRow
	if err := sqlx.SelectContext(ctx, r.q, &hist,
		`SELECT employee AS owner, seq, salary AS value, effective_date
		FROM salary_history
		WHERE employee IN (SELECT name FROM employees `+where+`)
		ORDER BY employee, seq`, args...); err != nil {
		return nil, fmt.Errorf("failed to load salary history: %w", err)
	}
	salaries, err := groupHistory(hist)
	if err != nil {
		return nil, err
	}

	var entryRows []entryRow
	if err := sqlx.SelectContext(ctx, r.q, &entryRows,
		`SELECT employee, id, date, hours, pay, work_type, start_time, end_time, hours_worked
		FROM entries
		WHERE employee IN (SELECT name FROM employees `+where+`)
		ORDER BY employee, date`, args...); err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	entries := make(map[string][]payroll.Entry, len(rows))
	for _, row := range entryRows {
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries[row.Employee] = append(entries[row.Employee], e)
	}

	emps := make([]payroll.Employee, 0, len(rows))
	for _, row := range rows {
		emp, err := row.toEmployee()
		if err != nil {
			return nil, err
		}
		emp.SalaryHistory = salaries[row.Name]
		emp.Entries = entries[row.Name]
		emps = append(emps, emp)
	}
	return emps, nil
}

// SaveEmployee writes the employee row, then replaces history and ledger.
func (r *repo) SaveEmployee(ctx context.Context, emp *payroll.Employee) error {
	next := emp.Version + 1
	var endDate sql.NullString
	if emp.EndDate != nil {
		endDate = sql.NullString{String: emp.EndDate.String(), Valid: true}
	}

	if emp.Version == 0 {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO employees (name, base_salary, start_date, end_date, department, next_entry_id, version)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			emp.Name, emp.BaseSalary, emp.StartDate.String(), endDate, emp.Department, emp.NextEntryID, next)
		if err != nil {
			return duplicateOr(err, "failed to insert employee")
		}
	} else {
		if err := r.update(ctx,
			`UPDATE employees
			SET base_salary = ?, start_date = ?, end_date = ?, department = ?, next_entry_id = ?, version = ?
			WHERE name = ? AND version = ?`,
			emp.BaseSalary, emp.StartDate.String(), endDate, emp.Department, emp.NextEntryID, next,
			emp.Name, emp.Version); err != nil {
			return err
		}
		for _, table := range []string{"salary_history", "entries"} {
			if _, err := r.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE employee = ?`, emp.Name); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	for i, h := range emp.SalaryHistory {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO salary_history (employee, seq, salary, effective_date) VALUES (?, ?, ?, ?)`,
			emp.Name, i, h.Value, h.EffectiveDate.String()); err != nil {
			return fmt.Errorf("failed to insert salary history: %w", err)
		}
	}
	if err := r.insertEntries(ctx, emp.Name, emp.Entries); err != nil {
		return err
	}

	emp.Version = next
	return nil
}

func (r *repo) insertEntries(ctx context.Context, employee string, entries []payroll.Entry) error {
	for start := 0; start < len(entries); start += entryBatchSize {
		end := min(start+entryBatchSize, len(entries))
		batch := make([]entryRow, 0, end-start)
		for _, e := range entries[start:end] {
			batch = append(batch, entryRowOf(employee, e))
		}
		if _, err := sqlx.NamedExecContext(ctx, r.q,
			`INSERT INTO entries (employee, id, date, hours, pay, work_type, start_time, end_time, hours_worked)
			VALUES (:employee, :id, :date, :hours, :pay, :work_type, :start_time, :end_time, :hours_worked)`,
			batch); err != nil {
			return fmt.Errorf("failed to insert entries: %w", err)
		}
	}
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (r *repo) ListHolidays(ctx context.Context) ([]payroll.Holiday, error) {
	var rows []holidayRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, `SELECT date, name FROM holidays ORDER BY date`); err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	holidays := make([]payroll.Holiday, 0, len(rows))
	for _, row := range rows {
		d, err := payroll.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("corrupt holiday row: %w", err)
		}
		holidays = append(holidays, payroll.Holiday{Date: d, Name: row.Name})
	}
	return holidays, nil
}

func (r *repo) SaveHoliday(ctx context.Context, h payroll.Holiday) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO holidays (date, name) VALUES (?, ?)`, h.Date.String(), h.Name)
	if err != nil {
		return duplicateOr(err, "failed to insert holiday")
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// update runs a version-guarded UPDATE. No affected row means the record
// changed (or vanished) since it was read.
func (r *repo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	if n == 0 {
		return payroll.ErrConcurrentModification
	}
	return nil
}

func duplicateOr(err error, msg string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("%s: %w", msg, payroll.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func groupHistory(rows []historyRow) (map[string]payroll.History[decimal.Decimal], error) {
	out := make(map[string]payroll.History[decimal.Decimal])
	for _, row := range rows {
		d, err := payroll.ParseDate(row.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt history row for %s: %w", row.Owner, err)
		}
		out[row.Owner] = append(out[row.Owner], payroll.Effective[decimal.Decimal]{Value: row.Value, EffectiveDate: d})
	}
	return out, nil
}

func (row employeeRow) toEmployee() (payroll.Employee, error) {
	start, err := payroll.ParseDate(row.StartDate)
	if err != nil {
		return payroll.Employee{}, fmt.Errorf("corrupt employee row %s: %w", row.Name, err)
	}
	emp := payroll.Employee{
		Name:        row.Name,
		BaseSalary:  row.BaseSalary,
		StartDate:   start,
		Department:  row.Department,
		NextEntryID: row.NextEntryID,
		Version:     row.Version,
	}
	if row.EndDate.Valid {
		end, err := payroll.ParseDate(row.EndDate.String)
		if err != nil {
			return payroll.Employee{}, fmt.Errorf("corrupt employee row %s: %w", row.Name, err)
		}
		emp.EndDate = &end
	}
	return emp, nil
}

func (row entryRow) toEntry() (payroll.Entry, error) {
	d, err := payroll.ParseDate(row.Date)
	if err != nil {
		return payroll.Entry{}, fmt.Errorf("corrupt entry %s/%d: %w", row.Employee, row.ID, err)
	}
	var hours *decimal.Decimal
	if row.HoursWorked.Valid {
		hours = &row.HoursWorked.Decimal
	}
	work, err := payroll.ParseWorkType(row.WorkType, row.StartTime.String, row.EndTime.String, hours)
	if err != nil {
		return payroll.Entry{}, fmt.Errorf("corrupt entry %s/%d: %w", row.Employee, row.ID, err)
	}
	return payroll.Entry{ID: row.ID, Date: d, Hours: row.Hours, Pay: row.Pay, Work: work}, nil
}

func entryRowOf(employee string, e payroll.Entry) entryRow {
	row := entryRow{
		Employee: employee,
		ID:       e.ID,
		Date:     e.Date.String(),
		Hours:    e.Hours,
		Pay:      e.Pay,
		WorkType: string(e.Work.Kind),
	}
	if s := e.Work.StartTime(); s != "" {
		row.StartTime = sql.NullString{String: s, Valid: true}
	}
	if s := e.Work.EndTime(); s != "" {
		row.EndTime = sql.NullString{String: s, Valid: true}
	}
	if h := e.Work.HoursInput(); h != nil {
		row.HoursWorked = decimal.NullDecimal{Decimal: *h, Valid: true}
	}
	return row
}
