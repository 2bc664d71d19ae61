// Package store provides in-process payroll.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	departments map[string]payroll.Department
	employees   map[string]payroll.Employee
	holidays    map[string]payroll.Holiday
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.departments = make(map[string]payroll.Department)
	m.employees = make(map[string]payroll.Employee)
	m.holidays = make(map[string]payroll.Holiday)
}

// Reset drops all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

func (m *Memory) GetDepartment(_ context.Context, name string) (*payroll.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getDepartmentLocked(name), nil
}

func (m *Memory) ListDepartments(_ context.Context) ([]payroll.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listDepartmentsLocked(), nil
}

func (m *Memory) SaveDepartment(_ context.Context, dept *payroll.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveDepartmentLocked(dept)
}

func (m *Memory) DeleteDepartment(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.departments, name)
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, name string) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(name), nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(""), nil
}

func (m *Memory) ListEmployeesByDepartment(_ context.Context, department string) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(department), nil
}

func (m *Memory) SaveEmployee(_ context.Context, emp *payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveEmployeeLocked(emp)
}

func (m *Memory) ListHolidays(_ context.Context) ([]payroll.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listHolidaysLocked(), nil
}

func (m *Memory) SaveHoliday(_ context.Context, h payroll.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveHolidayLocked(h)
}

// =============================================================================
// LOCKED HELPERS - callers hold mu
// =============================================================================

func (m *Memory) getDepartmentLocked(name string) *payroll.Department {
	dept, ok := m.departments[name]
	if !ok {
		return nil
	}
	out := dept.Clone()
	return &out
}

func (m *Memory) listDepartmentsLocked() []payroll.Department {
	result := make([]payroll.Department, 0, len(m.departments))
	for _, d := range m.departments {
		result = append(result, d.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (m *Memory) saveDepartmentLocked(dept *payroll.Department) error {
	current, exists := m.departments[dept.Name]
	if err := checkVersion(exists, current.Version, dept.Version); err != nil {
		return err
	}
	dept.Version++
	m.departments[dept.Name] = dept.Clone()
	return nil
}

func (m *Memory) getEmployeeLocked(name string) *payroll.Employee {
	emp, ok := m.employees[name]
	if !ok {
		return nil
	}
	out := emp.Clone()
	return &out
}

// listEmployeesLocked filters by department unless it is empty.
func (m *Memory) listEmployeesLocked(department string) []payroll.Employee {
	result := make([]payroll.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		if department == "" || e.Department == department {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (m *Memory) saveEmployeeLocked(emp *payroll.Employee) error {
	current, exists := m.employees[emp.Name]
	if err := checkVersion(exists, current.Version, emp.Version); err != nil {
		return err
	}
	emp.Version++
	m.employees[emp.Name] = emp.Clone()
	return nil
}

func (m *Memory) listHolidaysLocked() []payroll.Holiday {
	result := make([]payroll.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

func (m *Memory) saveHolidayLocked(h payroll.Holiday) error {
	key := h.Date.String()
	if _, exists := m.holidays[key]; exists {
		return payroll.ErrDuplicateKey
	}
	m.holidays[key] = h
	return nil
}

// checkVersion applies the insert/update rules shared by every versioned record.
func checkVersion(exists bool, stored, given int64) error {
	switch {
	case given == 0 && exists:
		return payroll.ErrDuplicateKey
	case given == 0:
		return nil
	case !exists || stored != given:
		return payroll.ErrConcurrentModification
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	departments map[string]payroll.Department
	employees   map[string]payroll.Employee
	holidays    map[string]payroll.Holiday
}

// snapshot copies the maps. Stored records are never mutated in place, so
// copying the values is enough.
func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		departments: make(map[string]payroll.Department, len(tm.departments)),
		employees:   make(map[string]payroll.Employee, len(tm.employees)),
		holidays:    make(map[string]payroll.Holiday, len(tm.holidays)),
	}
	for k, v := range tm.departments {
		s.departments[k] = v
	}
	for k, v := range tm.employees {
		s.employees[k] = v
	}
	for k, v := range tm.holidays {
		s.holidays[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.departments = s.departments
	tm.employees = s.employees
	tm.holidays = s.holidays
}

// txMemoryView runs against the parent while WithTx holds its lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetDepartment(_ context.Context, name string) (*payroll.Department, error) {
	return tv.parent.getDepartmentLocked(name), nil
}

func (tv *txMemoryView) ListDepartments(_ context.Context) ([]payroll.Department, error) {
	return tv.parent.listDepartmentsLocked(), nil
}

func (tv *txMemoryView) SaveDepartment(_ context.Context, dept *payroll.Department) error {
	return tv.parent.saveDepartmentLocked(dept)
}

func (tv *txMemoryView) DeleteDepartment(_ context.Context, name string) error {
	delete(tv.parent.departments, name)
	return nil
}

func (tv *txMemoryView) GetEmployee(_ context.Context, name string) (*payroll.Employee, error) {
	return tv.parent.getEmployeeLocked(name), nil
}

func (tv *txMemoryView) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	return tv.parent.listEmployeesLocked(""), nil
}

func (tv *txMemoryView) ListEmployeesByDepartment(_ context.Context, department string) ([]payroll.Employee, error) {
	return tv.parent.listEmployeesLocked(department), nil
}

func (tv *txMemoryView) SaveEmployee(_ context.Context, emp *payroll.Employee) error {
	return tv.parent.saveEmployeeLocked(emp)
}

func (tv *txMemoryView) ListHolidays(_ context.Context) ([]payroll.Holiday, error) {
	return tv.parent.listHolidaysLocked(), nil
}

func (tv *txMemoryView) SaveHoliday(_ context.Context, h payroll.Holiday) error {
	return tv.parent.saveHolidayLocked(h)
}
