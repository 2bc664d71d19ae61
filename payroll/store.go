/*
store.go - Persistence interface for departments, employees and holidays

PURPOSE:
  Defines the boundary between the service and the database. The engine
  never touches a Store; the service loads records, runs the engine and
  saves the results inside one transaction.

KEY INTERFACES:
  Store:    reads and versioned saves
  TxStore:  Store plus WithTx for atomic multi-record writes
  Resetter: optional, wipes all data (dev and demo scenarios)

NOT FOUND:
  Get methods return (nil, nil) for a missing record. The service turns that
  into a NotFoundError naming what was missing.

OPTIMISTIC LOCKING:
  Save* with Version == 0 inserts and fails with ErrDuplicateKey when the
  key exists. Any other Version updates only when it matches the stored
  version, otherwise ErrConcurrentModification. On success the store bumps
  the Version of the record passed in.

IMPLEMENTATIONS:
  - payroll/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go:  SQLite via sqlx, schema via golang-migrate

SEE ALSO:
  - service.go: the only caller
*/
package payroll

import "context"

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	GetDepartment(ctx context.Context, name string) (*Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	SaveDepartment(ctx context.Context, dept *Department) error
	DeleteDepartment(ctx context.Context, name string) error

	// GetEmployee returns the employee with history and full ledger.
	GetEmployee(ctx context.Context, name string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListEmployeesByDepartment(ctx context.Context, department string) ([]Employee, error)
	SaveEmployee(ctx context.Context, emp *Employee) error

	// ListHolidays returns holidays ordered by date.
	ListHolidays(ctx context.Context) ([]Holiday, error)
	SaveHoliday(ctx context.Context, h Holiday) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Resetter is implemented by stores that can drop all data.
type Resetter interface {
	Reset(ctx context.Context) error
}
