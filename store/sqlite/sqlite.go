/*
Package sqlite provides a SQLite-backed implementation of payroll.TxStore.

PURPOSE:
  Persists departments, employees (with salary history and ledger) and
  holidays. Records are loaded whole and saved whole: the engine owns the
  ledger, so a save replaces the employee's history and entry rows.

KEY TABLES:
  departments, department_hours: hours per day and its history
  employees, salary_history:     salary owner and its history
  entries:                       ledger, UNIQUE(employee, date)
  holidays:                      company-wide dates

SCHEMA:
  Versioned migrations live in migrations/ and are embedded in the binary.
  New() applies pending ones; the CLI "migrate" command runs them alone.

DECIMALS AND DATES:
  Hours, salaries and pay are TEXT columns holding decimal strings, read
  back through decimal.Decimal's Scanner. Dates are TEXT "YYYY-MM-DD".

CONCURRENCY:
  The pool is capped at one connection. SQLite has a single writer anyway,
  and ":memory:" databases are per-connection. WithTx also holds a mutex,
  so transactions never interleave.

USAGE:
  store, err := sqlite.New("./payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := payroll.NewService(store, payroll.SystemClock{})

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/payroll"
)

// Store implements payroll.TxStore using SQLite.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

// New opens the database and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	s, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Open opens the database without touching the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&repo{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reset deletes every row, keeping the schema.
func (s *Store) Reset(ctx context.Context) error {
	return s.WithTx(ctx, func(st payroll.Store) error {
		r := st.(*repo)
		for _, table := range []string{"entries", "salary_history", "employees", "department_hours", "departments", "holidays"} {
			if _, err := r.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}

// =============================================================================
// payroll.Store - reads go straight to the pool, writes run in a transaction
// =============================================================================

func (s *Store) reader() *repo { return &repo{q: s.db} }

func (s *Store) GetDepartment(ctx context.Context, name string) (*payroll.Department, error) {
	return s.reader().GetDepartment(ctx, name)
}

func (s *Store) ListDepartments(ctx context.Context) ([]payroll.Department, error) {
	return s.reader().ListDepartments(ctx)
}

func (s *Store) SaveDepartment(ctx context.Context, dept *payroll.Department) error {
	return s.WithTx(ctx, func(st payroll.Store) error { return st.SaveDepartment(ctx, dept) })
}

func (s *Store) DeleteDepartment(ctx context.Context, name string) error {
	return s.WithTx(ctx, func(st payroll.Store) error { return st.DeleteDepartment(ctx, name) })
}

func (s *Store) GetEmployee(ctx context.Context, name string) (*payroll.Employee, error) {
	return s.reader().GetEmployee(ctx, name)
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return s.reader().ListEmployees(ctx)
}

func (s *Store) ListEmployeesByDepartment(ctx context.Context, department string) ([]payroll.Employee, error) {
	return s.reader().ListEmployeesByDepartment(ctx, department)
}

func (s *Store) SaveEmployee(ctx context.Context, emp *payroll.Employee) error {
	return s.WithTx(ctx, func(st payroll.Store) error { return st.SaveEmployee(ctx, emp) })
}

func (s *Store) ListHolidays(ctx context.Context) ([]payroll.Holiday, error) {
	return s.reader().ListHolidays(ctx)
}

func (s *Store) SaveHoliday(ctx context.Context, h payroll.Holiday) error {
	return s.WithTx(ctx, func(st payroll.Store) error { return st.SaveHoliday(ctx, h) })
}
