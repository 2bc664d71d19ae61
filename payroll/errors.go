/*
errors.go - Error kinds surfaced by the engine and the service

ERROR KINDS:
  ValidationError:  malformed or out-of-range input, detected before the
                    engine runs (hours outside 1-24, salary below minimum,
                    date in the future, missing custom times...)
  NotFoundError:    referenced employee or department does not exist
  ConflictError:    duplicate key, no-op update, blocked delete, mass edit
                    on a holiday / Sunday / empty department
  ComputationError: an engine invariant broke, chiefly a month with zero
                    working days (division by zero in the hourly rate)

Each structured error unwraps to a sentinel so callers can branch with
errors.Is without caring about the concrete type:

    if errors.Is(err, payroll.ErrConflict) { ... }

Nothing is retried internally. The one retryable condition is
ErrConcurrentModification, raised by stores when a version check fails.

SEE ALSO:
  - api/handlers.go: maps these kinds to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrComputation = errors.New("computation failed")

	// ErrDuplicateKey is returned by stores when a unique key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConcurrentModification is returned when optimistic locking detects a conflict.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "employee", "department"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError explains why the request clashes with current state.
type ConflictError struct {
	Message string
	Err     error // optional cause, e.g. ErrDuplicateKey
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConflict, e.Err}
	}
	return []error{ErrConflict}
}

func conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ComputationError is fatal for the recalculation that raised it.
type ComputationError struct {
	Employee string
	Year     int
	Month    time.Month
	Reason   string
}

func (e *ComputationError) Error() string {
	if e.Employee == "" {
		return fmt.Sprintf("cannot compute pay for %d-%02d: %s", e.Year, e.Month, e.Reason)
	}
	return fmt.Sprintf("cannot compute pay for %s in %d-%02d: %s", e.Employee, e.Year, e.Month, e.Reason)
}

func (e *ComputationError) Unwrap() error { return ErrComputation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
