/*
errors.go - Error types for the roster engine and its stores

ERROR CATEGORIES:
  1. Lookup errors - a referenced worker/task/equipment/plan does not exist
  2. Validation errors - catalog or plan input violates an invariant
  3. Concurrency errors - a plan was replaced by another writer

The engine itself never returns errors for well-typed input: data
inconsistencies surface as Unscheduled entries, shortages, or report
warnings. These errors belong to the boundary (factory, stores, planner).
*/
package roster

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrWorkerNotFound    = errors.New("worker not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrRoleNotFound      = errors.New("role not found")

	// ErrPlanNotFound is returned when no plan is stored for (tenant, week).
	ErrPlanNotFound = errors.New("week plan not found")

	// ErrInvalidWeek is returned for malformed week keys.
	ErrInvalidWeek = errors.New("invalid week key")

	// ErrInvalidCatalog is returned when a catalog record breaks an invariant.
	ErrInvalidCatalog = errors.New("invalid catalog record")

	// ErrDuplicateAssignment is returned when a worker would appear in two columns.
	ErrDuplicateAssignment = errors.New("worker assigned to more than one shift")

	// ErrConcurrentModification is returned when a plan save loses an
	// optimistic version check.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidCatalog }

// DuplicateAssignmentError names the worker placed twice.
type DuplicateAssignmentError struct {
	WorkerID WorkerID
	First    Shift
	Second   Shift
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("worker %s assigned to both %s and %s", e.WorkerID, e.First, e.Second)
}

func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }

// ConflictError reports a failed optimistic version check.
type ConflictError struct {
	Tenant   TenantID
	Week     WeekKey
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("plan %s/%s: expected version %d, found %d", e.Tenant, e.Week, e.Expected, e.Actual)
}

func (e *ConflictError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrEquipmentNotFound) ||
		errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrPlanNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWeek) ||
		errors.Is(err, ErrInvalidCatalog) ||
		errors.Is(err, ErrDuplicateAssignment)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
