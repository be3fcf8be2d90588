/*
errors.go - Centralized error types for the budget domain

PURPOSE:
  All error types in one place. Stores translate driver errors into these
  sentinels so callers never match on SQL error text.

ERROR CATEGORIES:
  1. Not found  - Referenced entity does not exist
  2. Conflicts  - Unique constraint violations
  3. Rule violations - Manager cycles, illegal AOP state changes

USAGE:
  if errors.Is(err, budget.ErrDuplicateLDAP) {
      ...
  }
*/
package budget

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when no employee matches an ID or LDAP.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrAOPNotFound is returned when no AOP matches an ID.
	ErrAOPNotFound = errors.New("aop not found")

	// ErrCostCenterNotFound is returned when no cost center matches a code or ID.
	ErrCostCenterNotFound = errors.New("cost center not found")

	// ErrDuplicateLDAP is returned when an employee LDAP handle is already taken.
	ErrDuplicateLDAP = errors.New("duplicate ldap")

	// ErrDuplicateBudgetID is returned when a generated budget ID collides.
	ErrDuplicateBudgetID = errors.New("duplicate budget id")

	// ErrDuplicateCostCenter is returned when a cost center code is already taken.
	ErrDuplicateCostCenter = errors.New("duplicate cost center code")

	// ErrManagerCycle is returned when a manager assignment would make an
	// employee their own ancestor.
	ErrManagerCycle = errors.New("manager assignment would create a cycle")

	// ErrInvalidStateTransition is returned for an illegal AOP state change.
	ErrInvalidStateTransition = errors.New("invalid aop state transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ManagerCycleError describes a rejected manager assignment.
type ManagerCycleError struct {
	Employee string
	Manager  string
}

func (e *ManagerCycleError) Error() string {
	if e.Employee == e.Manager {
		return fmt.Sprintf("%s cannot be their own manager", e.Employee)
	}
	return fmt.Sprintf("cannot make %s the manager of %s: %s already reports to %s",
		e.Manager, e.Employee, e.Manager, e.Employee)
}

func (e *ManagerCycleError) Unwrap() error {
	return ErrManagerCycle
}

// StateTransitionError describes a rejected AOP state change.
type StateTransitionError struct {
	AOPID int64
	From  AOPState
	To    AOPState
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("aop %d cannot move from %s to %s", e.AOPID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrAOPNotFound) ||
		errors.Is(err, ErrCostCenterNotFound)
}

// IsConflict returns true if the error is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateLDAP) ||
		errors.Is(err, ErrDuplicateBudgetID) ||
		errors.Is(err, ErrDuplicateCostCenter)
}
