/*
Package budget provides the domain model for the budget management service.

PURPOSE:
  Defines the entities the chat commands operate on and the rules that
  hold between them. Persistence lives behind the Store interface; the
  command parser and HTTP layer never touch SQL directly.

KEY CONCEPTS IN THIS FILE (types.go):
  - AOP:        Annual Operating Plan, a budget envelope with a lifecycle
  - CostCenter: Organizational unit identified by a unique code
  - Employee:   Person identified by a unique LDAP handle, with an
                optional manager (self-referential hierarchy)
  - AOPDetail:  Allocation of AOP money to a cost center
  - Budget:     Project budget drawn against an AOP

AMOUNTS:
  Money uses decimal.Decimal throughout. The AOP total is increased as a
  side effect of budget creation (additive, never recomputed), so
  Store.CreateBudget is the only path that may create budgets.

SEE ALSO:
  - store.go: Persistence interface
  - org.go: Hierarchy traversal and manager cycle checks
  - lifecycle.go: AOP state transitions
*/
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AOP - Annual Operating Plan
// =============================================================================

// AOPState is the lifecycle state of an AOP.
type AOPState string

const (
	AOPDraft  AOPState = "draft"
	AOPActive AOPState = "active"
	AOPEOL    AOPState = "eol"
)

// ParseAOPState parses a state name as typed in chat commands.
func ParseAOPState(s string) (AOPState, bool) {
	switch AOPState(s) {
	case AOPDraft, AOPActive, AOPEOL:
		return AOPState(s), true
	}
	return "", false
}

// AOP is a budget envelope.
type AOP struct {
	ID          int64
	Name        string
	TotalAmount decimal.Decimal
	State       AOPState
	CreatedAt   time.Time
	IsActive    bool
}

// =============================================================================
// ORGANIZATION
// =============================================================================

// CostCenter is an organizational unit that AOP money is allocated to.
type CostCenter struct {
	ID       int64
	Code     string
	Name     string
	IsActive bool
}

// Employee is a person in the organization. ManagerID links to another
// Employee and forms the reporting hierarchy.
type Employee struct {
	ID           int64
	LDAP         string
	FirstName    string
	LastName     string
	Email        string
	Level        int
	CostCenterID *int64
	ManagerID    *int64
	IsActive     bool
}

// DisplayName renders an employee the way every chat response does.
func (e Employee) DisplayName() string {
	return e.FirstName + " " + e.LastName + " (" + e.LDAP + ")"
}

// =============================================================================
// ALLOCATIONS AND BUDGETS
// =============================================================================

// AOPDetail allocates part of an AOP to a cost center.
type AOPDetail struct {
	ID           int64
	AOPID        int64
	CostCenterID int64
	Amount       decimal.Decimal
}

// Budget is a project budget drawn against an AOP.
type Budget struct {
	ID          int64
	BudgetID    string
	AOPID       int64
	EmployeeID  *int64
	Project     string
	Description string
	Amount      decimal.Decimal
	IsActive    bool
}
