/*
store.go - Persistence interface for the budget domain

PURPOSE:
  Defines the interface between command handling and the database.
  Implementations:
  - store/sqlite/sqlite.go: SQLite (production)
  - budget/store/memory.go:  In-memory (tests)

LOOKUP CONVENTION:
  Single-entity lookups return the matching sentinel (ErrEmployeeNotFound,
  ErrAOPNotFound, ErrCostCenterNotFound) when nothing matches.

BUDGET CREATION:
  CreateBudget inserts the budget AND adds its amount to the AOP total in
  one atomic step. Nothing else may modify TotalAmount after creation.
*/
package budget

import "context"

// Store handles persistence of all budget entities.
type Store interface {
	EmployeeStore
	CostCenterStore
	AOPStore

	// Reset removes all rows (demo scenarios only).
	Reset(ctx context.Context) error
}

// EmployeeStore persists employees and the reporting hierarchy.
type EmployeeStore interface {
	// CreateEmployee inserts e and sets e.ID. Returns ErrDuplicateLDAP if
	// the handle is taken.
	CreateEmployee(ctx context.Context, e *Employee) error

	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	GetEmployeeByLDAP(ctx context.Context, ldap string) (*Employee, error)

	// ListEmployees returns employees ordered by ID.
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)

	// ListReports returns the direct reports of managerID ordered by ID,
	// active or not.
	ListReports(ctx context.Context, managerID int64) ([]Employee, error)

	// SetManager updates the manager reference. A nil managerID clears it.
	// Cycle checks are the caller's job (see AssignManager).
	SetManager(ctx context.Context, employeeID int64, managerID *int64) error

	DeactivateEmployee(ctx context.Context, id int64) error
}

// CostCenterStore persists cost centers.
type CostCenterStore interface {
	// CreateCostCenter inserts c and sets c.ID. Returns ErrDuplicateCostCenter
	// if the code is taken.
	CreateCostCenter(ctx context.Context, c *CostCenter) error

	GetCostCenter(ctx context.Context, id int64) (*CostCenter, error)
	GetCostCenterByCode(ctx context.Context, code string) (*CostCenter, error)
	ListCostCenters(ctx context.Context) ([]CostCenter, error)
}

// AOPStore persists AOPs, their allocations and their budgets.
type AOPStore interface {
	// CreateAOP inserts a and sets a.ID.
	CreateAOP(ctx context.Context, a *AOP) error

	GetAOP(ctx context.Context, id int64) (*AOP, error)
	ListAOPs(ctx context.Context, activeOnly bool) ([]AOP, error)
	SetAOPState(ctx context.Context, id int64, state AOPState) error

	// AddAOPDetail inserts an allocation and sets d.ID.
	AddAOPDetail(ctx context.Context, d *AOPDetail) error
	ListAOPDetails(ctx context.Context, aopID int64) ([]AOPDetail, error)

	// CreateBudget inserts b, sets b.ID and adds b.Amount to the AOP total
	// atomically. Returns ErrAOPNotFound or ErrDuplicateBudgetID.
	CreateBudget(ctx context.Context, b *Budget) error

	BudgetIDExists(ctx context.Context, budgetID string) (bool, error)

	// ListBudgets returns budgets ordered by ID; aopID 0 means all AOPs.
	ListBudgets(ctx context.Context, aopID int64) ([]Budget, error)
}
