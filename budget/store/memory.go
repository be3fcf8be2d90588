// Package store provides budget.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/budgetbot/budget"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every entity in maps keyed by ID. IDs are assigned from one
// sequence per table, starting at 1, like SQLite rowids.
type Memory struct {
	mu sync.RWMutex

	employees   map[int64]budget.Employee
	costCenters map[int64]budget.CostCenter
	aops        map[int64]budget.AOP
	details     map[int64]budget.AOPDetail
	budgets     map[int64]budget.Budget

	seq map[string]int64

	// Now stamps AOP creation times. Tests may override it.
	Now func() time.Time
}

var _ budget.Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{Now: time.Now}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.employees = make(map[int64]budget.Employee)
	m.costCenters = make(map[int64]budget.CostCenter)
	m.aops = make(map[int64]budget.AOP)
	m.details = make(map[int64]budget.AOPDetail)
	m.budgets = make(map[int64]budget.Budget)
	m.seq = make(map[string]int64)
}

func (m *Memory) nextID(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) CreateEmployee(_ context.Context, e *budget.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.employees {
		if existing.LDAP == e.LDAP {
			return budget.ErrDuplicateLDAP
		}
	}
	e.ID = m.nextID("employee")
	m.employees[e.ID] = *e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id int64) (*budget.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return nil, budget.ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *Memory) GetEmployeeByLDAP(_ context.Context, ldap string) (*budget.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.employees {
		if e.LDAP == ldap {
			return &e, nil
		}
	}
	return nil, budget.ErrEmployeeNotFound
}

func (m *Memory) ListEmployees(_ context.Context, activeOnly bool) ([]budget.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.Employee
	for _, e := range m.employees {
		if activeOnly && !e.IsActive {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) ListReports(_ context.Context, managerID int64) ([]budget.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.Employee
	for _, e := range m.employees {
		if e.ManagerID != nil && *e.ManagerID == managerID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SetManager(_ context.Context, employeeID int64, managerID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[employeeID]
	if !ok {
		return budget.ErrEmployeeNotFound
	}
	if managerID != nil {
		if _, ok := m.employees[*managerID]; !ok {
			return budget.ErrEmployeeNotFound
		}
		id := *managerID
		managerID = &id
	}
	e.ManagerID = managerID
	m.employees[employeeID] = e
	return nil
}

func (m *Memory) DeactivateEmployee(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.employees[id]
	if !ok {
		return budget.ErrEmployeeNotFound
	}
	e.IsActive = false
	m.employees[id] = e
	return nil
}

// =============================================================================
// COST CENTERS
// =============================================================================

func (m *Memory) CreateCostCenter(_ context.Context, c *budget.CostCenter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.costCenters {
		if existing.Code == c.Code {
			return budget.ErrDuplicateCostCenter
		}
	}
	c.ID = m.nextID("cost_center")
	m.costCenters[c.ID] = *c
	return nil
}

func (m *Memory) GetCostCenter(_ context.Context, id int64) (*budget.CostCenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.costCenters[id]
	if !ok {
		return nil, budget.ErrCostCenterNotFound
	}
	return &c, nil
}

func (m *Memory) GetCostCenterByCode(_ context.Context, code string) (*budget.CostCenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.costCenters {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, budget.ErrCostCenterNotFound
}

func (m *Memory) ListCostCenters(_ context.Context) ([]budget.CostCenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.CostCenter
	for _, c := range m.costCenters {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// =============================================================================
// AOPS, ALLOCATIONS, BUDGETS
// =============================================================================

func (m *Memory) CreateAOP(_ context.Context, a *budget.AOP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = m.nextID("aop")
	if a.State == "" {
		a.State = budget.AOPDraft
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.Now().UTC()
	}
	m.aops[a.ID] = *a
	return nil
}

func (m *Memory) GetAOP(_ context.Context, id int64) (*budget.AOP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.aops[id]
	if !ok {
		return nil, budget.ErrAOPNotFound
	}
	return &a, nil
}

func (m *Memory) ListAOPs(_ context.Context, activeOnly bool) ([]budget.AOP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.AOP
	for _, a := range m.aops {
		if activeOnly && !a.IsActive {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SetAOPState(_ context.Context, id int64, state budget.AOPState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.aops[id]
	if !ok {
		return budget.ErrAOPNotFound
	}
	a.State = state
	m.aops[id] = a
	return nil
}

func (m *Memory) AddAOPDetail(_ context.Context, d *budget.AOPDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.aops[d.AOPID]; !ok {
		return budget.ErrAOPNotFound
	}
	if _, ok := m.costCenters[d.CostCenterID]; !ok {
		return budget.ErrCostCenterNotFound
	}
	d.ID = m.nextID("aop_detail")
	m.details[d.ID] = *d
	return nil
}

func (m *Memory) ListAOPDetails(_ context.Context, aopID int64) ([]budget.AOPDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.AOPDetail
	for _, d := range m.details {
		if d.AOPID == aopID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CreateBudget inserts the budget and bumps the AOP total under one lock.
func (m *Memory) CreateBudget(_ context.Context, b *budget.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.aops[b.AOPID]
	if !ok {
		return budget.ErrAOPNotFound
	}
	for _, existing := range m.budgets {
		if existing.BudgetID == b.BudgetID {
			return budget.ErrDuplicateBudgetID
		}
	}
	if b.EmployeeID != nil {
		if _, ok := m.employees[*b.EmployeeID]; !ok {
			return budget.ErrEmployeeNotFound
		}
	}

	b.ID = m.nextID("budget")
	m.budgets[b.ID] = *b
	a.TotalAmount = a.TotalAmount.Add(b.Amount)
	m.aops[a.ID] = a
	return nil
}

func (m *Memory) BudgetIDExists(_ context.Context, budgetID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.budgets {
		if b.BudgetID == budgetID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListBudgets(_ context.Context, aopID int64) ([]budget.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []budget.Budget
	for _, b := range m.budgets {
		if aopID != 0 && b.AOPID != aopID {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
