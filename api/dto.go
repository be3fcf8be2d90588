/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  budget domain types. Amounts are rendered as decimal strings so clients
  never see float rounding.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers
*/
package api

import (
	"time"

	"github.com/warp/budgetbot/budget"
)

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the bot's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatErrorResponse is returned with 400 when a command fails.
type ChatErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// ENTITIES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           int64  `json:"id"`
	LDAP         string `json:"ldap"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Level        int    `json:"level"`
	CostCenterID *int64 `json:"cost_center_id,omitempty"`
	ManagerID    *int64 `json:"manager_id,omitempty"`
	IsActive     bool   `json:"is_active"`
}

func toEmployeeDTO(e budget.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           e.ID,
		LDAP:         e.LDAP,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Level:        e.Level,
		CostCenterID: e.CostCenterID,
		ManagerID:    e.ManagerID,
		IsActive:     e.IsActive,
	}
}

// OrgNodeDTO is one node of GET /api/employees/{ldap}/organization.
type OrgNodeDTO struct {
	LDAP    string       `json:"ldap"`
	Name    string       `json:"name"`
	Reports []OrgNodeDTO `json:"reports"`
}

func toOrgNodeDTO(n *budget.OrgNode) OrgNodeDTO {
	dto := OrgNodeDTO{
		LDAP:    n.Employee.LDAP,
		Name:    n.Employee.FirstName + " " + n.Employee.LastName,
		Reports: make([]OrgNodeDTO, 0, len(n.Reports)),
	}
	for _, r := range n.Reports {
		dto.Reports = append(dto.Reports, toOrgNodeDTO(r))
	}
	return dto
}

// CostCenterDTO represents a cost center.
type CostCenterDTO struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// AOPDTO represents an AOP. Details and Budgets are only filled by
// GET /api/aops/{id}.
type AOPDTO struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	TotalAmount string         `json:"total_amount"`
	State       string         `json:"state"`
	CreatedAt   string         `json:"created_at"`
	IsActive    bool           `json:"is_active"`
	Details     []AOPDetailDTO `json:"details,omitempty"`
	Budgets     []BudgetDTO    `json:"budgets,omitempty"`
}

func toAOPDTO(a budget.AOP) AOPDTO {
	return AOPDTO{
		ID:          a.ID,
		Name:        a.Name,
		TotalAmount: a.TotalAmount.StringFixed(2),
		State:       string(a.State),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		IsActive:    a.IsActive,
	}
}

// AOPDetailDTO is an allocation of AOP money to a cost center.
type AOPDetailDTO struct {
	ID           int64  `json:"id"`
	CostCenterID int64  `json:"cost_center_id"`
	Amount       string `json:"amount"`
}

// BudgetDTO represents a budget.
type BudgetDTO struct {
	ID          int64  `json:"id"`
	BudgetID    string `json:"budget_id"`
	AOPID       int64  `json:"aop_id"`
	EmployeeID  *int64 `json:"employee_id,omitempty"`
	Project     string `json:"project"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	IsActive    bool   `json:"is_active"`
}

func toBudgetDTO(b budget.Budget) BudgetDTO {
	return BudgetDTO{
		ID:          b.ID,
		BudgetID:    b.BudgetID,
		AOPID:       b.AOPID,
		EmployeeID:  b.EmployeeID,
		Project:     b.Project,
		Description: b.Description,
		Amount:      b.Amount.StringFixed(2),
		IsActive:    b.IsActive,
	}
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is returned by the REST endpoints on failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
