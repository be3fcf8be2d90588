/*
handlers.go - HTTP API handlers for the budget chat service

PURPOSE:
  Exposes the chat command interface and read-only JSON views of the
  budget data. Handles HTTP request/response and delegates to the command
  bot or the store.

ENDPOINTS:
  Chat:
    POST   /api/chat                          Run one chat command

  Employees:
    GET    /api/employees                     List active employees (?all=true for all)
    GET    /api/employees/{ldap}              Get employee
    GET    /api/employees/{ldap}/organization Reporting tree

  AOPs:
    GET    /api/aops                          List active AOPs
    GET    /api/aops/{id}                     AOP with allocations and budgets

  Other:
    GET    /api/cost-centers                  List cost centers
    GET    /api/budgets                       List budgets (?aop_id=N)

ERROR HANDLING:
  Chat:  malformed commands come back as a normal 200 response with usage
         text. Genuine failures return 400 {"error": "..."}.
  REST:  400 bad input, 404 not found, 500 internal errors, as
         {"error": "...", "details": "..."}.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/budgetbot/budget"
	"github.com/warp/budgetbot/command"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store budget.Store
	Bot   *command.Bot
	Log   *zap.Logger
}

// NewHandler creates a handler over store. A nil logger discards output.
func NewHandler(store budget.Store, bot *command.Bot, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Bot: bot, Log: log}
}

// =============================================================================
// CHAT
// =============================================================================

// Chat runs one chat command.
// POST /api/chat {"message": "..."}
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.Bot.Handle(r.Context(), req.Message)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ChatErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: resp})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	employees, err := h.Store.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee by LDAP.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.lookupEmployee(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// GetOrganization returns the reporting tree below an active employee.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.lookupEmployee(w, r)
	if !ok {
		return
	}
	if !emp.IsActive {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	tree, err := budget.BuildOrgTree(r.Context(), h.Store, *emp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build organization", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrgNodeDTO(tree))
}

func (h *Handler) lookupEmployee(w http.ResponseWriter, r *http.Request) (*budget.Employee, bool) {
	ldap := chi.URLParam(r, "ldap")

	emp, err := h.Store.GetEmployeeByLDAP(r.Context(), ldap)
	if errors.Is(err, budget.ErrEmployeeNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return nil, false
	}
	return emp, true
}

// =============================================================================
// AOP HANDLERS
// =============================================================================

// ListAOPs returns active AOPs.
func (h *Handler) ListAOPs(w http.ResponseWriter, r *http.Request) {
	aops, err := h.Store.ListAOPs(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list AOPs", err)
		return
	}

	dtos := make([]AOPDTO, len(aops))
	for i, a := range aops {
		dtos[i] = toAOPDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAOP returns one AOP with its allocations and budgets.
func (h *Handler) GetAOP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid AOP id", err)
		return
	}

	dto, err := h.aopWithChildren(r.Context(), id)
	if errors.Is(err, budget.ErrAOPNotFound) {
		writeError(w, http.StatusNotFound, "AOP not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get AOP", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) aopWithChildren(ctx context.Context, id int64) (AOPDTO, error) {
	aop, err := h.Store.GetAOP(ctx, id)
	if err != nil {
		return AOPDTO{}, err
	}
	dto := toAOPDTO(*aop)

	details, err := h.Store.ListAOPDetails(ctx, id)
	if err != nil {
		return AOPDTO{}, err
	}
	for _, d := range details {
		dto.Details = append(dto.Details, AOPDetailDTO{
			ID:           d.ID,
			CostCenterID: d.CostCenterID,
			Amount:       d.Amount.StringFixed(2),
		})
	}

	budgets, err := h.Store.ListBudgets(ctx, id)
	if err != nil {
		return AOPDTO{}, err
	}
	for _, b := range budgets {
		dto.Budgets = append(dto.Budgets, toBudgetDTO(b))
	}
	return dto, nil
}

// =============================================================================
// COST CENTER / BUDGET HANDLERS
// =============================================================================

// ListCostCenters returns all cost centers.
func (h *Handler) ListCostCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.Store.ListCostCenters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cost centers", err)
		return
	}

	dtos := make([]CostCenterDTO, len(centers))
	for i, c := range centers {
		dtos[i] = CostCenterDTO{ID: c.ID, Code: c.Code, Name: c.Name, IsActive: c.IsActive}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListBudgets returns budgets, optionally for one AOP.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	var aopID int64
	if v := r.URL.Query().Get("aop_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid aop_id", err)
			return
		}
		aopID = id
	}

	budgets, err := h.Store.ListBudgets(r.Context(), aopID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness, pinging the database when the store supports it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
