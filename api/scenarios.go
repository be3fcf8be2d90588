/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a small
	organization, cost centers, AOPs and budgets. Scenarios are written as
	chat scripts and replayed through the command bot, so the data is built
	exactly the way a user would build it.

AVAILABLE SCENARIOS:

	empty:        Clean database
	demo-org:     Five people, three cost centers, one active AOP with budgets
	fiscal-close: Closed FY2023 next to an active FY2024

HOW SCENARIOS WORK:
 1. Reset database (clear all data, restart ids)
 2. Replay the scenario's chat script in order

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "demo-org"}

USAGE VIA CLI:

	budgetbot seed demo-org

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/warp/budgetbot/budget"
	"github.com/warp/budgetbot/command"
)

// ErrUnknownScenario is returned for scenario ids not in Scenarios.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	script []string
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Empty",
			Description: "Clean database with no data",
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "demo-org",
			Name:        "Demo Organization",
			Description: "Small org with cost centers, an active AOP, allocations and budgets",
		},
		script: demoOrgScript,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "fiscal-close",
			Name:        "Fiscal Close",
			Description: "FY2023 closed (eol) next to an active FY2024",
		},
		script: fiscalCloseScript,
	},
}

var demoOrgScript = []string{
	`add cost center code eng name "Engineering"`,
	`add cost center code ops name "Operations"`,
	`add cost center code fin name "Finance"`,

	"add user ldap ada first name ada last name lovelace email ada@example.com level 9 cost center fin",
	"add user ldap grace first name grace last name hopper email grace@example.com level 7 manager ada cost center eng",
	"add user ldap linus first name linus last name torvalds email linus@example.com level 5 manager grace cost center eng",
	"add user ldap margaret first name margaret last name hamilton email margaret@example.com level 5 manager grace cost center eng",
	"add user ldap ken first name ken last name thompson email ken@example.com level 6 manager ada cost center ops",

	`add aop name "FY2024" amount 1000000`,
	"set aop 1 state active",
	"allocate aop 1 cost center eng amount 600000",
	"allocate aop 1 cost center ops amount 250000",
	`add budget aop 1 amount 120000 project "Build Farm" owner linus description "CI runners and caches"`,
	`add budget aop 1 amount 45000.50 project "Onboarding" owner margaret`,
	`add budget aop 1 amount 80000 project "Datacenter Refresh" owner ken`,
}

var fiscalCloseScript = []string{
	`add cost center code eng name "Engineering"`,
	"add user ldap ada first name ada last name lovelace email ada@example.com level 9 cost center eng",

	`add aop name "FY2023" amount 500000`,
	"set aop 1 state active",
	"allocate aop 1 cost center eng amount 500000",
	`add budget aop 1 amount 200000 project "Legacy Migration" owner ada`,
	"set aop 1 state eol",

	`add aop name "FY2024" amount 750000`,
	"set aop 2 state active",
	"allocate aop 2 cost center eng amount 400000",
	`add budget aop 2 amount 90000 project "Observability" owner ada`,
}

// Scenarios returns the available scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	return out
}

// RunScenario resets store and replays the scenario's script through bot.
func RunScenario(ctx context.Context, store budget.Store, bot *command.Bot, id string) error {
	var sc *scenario
	for i := range scenarios {
		if scenarios[i].ID == id {
			sc = &scenarios[i]
			break
		}
	}
	if sc == nil {
		return fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}

	if err := runScript(ctx, bot, sc.script); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	return nil
}

// ErrScriptRefused is returned when a scenario line gets a reply other than
// a success, such as a usage hint or a not-found message.
var ErrScriptRefused = errors.New("scenario command refused")

func runScript(ctx context.Context, bot *command.Bot, script []string) error {
	for _, line := range script {
		reply, err := bot.Handle(ctx, line)
		if err != nil {
			return fmt.Errorf("%q: %w", line, err)
		}
		if !isSuccessReply(reply) {
			return fmt.Errorf("%w: %q: %s", ErrScriptRefused, line, reply)
		}
	}
	return nil
}

// isSuccessReply reports whether reply is the confirmation of a write
// command.
func isSuccessReply(reply string) bool {
	switch {
	case strings.HasSuffix(reply, " created successfully"),
		strings.HasPrefix(reply, "Budget created successfully"),
		strings.HasPrefix(reply, "AOP '") && strings.Contains(reply, "' created with amount "),
		strings.HasPrefix(reply, "AOP '") && strings.Contains(reply, "' moved from "),
		strings.HasPrefix(reply, "Allocated "):
		return true
	}
	return false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// LoadScenario loads a predefined scenario.
// POST /api/scenarios/load {"scenario_id": "..."}
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := RunScenario(r.Context(), h.Store, h.Bot, req.ScenarioID)
	if errors.Is(err, ErrUnknownScenario) {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
