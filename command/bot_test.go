package command_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/warp/budgetbot/budget"
	"github.com/warp/budgetbot/budget/store"
	"github.com/warp/budgetbot/command"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.Local)

func newTestBot(t *testing.T) (*command.Bot, *store.Memory) {
	t.Helper()
	s := store.NewMemory()
	return command.New(s, command.WithClock(func() time.Time { return fixedNow })), s
}

// say sends a message and fails the test on a genuine error.
func say(t *testing.T, bot *command.Bot, msg string) string {
	t.Helper()
	resp, err := bot.Handle(context.Background(), msg)
	require.NoError(t, err, msg)
	return resp
}

func seedOrg(t *testing.T, bot *command.Bot) {
	t.Helper()
	say(t, bot, "add user ldap ceo first name ada last name lovelace email ada@example.com level 9")
	say(t, bot, "add user ldap vp first name grace last name hopper email grace@example.com level 7 manager ceo")
	say(t, bot, "add user ldap eng first name linus last name torvalds email linus@example.com level 5 manager vp")
	say(t, bot, "add user ldap ops first name ken last name thompson email ken@example.com level 5 manager ceo")
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestHandle_Dispatch(t *testing.T) {
	bot, _ := newTestBot(t)

	tests := []struct {
		msg  string
		want string
	}{
		{"add user ldap x", "add_user"},
		{"  ADD USER ldap x", "add_user"},
		{"show me my organization as x", "show_organization"},
		{"add aop name", "add_aop"},
		{"add budget aop 1", "add_budget"},
		{"add cost center code x", "add_cost_center"},
		{"allocate aop 1", "allocate_aop"},
		{"show aop 1", "show_aop"},
		{"set aop 1 state active", "set_aop_state"},
		{"set manager of a to b", "set_manager"},
		{"deactivate user a", "deactivate_user"},
		{"list users", "list_users"},
		{"List AOPs", "list_aops"},
		{"list cost centers", "list_cost_centers"},
		{"list budgets", "list_budgets"},
		{"list budgets aop 2", "list_budgets"},
		{"help", "help"},
		{"list users please", ""},
		{"help me", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bot.Match(tt.msg), "message %q", tt.msg)
	}
}

func TestHandle_Unrecognized(t *testing.T) {
	bot, _ := newTestBot(t)
	assert.Equal(t, command.NotRecognized, say(t, bot, "make me a sandwich"))
}

func TestHandle_Help(t *testing.T) {
	bot, _ := newTestBot(t)
	resp := say(t, bot, "HELP")
	assert.True(t, strings.HasPrefix(resp, "\nAvailable commands:\n"))
	assert.Contains(t, resp, `- add budget aop [id] amount [amount] project "[name]"`)
	assert.Contains(t, resp, "- show me my organization as [ldap]")
}

// =============================================================================
// USERS AND ORGANIZATION
// =============================================================================

func TestAddUser(t *testing.T) {
	bot, s := newTestBot(t)

	// Fields are lowercased with the rest of the message.
	resp := say(t, bot, "add user ldap JDoe first name John last name Doe email JDoe@Example.com level 3")
	assert.Equal(t, "User john doe (jdoe) created successfully", resp)

	e, err := s.GetEmployeeByLDAP(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", e.Email)
	assert.Equal(t, 3, e.Level)
	assert.True(t, e.IsActive)
}

func TestAddUser_Usage(t *testing.T) {
	bot, _ := newTestBot(t)
	resp := say(t, bot, "add user jdoe john doe jdoe@example.com 3")
	assert.Equal(t, "Please provide: ldap, first name, last name, email, and level", resp)
}

func TestAddUser_DuplicateIsGenuineError(t *testing.T) {
	bot, _ := newTestBot(t)
	say(t, bot, "add user ldap jdoe first name john last name doe email e level 3")

	_, err := bot.Handle(context.Background(), "add user ldap jdoe first name jane last name doe email e level 3")
	assert.ErrorIs(t, err, budget.ErrDuplicateLDAP)
}

func TestAddUser_UnknownReferences(t *testing.T) {
	bot, _ := newTestBot(t)
	assert.Equal(t, "Manager with LDAP ghost not found",
		say(t, bot, "add user ldap a first name a last name a email a level 1 manager ghost"))
	assert.Equal(t, "Cost center nope not found",
		say(t, bot, "add user ldap a first name a last name a email a level 1 cost center nope"))
	assert.Equal(t, "No users found", say(t, bot, "list users"))
}

func TestAddUser_InactiveManager(t *testing.T) {
	bot, s := newTestBot(t)
	say(t, bot, "add user ldap boss first name b last name b email b level 5")
	say(t, bot, "deactivate user boss")

	assert.Equal(t, "Manager with LDAP boss not found",
		say(t, bot, "add user ldap a first name a last name a email a level 1 manager boss"))

	_, err := s.GetEmployeeByLDAP(context.Background(), "a")
	assert.ErrorIs(t, err, budget.ErrEmployeeNotFound)
}

func TestAddUser_WithCostCenter(t *testing.T) {
	bot, s := newTestBot(t)
	say(t, bot, `add cost center code eng name "engineering"`)
	say(t, bot, "add user ldap a first name a last name a email a level 1 cost center eng")

	e, err := s.GetEmployeeByLDAP(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, e.CostCenterID)
}

func TestShowOrganization(t *testing.T) {
	bot, _ := newTestBot(t)
	seedOrg(t, bot)

	resp := say(t, bot, "show me my organization as ceo")
	assert.Equal(t, "Organization Structure:\n"+
		"ada lovelace (ceo)\n"+
		"  grace hopper (vp)\n"+
		"    linus torvalds (eng)\n"+
		"  ken thompson (ops)", resp)

	resp = say(t, bot, "show me my organization as vp")
	assert.Equal(t, "Organization Structure:\ngrace hopper (vp)\n  linus torvalds (eng)", resp)
}

func TestShowOrganization_Edges(t *testing.T) {
	bot, _ := newTestBot(t)
	seedOrg(t, bot)

	assert.Equal(t, "Please specify LDAP username (e.g., 'show me my organization as john123')",
		say(t, bot, "show me my organization as"))
	assert.Equal(t, "Employee with LDAP nobody not found",
		say(t, bot, "show me my organization as nobody"))

	// Deactivated employees are hidden both as root and as reports.
	say(t, bot, "deactivate user vp")
	assert.Equal(t, "Employee with LDAP vp not found", say(t, bot, "show me my organization as vp"))
	assert.Equal(t, "Organization Structure:\nada lovelace (ceo)\n  ken thompson (ops)",
		say(t, bot, "show me my organization as ceo"))
}

func TestShowOrganization_SubstringAs(t *testing.T) {
	bot, _ := newTestBot(t)
	say(t, bot, "add user ldap jaspreet first name j last name s email j@example.com level 3")
	say(t, bot, "add user ldap preet first name p last name k email p@example.com level 3")

	// The lookup key is whatever follows the last "as", even mid-word.
	assert.Equal(t, "Organization Structure:\np k (preet)",
		say(t, bot, "show me my organization as jaspreet"))
	assert.Equal(t, "Employee with LDAP show me my organization not found",
		say(t, bot, "show me my organization"))
}

func TestListUsers(t *testing.T) {
	bot, _ := newTestBot(t)
	seedOrg(t, bot)
	say(t, bot, "deactivate user ops")

	assert.Equal(t, "Users:\nada lovelace (ceo)\ngrace hopper (vp)\nlinus torvalds (eng)",
		say(t, bot, "list users"))
}

func TestDeactivateUser(t *testing.T) {
	bot, _ := newTestBot(t)
	seedOrg(t, bot)

	assert.Equal(t, "User ken thompson (ops) deactivated", say(t, bot, "deactivate user ops"))
	assert.Equal(t, "User ken thompson (ops) is already inactive", say(t, bot, "deactivate user ops"))
	assert.Equal(t, "Employee with LDAP ghost not found", say(t, bot, "deactivate user ghost"))
	assert.Equal(t, "Please provide an LDAP username (e.g., deactivate user john123)", say(t, bot, "deactivate user"))
}

func TestSetManager(t *testing.T) {
	bot, _ := newTestBot(t)
	seedOrg(t, bot)
	ctx := context.Background()

	t.Run("move a report", func(t *testing.T) {
		assert.Equal(t, "ops is now the manager of eng", say(t, bot, "set manager of eng to ops"))
		assert.Equal(t, "Organization Structure:\nken thompson (ops)\n  linus torvalds (eng)",
			say(t, bot, "show me my organization as ops"))
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		_, err := bot.Handle(ctx, "set manager of ceo to eng")
		assert.ErrorIs(t, err, budget.ErrManagerCycle)
	})

	t.Run("self is rejected", func(t *testing.T) {
		_, err := bot.Handle(ctx, "set manager of vp to vp")
		assert.ErrorIs(t, err, budget.ErrManagerCycle)
	})

	t.Run("clear", func(t *testing.T) {
		assert.Equal(t, "eng no longer has a manager", say(t, bot, "set manager of eng to none"))
	})

	t.Run("usage and unknowns", func(t *testing.T) {
		assert.Contains(t, say(t, bot, "set manager eng ops"), "Please provide")
		assert.Equal(t, "Employee with LDAP ghost not found", say(t, bot, "set manager of ghost to ceo"))
		assert.Equal(t, "Employee with LDAP ghost not found", say(t, bot, "set manager of eng to ghost"))
	})
}

// =============================================================================
// AOPS AND BUDGETS
// =============================================================================

func TestAddAOP(t *testing.T) {
	bot, s := newTestBot(t)

	resp := say(t, bot, `add aop name "FY2024" amount 1000000`)
	assert.Equal(t, "AOP 'fy2024' created with amount $1,000,000.00", resp)

	aop, err := s.GetAOP(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, budget.AOPDraft, aop.State)
	assert.True(t, aop.IsActive)

	assert.Equal(t, "AOPs:\nID: 1, Name: fy2024, Amount: $1,000,000.00", say(t, bot, "list aops"))
}

func TestAddAOP_Usage(t *testing.T) {
	bot, _ := newTestBot(t)
	usage := `Please provide name and amount (e.g., add aop name "FY2024" amount 1000000)`

	assert.Equal(t, usage, say(t, bot, `add aop name fy2024 amount 10`))
	assert.Equal(t, usage, say(t, bot, `add aop name "fy2024" amount lots`))
	assert.Equal(t, usage, say(t, bot, `add aop name "fy2024"`))
	assert.Equal(t, usage, say(t, bot, `add aop name "x" amount 1e50000000`))
	assert.Equal(t, usage, say(t, bot, `add aop name "x" amount 1e-50000000`))
	assert.Equal(t, "No AOPs found", say(t, bot, "list aops"))
}

func TestAmountOutOfRange_Usage(t *testing.T) {
	bot, _ := newTestBot(t)
	say(t, bot, `add aop name "fy2024" amount 100`)
	say(t, bot, `add cost center code eng name "engineering"`)

	assert.Equal(t,
		`Please provide: aop ID, amount, and project name (e.g., add budget aop 1 amount 50000 project "Project Alpha")`,
		say(t, bot, `add budget aop 1 amount 1e200000000 project "big"`))
	assert.Equal(t,
		`Please provide: aop ID, cost center code, and amount (e.g., allocate aop 1 cost center eng amount 250000)`,
		say(t, bot, "allocate aop 1 cost center eng amount 1e50000000"))
	assert.Contains(t, say(t, bot, "show aop 1"), "Total: $100.00")
}

func TestAddBudget_IncrementsAOPTotal(t *testing.T) {
	// GIVEN: an AOP with 1,000,000
	bot, s := newTestBot(t)
	say(t, bot, `add aop name "fy2024" amount 1000000`)

	// WHEN: a budget of 50,000 is added
	resp := say(t, bot, `add budget aop 1 amount 50000 project "Project Alpha"`)

	// THEN: the ID is stamped from the clock and the AOP grows
	assert.Equal(t, "Budget created successfully with ID: BUD20240115093000", resp)
	assert.Equal(t, "AOPs:\nID: 1, Name: fy2024, Amount: $1,050,000.00", say(t, bot, "list aops"))

	budgets, err := s.ListBudgets(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, "project alpha", budgets[0].Project)
}

func TestAddBudget_SameSecondGetsSuffix(t *testing.T) {
	bot, _ := newTestBot(t)
	say(t, bot, `add aop name "fy2024" amount 0`)

	first := say(t, bot, `add budget aop 1 amount 1 project "a"`)
	second := say(t, bot, `add budget aop 1 amount 1 project "b"`)

	assert.Equal(t, "Budget created successfully with ID: BUD20240115093000", first)
	assert.True(t, strings.HasPrefix(second, "Budget created successfully with ID: BUD20240115093000-"), second)
}

func TestAddBudget_Refusals(t *testing.T) {
	bot, _ := newTestBot(t)

	assert.Equal(t,
		`Please provide: aop ID, amount, and project name (e.g., add budget aop 1 amount 50000 project "Project Alpha")`,
		say(t, bot, `add budget aop x amount 5 project "p"`))
	assert.Equal(t, "AOP with ID 9 not found", say(t, bot, `add budget aop 9 amount 5 project "p"`))

	say(t, bot, `add aop name "old" amount 10`)
	say(t, bot, "set aop 1 state eol")
	assert.Equal(t, "AOP 'old' is end-of-life; no new budgets or allocations can be added",
		say(t, bot, `add budget aop 1 amount 5 project "p"`))

	say(t, bot, `add aop name "new" amount 10`)
	assert.Equal(t, "Employee with LDAP ghost not found",
		say(t, bot, `add budget aop 2 amount 5 project "p" owner ghost`))
}

func TestAOPLifecycle(t *testing.T) {
	bot, _ := newTestBot(t)
	say(t, bot, `add aop name "fy2024" amount 10`)

	assert.Equal(t, "AOP 'fy2024' moved from draft to active", say(t, bot, "set aop 1 state active"))

	_, err := bot.Handle(context.Background(), "set aop 1 state draft")
	assert.ErrorIs(t, err, budget.ErrInvalidStateTransition)

	assert.Equal(t, "AOP 'fy2024' moved from active to eol", say(t, bot, "set aop 1 state eol"))
	assert.Contains(t, say(t, bot, "set aop 1 state retired"), "Please provide")
	assert.Equal(t, "AOP with ID 4 not found", say(t, bot, "set aop 4 state eol"))
}

func TestShowAOP(t *testing.T) {
	bot, _ := newTestBot(t)
	seedOrg(t, bot)
	say(t, bot, `add aop name "fy2024" amount 1000000`)
	say(t, bot, `add cost center code eng name "engineering"`)

	assert.Equal(t, "AOP 1: fy2024\nState: draft\nTotal: $1,000,000.00\nAllocations: none\nBudgets: none",
		say(t, bot, "show aop 1"))

	assert.Equal(t, "Allocated $250,000.00 of AOP 'fy2024' to cost center eng",
		say(t, bot, "allocate aop 1 cost center eng amount 250000"))
	say(t, bot, `add budget aop 1 amount 50000 project "alpha" owner vp`)

	assert.Equal(t, "AOP 1: fy2024\n"+
		"State: draft\n"+
		"Total: $1,050,000.00\n"+
		"Allocations:\n"+
		"  eng (engineering): $250,000.00\n"+
		"Budgets:\n"+
		"  BUD20240115093000: alpha, Amount: $50,000.00, Owner: vp",
		say(t, bot, "show aop 1"))

	assert.Equal(t, "AOP with ID 2 not found", say(t, bot, "show aop 2"))
	assert.Equal(t, "Please provide an AOP ID (e.g., show aop 1)", say(t, bot, "show aop"))
}

func TestAllocateAOP_Refusals(t *testing.T) {
	bot, _ := newTestBot(t)
	say(t, bot, `add aop name "fy2024" amount 10`)

	assert.Contains(t, say(t, bot, "allocate aop 1 amount 5"), "Please provide")
	assert.Equal(t, "Cost center ghost not found", say(t, bot, "allocate aop 1 cost center ghost amount 5"))
	assert.Equal(t, "AOP with ID 3 not found", say(t, bot, "allocate aop 3 cost center ghost amount 5"))
}

func TestCostCenters(t *testing.T) {
	bot, _ := newTestBot(t)
	assert.Equal(t, "No cost centers found", say(t, bot, "list cost centers"))

	assert.Equal(t, "Cost center 'eng' (engineering) created successfully",
		say(t, bot, `add cost center code eng name "Engineering"`))
	say(t, bot, `add cost center code fin name "finance"`)

	_, err := bot.Handle(context.Background(), `add cost center code eng name "again"`)
	assert.ErrorIs(t, err, budget.ErrDuplicateCostCenter)

	assert.Equal(t, "Cost centers:\neng: engineering\nfin: finance", say(t, bot, "list cost centers"))
	assert.Contains(t, say(t, bot, "add cost center eng"), "Please provide")
}

func TestListBudgets(t *testing.T) {
	bot, _ := newTestBot(t)
	assert.Equal(t, "No budgets found", say(t, bot, "list budgets"))

	say(t, bot, `add aop name "a" amount 0`)
	say(t, bot, `add aop name "b" amount 0`)
	say(t, bot, `add budget aop 2 amount 7.5 project "p"`)

	assert.Equal(t, "Budgets:\nBUD20240115093000: p, Amount: $7.50, AOP: 2", say(t, bot, "list budgets"))
	assert.Equal(t, "No budgets found", say(t, bot, "list budgets aop 1"))
	assert.Contains(t, say(t, bot, "list budgets aop x"), "Please provide")
}
