package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/budgetbot/budget"
)

type addBudgetArgs struct {
	aopID       int64
	amount      decimal.Decimal
	project     string
	owner       string
	description string
}

// parseAddBudget reads "aop N amount A project "P"" plus the optional
// "owner L" and `description "D"` clauses.
func parseAddBudget(msg string) (addBudgetArgs, bool) {
	t := tokenize(msg)

	var a addBudgetArgs
	var ok bool
	if a.aopID, ok = t.idAfter("aop"); !ok {
		return a, false
	}
	if a.amount, ok = t.amountAfter("amount"); !ok {
		return a, false
	}
	if a.project, ok = quoted(msg, `project "`); !ok {
		return a, false
	}

	a.owner, _ = t.after("owner", 1)
	a.description, _ = quoted(msg, `description "`)
	return a, true
}

func (b *Bot) addBudget(ctx context.Context, msg string) (string, error) {
	args, ok := parseAddBudget(msg)
	if !ok {
		return addBudgetUsage, nil
	}

	aop, refusal, err := b.spendableAOP(ctx, args.aopID)
	if err != nil || refusal != "" {
		return refusal, err
	}

	bud := budget.Budget{
		AOPID:       aop.ID,
		Project:     args.project,
		Description: args.description,
		Amount:      args.amount,
		IsActive:    true,
	}

	if args.owner != "" {
		owner, err := b.activeEmployee(ctx, args.owner)
		if err != nil {
			return "", err
		}
		if owner == nil {
			return fmt.Sprintf(employeeNotFound, args.owner), nil
		}
		bud.EmployeeID = &owner.ID
	}

	bud.BudgetID, err = budget.NewBudgetID(ctx, b.store, b.now())
	if err != nil {
		return "", err
	}

	if err := b.store.CreateBudget(ctx, &bud); err != nil {
		return "", err
	}

	return fmt.Sprintf("Budget created successfully with ID: %s", bud.BudgetID), nil
}

func (b *Bot) listBudgets(ctx context.Context, msg string) (string, error) {
	var aopID int64
	t := tokenize(msg)
	if t.index("aop") >= 0 {
		id, ok := t.idAfter("aop")
		if !ok {
			return listBudgetsUsage, nil
		}
		aopID = id
	}

	budgets, err := b.store.ListBudgets(ctx, aopID)
	if err != nil {
		return "", err
	}
	if len(budgets) == 0 {
		return "No budgets found", nil
	}

	lines := make([]string, len(budgets))
	for i, bud := range budgets {
		line, err := b.budgetLine(ctx, bud)
		if err != nil {
			return "", err
		}
		lines[i] = fmt.Sprintf("%s, AOP: %d", line, bud.AOPID)
	}
	return "Budgets:\n" + strings.Join(lines, "\n"), nil
}

// budgetLine renders "ID: project, Amount: $x" with the owner when known.
func (b *Bot) budgetLine(ctx context.Context, bud budget.Budget) (string, error) {
	line := fmt.Sprintf("%s: %s, Amount: %s", bud.BudgetID, bud.Project, budget.FormatMoney(bud.Amount))
	if bud.EmployeeID == nil {
		return line, nil
	}

	owner, err := b.store.GetEmployee(ctx, *bud.EmployeeID)
	if errors.Is(err, budget.ErrEmployeeNotFound) {
		return line, nil
	}
	if err != nil {
		return "", err
	}
	return line + ", Owner: " + owner.LDAP, nil
}
