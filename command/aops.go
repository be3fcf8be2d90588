package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/budgetbot/budget"
)

const (
	addAOPUsage        = `Please provide name and amount (e.g., add aop name "FY2024" amount 1000000)`
	addBudgetUsage     = `Please provide: aop ID, amount, and project name (e.g., add budget aop 1 amount 50000 project "Project Alpha")`
	addCostCenterUsage = `Please provide code and name (e.g., add cost center code eng name "Engineering")`
	allocateUsage      = `Please provide: aop ID, cost center code, and amount (e.g., allocate aop 1 cost center eng amount 250000)`
	showAOPUsage       = `Please provide an AOP ID (e.g., show aop 1)`
	setStateUsage      = `Please provide: aop ID and state (draft, active, or eol) (e.g., set aop 1 state active)`
	listBudgetsUsage   = `Please provide a numeric AOP ID (e.g., list budgets aop 1)`
	aopNotFound        = "AOP with ID %d not found"
	aopClosed          = "AOP '%s' is end-of-life; no new budgets or allocations can be added"
)

// =============================================================================
// AOPS
// =============================================================================

func (b *Bot) addAOP(ctx context.Context, msg string) (string, error) {
	name, ok := quoted(msg, `name "`)
	if !ok {
		return addAOPUsage, nil
	}
	word, ok := wordAfter(msg, "amount ")
	if !ok {
		return addAOPUsage, nil
	}
	amount, err := budget.ParseAmount(word)
	if err != nil {
		return addAOPUsage, nil
	}

	aop := budget.AOP{
		Name:        name,
		TotalAmount: amount,
		State:       budget.AOPDraft,
		IsActive:    true,
	}
	if err := b.store.CreateAOP(ctx, &aop); err != nil {
		return "", err
	}

	return fmt.Sprintf("AOP '%s' created with amount %s", name, budget.FormatMoney(amount)), nil
}

// spendableAOP loads an AOP for adding money to it. The returned string is a
// user-facing refusal when the AOP is missing or closed.
func (b *Bot) spendableAOP(ctx context.Context, id int64) (*budget.AOP, string, error) {
	aop, err := b.store.GetAOP(ctx, id)
	if errors.Is(err, budget.ErrAOPNotFound) {
		return nil, fmt.Sprintf(aopNotFound, id), nil
	}
	if err != nil {
		return nil, "", err
	}
	if !aop.AcceptsSpending() {
		return nil, fmt.Sprintf(aopClosed, aop.Name), nil
	}
	return aop, "", nil
}

func (b *Bot) showAOP(ctx context.Context, msg string) (string, error) {
	id, ok := tokenize(msg).idAfter("aop")
	if !ok {
		return showAOPUsage, nil
	}

	aop, err := b.store.GetAOP(ctx, id)
	if errors.Is(err, budget.ErrAOPNotFound) {
		return fmt.Sprintf(aopNotFound, id), nil
	}
	if err != nil {
		return "", err
	}

	details, err := b.store.ListAOPDetails(ctx, id)
	if err != nil {
		return "", err
	}
	budgets, err := b.store.ListBudgets(ctx, id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "AOP %d: %s\n", aop.ID, aop.Name)
	fmt.Fprintf(&sb, "State: %s\n", aop.State)
	fmt.Fprintf(&sb, "Total: %s\n", budget.FormatMoney(aop.TotalAmount))

	if len(details) == 0 {
		sb.WriteString("Allocations: none\n")
	} else {
		sb.WriteString("Allocations:\n")
		for _, d := range details {
			cc, err := b.store.GetCostCenter(ctx, d.CostCenterID)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "  %s (%s): %s\n", cc.Code, cc.Name, budget.FormatMoney(d.Amount))
		}
	}

	if len(budgets) == 0 {
		sb.WriteString("Budgets: none")
	} else {
		sb.WriteString("Budgets:")
		for _, bud := range budgets {
			line, err := b.budgetLine(ctx, bud)
			if err != nil {
				return "", err
			}
			sb.WriteString("\n  " + line)
		}
	}
	return sb.String(), nil
}

func (b *Bot) setAOPState(ctx context.Context, msg string) (string, error) {
	t := tokenize(msg)
	id, ok := t.idAfter("aop")
	if !ok {
		return setStateUsage, nil
	}
	name, ok := t.after("state", 1)
	if !ok {
		return setStateUsage, nil
	}
	state, ok := budget.ParseAOPState(name)
	if !ok {
		return setStateUsage, nil
	}

	aop, err := b.store.GetAOP(ctx, id)
	if errors.Is(err, budget.ErrAOPNotFound) {
		return fmt.Sprintf(aopNotFound, id), nil
	}
	if err != nil {
		return "", err
	}
	if err := budget.Transition(*aop, state); err != nil {
		return "", err
	}
	if err := b.store.SetAOPState(ctx, id, state); err != nil {
		return "", err
	}

	return fmt.Sprintf("AOP '%s' moved from %s to %s", aop.Name, aop.State, state), nil
}

func (b *Bot) listAOPs(ctx context.Context, _ string) (string, error) {
	aops, err := b.store.ListAOPs(ctx, true)
	if err != nil {
		return "", err
	}
	if len(aops) == 0 {
		return "No AOPs found", nil
	}

	lines := make([]string, len(aops))
	for i, a := range aops {
		lines[i] = fmt.Sprintf("ID: %d, Name: %s, Amount: %s", a.ID, a.Name, budget.FormatMoney(a.TotalAmount))
	}
	return "AOPs:\n" + strings.Join(lines, "\n"), nil
}

// =============================================================================
// COST CENTERS AND ALLOCATIONS
// =============================================================================

func (b *Bot) addCostCenter(ctx context.Context, msg string) (string, error) {
	code, ok := tokenize(msg).after("code", 1)
	if !ok {
		return addCostCenterUsage, nil
	}
	name, ok := quoted(msg, `name "`)
	if !ok {
		return addCostCenterUsage, nil
	}

	cc := budget.CostCenter{Code: code, Name: name, IsActive: true}
	if err := b.store.CreateCostCenter(ctx, &cc); err != nil {
		return "", err
	}
	return fmt.Sprintf("Cost center '%s' (%s) created successfully", cc.Code, cc.Name), nil
}

func (b *Bot) allocateAOP(ctx context.Context, msg string) (string, error) {
	t := tokenize(msg)
	id, ok := t.idAfter("aop")
	if !ok {
		return allocateUsage, nil
	}
	code, ok := t.afterPhrase("cost", "center")
	if !ok {
		return allocateUsage, nil
	}
	amount, ok := t.amountAfter("amount")
	if !ok {
		return allocateUsage, nil
	}

	aop, refusal, err := b.spendableAOP(ctx, id)
	if err != nil || refusal != "" {
		return refusal, err
	}

	cc, err := b.store.GetCostCenterByCode(ctx, code)
	if errors.Is(err, budget.ErrCostCenterNotFound) {
		return fmt.Sprintf("Cost center %s not found", code), nil
	}
	if err != nil {
		return "", err
	}

	detail := budget.AOPDetail{AOPID: aop.ID, CostCenterID: cc.ID, Amount: amount}
	if err := b.store.AddAOPDetail(ctx, &detail); err != nil {
		return "", err
	}
	return fmt.Sprintf("Allocated %s of AOP '%s' to cost center %s",
		budget.FormatMoney(amount), aop.Name, cc.Code), nil
}

func (b *Bot) listCostCenters(ctx context.Context, _ string) (string, error) {
	centers, err := b.store.ListCostCenters(ctx)
	if err != nil {
		return "", err
	}
	if len(centers) == 0 {
		return "No cost centers found", nil
	}

	lines := make([]string, len(centers))
	for i, c := range centers {
		lines[i] = fmt.Sprintf("%s: %s", c.Code, c.Name)
	}
	return "Cost centers:\n" + strings.Join(lines, "\n"), nil
}
