package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/budgetbot/budget"
)

const (
	addUserUsage     = "Please provide: ldap, first name, last name, email, and level"
	showOrgUsage     = "Please specify LDAP username (e.g., 'show me my organization as john123')"
	setManagerUsage  = "Please provide: employee and manager LDAP (e.g., set manager of john123 to jane456, or to none)"
	deactivateUsage  = "Please provide an LDAP username (e.g., deactivate user john123)"
	employeeNotFound = "Employee with LDAP %s not found"
)

// =============================================================================
// ADD USER
// =============================================================================

type addUserArgs struct {
	ldap, first, last, email string
	level                    int
	manager, costCenter      string
}

// parseAddUser reads "... ldap X first name F last name L email E level N"
// plus the optional "manager M" and "cost center C" clauses. The word after
// "first" and "last" is skipped (it is expected to be "name").
func parseAddUser(msg string) (addUserArgs, bool) {
	t := tokenize(msg)

	var a addUserArgs
	var ok bool
	if a.ldap, ok = t.after("ldap", 1); !ok {
		return a, false
	}
	if a.first, ok = t.after("first", 2); !ok {
		return a, false
	}
	if a.last, ok = t.after("last", 2); !ok {
		return a, false
	}
	if a.email, ok = t.after("email", 1); !ok {
		return a, false
	}
	if a.level, ok = t.intAfter("level"); !ok {
		return a, false
	}

	a.manager, _ = t.after("manager", 1)
	a.costCenter, _ = t.afterPhrase("cost", "center")
	return a, true
}

func (b *Bot) addUser(ctx context.Context, msg string) (string, error) {
	args, ok := parseAddUser(msg)
	if !ok {
		return addUserUsage, nil
	}

	emp := budget.Employee{
		LDAP:      args.ldap,
		FirstName: args.first,
		LastName:  args.last,
		Email:     args.email,
		Level:     args.level,
		IsActive:  true,
	}

	if args.manager != "" {
		mgr, err := b.activeEmployee(ctx, args.manager)
		if err != nil {
			return "", err
		}
		if mgr == nil {
			return fmt.Sprintf("Manager with LDAP %s not found", args.manager), nil
		}
		emp.ManagerID = &mgr.ID
	}

	if args.costCenter != "" {
		cc, err := b.store.GetCostCenterByCode(ctx, args.costCenter)
		if errors.Is(err, budget.ErrCostCenterNotFound) {
			return fmt.Sprintf("Cost center %s not found", args.costCenter), nil
		}
		if err != nil {
			return "", err
		}
		emp.CostCenterID = &cc.ID
	}

	if err := b.store.CreateEmployee(ctx, &emp); err != nil {
		return "", err
	}

	return fmt.Sprintf("User %s %s (%s) created successfully", emp.FirstName, emp.LastName, emp.LDAP), nil
}

// =============================================================================
// ORGANIZATION
// =============================================================================

// parseShowOrganization returns the trimmed text after the last occurrence
// of the substring "as", or the whole message when there is none. The
// substring match is intentional: "as jaspreet" resolves to "preet".
func parseShowOrganization(msg string) string {
	if i := strings.LastIndex(msg, "as"); i >= 0 {
		msg = msg[i+len("as"):]
	}
	return strings.TrimSpace(msg)
}

func (b *Bot) showOrganization(ctx context.Context, msg string) (string, error) {
	ldap := parseShowOrganization(msg)
	if ldap == "" {
		return showOrgUsage, nil
	}

	emp, err := b.activeEmployee(ctx, ldap)
	if err != nil {
		return "", err
	}
	if emp == nil {
		return fmt.Sprintf(employeeNotFound, ldap), nil
	}

	tree, err := budget.BuildOrgTree(ctx, b.store, *emp)
	if err != nil {
		return "", err
	}
	return "Organization Structure:\n" + strings.Join(tree.Lines(), "\n"), nil
}

// activeEmployee returns nil (and no error) when ldap is unknown or inactive.
func (b *Bot) activeEmployee(ctx context.Context, ldap string) (*budget.Employee, error) {
	emp, err := b.store.GetEmployeeByLDAP(ctx, ldap)
	if errors.Is(err, budget.ErrEmployeeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, nil
	}
	return emp, nil
}

// =============================================================================
// MANAGER / DEACTIVATION
// =============================================================================

func (b *Bot) setManager(ctx context.Context, msg string) (string, error) {
	t := tokenize(msg)
	ldap, ok := t.after("of", 1)
	if !ok {
		return setManagerUsage, nil
	}
	managerLDAP, ok := t.after("to", 1)
	if !ok {
		return setManagerUsage, nil
	}

	emp, err := b.activeEmployee(ctx, ldap)
	if err != nil {
		return "", err
	}
	if emp == nil {
		return fmt.Sprintf(employeeNotFound, ldap), nil
	}

	if managerLDAP == "none" {
		if err := budget.AssignManager(ctx, b.store, *emp, nil); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s no longer has a manager", emp.LDAP), nil
	}

	mgr, err := b.activeEmployee(ctx, managerLDAP)
	if err != nil {
		return "", err
	}
	if mgr == nil {
		return fmt.Sprintf(employeeNotFound, managerLDAP), nil
	}

	if err := budget.AssignManager(ctx, b.store, *emp, mgr); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s is now the manager of %s", mgr.LDAP, emp.LDAP), nil
}

func (b *Bot) deactivateUser(ctx context.Context, msg string) (string, error) {
	ldap, ok := tokenize(msg).after("user", 1)
	if !ok {
		return deactivateUsage, nil
	}

	emp, err := b.store.GetEmployeeByLDAP(ctx, ldap)
	if errors.Is(err, budget.ErrEmployeeNotFound) {
		return fmt.Sprintf(employeeNotFound, ldap), nil
	}
	if err != nil {
		return "", err
	}
	if !emp.IsActive {
		return fmt.Sprintf("User %s is already inactive", emp.DisplayName()), nil
	}

	if err := b.store.DeactivateEmployee(ctx, emp.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("User %s deactivated", emp.DisplayName()), nil
}

// =============================================================================
// LIST
// =============================================================================

func (b *Bot) listUsers(ctx context.Context, _ string) (string, error) {
	employees, err := b.store.ListEmployees(ctx, true)
	if err != nil {
		return "", err
	}
	if len(employees) == 0 {
		return "No users found", nil
	}

	lines := make([]string, len(employees))
	for i, e := range employees {
		lines[i] = e.DisplayName()
	}
	return "Users:\n" + strings.Join(lines, "\n"), nil
}
