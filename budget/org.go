package budget

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// ORGANIZATION TREE
// =============================================================================

// OrgNode is one employee and the active reports beneath them.
type OrgNode struct {
	Employee Employee
	Reports  []*OrgNode
}

// BuildOrgTree walks the reporting hierarchy below root. Inactive reports
// (and everything under them) are skipped. Each employee is visited at most
// once, so a cycle already present in storage cannot loop forever.
func BuildOrgTree(ctx context.Context, s EmployeeStore, root Employee) (*OrgNode, error) {
	visited := map[int64]bool{}
	return buildOrgNode(ctx, s, root, visited)
}

func buildOrgNode(ctx context.Context, s EmployeeStore, emp Employee, visited map[int64]bool) (*OrgNode, error) {
	visited[emp.ID] = true
	node := &OrgNode{Employee: emp}

	reports, err := s.ListReports(ctx, emp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", emp.LDAP, err)
	}
	for _, r := range reports {
		if !r.IsActive || visited[r.ID] {
			continue
		}
		child, err := buildOrgNode(ctx, s, r, visited)
		if err != nil {
			return nil, err
		}
		node.Reports = append(node.Reports, child)
	}
	return node, nil
}

// Lines renders the tree depth-first, indenting two spaces per level.
func (n *OrgNode) Lines() []string {
	var lines []string
	n.appendLines(0, &lines)
	return lines
}

func (n *OrgNode) appendLines(depth int, lines *[]string) {
	*lines = append(*lines, strings.Repeat("  ", depth)+n.Employee.DisplayName())
	for _, r := range n.Reports {
		r.appendLines(depth+1, lines)
	}
}

// Size returns the number of employees in the tree.
func (n *OrgNode) Size() int {
	total := 1
	for _, r := range n.Reports {
		total += r.Size()
	}
	return total
}

// =============================================================================
// MANAGER ASSIGNMENT
// =============================================================================

// AssignManager makes manager the manager of emp, or clears the manager when
// manager is nil. It rejects the assignment if emp would become their own
// ancestor: either emp == manager, or emp already appears in manager's chain.
func AssignManager(ctx context.Context, s EmployeeStore, emp Employee, manager *Employee) error {
	if manager == nil {
		return s.SetManager(ctx, emp.ID, nil)
	}
	if manager.ID == emp.ID {
		return &ManagerCycleError{Employee: emp.LDAP, Manager: manager.LDAP}
	}

	seen := map[int64]bool{manager.ID: true}
	next := manager.ManagerID
	for next != nil {
		if *next == emp.ID {
			return &ManagerCycleError{Employee: emp.LDAP, Manager: manager.LDAP}
		}
		if seen[*next] {
			// Pre-existing loop above manager that does not include emp.
			break
		}
		seen[*next] = true

		ancestor, err := s.GetEmployee(ctx, *next)
		if err != nil {
			return fmt.Errorf("failed to walk manager chain: %w", err)
		}
		next = ancestor.ManagerID
	}

	id := manager.ID
	return s.SetManager(ctx, emp.ID, &id)
}
