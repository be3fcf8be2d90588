package budget_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budgetbot/budget"
	"github.com/warp/budgetbot/budget/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func addEmployee(t *testing.T, s *store.Memory, ldap, first, last string, manager *budget.Employee) budget.Employee {
	t.Helper()
	e := budget.Employee{
		LDAP:      ldap,
		FirstName: first,
		LastName:  last,
		Email:     ldap + "@example.com",
		Level:     3,
		IsActive:  true,
	}
	if manager != nil {
		id := manager.ID
		e.ManagerID = &id
	}
	require.NoError(t, s.CreateEmployee(context.Background(), &e))
	return e
}

func reload(t *testing.T, s *store.Memory, e budget.Employee) budget.Employee {
	t.Helper()
	got, err := s.GetEmployee(context.Background(), e.ID)
	require.NoError(t, err)
	return *got
}

// =============================================================================
// ORG TREE
// =============================================================================

func TestBuildOrgTree_IndentsByDepth(t *testing.T) {
	// GIVEN: ceo -> (vp1 -> eng), vp2
	s := store.NewMemory()
	ctx := context.Background()

	ceo := addEmployee(t, s, "ceo", "ada", "lovelace", nil)
	vp1 := addEmployee(t, s, "vp1", "grace", "hopper", &ceo)
	addEmployee(t, s, "vp2", "alan", "turing", &ceo)
	addEmployee(t, s, "eng", "linus", "torvalds", &vp1)

	// WHEN: building from the top
	tree, err := budget.BuildOrgTree(ctx, s, ceo)
	require.NoError(t, err)

	// THEN: depth-first, two spaces per level
	want := []string{
		"ada lovelace (ceo)",
		"  grace hopper (vp1)",
		"    linus torvalds (eng)",
		"  alan turing (vp2)",
	}
	if diff := cmp.Diff(want, tree.Lines()); diff != "" {
		t.Errorf("org lines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, tree.Size())
}

func TestBuildOrgTree_SkipsInactiveSubtree(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	ceo := addEmployee(t, s, "ceo", "ada", "lovelace", nil)
	vp := addEmployee(t, s, "vp", "grace", "hopper", &ceo)
	addEmployee(t, s, "eng", "linus", "torvalds", &vp)
	require.NoError(t, s.DeactivateEmployee(ctx, vp.ID))

	tree, err := budget.BuildOrgTree(ctx, s, ceo)
	require.NoError(t, err)

	assert.Equal(t, []string{"ada lovelace (ceo)"}, tree.Lines())
}

func TestBuildOrgTree_StoredCycleTerminates(t *testing.T) {
	// GIVEN: a cycle written directly to storage, bypassing AssignManager
	s := store.NewMemory()
	ctx := context.Background()

	a := addEmployee(t, s, "a", "first", "a", nil)
	b := addEmployee(t, s, "b", "first", "b", &a)
	require.NoError(t, s.SetManager(ctx, a.ID, &b.ID))

	// WHEN/THEN: each employee is printed once
	tree, err := budget.BuildOrgTree(ctx, s, reload(t, s, a))
	require.NoError(t, err)
	assert.Equal(t, []string{"first a (a)", "  first b (b)"}, tree.Lines())
}

// =============================================================================
// MANAGER ASSIGNMENT
// =============================================================================

func TestAssignManager(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	ceo := addEmployee(t, s, "ceo", "ada", "lovelace", nil)
	vp := addEmployee(t, s, "vp", "grace", "hopper", &ceo)
	eng := addEmployee(t, s, "eng", "linus", "torvalds", &vp)
	other := addEmployee(t, s, "other", "ken", "thompson", nil)

	t.Run("self is rejected", func(t *testing.T) {
		err := budget.AssignManager(ctx, s, eng, &eng)
		assert.ErrorIs(t, err, budget.ErrManagerCycle)
		assert.Contains(t, err.Error(), "their own manager")
	})

	t.Run("descendant as manager is rejected", func(t *testing.T) {
		err := budget.AssignManager(ctx, s, ceo, &eng)
		var cycleErr *budget.ManagerCycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, "ceo", cycleErr.Employee)
		assert.Equal(t, "eng", cycleErr.Manager)

		got := reload(t, s, ceo)
		assert.Nil(t, got.ManagerID, "rejected assignment must not be stored")
	})

	t.Run("unrelated manager is accepted", func(t *testing.T) {
		require.NoError(t, budget.AssignManager(ctx, s, eng, &other))
		got := reload(t, s, eng)
		require.NotNil(t, got.ManagerID)
		assert.Equal(t, other.ID, *got.ManagerID)
	})

	t.Run("nil clears manager", func(t *testing.T) {
		require.NoError(t, budget.AssignManager(ctx, s, reload(t, s, vp), nil))
		assert.Nil(t, reload(t, s, vp).ManagerID)
	})
}
