package budget

// transitions lists the states each AOP state may move to. EOL is terminal.
var transitions = map[AOPState][]AOPState{
	AOPDraft:  {AOPActive, AOPEOL},
	AOPActive: {AOPEOL},
	AOPEOL:    nil,
}

// CanTransition reports whether an AOP may move from one state to another.
func CanTransition(from, to AOPState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates a state change for a, returning a StateTransitionError
// when it is not allowed.
func Transition(a AOP, to AOPState) error {
	if !CanTransition(a.State, to) {
		return &StateTransitionError{AOPID: a.ID, From: a.State, To: to}
	}
	return nil
}

// AcceptsSpending reports whether budgets and allocations may still be added.
func (a AOP) AcceptsSpending() bool {
	return a.State != AOPEOL
}
