// Package resolver computes the execution order of a ladder program's
// rungs, per spec.md §4.D: a topological sort over the coil->contact
// dependency graph with a deterministic fallback to program order for any
// residual cycle (feedback/latching circuits are expected, not an error).
//
// The dependency-edge framing here is loosely modeled on the age-ordered,
// bitmap-dependency scheduling idea in a hardware out-of-order issue window
// (see DESIGN.md) simplified down to rung granularity: this package only
// needs "who must run before whom", not a cycle-accurate issue schedule.
package resolver

import "github.com/oakfield/rungine/ladder"

// Order computes an execution order for p. The returned slice is a
// permutation of [0, len(p.Rungs)) such that for every non-cyclic
// dependency j->i (rung i has a contact observing an id rung j's coil
// drives), j appears before i. Rungs participating in a cycle are emitted
// in their original program order, appended after every rung that has no
// unresolved dependency on them.
//
// Order is computed once per program load, not per scan (spec.md §4.D).
func Order(p ladder.Program) []int {
	n := len(p.Rungs)
	coilsByRung := make([]map[string]bool, n)
	contactsByRung := make([]map[string]bool, n)
	for i, r := range p.Rungs {
		coils := make(map[string]bool)
		contacts := make(map[string]bool)
		for _, e := range r.Elements {
			switch e.Kind {
			case ladder.Coil:
				coils[e.TargetID] = true
			case ladder.Contact:
				contacts[e.SourceID] = true
			}
		}
		coilsByRung[i] = coils
		contactsByRung[i] = contacts
	}

	// deps[i] = set of rung indices that must run before i.
	deps := make([]map[int]bool, n)
	// dependents[j] = set of rung indices that depend on j.
	dependents := make([][]int, n)
	for i := range p.Rungs {
		deps[i] = make(map[int]bool)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if sharesAny(contactsByRung[i], coilsByRung[j]) {
				deps[i][j] = true
				dependents[j] = append(dependents[j], i)
			}
		}
	}

	remaining := make([]bool, n)
	for i := range remaining {
		remaining[i] = true
	}

	order := make([]int, 0, n)
	emitted := make([]bool, n)

	for {
		progressed := false
		for i := 0; i < n; i++ {
			if !remaining[i] {
				continue
			}
			if len(deps[i]) == 0 {
				order = append(order, i)
				emitted[i] = true
				remaining[i] = false
				progressed = true
				for _, dep := range dependents[i] {
					delete(deps[dep], i)
				}
			}
		}
		if !progressed {
			break
		}
	}

	// Residual cycle: emit whatever is left in original program order.
	for i := 0; i < n; i++ {
		if remaining[i] {
			order = append(order, i)
		}
	}

	return order
}

func sharesAny(a, b map[string]bool) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if big[k] {
			return true
		}
	}
	return false
}
