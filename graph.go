// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

// intervalsIntersect is the in-place conflict predicate: closed-interval
// intersection, inclusive at both endpoints. Touching intervals count as
// conflicts, the conservative choice when reproducing reference behavior.
func intervalsIntersect(aStart, aEnd, bStart, bEnd uint64) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// buildConflictGraph returns, for each copy index i, the indices of copies
// that i depends on: copies whose read region i's write would clobber, so
// they must be scheduled before i. Edge i -> j means i depends on j (o1
// would overwrite bytes o2 still needs to read, so o2 must run first).
func buildConflictGraph(copies []CopyOp) [][]int {
	dependsOn := make([][]int, len(copies))
	for i, o1 := range copies {
		o1End := o1.NewOffset + uint64(o1.Length)
		for j, o2 := range copies {
			if i == j {
				continue
			}
			o2End := o2.OldOffset + uint64(o2.Length)
			if intervalsIntersect(o1.NewOffset, o1End, o2.OldOffset, o2End) {
				dependsOn[i] = append(dependsOn[i], j)
			}
		}
	}
	return dependsOn
}

// topoSortWithCycleBreak performs a three-color DFS over copy indices:
// unvisited/on-stack/done colors detect back-edges. Any node that completes
// a back-edge to an on-stack ancestor, together with every node between
// that ancestor and itself on the current DFS stack, is declared a cycle
// participant and excluded from the returned order.
//
// order lists the remaining (acyclic) nodes such that every node appears
// after everything it depends on, dependencies first. cycle[i] is true iff
// node i was excluded as a cycle participant.
func topoSortWithCycleBreak(n int, dependsOn [][]int) (order []int, cycle []bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)
	cycle = make([]bool, n)
	var stack []int

	var visit func(u int)
	visit = func(u int) {
		color[u] = gray
		stack = append(stack, u)

		for _, v := range dependsOn[u] {
			if cycle[v] {
				// Already known to be a cycle participant; it will be
				// materialized as a literal instead of scheduled, so this
				// dependency no longer constrains ordering.
				continue
			}
			switch color[v] {
			case white:
				visit(v)
			case gray:
				// Back edge: v is an ancestor still on the stack. Every
				// node from v's position to the top of the stack forms a
				// cycle and is excluded from the topological order.
				idx := 0
				for i, s := range stack {
					if s == v {
						idx = i
						break
					}
				}
				for _, node := range stack[idx:] {
					cycle[node] = true
				}
			case black:
				// Cross/forward edge to an already-finished, non-cyclic
				// node: no ordering constraint left to enforce.
			}
		}

		stack = stack[:len(stack)-1]
		color[u] = black
		if !cycle[u] {
			order = append(order, u)
		}
	}

	for u := 0; u < n; u++ {
		if color[u] == white {
			visit(u)
		}
	}
	return order, cycle
}
