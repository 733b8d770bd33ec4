// Package rbac validates role-inheritance configuration. The inheritance
// edges must form a DAG: a cycle would grant every role in the loop the
// union of all their permissions, silently flattening the hierarchy.
package rbac

import "sort"

// Edge declares that child inherits from parent.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// GraphVerdict is the structured result of a cycle check. Cycle, present
// only on rejection, is the concrete offending path with the starting role
// repeated at the end (a self-loop reads ["r", "r"]).
type GraphVerdict struct {
	Valid bool     `json:"valid"`
	Cycle []string `json:"cycle,omitempty"`
}

// ValidateAcyclic performs depth-first search with a recursion stack over
// the directed graph formed by edges. Direct two-node cycles, longer
// transitive cycles, and self-loops are detected uniformly. Nodes are
// visited in sorted order so the reported cycle is deterministic for a
// given edge set.
func ValidateAcyclic(edges []Edge) GraphVerdict {
	adj := make(map[string][]string)
	nodes := make(map[string]struct{})
	for _, e := range edges {
		adj[e.Parent] = append(adj[e.Parent], e.Child)
		nodes[e.Parent] = struct{}{}
		nodes[e.Child] = struct{}{}
	}

	ordered := make([]string, 0, len(nodes))
	for n := range nodes {
		ordered = append(ordered, n)
	}
	sort.Strings(ordered)
	for _, children := range adj {
		sort.Strings(children)
	}

	const (
		white = iota // unvisited
		gray         // on the recursion stack
		black        // fully explored
	)
	color := make(map[string]int, len(nodes))
	var stack []string

	var visit func(n string) []string
	visit = func(n string) []string {
		color[n] = gray
		stack = append(stack, n)
		for _, child := range adj[n] {
			switch color[child] {
			case gray:
				// Back edge: slice the recursion stack from the first
				// occurrence of child and close the loop.
				for i, s := range stack {
					if s == child {
						cycle := append([]string{}, stack[i:]...)
						return append(cycle, child)
					}
				}
			case white:
				if cycle := visit(child); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return nil
	}

	for _, n := range ordered {
		if color[n] != white {
			continue
		}
		stack = stack[:0]
		if cycle := visit(n); cycle != nil {
			return GraphVerdict{Valid: false, Cycle: cycle}
		}
	}
	return GraphVerdict{Valid: true}
}
