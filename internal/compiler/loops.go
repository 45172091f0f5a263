package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/nwocg/internal/graph"
)

// CheckAlgebraicLoops rejects feedback cycles that do not pass through a
// unit delay.
//
// Edges entering a UnitDelay are dropped, because the delay reads the
// previous step's value and so cuts the cycle. Tarjan's algorithm then finds
// strongly connected components over the remaining edges; any component with
// more than one block, or a block feeding itself, is an algebraic loop.
//
// The first loop found (in block record order) is reported with its path.
func CheckAlgebraicLoops(g *graph.Graph) error {
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(g, scc[0]) {
			path := reconstructLoopPath(g, scc)
			names := make([]string, len(path))
			for i, r := range path {
				names[i] = g.Block(r).Name
			}
			return &graph.StructuralError{
				Code:    graph.CodeAlgebraicLoop,
				Subject: fmt.Sprintf("block %d", g.Block(path[0]).ID),
				Message: fmt.Sprintf("algebraic loop without unit delay: %s", strings.Join(names, " → ")),
			}
		}
	}
	return nil
}

// combinational returns the outputs of r whose values are needed in the same step.
func combinational(g *graph.Graph, r graph.Ref) []graph.Ref {
	var next []graph.Ref
	for _, out := range g.Block(r).Outputs {
		if g.Block(out).Kind() != graph.KindUnitDelay {
			next = append(next, out)
		}
	}
	return next
}

func hasSelfLoop(g *graph.Graph, r graph.Ref) bool {
	for _, out := range combinational(g, r) {
		if out == r {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components over combinational edges.
// Blocks are visited in record order, so the result is deterministic.
func tarjanSCC(g *graph.Graph) [][]graph.Ref {
	var (
		index   = 0
		stack   []graph.Ref
		indices = make(map[graph.Ref]int, g.Len())
		lowlink = make(map[graph.Ref]int, g.Len())
		onStack = make(map[graph.Ref]bool, g.Len())
		sccs    [][]graph.Ref
	)

	var strongConnect func(graph.Ref)
	strongConnect = func(v graph.Ref) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range combinational(g, v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []graph.Ref
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, b := range g.Blocks() {
		if _, visited := indices[b.Ref]; !visited {
			strongConnect(b.Ref)
		}
	}
	return sccs
}

// reconstructLoopPath walks combinational edges inside the component from its
// lowest-ref member until the walk returns to the start.
func reconstructLoopPath(g *graph.Graph, scc []graph.Ref) []graph.Ref {
	members := make(map[graph.Ref]bool, len(scc))
	start := scc[0]
	for _, r := range scc {
		members[r] = true
		if r < start {
			start = r
		}
	}

	path := []graph.Ref{start}
	visited := map[graph.Ref]bool{}
	current := start
	for {
		visited[current] = true
		next := graph.NoRef
		for _, out := range combinational(g, current) {
			if members[out] && (!visited[out] || out == start) {
				next = out
				break
			}
		}
		if next == graph.NoRef {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
