package compiler

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/nwocg/internal/graph"
)

// Plan is the result of scheduling a graph.
type Plan struct {
	// Order lists Sum, Gain and OutputPort blocks in evaluation order.
	Order []graph.Ref

	// Delays lists unit delay state updates in emission order. A delay
	// whose input is another delay comes before that delay.
	Delays []graph.Ref

	// Rotating lists delays that feed each other in a delay-only cycle,
	// ordered by id. Their updates go through temporaries.
	Rotating []graph.Ref

	visited []bool
}

// Scheduled reports whether the block was reached by the traversal.
// Unreached blocks keep their storage slot but get no statement.
func (p *Plan) Scheduled(r graph.Ref) bool {
	return int(r) < len(p.visited) && p.visited[r]
}

// DelaySet returns every scheduled unit delay, sorted by id.
func (p *Plan) DelaySet(g *graph.Graph) []graph.Ref {
	all := append(append([]graph.Ref{}, p.Delays...), p.Rotating...)
	sortByID(g, all)
	return all
}

// Schedule computes the per-step evaluation order of g.
//
// The traversal is a breadth-first work list seeded with every InputPort in
// record order. An operation whose inputs are not all visited re-enqueues the
// missing upstream blocks followed by itself; blocks already waiting are not
// queued twice. A UnitDelay is ready on first visit, since it only needs its
// input when its state is updated at the end of the step; this is what cuts
// feedback cycles through delays. Its input is queued too, so every delay
// update reads a slot written in the same step. Blocks never reached are
// left out of the order.
func Schedule(g *graph.Graph) (*Plan, error) {
	inputs := g.InputPorts()
	if len(inputs) == 0 {
		return nil, &graph.StructuralError{
			Code:    graph.CodeNoInputPort,
			Message: "model has no Inport block",
		}
	}
	if err := CheckAlgebraicLoops(g); err != nil {
		return nil, err
	}

	visited := make([]bool, g.Len())
	q := newWorkList(g.Len())
	for _, r := range inputs {
		q.push(r)
	}

	plan := &Plan{}
	var delays []graph.Ref
	retries := 0
	limit := retryLimit(g)

	for {
		r, ok := q.pop()
		if !ok {
			break
		}
		if visited[r] {
			continue
		}
		blk := g.Block(r)

		if waitsForInputs(blk) {
			missing := missingUpstream(blk, visited)
			if len(missing) > 0 {
				retries++
				if retries > limit {
					// unreachable once algebraic loops are rejected
					return nil, &graph.StructuralError{
						Code:    graph.CodeAlgebraicLoop,
						Subject: fmt.Sprintf("block %d", blk.ID),
						Message: fmt.Sprintf("block %s did not become ready after %d retries", blk.Name, retries),
					}
				}
				for _, m := range missing {
					q.push(m)
				}
				q.push(r)
				continue
			}
			plan.Order = append(plan.Order, r)
		}
		if delay, ok := blk.Op.(*graph.UnitDelay); ok {
			delays = append(delays, r)
			if delay.Input != graph.NoRef && !visited[delay.Input] {
				q.push(delay.Input)
			}
		}

		visited[r] = true
		for _, out := range blk.Outputs {
			if !visited[out] {
				q.push(out)
			}
		}
	}

	plan.visited = visited
	plan.Delays, plan.Rotating = orderDelays(g, delays)

	slog.Debug("graph scheduled",
		"ops", len(plan.Order),
		"delays", len(plan.Delays)+len(plan.Rotating),
		"retries", retries,
		"unreached", g.Len()-countTrue(visited))
	return plan, nil
}

// waitsForInputs reports whether a block needs its inputs in the current step.
func waitsForInputs(b *graph.Block) bool {
	switch b.Op.(type) {
	case *graph.Sum, *graph.Gain, *graph.OutputPort:
		return true
	case *graph.InputPort, *graph.UnitDelay:
		return false
	}
	return false
}

// missingUpstream returns unvisited inputs in port order, without repeats.
func missingUpstream(b *graph.Block, visited []bool) []graph.Ref {
	var missing []graph.Ref
	seen := map[graph.Ref]bool{}
	for _, up := range b.Upstream() {
		if !visited[up] && !seen[up] {
			missing = append(missing, up)
			seen[up] = true
		}
	}
	return missing
}

// retryLimit bounds deferred retries. Every missing input of a waiting block
// is itself queued, so without an algebraic loop some block becomes ready
// within two passes over a list of at most n entries.
func retryLimit(g *graph.Graph) int {
	n := g.Len() + 1
	return 2 * n * n
}

// orderDelays sorts delay updates by id, then moves each delay ahead of any
// delay it reads from so that it copies the pre-update value. Delays that
// read each other in a cycle are split out as rotating.
func orderDelays(g *graph.Graph, delays []graph.Ref) (ordered, rotating []graph.Ref) {
	sortByID(g, delays)
	inSet := make(map[graph.Ref]bool, len(delays))
	for _, d := range delays {
		inSet[d] = true
	}

	delayInput := func(d graph.Ref) graph.Ref {
		in := g.Block(d).Op.(*graph.UnitDelay).Input
		if in != graph.NoRef && inSet[in] {
			return in
		}
		return graph.NoRef
	}

	onCycle := make(map[graph.Ref]bool)
	for _, d := range delays {
		cur := delayInput(d)
		for steps := 0; cur != graph.NoRef && steps < len(delays); steps++ {
			if cur == d {
				onCycle[d] = true
				break
			}
			cur = delayInput(cur)
		}
	}

	readers := make(map[graph.Ref]int)
	for _, d := range delays {
		if onCycle[d] {
			rotating = append(rotating, d)
			continue
		}
		if in := delayInput(d); in != graph.NoRef && !onCycle[in] {
			readers[in]++
		}
	}

	var ready []graph.Ref
	for _, d := range delays {
		if !onCycle[d] && readers[d] == 0 {
			ready = append(ready, d)
		}
	}
	for len(ready) > 0 {
		d := ready[0]
		ready = ready[1:]
		ordered = append(ordered, d)
		if in := delayInput(d); in != graph.NoRef && !onCycle[in] {
			readers[in]--
			if readers[in] == 0 {
				ready = append(ready, in)
				sortByID(g, ready)
			}
		}
	}
	return ordered, rotating
}

func sortByID(g *graph.Graph, refs []graph.Ref) {
	sort.Slice(refs, func(i, j int) bool {
		return g.Block(refs[i]).ID < g.Block(refs[j]).ID
	})
}

func countTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}
