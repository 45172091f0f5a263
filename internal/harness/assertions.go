package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/nwocg/internal/compiler"
	"github.com/roach88/nwocg/internal/graph"
)

// AssertionError is returned when an assertion fails.
// It includes the schedule to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Schedule []string // Step order for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Schedule) > 0 {
		fmt.Fprintf(&buf, "\nSchedule:\n")
		for i, name := range e.Schedule {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, name)
		}
	}

	return buf.String()
}

// statFields maps stats assertion keys to counters.
var statFields = map[string]func(compiler.Stats) int{
	"blocks":         func(s compiler.Stats) int { return s.Blocks },
	"operations":     func(s compiler.Stats) int { return s.Operations },
	"delays":         func(s compiler.Stats) int { return s.Delays },
	"external_ports": func(s compiler.Stats) int { return s.ExternalPorts },
	"unreached":      func(s compiler.Stats) int { return s.Unreached },
}

// evaluate checks one assertion against a successful run.
func evaluate(g *graph.Graph, result *Result, a Assertion) error {
	switch a.Type {
	case AssertScheduleOrder:
		return assertScheduleOrder(result.Schedule, resolveNames(g, a.Blocks))
	case AssertDelayOrder:
		return assertDelayOrder(result, resolveNames(g, a.Blocks))
	case AssertUnreached:
		return assertUnreached(result, resolveNames(g, a.Blocks))
	case AssertSourceContains:
		return assertSourceContains(result, a.Text)
	case AssertStats:
		return assertStats(result, a.Stats)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// resolveNames maps raw model names to storage slot names, so scenarios
// may use either spelling. Unknown names are kept as written.
func resolveNames(g *graph.Graph, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n
		for _, b := range g.Blocks() {
			if b.Name == n || b.RawName == n {
				out[i] = b.Name
				break
			}
		}
	}
	return out
}

// assertScheduleOrder checks that blocks appear in the specified order.
// Blocks don't need to be consecutive.
func assertScheduleOrder(schedule, blocks []string) error {
	positions := make(map[string]int)
	for i, name := range schedule {
		if _, seen := positions[name]; !seen {
			positions[name] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range blocks {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertScheduleOrder,
				Expected: fmt.Sprintf("all blocks scheduled: %v", blocks),
				Actual:   fmt.Sprintf("missing block: %s", name),
				Schedule: schedule,
			}
		}
	}

	for i := 1; i < len(blocks); i++ {
		prev, curr := blocks[i-1], blocks[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertScheduleOrder,
				Expected: fmt.Sprintf("blocks in order: %v", blocks),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Schedule: schedule,
			}
		}
	}
	return nil
}

func assertDelayOrder(result *Result, blocks []string) error {
	if slices.Equal(result.Delays, blocks) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDelayOrder,
		Expected: fmt.Sprintf("state updates %v", blocks),
		Actual:   fmt.Sprintf("state updates %v", result.Delays),
		Schedule: result.Schedule,
	}
}

func assertUnreached(result *Result, blocks []string) error {
	for _, name := range blocks {
		if slices.Contains(result.Schedule, name) || slices.Contains(result.Delays, name) {
			return &AssertionError{
				Type:     AssertUnreached,
				Expected: fmt.Sprintf("%s not scheduled", name),
				Actual:   fmt.Sprintf("%s is scheduled", name),
				Schedule: result.Schedule,
			}
		}
	}
	return nil
}

func assertSourceContains(result *Result, text string) error {
	if strings.Contains(result.Source, text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSourceContains,
		Expected: fmt.Sprintf("source containing %q", text),
		Actual:   "not found in source",
		Schedule: result.Schedule,
	}
}

func assertStats(result *Result, want map[string]int) error {
	// Sort keys for deterministic messages
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, ok := statFields[k]
		if !ok {
			return fmt.Errorf("unknown stat %q", k)
		}
		if got := field(result.Stats); got != want[k] {
			return &AssertionError{
				Type:     AssertStats,
				Expected: fmt.Sprintf("%s = %d", k, want[k]),
				Actual:   fmt.Sprintf("%s = %d", k, got),
			}
		}
	}
	return nil
}
