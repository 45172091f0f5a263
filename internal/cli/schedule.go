package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nwocg/internal/compiler"
	"github.com/roach88/nwocg/internal/graph"
)

// ScheduledBlock is one entry of the printed schedule.
type ScheduledBlock struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// ScheduleResult is the evaluation order of a model.
type ScheduleResult struct {
	Model     string           `json:"model"`
	Order     []ScheduledBlock `json:"order"`
	Delays    []ScheduledBlock `json:"delays"`
	Rotating  []ScheduledBlock `json:"rotating,omitempty"`
	Unreached []ScheduledBlock `json:"unreached,omitempty"`
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule <model>",
		Short: "Print the per-step evaluation order",
		Long: `Print the order in which the step function evaluates blocks.

Lists the statements of one time-step, then the unit delay state
updates that close it. Delays that feed each other in a ring are
updated through temporaries and listed separately. Blocks that no
input port reaches are listed as unreached.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSchedule(opts *RootOptions, modelPath string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	records, err := loadModel(modelPath)
	if err != nil {
		return outputModelError(formatter, classifyError(modelPath, err))
	}
	g, plan, err := compiler.Build(records)
	if err != nil {
		return outputModelError(formatter, classifyError(modelPath, err))
	}

	result := buildScheduleResult(modelPath, g, plan)
	if formatter.JSON() {
		return writeSuccess(formatter, result)
	}
	outputScheduleText(formatter, result)
	return nil
}

func buildScheduleResult(model string, g *graph.Graph, plan *compiler.Plan) ScheduleResult {
	entries := func(refs []graph.Ref) []ScheduledBlock {
		out := make([]ScheduledBlock, 0, len(refs))
		for _, r := range refs {
			b := g.Block(r)
			out = append(out, ScheduledBlock{ID: b.ID, Name: b.Name, Kind: b.Kind().String()})
		}
		return out
	}

	var unreached []graph.Ref
	for _, b := range g.Blocks() {
		if !plan.Scheduled(b.Ref) {
			unreached = append(unreached, b.Ref)
		}
	}

	return ScheduleResult{
		Model:     model,
		Order:     entries(plan.Order),
		Delays:    entries(plan.Delays),
		Rotating:  entries(plan.Rotating),
		Unreached: entries(unreached),
	}
}

func outputScheduleText(formatter *Formatter, result ScheduleResult) {
	w := formatter.Writer

	fmt.Fprintf(w, "Schedule for %s\n\n", result.Model)

	fmt.Fprintln(w, "=== Step ===")
	if len(result.Order) == 0 {
		fmt.Fprintln(w, "  (no statements)")
	}
	for i, b := range result.Order {
		fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, b.Name, b.Kind)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== State updates ===")
	if len(result.Delays) == 0 && len(result.Rotating) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, b := range result.Delays {
		fmt.Fprintf(w, "  %s\n", b.Name)
	}
	for _, b := range result.Rotating {
		fmt.Fprintf(w, "  %s (via %s_next)\n", b.Name, b.Name)
	}

	if len(result.Unreached) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Unreached ===")
		for _, b := range result.Unreached {
			fmt.Fprintf(w, "  %s (%s)\n", b.Name, b.Kind)
		}
	}
}
