package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/nwocg/internal/compiler"
)

// ValidationResult holds the validation result for one model.
type ValidationResult struct {
	Model string          `json:"model"`
	Valid bool            `json:"valid"`
	Stats *compiler.Stats `json:"stats,omitempty"`
	Error *ModelError     `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model>...",
		Short: "Check models without generating code",
		Long: `Check block-diagram models without writing any files.

Each model is read, built into a dataflow graph and scheduled, so every
structural error and algebraic loop is reported. Faster feedback than
generate while editing a model.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, models []string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)
	formatter.Indent = true

	results := make([]ValidationResult, 0, len(models))
	failed := 0
	for _, model := range models {
		slog.Debug("validating model", "path", model)
		res := validateModel(model)
		if !res.Valid {
			failed++
		}
		results = append(results, res)
	}

	if formatter.JSON() {
		return outputValidateJSON(formatter, results, failed)
	}
	return outputValidateText(formatter, results, failed)
}

// validateModel reads, builds and schedules one model.
func validateModel(path string) ValidationResult {
	records, err := loadModel(path)
	if err != nil {
		me := classifyError(path, err)
		return ValidationResult{Model: path, Error: &me}
	}

	g, plan, err := compiler.Build(records)
	if err != nil {
		me := classifyError(path, err)
		return ValidationResult{Model: path, Error: &me}
	}

	stats := compiler.ComputeStats(g, plan)
	return ValidationResult{Model: path, Valid: true, Stats: &stats}
}

// outputValidateJSON writes every result; the envelope error is the first failure.
func outputValidateJSON(formatter *Formatter, results []ValidationResult, failed int) error {
	if err := writeResponse(formatter, results, firstFailure(results)); err != nil {
		return err
	}
	return validationExit(results, failed)
}

func outputValidateText(formatter *Formatter, results []ValidationResult, failed int) error {
	w := formatter.Writer
	for _, res := range results {
		if res.Valid {
			fmt.Fprintf(w, "✓ %s: %d block(s), %d operation(s), %d delay(s)\n",
				res.Model, res.Stats.Blocks, res.Stats.Operations, res.Stats.Delays)
			if res.Stats.Unreached > 0 {
				fmt.Fprintf(w, "  %d unreached block(s)\n", res.Stats.Unreached)
			}
			continue
		}

		fmt.Fprintf(w, "✗ %s\n", res.Model)
		if res.Error.Line > 0 {
			fmt.Fprintf(w, "  line %d\n", res.Error.Line)
		}
		fmt.Fprintf(w, "  %s: %s\n", res.Error.Code, res.Error.Message)
	}
	return validationExit(results, failed)
}

// validationExit returns nil when every model is valid. A missing file or
// unsupported format is a command error; anything else is a model defect.
func validationExit(results []ValidationResult, failed int) error {
	if failed == 0 {
		return nil
	}
	code := ExitFailure
	for _, res := range results {
		if res.Error != nil && exitCodeFor(res.Error.Code) == ExitCommandError {
			code = ExitCommandError
		}
	}
	return NewExitError(code, fmt.Sprintf("validation failed for %d model(s)", failed))
}

func firstFailure(results []ValidationResult) *ModelError {
	for _, res := range results {
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}
