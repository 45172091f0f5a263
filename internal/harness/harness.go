package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/nwocg/internal/compiler"
	"github.com/roach88/nwocg/internal/graph"
	"github.com/roach88/nwocg/internal/reader"
)

// Run executes a test scenario and returns the result.
//
// Failing to read the model is an execution error. A generation error is
// part of the result: it passes only when it carries the expected code.
func Run(scenario *Scenario) (*Result, error) {
	records, err := reader.ReadFile(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	result := NewResult()
	gen, err := compiler.Generate(records, compiler.Options{Prefix: scenario.Prefix})
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		switch {
		case scenario.ExpectError == "":
			result.AddError(fmt.Sprintf("generation failed: %v", err))
		case scenario.ExpectError != result.ErrorCode:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v",
				scenario.ExpectError, result.ErrorCode, err))
		}
		return result, nil
	}
	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected error %s, generation succeeded", scenario.ExpectError))
	}

	result.Source = string(gen.Source)
	result.Stats = gen.Stats
	for _, r := range gen.Plan.Order {
		result.Schedule = append(result.Schedule, gen.Graph.Block(r).Name)
	}
	for _, r := range append(append([]graph.Ref{}, gen.Plan.Delays...), gen.Plan.Rotating...) {
		result.Delays = append(result.Delays, gen.Graph.Block(r).Name)
	}
	for _, b := range gen.Graph.Blocks() {
		if !gen.Plan.Scheduled(b.Ref) {
			result.Unreached = append(result.Unreached, b.Name)
		}
	}

	for _, a := range scenario.Assertions {
		if err := evaluate(gen.Graph, result, a); err != nil {
			result.AddError(err.Error())
		}
	}

	slog.Debug("scenario run",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))
	return result, nil
}

// ErrorCode returns the diagnostic code carried by a read or generation
// error, or the generic code for anything else.
func ErrorCode(err error) string {
	if code := graph.ErrorCode(err); code != "" {
		return code
	}
	var le *reader.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return reader.ErrCodeGeneric
}
