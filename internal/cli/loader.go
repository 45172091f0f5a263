package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/nwocg/internal/compiler"
	"github.com/roach88/nwocg/internal/graph"
	"github.com/roach88/nwocg/internal/ir"
	"github.com/roach88/nwocg/internal/reader"
)

// ModelError is the CLI view of a read or generation failure.
type ModelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// loadModel reads the model file into records.
func loadModel(path string) (ir.ModelRecords, error) {
	return reader.ReadFile(path)
}

// classifyError maps an error from any pipeline stage to a code and the
// source location it refers to.
func classifyError(path string, err error) ModelError {
	var le *reader.LoadError
	if errors.As(err, &le) {
		return ModelError{Code: le.Code, Message: le.Message, Path: le.Path, Line: le.Line}
	}

	me := ModelError{Code: reader.ErrCodeGeneric, Message: err.Error(), Path: path}
	if code := graph.ErrorCode(err); code != "" {
		me.Code = code
		me.Line = errorLine(err)
	}
	if errors.Is(err, compiler.ErrInvalidPrefix) {
		me.Code = graph.CodeInvalidName
	}
	return me
}

// errorLine extracts the model line a graph error points at, 0 when unknown.
func errorLine(err error) int {
	var se *graph.StructuralError
	if errors.As(err, &se) {
		return se.Line
	}
	var ke *graph.UnknownBlockKindError
	if errors.As(err, &ke) {
		return ke.Line
	}
	var ne *graph.MalformedNumericError
	if errors.As(err, &ne) {
		return ne.Line
	}
	return 0
}

// exitCodeFor separates problems with the invocation (missing file,
// unknown format, unwritable output) from defects in the model.
func exitCodeFor(code string) int {
	switch code {
	case reader.ErrCodeNotFound, reader.ErrCodeUnsupported, reader.ErrCodeWriteFailed:
		return ExitCommandError
	}
	return ExitFailure
}

// outputModelError reports a failure and returns the matching ExitError.
func outputModelError(formatter *Formatter, me ModelError) error {
	_ = formatter.Failure(me)
	return NewExitError(exitCodeFor(me.Code), fmt.Sprintf("%s: %s", me.Code, me.Message))
}
