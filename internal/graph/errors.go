package graph

import (
	"errors"
	"fmt"
)

// Structural error codes (E2xx).
const (
	CodeMissingAttribute = "E201" // block or line lacks a required field
	CodeUnresolvedRef    = "E202" // line references an unknown block id
	CodeDuplicateName    = "E203" // two blocks sanitize to the same identifier
	CodeNoInputPort      = "E204" // graph has no InputPort block
	CodeDuplicatePort    = "E205" // second connection into the same input
	CodeMultiInputGain   = "E206" // gain connected on more than one port
	CodeSignMismatch     = "E207" // sign pattern does not match connected ports
	CodeInvalidName      = "E208" // sanitized name is not a C identifier
	CodeAlgebraicLoop    = "E209" // cycle that does not pass through a unit delay
	CodeExternalNonPort  = "E210" // external flag on a non-port block
	CodeInvalidParameter = "E211" // parameter text outside its grammar
	CodeDuplicateID      = "E212" // two blocks share an id
	CodeInputDestination = "E213" // line ends in an InputPort

	CodeUnknownBlockKind = "E220"
	CodeMalformedNumeric = "E230"
)

// StructuralError reports a graph that cannot have well-defined step semantics.
type StructuralError struct {
	Code    string
	Subject string // offending block or record, e.g. `block 99` or `block "x"`
	Message string
	Line    int // source line when known
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Line > 0 {
		prefix = fmt.Sprintf("%s line %d", prefix, e.Line)
	}
	if e.Subject != "" {
		return fmt.Sprintf("%s %s: %s", prefix, e.Subject, e.Message)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// UnknownBlockKindError reports a kind string outside the closed set.
type UnknownBlockKindError struct {
	BlockID string
	Kind    string
	Line    int
}

// Error implements the error interface.
func (e *UnknownBlockKindError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d block %s: unknown block kind %q", CodeUnknownBlockKind, e.Line, e.BlockID, e.Kind)
	}
	return fmt.Sprintf("[%s] block %s: unknown block kind %q", CodeUnknownBlockKind, e.BlockID, e.Kind)
}

// MalformedNumericError reports a gain, id or port field that fails to parse.
type MalformedNumericError struct {
	Subject string
	Field   string
	Text    string
	Line    int
	Err     error
}

// Error implements the error interface.
func (e *MalformedNumericError) Error() string {
	msg := fmt.Sprintf("[%s] %s: malformed %s %q", CodeMalformedNumeric, e.Subject, e.Field, e.Text)
	if e.Line > 0 {
		msg = fmt.Sprintf("[%s] line %d %s: malformed %s %q", CodeMalformedNumeric, e.Line, e.Subject, e.Field, e.Text)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying parse error.
func (e *MalformedNumericError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the E2xx code from any graph error.
// Returns "" for errors from other packages.
func ErrorCode(err error) string {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code
	}
	var ke *UnknownBlockKindError
	if errors.As(err, &ke) {
		return CodeUnknownBlockKind
	}
	var me *MalformedNumericError
	if errors.As(err, &me) {
		return CodeMalformedNumeric
	}
	return ""
}

// IsStructural reports whether err is a StructuralError with the given code.
// An empty code matches any StructuralError.
func IsStructural(err error, code string) bool {
	var se *StructuralError
	if !errors.As(err, &se) {
		return false
	}
	return code == "" || se.Code == code
}

func blockSubject(id int) string {
	return fmt.Sprintf("block %d", id)
}
