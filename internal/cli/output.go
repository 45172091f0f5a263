package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Model or scenario failure (structural error, algebraic loop, failed assertion)
	ExitCommandError = 2 // Command error (invalid paths, unwritable output, database not found)
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope every command writes with --format json.
// Data holds the command's own result type; Error locates the failure in
// the model when there is one.
type Response[T any] struct {
	Status string      `json:"status"`
	Data   T           `json:"data,omitempty"`
	Error  *ModelError `json:"error,omitempty"`
}

// Formatter writes command results to stdout in the selected format.
type Formatter struct {
	Format string
	Writer io.Writer
	Indent bool
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *Formatter {
	return &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// JSON reports whether results are written as the JSON envelope.
func (f *Formatter) JSON() bool {
	return f.Format == FormatJSON
}

// Failure reports a model error. Text output names the file and line first
// so editors can jump to it.
func (f *Formatter) Failure(me ModelError) error {
	if f.JSON() {
		return writeResponse[any](f, nil, &me)
	}
	if me.Path != "" && me.Line > 0 {
		fmt.Fprintf(f.Writer, "%s:%d\n", me.Path, me.Line)
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", me.Code, me.Message)
	return nil
}

// writeSuccess encodes data in an ok envelope.
func writeSuccess[T any](f *Formatter, data T) error {
	return writeResponse(f, data, nil)
}

// writeResponse encodes data and an optional failure. A failure makes the
// status error even when data carries partial results.
func writeResponse[T any](f *Formatter, data T, me *ModelError) error {
	resp := Response[T]{Status: StatusOK, Data: data, Error: me}
	if me != nil {
		resp.Status = StatusError
	}
	enc := json.NewEncoder(f.Writer)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
