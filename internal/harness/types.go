package harness

import "github.com/roach88/nwocg/internal/compiler"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Schedule lists the step statements' block names in order.
	Schedule []string `json:"schedule"`

	// Delays lists the state updates' block names in order.
	Delays []string `json:"delays"`

	// Unreached lists blocks that got no statement, in record order.
	Unreached []string `json:"unreached,omitempty"`

	Stats compiler.Stats `json:"stats"`

	// Source is the generated C source; empty when generation failed.
	Source string `json:"-"`

	// ErrorCode is the code generation failed with.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Schedule: []string{},
		Delays:   []string{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
