package reader

import "fmt"

// Error codes for model loading (E0xx).
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeUnsupported     = "E003" // Unsupported model format
	ErrCodeParseFailed     = "E004" // Model text could not be parsed
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeWriteFailed     = "E007" // File write error
	ErrCodeSchemaViolation = "E008" // Document does not match the model schema
)

// LoadError represents an error that occurred while reading a model.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Line    int // 1-based, 0 when unknown
}

func (e *LoadError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line, e.Code, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func parseError(path string, line int, format string, args ...any) *LoadError {
	return &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf(format, args...), Path: path, Line: line}
}
