// Package domainerrors provides coded errors shared across modules. Handlers
// map codes to HTTP statuses; services decide the code, never the status.
package domainerrors

import "fmt"

// Code classifies an error for transport mapping and for callers that need to
// distinguish recoverable rejections from permanent ones.
type Code string

const (
	// CodeValidationRejected marks input with too little signal to resolve.
	// Callers may retry with more complete data.
	CodeValidationRejected Code = "validation_rejected"
	// CodeClassificationRejected marks input recognized as organizational or
	// garbage. Intentionally permanent; retrying the same input is pointless.
	CodeClassificationRejected Code = "classification_rejected"
	CodeBadRequest             Code = "bad_request"
	CodeNotFound               Code = "not_found"
	CodeConflict               Code = "conflict"
	CodeUnauthorized           Code = "unauthorized"
	CodeInternal               Code = "internal_error"
)

// Error carries a code plus a human-readable description.
type Error struct {
	Code        Code
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// New constructs a coded error.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Newf constructs a coded error with a formatted description.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from an error, returning CodeInternal for plain
// errors so unclassified failures never leak details to clients.
func CodeOf(err error) Code {
	if derr, ok := err.(*Error); ok {
		return derr.Code
	}
	return CodeInternal
}
