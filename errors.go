package rxdoc

import (
	"errors"
	"fmt"
)

// Sentinel errors for common document generation failure conditions.
var (
	ErrNilVisit      = errors.New("rxdoc: visit record is nil")
	ErrVisitNotFound = errors.New("rxdoc: visit not found")
	ErrPrintFailed   = errors.New("rxdoc: print dispatch failed")
)

// RenderError represents an error that occurred during a specific rendering
// operation. It wraps an underlying error and includes the operation name for
// context.
type RenderError struct {
	Op  string // operation name, e.g. "Generate", "Capture"
	Err error  // underlying error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rxdoc.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rxdoc.%s: unknown error", e.Op)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a RenderError wrapping the given error with
// operation context.
func NewRenderError(op string, err error) *RenderError {
	return &RenderError{Op: op, Err: err}
}
