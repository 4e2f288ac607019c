// Package app wires the previewsync components into a Session.
package app

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrClosed indicates the session was closed.
	ErrClosed = errors.New("session closed")

	// ErrNotFakeClock indicates Advance on a session running on a real clock.
	ErrNotFakeClock = errors.New("session clock is not virtual")

	// ErrFormNotFound indicates a form index outside the document.
	ErrFormNotFound = errors.New("form not found")

	// ErrElementNotFound indicates no rendered element matched a lookup.
	ErrElementNotFound = errors.New("element not found")

	// ErrNotEditable indicates an edit on an element that was never enhanced.
	ErrNotEditable = errors.New("element not editable")
)

// OperationError describes a failed session operation.
type OperationError struct {
	Op      string // Operation name (e.g., "edit", "toggle", "submit")
	Target  string // Target of the operation (e.g., element text, file path)
	Context string // Additional context
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %q", e.Op, e.Target)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
