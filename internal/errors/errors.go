// Package errors defines the shotcast error taxonomy.
//
// Capture and classification problems are absorbed inside the capture path
// and only surface as log lines; render and store errors carry a code so
// callers can tell them apart without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a shotcast error code.
type ErrorCode string

const (
	ErrCapture        ErrorCode = "CAPTURE"         // no extractable payload
	ErrRender         ErrorCode = "RENDER"          // thumbnail decode/render failure
	ErrStore          ErrorCode = "STORE"           // item store failure
	ErrNotFound       ErrorCode = "NOT_FOUND"       // unknown item or tag
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // bad CLI/IPC input
	ErrInternal       ErrorCode = "INTERNAL"
)

// ShotError is a structured error with a code, message, and optional cause.
type ShotError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *ShotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShotError) Unwrap() error { return e.Err }

// NewCapture creates an error for an extraction that yielded no usable payload.
func NewCapture(msg string, err error) *ShotError {
	return &ShotError{Code: ErrCapture, Message: msg, Err: err}
}

// NewRender creates an error for a failed thumbnail render of the given category.
func NewRender(category string, err error) *ShotError {
	return &ShotError{
		Code:    ErrRender,
		Message: fmt.Sprintf("render %s preview", category),
		Details: map[string]any{"category": category},
		Err:     err,
	}
}

// NewStore wraps a failure from the item store.
func NewStore(op string, err error) *ShotError {
	return &ShotError{
		Code:    ErrStore,
		Message: op,
		Details: map[string]any{"op": op},
		Err:     err,
	}
}

// NewNotFound creates an error for a missing item or tag.
func NewNotFound(kind, identifier string) *ShotError {
	return &ShotError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInvalidRequest creates an error for invalid input.
func NewInvalidRequest(msg string) *ShotError {
	return &ShotError{Code: ErrInvalidRequest, Message: msg}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *ShotError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShotError{Code: ErrInternal, Message: msg}
}

// Is reports whether err (or anything it wraps) is a ShotError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ShotError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first ShotError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var sErr *ShotError
	if stderrors.As(err, &sErr) {
		return sErr.Code
	}
	return ""
}
