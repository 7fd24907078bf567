// Package apperror provides structured errors shared by filters, specifications and engines.
// Every failure raised by the filter algebra is an *AppError so callers can tell a rejected
// request (bad input) apart from an internal defect.
package apperror

import (
	"errors"
	"fmt"
)

// Error codes
const (
	// Rejected input
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNullArgument    = "NULL_ARGUMENT"

	// Internal defects
	CodeUnreachable = "UNREACHABLE_STATE"
	CodeDatabase    = "DATABASE_ERROR"
	CodeEvaluation  = "EVALUATION_ERROR"
)

// AppError is the standard error type for the module.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (argument name, offending value, ...)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewInvalidArgument is raised when a filter is constructed from values it cannot hold.
func NewInvalidArgument(argument, message string) *AppError {
	return &AppError{
		Code:    CodeInvalidArgument,
		Message: fmt.Sprintf("%s: %s", argument, message),
		Details: map[string]any{"argument": argument},
	}
}

// NewNullArgument is raised when a required argument is absent.
func NewNullArgument(argument string) *AppError {
	return &AppError{
		Code:    CodeNullArgument,
		Message: fmt.Sprintf("%s must not be nil", argument),
		Details: map[string]any{"argument": argument},
	}
}

// NewUnreachable signals a violated closed enumeration. It is an internal defect.
func NewUnreachable(kind string, value any) *AppError {
	return &AppError{
		Code:    CodeUnreachable,
		Message: fmt.Sprintf("unhandled %s: %v", kind, value),
		Details: map[string]any{"kind": kind, "value": value},
	}
}

// NewDatabase wraps a persistence failure (hides details from client)
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:    CodeDatabase,
		Message: "Database error",
		Err:     err,
	}
}

// NewEvaluation wraps a failure of an in-process predicate engine.
func NewEvaluation(message string, err error) *AppError {
	return &AppError{
		Code:    CodeEvaluation,
		Message: message,
		Err:     err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsInvalidArgument checks if error is CodeInvalidArgument
func IsInvalidArgument(err error) bool {
	return HasCode(err, CodeInvalidArgument)
}

// IsNullArgument checks if error is CodeNullArgument
func IsNullArgument(err error) bool {
	return HasCode(err, CodeNullArgument)
}

// IsUnreachable checks if error is CodeUnreachable
func IsUnreachable(err error) bool {
	return HasCode(err, CodeUnreachable)
}
