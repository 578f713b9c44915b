// Package errors provides common error types used across the asyncstream library.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrFinished indicates that an operation was attempted on a finished stream
	ErrFinished = errors.New("stream is finished")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCapacityExceeded indicates that a queue capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIndeterminate indicates that a completion attempt failed and the
	// stream's finished state must be re-queried to learn the true outcome
	ErrIndeterminate = errors.New("completion state indeterminate")

	// ErrReadAllUnsupported indicates that a stream refuses to drain itself
	// to completion because its source is unbounded or of unknown size
	ErrReadAllUnsupported = errors.New("stream does not support draining to completion")
)

// IsTerminal returns true if the error indicates a stream that will never
// accept another operation
func IsTerminal(err error) bool {
	return errors.Is(err, ErrFinished)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrCapacityExceeded)
}

// ValidationError describes an invalid configuration value. It wraps
// ErrInvalidConfiguration so callers can match with errors.Is.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so errors.Is matches.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}
