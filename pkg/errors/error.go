// Package errors provides structured errors carrying a typed code.
//
// Codes are grouped by the layer that raises them:
//   - General (1-99)
//   - Validation (100-149): bad requests, bracket rule violations
//   - Authorization (150-199): missing credentials, wrong owner
//   - Data (200-299): not found, query and persistence failures
//   - Upstream (700-799): quote provider failures
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidStopLoss, "stop loss for long position must be below entry price (%v)", entry)
//	if errors.HasCode(err, errors.ErrCodePositionNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is an error with a code, a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps cause with a code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is is a convenience wrapper around the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around the standard errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from err, or ErrCodeUnknown when err
// carries none.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// Message returns the human readable message of err without the code
// prefix or cause. Errors without a code return err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return err.Error()
}
