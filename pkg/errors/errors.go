// Package errors provides structured error types for the digitizer core.
//
// Only structural failures are reported through this package: unreadable
// documents, corrupt command logs, misuse of unavailable undo/redo. Numeric
// and geometric edge cases in the transformation engine never become errors;
// they surface as an undefined transformation instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCorruptLog, "unknown command kind %q", kind)
//	if errors.Is(err, errors.ErrCodeCorruptLog) {
//	    // abort replay
//	}
//
//	err := errors.Wrap(errors.ErrCodeLoadFailed, origErr, "cannot read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"

	// Document load failures, reported at the boundary with file name and reason.
	ErrCodeLoadFailed Code = "LOAD_FAILED"

	// Serialized command logs that cannot be decoded or replayed.
	ErrCodeCorruptLog  Code = "CORRUPT_LOG"
	ErrCodeUnsupported Code = "UNSUPPORTED"

	// Undo or redo requested while unavailable.
	ErrCodeUnavailable Code = "UNAVAILABLE"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message followed by the cause, without codes.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
