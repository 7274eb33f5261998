// Package errors provides structured error types for widetable.
//
// Every failure raised by the reshape pipeline carries a machine-readable
// [Code] so that the CLI, the HTTP API and library callers can branch on the
// kind of failure without parsing messages.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - *_NOT_FOUND: a referenced column, row or file does not exist
//   - INVALID_*: input validation failures
//   - DUPLICATE_KEY / EMPTY_INPUT / SCHEMA_MISMATCH: table shape violations
//   - NETWORK_* / TIMEOUT: source download failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeColumnNotFound, "column %q not found", name)
//	if errors.Is(err, errors.ErrCodeColumnNotFound) {
//	    // Handle missing column
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Table shape errors
	ErrCodeColumnNotFound Code = "COLUMN_NOT_FOUND"
	ErrCodeRowNotFound    Code = "ROW_NOT_FOUND"
	ErrCodeDuplicateKey   Code = "DUPLICATE_KEY"
	ErrCodeEmptyInput     Code = "EMPTY_INPUT"
	ErrCodeSchemaMismatch Code = "SCHEMA_MISMATCH"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ColumnNotFound is shorthand for the most common pipeline failure.
func ColumnNotFound(name string) *Error {
	return New(ErrCodeColumnNotFound, "column %q not found", name)
}

// RowNotFound reports a row key that is not present in an indexed table.
func RowNotFound(key string) *Error {
	return New(ErrCodeRowNotFound, "row %q not found", key)
}

// EmptyInput reports an operation that needs at least one value.
func EmptyInput(op string) *Error {
	return New(ErrCodeEmptyInput, "%s: input is empty", op)
}
