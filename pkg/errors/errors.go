// Package errors provides structured error types for bonnie.
//
// Every failure the installer can surface falls into one of a small set of
// codes:
//   - NOT_FOUND: package, version, tarball or script absent
//   - NETWORK_ERROR: transport failure, timeout, 5xx response
//   - PARSE_ERROR: malformed registry manifest or project document
//   - IO_ERROR: filesystem read/write failure
//   - ARGUMENT_MISMATCH: script template arity differs from the arguments
//   - ALREADY_EXISTS: init would overwrite an existing bonnie.toml
//   - INCOMPLETE: a strict install finished with failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write %s", path)
//
// The sentinels [ErrNotFound], [ErrNetwork] and [ErrParse] are meant to be
// wrapped with fmt.Errorf("%w: ...") by callers that add context; the code
// survives the wrapping.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeNetwork          Code = "NETWORK_ERROR"
	ErrCodeParse            Code = "PARSE_ERROR"
	ErrCodeIO               Code = "IO_ERROR"
	ErrCodeArgumentMismatch Code = "ARGUMENT_MISMATCH"
	ErrCodeAlreadyExists    Code = "ALREADY_EXISTS"
	ErrCodeIncomplete       Code = "INCOMPLETE"
)

// Sentinel errors shared by the registry client, the resolver and the
// downloader.
var (
	// ErrNotFound is returned when a package, version or tarball doesn't exist.
	ErrNotFound = &Error{Code: ErrCodeNotFound, Message: "resource not found"}

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = &Error{Code: ErrCodeNetwork, Message: "network error"}

	// ErrParse is returned when a response body or document cannot be decoded.
	ErrParse = &Error{Code: ErrCodeParse, Message: "malformed document"}
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

// Is reports whether any *Error in err's chain carries code.
// Both single and joined (Unwrap() []error) chains are walked.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return Is(u.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the chain holds no *Error.
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
