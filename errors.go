package redline

import (
	"errors"
	"fmt"
)

// Machine-readable error codes surfaced to callers of the engine.
const (
	EADAPTER  = "adapter_failure"
	ENOTFOUND = "not_found"
	ERESOLVED = "already_resolved"
	EBOUNDS   = "out_of_bounds"
	EWRITE    = "write_failure"
	EINTERNAL = "internal"
)

// Error is the domain error type. Code is machine-readable; Message is for
// humans. Err, when set, is the wrapped cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("redline: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("redline: %s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf constructs a domain error with the given code.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapErr attaches a cause to a domain error.
func WrapErr(code string, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrorCode returns the code of err, EINTERNAL for non-domain errors, and
// the empty string for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}
