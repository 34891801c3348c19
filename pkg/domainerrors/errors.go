// Package domainerrors provides coded errors that services return to callers.
// Stores return sentinel errors (pkg/sentinel); services translate them into
// coded errors here so transport layers can map codes to responses without
// inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure.
type Code string

const (
	// CodeNotFound means the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeBadRequest means the caller supplied an invalid argument: a missing
	// required field, an unrecognized artifact/column name, a malformed date.
	// Deterministic and local; never retried.
	CodeBadRequest Code = "bad_request"
	// CodeTimeout means the operation exceeded its deadline, typically pool or
	// store exhaustion.
	CodeTimeout Code = "timeout"
	// CodeInternal means the underlying store failed. The message is safe to
	// surface; the wrapped detail is for logs only.
	CodeInternal Code = "internal_error"
	// CodeUnavailable means a dependency is temporarily unreachable.
	CodeUnavailable Code = "unavailable"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain. Unrecognized errors are
// internal by definition.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from an error chain.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// Is reports whether the error chain carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
