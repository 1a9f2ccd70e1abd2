package aggregates

import (
	"errors"
	"slices"
	"strings"
)

// ErrorCode classifies why a write failed. Transports map codes to their own
// status vocabulary; the code set is closed.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeForbidden          ErrorCode = "forbidden"
	CodeInvalidState       ErrorCode = "invalid_state"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeUpstreamFailure    ErrorCode = "upstream_failure"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error is what aggregate and service operations return. Message is written
// for the end user; Reasons lists every failed rule of a validation.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Reasons []string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Message != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(e.Message)
	if b.Len() == 0 {
		return string(e.Code)
	}
	b.WriteString(" (" + string(e.Code) + ")")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// NewValidationError copies reasons so later edits by the caller do not leak
// into the error.
func NewValidationError(op, message string, reasons []string) error {
	e := NewError(CodeValidation, op, message, nil).(*Error)
	e.Reasons = slices.Clone(reasons)
	return e
}

// Wrap tags err with code, reusing its text as the message.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func find(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code && code != ""
}

// CodeOf is empty for errors that never passed through this package.
func CodeOf(err error) ErrorCode {
	if e := find(err); e != nil {
		return e.Code
	}
	return ""
}

// ReasonsOf falls back to the message as a single reason.
func ReasonsOf(err error) []string {
	e := find(err)
	switch {
	case e == nil:
		return nil
	case len(e.Reasons) > 0:
		return e.Reasons
	case e.Message != "":
		return []string{e.Message}
	}
	return nil
}

// MessageOf strips the op and code decoration.
func MessageOf(err error) string {
	if e := find(err); e != nil && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
