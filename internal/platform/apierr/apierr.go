// Package apierr carries an HTTP status and a stable machine code next to
// a message that is safe to show to clients.
package apierr

import (
	"net/http"
	"slices"
)

type Error struct {
	Status  int
	Code    string
	Message string
	Details []string
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.cause }

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap uses cause's text as the client message. Only wrap errors whose text
// is fit for clients.
func Wrap(status int, code string, cause error) *Error {
	e := &Error{Status: status, Code: code, cause: cause}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = slices.Clone(details)
	return &cp
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden() *Error {
	return New(http.StatusForbidden, "forbidden", "forbidden")
}

// Internal hides the cause from clients but keeps it for logs.
func Internal(cause error) *Error {
	e := New(http.StatusInternalServerError, "internal", "internal server error")
	e.cause = cause
	return e
}
