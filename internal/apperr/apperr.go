// Package apperr defines the error kinds every service operation reports.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindForbidden          Kind = "FORBIDDEN"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindNotEligible        Kind = "NOT_ELIGIBLE"
	KindConflict           Kind = "CONFLICT"
	KindStorage            Kind = "STORAGE_ERROR"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is a classified failure. Field is set for validation errors that
// belong to a single input field.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so sentinel comparisons such as
// errors.Is(err, apperr.ErrInvalidCredentials) work on fresh instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

var (
	ErrUnauthenticated    = New(KindUnauthenticated, "authentication required")
	ErrInvalidCredentials = New(KindInvalidCredentials, "invalid credentials")
)

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Message: reason, Field: field}
}

func Forbidden(reason string) *Error {
	return New(KindForbidden, reason)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found")
}

func NotEligible(reason string) *Error {
	return New(KindNotEligible, reason)
}

func Conflict(reason string) *Error {
	return New(KindConflict, reason)
}

func Storage(op string, err error) *Error {
	return Wrap(err, KindStorage, "document storage failed: "+op)
}

func Internal(op string, err error) *Error {
	return Wrap(err, KindInternal, "internal failure: "+op)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the *Error inside err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
