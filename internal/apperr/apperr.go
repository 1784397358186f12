// Package apperr defines the error taxonomy shared by the stores, the
// services and the HTTP layer.
//
// Every error produced by the core wraps exactly one of the sentinel kinds
// below, so callers classify with errors.Is and never by message text.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced event, request, category or
	// user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for structurally invalid input and for
	// temporal guard violations.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned on ownership mismatch.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a state-machine guard rejects an operation.
	ErrConflict = errors.New("conflict")

	// ErrUpstreamUnavailable is returned when the stats collector cannot be
	// reached or does not answer in time.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error carries a sentinel kind plus a human-readable message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

// Validation builds an ErrValidation error.
func Validation(format string, args ...any) error {
	return newf(ErrValidation, format, args...)
}

// Forbidden builds an ErrForbidden error.
func Forbidden(format string, args ...any) error {
	return newf(ErrForbidden, format, args...)
}

// Conflict builds an ErrConflict error.
func Conflict(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

// Upstream wraps a transport failure as ErrUpstreamUnavailable.
func Upstream(err error, format string, args ...any) error {
	e := newf(ErrUpstreamUnavailable, format, args...)
	e.Err = err
	return e
}

// Message returns the message of an *Error, or err.Error() otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
