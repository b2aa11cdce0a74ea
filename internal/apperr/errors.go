// Package apperr is the error taxonomy shared by every layer below the HTTP
// boundary. Handlers translate it to status codes in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error carries a kind (one of the sentinels above), a client-facing message
// and, for validation failures, per-field details.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

// WithField adds a per-field detail and returns e.
func (e *Error) WithField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	return e
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidField is a validation error naming a single field.
func InvalidField(field, msg string) *Error {
	return Validation("Invalid input").WithField(field, msg)
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: ErrUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// NotFound builds "<entity> not found".
func NotFound(entity string) *Error {
	return &Error{Kind: ErrNotFound, Message: entity + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// Status maps an error to its HTTP status. Anything outside the taxonomy is a 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short label for logs.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// Body is the JSON error payload. Internal errors never leak their message.
type Body struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func BodyOf(err error) Body {
	var appErr *Error
	if errors.As(err, &appErr) {
		return Body{Message: appErr.Error(), Fields: appErr.Fields}
	}
	if status := Status(err); status != http.StatusInternalServerError {
		return Body{Message: err.Error()}
	}
	return Body{Message: "Internal server error"}
}
