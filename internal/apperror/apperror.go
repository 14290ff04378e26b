// Package apperror defines the typed errors returned by the devmate
// controllers and API client. The presentation layer decides how to show them.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

// Error kinds.
const (
	InvalidIdentifier Kind = "invalid_identifier"
	Unauthenticated   Kind = "unauthenticated"
	ValidationError   Kind = "validation_error"
	NetworkError      Kind = "network_error"
	ServerError       Kind = "server_error"
	NotFound          Kind = "not_found"
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int   // backend HTTP status, 0 when no response was received
	Err        error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status the web UI responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidIdentifier:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case ValidationError:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case NetworkError, ServerError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
