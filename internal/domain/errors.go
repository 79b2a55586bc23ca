package domain

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("unavailable")
)

// PublicError pairs a taxonomy sentinel with the message shown to the caller.
type PublicError struct {
	Kind error
	Msg  string
}

func (e *PublicError) Error() string { return e.Msg }

func (e *PublicError) Unwrap() error { return e.Kind }

func Public(kind error, msg string) error {
	return &PublicError{Kind: kind, Msg: msg}
}

// Message returns the caller-facing text of err, or def when err carries none.
func Message(err error, def string) string {
	var pe *PublicError
	if errors.As(err, &pe) && pe.Msg != "" {
		return pe.Msg
	}
	return def
}

// HTTPStatus maps err onto the status code its taxonomy class implies.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
