// Package apperr defines the error taxonomy shared by the generation
// pipeline, the stores and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that need to react to it.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindDataAccess    Kind = "data_access"
	KindGeneration    Kind = "generation"
	KindEmptyResponse Kind = "empty_response"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrAuth          = &Error{Kind: KindAuth}
	ErrDataAccess    = &Error{Kind: KindDataAccess}
	ErrGeneration    = &Error{Kind: KindGeneration}
	ErrEmptyResponse = &Error{Kind: KindEmptyResponse}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
)

// Error carries a Kind, the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	// Status is the upstream HTTP status for generation failures, 0 otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so that errors.Is(err, ErrGeneration) works for any
// generation error. An empty response also counts as a generation error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindEmptyResponse && t.Kind == KindGeneration
}

func newError(kind Kind, op string, err error, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Auth(op, format string, args ...any) error {
	return newError(KindAuth, op, nil, format, args...)
}

func Validation(op, format string, args ...any) error {
	return newError(KindValidation, op, nil, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newError(KindNotFound, op, nil, format, args...)
}

func Conflict(op, format string, args ...any) error {
	return newError(KindConflict, op, nil, format, args...)
}

func DataAccess(op string, err error) error {
	return newError(KindDataAccess, op, err, "")
}

// Generation wraps a failed completion call. status is the upstream HTTP
// status, or 0 for transport and decoding failures.
func Generation(op string, status int, err error) error {
	e := newError(KindGeneration, op, err, "")
	e.Status = status
	if status != 0 {
		e.Msg = fmt.Sprintf("completion endpoint returned status %d", status)
	}
	return e
}

func EmptyResponse(op string) error {
	return newError(KindEmptyResponse, op, nil, "completion returned no content")
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code the web layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDataAccess:
		return http.StatusServiceUnavailable
	case KindGeneration, KindEmptyResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the single message shown to a user for err.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindNotFound:
		var e *Error
		errors.As(err, &e)
		if e.Msg != "" {
			return e.Msg
		}
		return string(e.Kind)
	case KindAuth:
		return "Please sign in to continue."
	case KindDataAccess:
		return "We couldn't reach the database. Please retry in a moment."
	case KindGeneration, KindEmptyResponse:
		return "Content generation failed. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
