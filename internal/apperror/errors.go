// Package apperror carries HTTP-facing errors through the service and
// handler layers: a sentinel identifies the class of failure, an AppError
// adds the status code and the message shown to the client.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrUpstream     = errors.New("upstream service error")
)

type AppError struct {
	Err        error  // cause, kept for logging
	Message    string // safe to show to the client
	StatusCode int
	Field      string // set for validation errors only
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(cause error, status int, message string) *AppError {
	return &AppError{Err: cause, Message: message, StatusCode: status}
}

func NotFound(resource string) *AppError {
	return newError(ErrNotFound, http.StatusNotFound, resource+" not found")
}

func BadRequest(message string) *AppError {
	return newError(ErrBadRequest, http.StatusBadRequest, message)
}

func ValidationError(field, message string) *AppError {
	e := newError(ErrValidation, http.StatusBadRequest, message)
	e.Field = field
	return e
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(ErrUnauthorized, http.StatusUnauthorized, message)
}

func Conflict(message string) *AppError {
	return newError(ErrConflict, http.StatusConflict, message)
}

func Internal(err error) *AppError {
	return newError(err, http.StatusInternalServerError, "an internal error occurred")
}

// BadGateway reports a failure in an upstream dependency (the vacancy API).
// The returned error matches both ErrUpstream and the original cause.
func BadGateway(err error, message string) *AppError {
	return newError(errors.Join(ErrUpstream, err), http.StatusBadGateway, message)
}

// GetStatusCode resolves an error to an HTTP status, falling back to 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage returns the client-safe message for an error.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
