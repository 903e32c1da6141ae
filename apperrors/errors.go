package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error that knows its HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so errors.Is(err, ErrConflict)
// matches any conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict          = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusConflict, "invalid status transition")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrStore             = New("STORE_ERROR", http.StatusInternalServerError, "storage failure")
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "forbidden")
)

func NotFound(message string) *Error {
	return New(ErrNotFound.Code, ErrNotFound.Status, message)
}

func Conflict(message string) *Error {
	return New(ErrConflict.Code, ErrConflict.Status, message)
}

func InvalidTransition(message string) *Error {
	return New(ErrInvalidTransition.Code, ErrInvalidTransition.Status, message)
}

func Validation(message string) *Error {
	return New(ErrValidation.Code, ErrValidation.Status, message)
}

// Store wraps an underlying I/O failure.
func Store(err error, message string) *Error {
	return Wrap(err, ErrStore.Code, ErrStore.Status, message)
}

func Unauthorized(message string) *Error {
	return New(ErrUnauthorized.Code, ErrUnauthorized.Status, message)
}

func Forbidden(message string) *Error {
	return New(ErrForbidden.Code, ErrForbidden.Status, message)
}

// FromError normalises any error into an *Error. Unknown errors become store errors.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Store(err, ErrStore.Message)
}
