package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Store wraps an upstream persistence failure. The cause text is kept verbatim in the message.
func Store(err error, message string) *Error {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", message, err.Error())
	}
	return &Error{Code: ErrStore.Code, Status: ErrStore.Status, Message: msg, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation  = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrFormat      = New("FORMAT_ERROR", http.StatusBadRequest, "malformed literal")
	ErrRange       = New("RANGE_ERROR", http.StatusBadRequest, "invalid range")
	ErrNotFound    = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrOverflow    = New("OVERFLOW_ERROR", http.StatusUnprocessableEntity, "safety bound exceeded")
	ErrStore       = New("STORE_ERROR", http.StatusBadGateway, "store unavailable")
	ErrConflict    = New("CONFLICT", http.StatusConflict, "conflict")
	ErrRateLimited = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")
	ErrInternal    = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnavailable = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrCacheMiss   = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	var e *Error
	if !errors.As(err, &e) || target == nil {
		return false
	}
	return e.Code == target.Code
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
