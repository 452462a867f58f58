package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// InvalidFilenameMessage describes rejected file names (path traversal etc).
	InvalidFilenameMessage = "invalid filename"
	// FileNotFoundMessage describes a missing file lookup.
	FileNotFoundMessage = "file not found"
)

// AppError wraps an underlying error with an HTTP status and safe message.
// Handlers serialize the message, never the wrapped error.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// BadRequest builds a 400 error with a caller-safe message.
func BadRequest(message string) *AppError {
	return New(nil, http.StatusBadRequest, message)
}

// NotFound builds a 404 error with a caller-safe message.
func NotFound(message string) *AppError {
	return New(nil, http.StatusNotFound, message)
}

// Internal wraps an unexpected error as a 500 with the generic safe message.
func Internal(err error) *AppError {
	return New(err, http.StatusInternalServerError, SystemErrorMessage)
}

// Status resolves the HTTP status for an arbitrary error chain, defaulting
// to 500 when no AppError is present.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// SafeMessage resolves the user-facing message for an error chain.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
