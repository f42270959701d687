// Package errors models every error kind the engine surfaces as a
// single AppError type, so the interfaces/http layer has one place to map an
// error to a status code and the handler pipeline has one error type to
// construct, wrap, and test for.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorType is one of the error kinds the engine surfaces.
type ErrorType string

const (
	ErrorTypeNotFound             ErrorType = "NOT_FOUND"
	ErrorTypeGone                 ErrorType = "GONE"
	ErrorTypeMethodNotAllowed     ErrorType = "METHOD_NOT_ALLOWED"
	ErrorTypeValidation           ErrorType = "BAD_REQUEST"
	ErrorTypeNotAcceptable        ErrorType = "NOT_ACCEPTABLE"
	ErrorTypeUnsupportedMediaType ErrorType = "UNSUPPORTED_MEDIA_TYPE"
	ErrorTypeConflict             ErrorType = "CONFLICT"
	ErrorTypePreconditionFailed   ErrorType = "PRECONDITION_FAILED"
	ErrorTypeNotModified          ErrorType = "NOT_MODIFIED"
	ErrorTypePreconditionRequired ErrorType = "PRECONDITION_REQUIRED"
	ErrorTypeInternal             ErrorType = "INTERNAL"
)

// statusByType is the single source of truth for the error-to-status
// mapping.
var statusByType = map[ErrorType]int{
	ErrorTypeNotFound:             http.StatusNotFound,
	ErrorTypeGone:                 http.StatusGone,
	ErrorTypeMethodNotAllowed:     http.StatusMethodNotAllowed,
	ErrorTypeValidation:           http.StatusBadRequest,
	ErrorTypeNotAcceptable:        http.StatusNotAcceptable,
	ErrorTypeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	ErrorTypeConflict:             http.StatusConflict,
	ErrorTypePreconditionFailed:   http.StatusPreconditionFailed,
	ErrorTypeNotModified:          http.StatusNotModified,
	ErrorTypePreconditionRequired: http.StatusPreconditionRequired,
	ErrorTypeInternal:             http.StatusInternalServerError,
}

// AppError is the error type every pipeline step returns.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// ConstrainedBy, when set, becomes a `Link rel="...#constrainedBy"`
	// response header.
	ConstrainedBy string
	// Allow, when set, becomes the Allow header on a MethodNotAllowed
	// response.
	Allow []string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status this error surfaces as.
func (e *AppError) StatusCode() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Constructors, one per kind.

func NewNotFound(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

func NewGone(message string) *AppError {
	return &AppError{Type: ErrorTypeGone, Message: message}
}

func NewMethodNotAllowed(message string, allow []string) *AppError {
	return &AppError{Type: ErrorTypeMethodNotAllowed, Message: message, Allow: allow}
}

func NewValidation(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

func NewNotAcceptable(message string) *AppError {
	return &AppError{Type: ErrorTypeNotAcceptable, Message: message}
}

func NewUnsupportedMediaType(message string) *AppError {
	return &AppError{Type: ErrorTypeUnsupportedMediaType, Message: message}
}

func NewConflict(message string, constrainedBy string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message, ConstrainedBy: constrainedBy}
}

func NewPreconditionFailed(message string) *AppError {
	return &AppError{Type: ErrorTypePreconditionFailed, Message: message}
}

func NewNotModified() *AppError {
	return &AppError{Type: ErrorTypeNotModified, Message: "resource not modified"}
}

func NewPreconditionRequired(message string) *AppError {
	return &AppError{Type: ErrorTypePreconditionRequired, Message: message}
}

// NewInternal wraps a lower-level error. The wrapped message is never
// surfaced to the client; only Error()
// (server-side logging) sees it.
func NewInternal(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap preserves an existing AppError's type, or creates an Internal
// one for a plain error.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:          appErr.Type,
			Message:       fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:           appErr.Err,
			ConstrainedBy: appErr.ConstrainedBy,
			Allow:         appErr.Allow,
		}
	}
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// As extracts an *AppError from a generic error, falling back to an
// Internal wrapper so callers always have a status to return.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return &AppError{Type: ErrorTypeInternal, Message: "internal error", Err: err}
}

func Is(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

func IsNotFound(err error) bool             { return Is(err, ErrorTypeNotFound) }
func IsGone(err error) bool                 { return Is(err, ErrorTypeGone) }
func IsConflict(err error) bool             { return Is(err, ErrorTypeConflict) }
func IsValidation(err error) bool           { return Is(err, ErrorTypeValidation) }
func IsNotAcceptable(err error) bool        { return Is(err, ErrorTypeNotAcceptable) }
func IsUnsupportedMediaType(err error) bool { return Is(err, ErrorTypeUnsupportedMediaType) }
func IsPreconditionFailed(err error) bool   { return Is(err, ErrorTypePreconditionFailed) }
func IsNotModified(err error) bool          { return Is(err, ErrorTypeNotModified) }
func IsPreconditionRequired(err error) bool { return Is(err, ErrorTypePreconditionRequired) }
func IsMethodNotAllowed(err error) bool     { return Is(err, ErrorTypeMethodNotAllowed) }
func IsInternal(err error) bool             { return Is(err, ErrorTypeInternal) }
