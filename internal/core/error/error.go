package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// DatabaseErrorMessage describes relational database failures.
	DatabaseErrorMessage = "database operation failed"
	// DatabaseNotFoundMessage describes a missing database row.
	DatabaseNotFoundMessage = "record not found"
)

// Error kinds. Every AppError carries one of these so callers can branch with errors.Is
// without caring about the concrete dependency.
var (
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNotConfigured         = errors.New("feature not configured")
	ErrExternalCall          = errors.New("external call failed")
	ErrSignatureInvalid      = errors.New("signature invalid")
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Kind    error
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

// Is reports whether the target is this error's kind or matches the underlying error.
func (e *AppError) Is(target error) bool {
	if e.Kind != nil && target == e.Kind {
		return true
	}
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WithKind tags the error with one of the package kinds.
func (e *AppError) WithKind(kind error) *AppError {
	e.Kind = kind
	return e
}

// DependencyUnavailable reports an unreachable cache, database or vector index.
func DependencyUnavailable(err error, message string) *AppError {
	return New(err, http.StatusServiceUnavailable, message).WithKind(ErrDependencyUnavailable)
}

// NotConfigured reports a feature disabled by missing credentials.
func NotConfigured(feature string) *AppError {
	return New(nil, http.StatusServiceUnavailable, feature+" is not configured").WithKind(ErrNotConfigured)
}

// ExternalCallFailed reports a timeout, quota or malformed response from a hosted API.
func ExternalCallFailed(err error, message string) *AppError {
	return New(err, http.StatusBadGateway, message).WithKind(ErrExternalCall)
}

// SignatureInvalid reports a webhook payload whose signature did not verify.
func SignatureInvalid() *AppError {
	return New(nil, http.StatusUnauthorized, "invalid signature").WithKind(ErrSignatureInvalid)
}

// InvalidInput reports a request the caller must fix.
func InvalidInput(message string) *AppError {
	return New(nil, http.StatusBadRequest, message).WithKind(ErrInvalidInput)
}

// NotFound reports a missing resource.
func NotFound(message string) *AppError {
	return New(nil, http.StatusNotFound, message).WithKind(ErrNotFound)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err, or the generic one.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
