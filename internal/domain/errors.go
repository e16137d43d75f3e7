package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a draft, document path, or remote ref was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// InvalidStateError indicates an operation attempted against a draft
	// in an incompatible status (e.g. editing a non-pending draft)
	InvalidStateError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *InvalidStateError) Error() string { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *InvalidStateError) StatusCode() int { return http.StatusUnprocessableEntity }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRemote       = errors.New("remote error")
)

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// ConflictError indicates an optimistic-concurrency fingerprint mismatch on
// commit: a concurrent writer changed the file after the caller's read.
// The caller should re-read the current content and retry.
type ConflictError struct {
	Message  string
	Path     string // repository path whose fingerprint mismatched
	Expected string // fingerprint the caller observed
	Current  string // fingerprint currently on the branch
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Remote error types. The resilience layer classifies every hosting-API
// failure into exactly one of these; nothing above it re-classifies.
type (
	// RemoteClientError is a non-retryable 4xx (excluding 429) from the
	// hosting API, carrying the original upstream status.
	RemoteClientError struct {
		Status  int // upstream HTTP status
		Message string
	}

	// RemoteRateLimitError indicates the hosting API quota is exhausted and
	// the wait until reset was too long to absorb in-process.
	RemoteRateLimitError struct {
		RetryAfter time.Duration
		Message    string
	}

	// RemoteTransientError indicates retries were exhausted after 5xx or
	// network failures. It wraps the last observed error.
	RemoteTransientError struct {
		Attempts int
		Err      error
	}
)

func (e *RemoteClientError) Error() string {
	return fmt.Sprintf("remote API rejected request (status %d): %s", e.Status, e.Message)
}

func (e *RemoteRateLimitError) Error() string {
	return fmt.Sprintf("remote API rate limit exhausted, retry after %s: %s", e.RetryAfter, e.Message)
}

func (e *RemoteTransientError) Error() string {
	return fmt.Sprintf("remote API unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RemoteTransientError) Unwrap() error { return e.Err }

func (e *RemoteClientError) StatusCode() int    { return http.StatusBadGateway }
func (e *RemoteRateLimitError) StatusCode() int { return http.StatusServiceUnavailable }
func (e *RemoteTransientError) StatusCode() int { return http.StatusBadGateway }

func (e *RemoteClientError) Is(target error) bool    { return target == ErrRemote }
func (e *RemoteRateLimitError) Is(target error) bool { return target == ErrRemote }
func (e *RemoteTransientError) Is(target error) bool { return target == ErrRemote }
