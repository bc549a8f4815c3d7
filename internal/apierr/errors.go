// Package apierr classifies completion service failures into a typed,
// retryable error taxonomy and provides the shared retry infrastructure.
//
// Provider adapters report HTTP failures as *StatusError. Classify maps any
// failure to a *StructuredError whose Kind decides retry behavior. Callers
// check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per Kind.
var (
	// ErrRateLimit indicates the service rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrTimeout indicates a request timed out (retryable).
	ErrTimeout = errors.New("request timeout")

	// ErrServiceUnavailable indicates a 5xx or overloaded service (retryable).
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAuthFailed indicates authentication failed or the account cannot be used.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrQuotaExceeded indicates the account quota was exhausted (billing issue, not retryable).
	// Classified as KindAuthFailure.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrBadRequest indicates the service rejected the request (4xx).
	ErrBadRequest = errors.New("invalid request")

	// ErrUnparsable indicates the service answered with a body that is not the expected JSON.
	ErrUnparsable = errors.New("unparsable response")

	// ErrUnknown indicates an unclassified failure.
	ErrUnknown = errors.New("unknown failure")
)

// StatusError is a failure reported by a completion service with an HTTP status.
// Provider adapters convert SDK-specific errors into this type.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error %d", e.Provider, e.StatusCode)
}
