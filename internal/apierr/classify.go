package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/alnah/go-studygen/internal/lang"
)

// Classify maps any failure to a *StructuredError with a user message in l.
// An error that already wraps a *StructuredError keeps its kind and context.
// Returns nil for a nil error.
func Classify(err error, l lang.Language) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	return New(classifyKind(err), l, err)
}

// classifyKind determines the kind of a raw failure.
func classifyKind(err error) Kind {
	// Typed status errors first (most reliable).
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return kindForStatus(statusErr.StatusCode, statusErr.Message)
	}

	// Sentinels wrapped by adapters or decoders.
	switch {
	case errors.Is(err, ErrRateLimit):
		return KindRateLimited
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrQuotaExceeded):
		return KindAuthFailure
	case errors.Is(err, ErrBadRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrUnparsable):
		return KindUnparsableResponse
	}

	// Cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindUnparsableResponse
	}

	return KindUnknown
}

// kindForStatus maps an HTTP status code (and message hints) to a kind.
func kindForStatus(code int, message string) Kind {
	msg := strings.ToLower(message)

	switch code {
	case http.StatusTooManyRequests:
		// Distinguish temporary rate limit from exhausted quota (billing issue).
		if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
			return KindAuthFailure
		}
		return KindRateLimited
	case http.StatusPaymentRequired, http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthFailure
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable,
		529: // overloaded
		return KindServiceUnavailable
	}

	switch {
	case code >= 500:
		return KindServiceUnavailable
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether err is classified as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err, lang.Language{}).Retryable
}
