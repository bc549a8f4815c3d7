// Package completion calls a remote text-completion service for one
// generation call: it budgets output tokens, picks the model tier, rate
// limits, caches and retries, and classifies every failure.
package completion

import (
	"context"
	"errors"

	"github.com/alnah/go-studygen/internal/study"
)

// ErrEmptyResponse indicates a service answer without any text.
var ErrEmptyResponse = errors.New("empty completion response")

// Request is one call to a completion service.
type Request struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float32
	// JSONMode asks the service for a JSON object response.
	JSONMode bool
}

// Response is the raw answer of a completion service.
type Response struct {
	Text  string      `json:"text"`
	Usage study.Usage `json:"usage"`
	Model string      `json:"model"`
}

// Service is a remote completion service.
// Implementations translate transport failures into *apierr.StatusError
// (or wrap an apierr sentinel) so that they can be classified.
type Service interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f ServiceFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
