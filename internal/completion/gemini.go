package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/study"
)

// Gemini default models.
const (
	GeminiDefaultModel  = "gemini-2.0-flash"
	GeminiUpgradedModel = "gemini-2.5-pro"

	// GeminiMaxOutputTokens is the output limit of gemini-2.0-flash; the
	// upgraded model accepts more but shares the ceiling.
	GeminiMaxOutputTokens = 8192
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Service          = (*GeminiService)(nil)
	_ contentGenerator = (*genai.Models)(nil)
)

// GeminiService is a Service backed by the Gemini API.
type GeminiService struct {
	models contentGenerator
}

// NewGeminiService creates a Service for the Gemini API.
func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{models: client.Models}, nil
}

// Complete sends one GenerateContent request.
func (s *GeminiService) Complete(ctx context.Context, req Request) (Response, error) {
	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		Temperature:       &temperature,
		MaxOutputTokens:   int32(req.MaxTokens),
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.User}}}}

	resp, err := s.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return Response{}, convertGeminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("gemini: no candidates: %w: %w", ErrEmptyResponse, apierr.ErrUnparsable)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return Response{}, fmt.Errorf("gemini: content blocked by safety filters: %w", apierr.ErrBadRequest)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	out := Response{Text: text.String(), Model: resp.ModelVersion}
	if out.Model == "" {
		out.Model = req.Model
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = study.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// convertGeminiError maps genai API errors to *apierr.StatusError.
func convertGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &apierr.StatusError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &apierr.StatusError{Provider: "gemini", StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini: %w", err)
}
