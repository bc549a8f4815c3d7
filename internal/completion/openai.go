package completion

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/study"
)

// Provider endpoints and default models.
const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"

	OpenAIDefaultModel   = openai.GPT4oMini
	OpenAIUpgradedModel  = openai.GPT4o
	DeepSeekDefaultModel = "deepseek-chat"
)

// Output token limits of the default models (max_tokens).
const (
	OpenAIMaxOutputTokens   = 16384 // gpt-4o, gpt-4o-mini
	DeepSeekMaxOutputTokens = 8192  // deepseek-chat
)

// chatCompleter is the subset of *openai.Client used here.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Service       = (*OpenAIService)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAIService is a Service speaking the OpenAI chat completion API.
// It also serves OpenAI-compatible providers such as DeepSeek.
type OpenAIService struct {
	client   chatCompleter
	provider string
}

// NewOpenAIService creates a Service for the OpenAI API.
func NewOpenAIService(apiKey string) *OpenAIService {
	return &OpenAIService{client: openai.NewClient(apiKey), provider: "openai"}
}

// NewDeepSeekService creates a Service for the DeepSeek API, which is
// OpenAI-compatible at a different base URL.
func NewDeepSeekService(apiKey string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DeepSeekBaseURL
	return &OpenAIService{client: openai.NewClientWithConfig(cfg), provider: "deepseek"}
}

// Complete sends one chat completion request.
func (s *OpenAIService) Complete(ctx context.Context, req Request) (Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, s.convertError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%s: no choices: %w: %w", s.provider, ErrEmptyResponse, apierr.ErrUnparsable)
	}

	return Response{
		Text: resp.Choices[0].Message.Content,
		Usage: study.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}, nil
}

// convertError maps go-openai errors to *apierr.StatusError so that the
// classifier does not depend on the SDK.
func (s *OpenAIService) convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apierr.StatusError{Provider: s.provider, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &apierr.StatusError{Provider: s.provider, StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("%s: %w", s.provider, err)
}
