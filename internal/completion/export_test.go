package completion

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ChatCompleterFunc adapts a function to the chatCompleter interface.
type ChatCompleterFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

func (f ChatCompleterFunc) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return f(ctx, req)
}

// NewOpenAIServiceWithClient injects a chat client.
func NewOpenAIServiceWithClient(client ChatCompleterFunc, provider string) *OpenAIService {
	return &OpenAIService{client: client, provider: provider}
}

// ContentGeneratorFunc adapts a function to the contentGenerator interface.
type ContentGeneratorFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

func (f ContentGeneratorFunc) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f(ctx, model, contents, config)
}

// NewGeminiServiceWithModels injects a content generator.
func NewGeminiServiceWithModels(models ContentGeneratorFunc) *GeminiService {
	return &GeminiService{models: models}
}

// SetNow replaces the clock of a MemoryCache.
func (c *MemoryCache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
