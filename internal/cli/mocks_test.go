package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/alnah/go-studygen/internal/completion"
	"github.com/alnah/go-studygen/internal/config"
	"github.com/alnah/go-studygen/internal/logger"
	"github.com/alnah/go-studygen/internal/study"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return testConfig(), nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// testConfig mirrors the config defaults with fast retries.
func testConfig() config.Config {
	return config.Config{
		Provider:   ProviderDeepSeek,
		Model:      config.ModelConfig{Temperature: 0.7},
		Retry:      config.RetryConfig{MaxAttempts: 3},
		Generation: config.GenerationConfig{Concurrency: 5},
		Chunking:   config.ChunkingConfig{Threshold: 40000, Window: 40000, Overlap: 2000},
		Log:        config.LogConfig{Level: "warn", Mode: "development"},
	}
}

// ---------------------------------------------------------------------------
// Mock CompleterFactory + Completer
// ---------------------------------------------------------------------------

type completerCall struct {
	Provider Provider
	APIKey   string
	Config   config.Config
}

type mockCompleterFactory struct {
	NewCompleterFunc func(p Provider, apiKey string, cfg config.Config) (completion.Completer, error)

	mu     sync.Mutex
	calls  []completerCall
	closed int
	mock   *mockCompleter
}

func (m *mockCompleterFactory) NewCompleter(_ context.Context, p Provider, apiKey string, cfg config.Config, _ *logger.Logger) (completion.Completer, io.Closer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, completerCall{Provider: p, APIKey: apiKey, Config: cfg})
	m.mu.Unlock()

	if m.NewCompleterFunc != nil {
		c, err := m.NewCompleterFunc(p, apiKey, cfg)
		return c, m, err
	}
	if m.mock == nil {
		m.mock = &mockCompleter{}
	}
	return m.mock, m, nil
}

func (m *mockCompleterFactory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockCompleterFactory) Calls() []completerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]completerCall(nil), m.calls...)
}

func (m *mockCompleterFactory) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockCompleter answers every call with exactly the requested items,
// unless CompleteFunc is set.
type mockCompleter struct {
	CompleteFunc func(ctx context.Context, call completion.Call) (completion.Result, error)

	mu    sync.Mutex
	calls []completion.Call
}

func (m *mockCompleter) Complete(ctx context.Context, call completion.Call) (completion.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, call)
	}
	resp := completion.Response{
		Text:  studySetJSON(call.Target),
		Usage: study.Usage{PromptTokens: 900, CompletionTokens: 600, TotalTokens: 1500},
		Model: "mock-model",
	}
	if call.Accept != nil {
		if err := call.Accept(resp); err != nil {
			return completion.Result{Attempts: 1}, err
		}
	}
	return completion.Result{Response: resp, Attempts: 1}, nil
}

func (m *mockCompleter) Calls() []completion.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]completion.Call(nil), m.calls...)
}

// studySetJSON renders a valid response holding exactly target items.
func studySetJSON(target study.Target) string {
	type card struct {
		Question string   `json:"question"`
		Answer   string   `json:"answer"`
		Tags     []string `json:"tags"`
	}
	type item struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Prompt string `json:"prompt"`
		Answer string `json:"answer"`
	}
	payload := struct {
		Flashcards []card         `json:"flashcards"`
		Quiz       []item         `json:"quiz"`
		Metadata   study.Metadata `json:"metadata"`
	}{
		Metadata: study.Metadata{Summary: "A short summary.", RecommendedSessionLength: 20, Notes: []string{}},
	}
	for i := range target.Flashcards {
		payload.Flashcards = append(payload.Flashcards, card{
			Question: fmt.Sprintf("Question %d?", i+1), Answer: fmt.Sprintf("Answer %d", i+1), Tags: []string{"t"},
		})
	}
	for i := range target.Quiz {
		payload.Quiz = append(payload.Quiz, item{
			ID: fmt.Sprintf("q%d", i+1), Type: "completion", Prompt: fmt.Sprintf("Blank number %d is ___.", i+1), Answer: "x",
		})
	}
	b, _ := json.Marshal(payload)
	return string(b)
}
