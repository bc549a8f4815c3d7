package cli

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-studygen/internal/completion"
	"github.com/alnah/go-studygen/internal/config"
	"github.com/alnah/go-studygen/internal/logger"
	"github.com/alnah/go-studygen/internal/study"
)

// ---------------------------------------------------------------------------
// Tests for DefaultEnv / NewEnv
// ---------------------------------------------------------------------------

func TestDefaultEnv_SetsEveryField(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	require.NotNil(t, env)

	assert.Equal(t, os.Stdout, env.Stdout)
	assert.Equal(t, os.Stderr, env.Stderr)
	assert.NotNil(t, env.Getenv)
	assert.NotNil(t, env.Now)
	assert.NotNil(t, env.ConfigLoader)
	assert.NotNil(t, env.CompleterFactory)
	assert.NotNil(t, env.NewLogger)
}

func TestDefaultEnv_GetenvUsesOsGetenv(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv()
	t.Setenv("GO_STUDYGEN_TEST_KEY_12345", "value")

	assert.Equal(t, "value", DefaultEnv().Getenv("GO_STUDYGEN_TEST_KEY_12345"))
}

func TestNewEnv_AppliesOptions(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	loader := &mockConfigLoader{}
	factory := &mockCompleterFactory{}
	newLogger := func(mode, level string) (*logger.Logger, error) { return logger.Nop(), nil }

	env := NewEnv(
		WithStdout(&stdout),
		WithStderr(&stderr),
		WithGetenv(staticEnv(map[string]string{"K": "v"})),
		WithNow(fixedTime(fixed)),
		WithConfigLoader(loader),
		WithCompleterFactory(factory),
		WithLoggerFactory(newLogger),
	)

	assert.Same(t, &stdout, env.Stdout)
	assert.Same(t, &stderr, env.Stderr)
	assert.Equal(t, "v", env.Getenv("K"))
	assert.Equal(t, fixed, env.Now())
	assert.Same(t, loader, env.ConfigLoader)
	assert.Same(t, factory, env.CompleterFactory)
	assert.NotNil(t, env.NewLogger)
}

// ---------------------------------------------------------------------------
// Tests for the default completer wiring
// ---------------------------------------------------------------------------

func TestClientOptions_ModelSelection(t *testing.T) {
	t.Parallel()

	big := study.Target{Flashcards: 30, Quiz: 15}
	small := study.Target{Flashcards: 5, Quiz: 5}

	tests := []struct {
		name      string
		provider  Provider
		model     config.ModelConfig
		wantSmall string
		wantBig   string
	}{
		{name: "openai defaults", provider: OpenAIProvider, wantSmall: completion.OpenAIDefaultModel, wantBig: completion.OpenAIUpgradedModel},
		{name: "deepseek single tier", provider: DeepSeekProvider, wantSmall: completion.DeepSeekDefaultModel, wantBig: completion.DeepSeekDefaultModel},
		{name: "gemini defaults", provider: GeminiProvider, wantSmall: completion.GeminiDefaultModel, wantBig: completion.GeminiUpgradedModel},
		{
			name: "configured default pins both tiers", provider: OpenAIProvider,
			model:     config.ModelConfig{Default: "custom"},
			wantSmall: "custom", wantBig: "custom",
		},
		{
			name: "configured upgraded only", provider: OpenAIProvider,
			model:     config.ModelConfig{Upgraded: "huge"},
			wantSmall: completion.OpenAIDefaultModel, wantBig: "huge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Model.Default = tt.model.Default
			cfg.Model.Upgraded = tt.model.Upgraded

			opts := clientOptions(tt.provider, cfg, completion.NewMemoryCache(time.Minute), logger.Nop())
			client := completion.NewClient(nil, "", opts...)

			assert.Equal(t, tt.wantSmall, client.Model(small))
			assert.Equal(t, tt.wantBig, client.Model(big))
		})
	}
}

func TestClientOptions_Budget(t *testing.T) {
	t.Parallel()

	// {30,15} asks for 30*250 + 15*400 + 2000 = 15500 tokens.
	target := study.Target{Flashcards: 30, Quiz: 15}

	tests := []struct {
		name       string
		provider   Provider
		configured int
		want       int
	}{
		{name: "deepseek capped at model limit", provider: DeepSeekProvider, want: 8192},
		{name: "zero provider is deepseek", provider: Provider{}, want: 8192},
		{name: "gemini capped at model limit", provider: GeminiProvider, want: 8192},
		{name: "openai fits", provider: OpenAIProvider, want: 15500},
		{name: "configured ceiling wins", provider: OpenAIProvider, configured: 9000, want: 9000},
		{name: "configured above provider limit", provider: DeepSeekProvider, configured: 12000, want: 12000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Model.MaxOutputTokens = tt.configured
			cfg.Model.Temperature = 0.3

			client := completion.NewClient(nil, "", clientOptions(tt.provider, cfg, nil, logger.Nop())...)
			req := client.Request(completion.Call{System: "s", User: "u", Target: target})

			assert.Equal(t, tt.want, req.MaxTokens)
			assert.InDelta(t, 0.3, req.Temperature, 1e-6)
			assert.True(t, req.JSONMode)
		})
	}
}

func TestNewCache(t *testing.T) {
	t.Parallel()

	cache, closer, err := newCache(context.Background(), config.CacheConfig{TTL: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &completion.MemoryCache{}, cache)
	assert.NoError(t, closer.Close())

	_, _, err = newCache(context.Background(), config.CacheConfig{RedisURL: "not-a-url", TTL: time.Hour})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response cache")
}

func TestNewService(t *testing.T) {
	t.Parallel()

	for _, p := range []Provider{OpenAIProvider, DeepSeekProvider, {}} {
		s, err := newService(context.Background(), p, "key")
		require.NoError(t, err, p.String())
		assert.IsType(t, &completion.OpenAIService{}, s)
	}

	s, err := newService(context.Background(), GeminiProvider, "key")
	require.NoError(t, err)
	assert.IsType(t, &completion.GeminiService{}, s)
}
