package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alnah/go-studygen/internal/completion"
	"github.com/alnah/go-studygen/internal/config"
	"github.com/alnah/go-studygen/internal/logger"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader     ConfigLoader
	CompleterFactory CompleterFactory
	NewLogger        func(mode, level string) (*logger.Logger, error)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// CompleterFactory creates the completion client used by the generate command.
// The returned closer releases the response cache.
type CompleterFactory interface {
	NewCompleter(ctx context.Context, p Provider, apiKey string, cfg config.Config, log *logger.Logger) (completion.Completer, io.Closer, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithCompleterFactory sets the completer factory.
func WithCompleterFactory(f CompleterFactory) EnvOption {
	return func(e *Env) {
		e.CompleterFactory = f
	}
}

// WithLoggerFactory sets the logger constructor.
func WithLoggerFactory(fn func(mode, level string) (*logger.Logger, error)) EnvOption {
	return func(e *Env) {
		e.NewLogger = fn
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		Now:              time.Now,
		ConfigLoader:     &defaultConfigLoader{},
		CompleterFactory: &defaultCompleterFactory{},
		NewLogger:        logger.New,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultCompleterFactory builds a completion.Client over the provider's
// service, with the cache selected by cfg.Cache.
type defaultCompleterFactory struct{}

func (defaultCompleterFactory) NewCompleter(ctx context.Context, p Provider, apiKey string, cfg config.Config, log *logger.Logger) (completion.Completer, io.Closer, error) {
	service, err := newService(ctx, p, apiKey)
	if err != nil {
		return nil, nil, err
	}

	cache, closer, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	return completion.NewClient(service, "", clientOptions(p, cfg, cache, log)...), closer, nil
}

// newService creates the provider adapter.
func newService(ctx context.Context, p Provider, apiKey string) (completion.Service, error) {
	switch p.OrDefault() {
	case OpenAIProvider:
		return completion.NewOpenAIService(apiKey), nil
	case GeminiProvider:
		s, err := completion.NewGeminiService(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return completion.NewDeepSeekService(apiKey), nil
	}
}

// newCache returns a Redis cache when a URL is configured, an in-memory one otherwise.
func newCache(ctx context.Context, cfg config.CacheConfig) (completion.Cache, io.Closer, error) {
	if cfg.RedisURL == "" {
		return completion.NewMemoryCache(cfg.TTL), nopCloser{}, nil
	}
	rc, err := completion.NewRedisCache(ctx, cfg.RedisURL, cfg.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("response cache: %w", err)
	}
	return rc, rc, nil
}

// clientOptions maps the configuration onto completion.Client options.
// Configured model names and token ceiling win over the provider defaults.
func clientOptions(p Provider, cfg config.Config, cache completion.Cache, log *logger.Logger) []completion.Option {
	defaultModel, upgradedModel := p.DefaultModels()
	if cfg.Model.Default != "" {
		defaultModel = cfg.Model.Default
		upgradedModel = cfg.Model.Default
	}
	if cfg.Model.Upgraded != "" {
		upgradedModel = cfg.Model.Upgraded
	}
	maxTokens := cfg.Model.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = p.MaxOutputTokens()
	}

	return []completion.Option{
		completion.WithModels(defaultModel, upgradedModel),
		completion.WithMaxOutputTokens(maxTokens),
		completion.WithTemperature(cfg.Model.Temperature),
		completion.WithRetry(cfg.Retry.MaxAttempts, cfg.Retry.InitialDelay, cfg.Retry.MaxDelay),
		completion.WithRequestsPerMinute(cfg.Generation.RequestsPerMinute),
		completion.WithCache(cache),
		completion.WithLogger(log),
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Compile-time interface verification.
var (
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ CompleterFactory = (*defaultCompleterFactory)(nil)
)
