package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/logger"
	"github.com/alnah/go-studygen/internal/study"
)

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature float32 = 0.7

// Completer produces the raw answer for one generation call.
// *Client implements it; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, call Call) (Result, error)
}

// Compile-time interface compliance check.
var _ Completer = (*Client)(nil)

// Call is one generation call: a prompt pair and the items it must produce.
type Call struct {
	System string
	User   string
	Target study.Target
	// Language selects the user message language of classified errors.
	Language lang.Language
	// OnRetry is notified before each backoff sleep. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
	// Accept vets a response before it is cached or returned. Optional.
	// A cached response it rejects is discarded; a fresh one fails the call
	// (retried only if the error is classified as transient).
	Accept func(Response) error
}

// Result is the answer to a Call.
type Result struct {
	Response
	// Attempts is the number of service calls made (0 on a cache hit).
	Attempts int
	Cached   bool
}

// Client calls a Service with token budgeting, model selection, rate
// limiting, caching and retry. Safe for concurrent use.
type Client struct {
	service       Service
	defaultModel  string
	upgradedModel string
	maxTokens     int
	temperature   float32
	retry         apierr.RetryConfig
	limiter       *rate.Limiter
	cache         Cache
	log           *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModels sets the default and upgraded models.
// An empty upgraded model reuses the default one.
func WithModels(defaultModel, upgradedModel string) Option {
	return func(c *Client) {
		if defaultModel != "" {
			c.defaultModel = defaultModel
		}
		if upgradedModel != "" {
			c.upgradedModel = upgradedModel
		}
	}
}

// WithMaxOutputTokens sets the service ceiling of the token budget.
func WithMaxOutputTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithRetry sets the retry policy. OnRetry is ignored; use Call.OnRetry.
func WithRetry(maxAttempts int, initialDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry = apierr.RetryConfig{MaxAttempts: maxAttempts, InitialDelay: initialDelay, MaxDelay: maxDelay}
	}
}

// WithRequestsPerMinute limits service calls (every attempt counts).
// n <= 0 disables the limiter.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(n)/60), 1)
	}
}

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l.OrNop()
	}
}

// NewClient creates a Client for service. defaultModel is required
// unless set later with WithModels.
func NewClient(service Service, defaultModel string, opts ...Option) *Client {
	c := &Client{
		service:      service,
		defaultModel: defaultModel,
		maxTokens:    DefaultMaxOutputTokens,
		temperature:  DefaultTemperature,
		retry: apierr.RetryConfig{
			MaxAttempts:  apierr.DefaultMaxAttempts,
			InitialDelay: apierr.DefaultInitialDelay,
			MaxDelay:     apierr.DefaultMaxDelay,
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.upgradedModel == "" {
		c.upgradedModel = c.defaultModel
	}
	return c
}

// Model returns the model used for a call producing target.
func (c *Client) Model(target study.Target) string {
	if NeedsUpgrade(target) {
		return c.upgradedModel
	}
	return c.defaultModel
}

// Request returns the service request built for call.
func (c *Client) Request(call Call) Request {
	return Request{
		System:      call.System,
		User:        call.User,
		Model:       c.Model(call.Target),
		MaxTokens:   TokenBudget(call.Target, c.maxTokens),
		Temperature: c.temperature,
		JSONMode:    true,
	}
}

// Complete sends call to the service, retrying transient failures.
// Failures are returned as *apierr.StructuredError carrying the attempt count.
func (c *Client) Complete(ctx context.Context, call Call) (Result, error) {
	req := c.Request(call)
	key := CacheKey(req)

	if resp, ok := c.cacheGet(ctx, key); ok {
		if err := accept(call, resp); err == nil {
			c.log.Debug("completion cache hit", "model", req.Model)
			return Result{Response: resp, Cached: true}, nil
		}
		c.log.Warn("cached completion rejected", "model", req.Model)
	}

	retry := c.retry
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.log.Warn("retrying completion",
			"attempt", attempt,
			"delay", delay,
			"kind", apierr.Classify(err, call.Language).Kind,
			"error", err)
		if call.OnRetry != nil {
			call.OnRetry(attempt, delay, err)
		}
	}

	c.log.Debug("completion request",
		"model", req.Model,
		"max_tokens", req.MaxTokens,
		"flashcards", call.Target.Flashcards,
		"quiz", call.Target.Quiz)

	resp, attempts, err := apierr.RetryWithBackoff(ctx, retry, func(int) (Response, error) {
		resp, err := c.attempt(ctx, req)
		if err != nil {
			return Response{}, err
		}
		if err := accept(call, resp); err != nil {
			return Response{}, err
		}
		return resp, nil
	}, apierr.IsRetryable)
	if err != nil {
		se := apierr.Classify(err, call.Language).WithContext(apierr.Context{Attempts: attempts})
		return Result{Attempts: attempts}, se
	}

	c.cacheSet(ctx, key, resp)
	return Result{Response: resp, Attempts: attempts}, nil
}

// attempt makes one rate-limited service call.
func (c *Client) attempt(ctx context.Context, req Request) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := c.service.Complete(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return Response{}, fmt.Errorf("model %s: %w: %w", req.Model, ErrEmptyResponse, apierr.ErrUnparsable)
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	return resp, nil
}

func accept(call Call, resp Response) error {
	if call.Accept == nil {
		return nil
	}
	return call.Accept(resp)
}

func (c *Client) cacheGet(ctx context.Context, key string) (Response, bool) {
	if c.cache == nil {
		return Response{}, false
	}
	resp, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("completion cache read failed", "error", err)
		return Response{}, false
	}
	return resp, ok
}

func (c *Client) cacheSet(ctx context.Context, key string, resp Response) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, resp); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn("completion cache write failed", "error", err)
	}
}
