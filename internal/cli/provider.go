package cli

import (
	"errors"
	"fmt"

	"github.com/alnah/go-studygen/internal/completion"
)

// Provider names.
const (
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

// Environment variables holding provider API keys.
const (
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
)

// Provider represents a validated completion service provider.
// Zero value is invalid and must not be used.
// Use ParseProvider to create from user input, or the pre-parsed values.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed providers.
var (
	DeepSeekProvider = Provider{name: ProviderDeepSeek}
	OpenAIProvider   = Provider{name: ProviderOpenAI}
	GeminiProvider   = Provider{name: ProviderGemini}
)

// providerSpec holds what differs between providers.
type providerSpec struct {
	keyEnv          string
	defaultModel    string
	upgradedModel   string
	maxOutputTokens int
}

var providerSpecs = map[string]providerSpec{
	ProviderDeepSeek: {EnvDeepSeekAPIKey, completion.DeepSeekDefaultModel, completion.DeepSeekDefaultModel, completion.DeepSeekMaxOutputTokens},
	ProviderOpenAI:   {EnvOpenAIAPIKey, completion.OpenAIDefaultModel, completion.OpenAIUpgradedModel, completion.OpenAIMaxOutputTokens},
	ProviderGemini:   {EnvGeminiAPIKey, completion.GeminiDefaultModel, completion.GeminiUpgradedModel, completion.GeminiMaxOutputTokens},
}

// ParseProvider validates and parses a provider name string.
// Returns ErrInvalidProvider if the name is not recognized.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if _, ok := providerSpecs[s]; !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (use %s, %s or %s): %w",
			s, ProviderDeepSeek, ProviderOpenAI, ProviderGemini, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// MustParseProvider parses a provider name, panicking if invalid.
// Use only for constants and tests.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the provider name. Empty for the zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero reports whether no provider was set.
// The zero value must be defaulted before use (see OrDefault).
func (p Provider) IsZero() bool {
	return p.name == ""
}

// OrDefault returns the provider, or DeepSeekProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return DeepSeekProvider
	}
	return p
}

// APIKeyEnv returns the environment variable holding the provider's key.
func (p Provider) APIKeyEnv() string {
	return providerSpecs[p.OrDefault().name].keyEnv
}

// DefaultModels returns the provider's default and upgraded model names.
func (p Provider) DefaultModels() (defaultModel, upgradedModel string) {
	s := providerSpecs[p.OrDefault().name]
	return s.defaultModel, s.upgradedModel
}

// MaxOutputTokens returns the largest max_tokens the provider's default
// models accept.
func (p Provider) MaxOutputTokens() int {
	return providerSpecs[p.OrDefault().name].maxOutputTokens
}
