// Package config loads the generator configuration from defaults, an
// optional YAML file and STUDYGEN_* environment variables, in increasing
// order of precedence.
//
// API keys are never read from the file: they come from the environment
// only (OPENAI_API_KEY, DEEPSEEK_API_KEY, GEMINI_API_KEY).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownKey indicates a config key that does not exist.
	ErrUnknownKey = errors.New("unknown config key")
)

// EnvPrefix prefixes every environment override (STUDYGEN_GENERATION_CONCURRENCY).
const EnvPrefix = "STUDYGEN"

// Config keys, as used by `config set|get` and in the YAML file.
const (
	KeyProvider          = "provider"
	KeyModelDefault      = "model.default"
	KeyModelUpgraded     = "model.upgraded"
	KeyMaxOutputTokens   = "model.max_output_tokens"
	KeyTemperature       = "model.temperature"
	KeyRetryMaxAttempts  = "retry.max_attempts"
	KeyRetryInitialDelay = "retry.initial_delay"
	KeyRetryMaxDelay     = "retry.max_delay"
	KeyConcurrency       = "generation.concurrency"
	KeyRequestsPerMinute = "generation.requests_per_minute"
	KeyChunkThreshold    = "chunking.threshold"
	KeyChunkWindow       = "chunking.window"
	KeyChunkOverlap      = "chunking.overlap"
	KeyCacheRedisURL     = "cache.redis_url"
	KeyCacheTTL          = "cache.ttl"
	KeyLogLevel          = "log.level"
	KeyLogMode           = "log.mode"
	KeyOutputDir         = "output_dir"
)

type setting struct {
	key   string
	value any
}

// defaults lists every key with its default value, in display order.
// Empty model names and a zero token ceiling mean "the provider's default".
var defaults = []setting{
	{KeyProvider, "deepseek"},
	{KeyModelDefault, ""},
	{KeyModelUpgraded, ""},
	{KeyMaxOutputTokens, 0},
	{KeyTemperature, 0.7},
	{KeyRetryMaxAttempts, 3},
	{KeyRetryInitialDelay, 2 * time.Second},
	{KeyRetryMaxDelay, 30 * time.Second},
	{KeyConcurrency, 5},
	{KeyRequestsPerMinute, 0},
	{KeyChunkThreshold, 40000},
	{KeyChunkWindow, 40000},
	{KeyChunkOverlap, 2000},
	{KeyCacheRedisURL, ""},
	{KeyCacheTTL, 24 * time.Hour},
	{KeyLogLevel, "warn"},
	{KeyLogMode, "development"},
	{KeyOutputDir, ""},
}

// Config is the validated configuration.
type Config struct {
	Provider   string           `mapstructure:"provider" validate:"required,oneof=openai deepseek gemini"`
	Model      ModelConfig      `mapstructure:"model"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Generation GenerationConfig `mapstructure:"generation"`
	Chunking   ChunkingConfig   `mapstructure:"chunking"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Log        LogConfig        `mapstructure:"log"`
	OutputDir  string           `mapstructure:"output_dir"`
}

// ModelConfig selects models and sampling for completion calls.
type ModelConfig struct {
	Default         string  `mapstructure:"default"`
	Upgraded        string  `mapstructure:"upgraded"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" validate:"gte=0"`
	Temperature     float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// RetryConfig drives the exponential backoff of completion calls.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay" validate:"gtefield=InitialDelay"`
}

// GenerationConfig bounds the chunk fan-out.
type GenerationConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	// RequestsPerMinute limits service calls; 0 disables the limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gte=0"`
}

// ChunkingConfig holds the corpus windowing parameters, in characters.
type ChunkingConfig struct {
	Threshold int `mapstructure:"threshold" validate:"gte=1"`
	Window    int `mapstructure:"window" validate:"gte=1"`
	Overlap   int `mapstructure:"overlap" validate:"gte=0,ltfield=Window"`
}

// CacheConfig selects the response cache. An empty RedisURL means in-memory.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url" validate:"omitempty,url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Mode  string `mapstructure:"mode" validate:"oneof=development production"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Keys returns every config key in display order.
func Keys() []string {
	keys := make([]string, len(defaults))
	for i, d := range defaults {
		keys[i] = d.key
	}
	return keys
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-studygen.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-studygen"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-studygen"), nil
}

// Path returns the full path to the YAML config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// newViper returns a viper instance with defaults, the config file (if any)
// and environment overrides.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	p, err := Path()
	if err != nil {
		return nil, err
	}
	if err := readFile(v, p); err != nil {
		return nil, err
	}
	return v, nil
}

// readFile merges the YAML file at p into v. A missing file is not an error.
func readFile(v *viper.Viper, p string) error {
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(p)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", p, err)
	}
	return nil
}

// Load reads defaults, the config file and STUDYGEN_* variables, then
// validates the result.
func Load() (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Set writes a single key to the config file after checking that the
// resulting configuration is valid. Creates the config directory and file
// if they don't exist.
func Set(key, value string) error {
	typed, err := coerce(key, value)
	if err != nil {
		return err
	}

	// Validate against the effective configuration first.
	eff, err := newViper()
	if err != nil {
		return err
	}
	eff.Set(key, typed)
	if _, err := decode(eff); err != nil {
		return err
	}

	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	file := viper.New()
	if err := readFile(file, p); err != nil {
		return err
	}
	file.Set(key, typed)
	if err := file.WriteConfigAs(p); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get returns the effective value of key as a string.
func Get(key string) (string, error) {
	if !slices.Contains(Keys(), key) {
		return "", fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	v, err := newViper()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// List returns the effective value of every key.
func List() (map[string]string, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(defaults))
	for _, d := range defaults {
		out[d.key] = v.GetString(d.key)
	}
	return out, nil
}

// coerce converts a command-line value to the type of the key's default,
// so the YAML file keeps numbers as numbers.
func coerce(key, value string) (any, error) {
	i := slices.IndexFunc(defaults, func(d setting) bool { return d.key == key })
	if i < 0 {
		return nil, fmt.Errorf("%q (valid keys: %s): %w", key, strings.Join(Keys(), ", "), ErrUnknownKey)
	}

	switch defaults[i].value.(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %w", key, ErrInvalidConfig)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number: %w", key, ErrInvalidConfig)
		}
		return f, nil
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a duration like 2s or 1m: %w", key, ErrInvalidConfig)
		}
		return d.String(), nil
	default:
		return value, nil
	}
}

// ResolveOutputPath resolves the final output path:
//  1. an absolute output is used as-is;
//  2. a relative output is joined with outputDir when set;
//  3. an empty output falls back to defaultName in outputDir (or cwd).
func ResolveOutputPath(output, outputDir, defaultName string) string {
	outputDir = ExpandPath(outputDir)
	switch {
	case output != "" && filepath.IsAbs(output):
		return filepath.Clean(output)
	case output != "" && outputDir != "":
		return filepath.Clean(filepath.Join(outputDir, output))
	case output != "":
		return filepath.Clean(output)
	case outputDir != "":
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
