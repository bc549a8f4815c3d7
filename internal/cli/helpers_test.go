package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-studygen/internal/logger"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	completers   *mockCompleterFactory
	stdout       *syncBuffer
	stderr       *syncBuffer
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...EnvOption) (*Env, *testMocks) {
	mocks := &testMocks{
		configLoader: &mockConfigLoader{},
		completers:   &mockCompleterFactory{},
		stdout:       &syncBuffer{},
		stderr:       &syncBuffer{},
	}

	env := &Env{
		Stdout:           mocks.stdout,
		Stderr:           mocks.stderr,
		Getenv:           defaultTestEnv,
		Now:              fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		ConfigLoader:     mocks.configLoader,
		CompleterFactory: mocks.completers,
		NewLogger: func(mode, level string) (*logger.Logger, error) {
			return logger.Nop(), nil
		},
	}
	for _, opt := range opts {
		opt(env)
	}

	return env, mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for every provider.
func defaultTestEnv(key string) string {
	switch key {
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvDeepSeekAPIKey:
		return "test-deepseek-key"
	case EnvGeminiAPIKey:
		return "test-gemini-key"
	default:
		return ""
	}
}

// writeInput creates a text file in a fresh temp dir and returns its path.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create input file: %v", err)
	}
	return path
}

// testCmd returns a command carrying ctx, as cobra does for RunE.
func testCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}

// englishCorpus is a short text the detector classifies as English.
const englishCorpus = "The cell is the basic unit of life. It is made of a membrane and of cytoplasm, and it holds the genetic material of the organism."
