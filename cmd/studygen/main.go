package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/cli"
	"github.com/alnah/go-studygen/internal/config"
	"github.com/alnah/go-studygen/internal/generate"
	"github.com/alnah/go-studygen/internal/interrupt"
	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/study"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitService    = 5
	ExitGeneration = 6
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels pending requests, a second one quits immediately.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.DefaultEnv()
	rootCmd := newRootCmd(env)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		handler.Stop()
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "studygen",
		Short:   "Generate flashcards and quizzes from course material",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.GenerateCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// printError writes the localized user message of a classified failure,
// followed by the diagnostic; other errors are printed as-is.
func printError(w io.Writer, err error) {
	var se *apierr.StructuredError
	if errors.As(err, &se) {
		fmt.Fprintln(w, se.UserMessage)
		fmt.Fprintf(w, "  (%v)\n", err)
		return
	}
	fmt.Fprintln(w, err)
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, cli.ErrInvalidProvider) ||
		errors.Is(err, config.ErrInvalidConfig) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrEmptyInput) ||
		errors.Is(err, cli.ErrOutputExists) || errors.Is(err, study.ErrInvalidMode) ||
		errors.Is(err, study.ErrInvalidTarget) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, generate.ErrEmptyCorpus) || errors.Is(err, config.ErrUnknownKey) {
		return ExitValidation
	}

	// Completion service errors (ExitService = 5).
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, apierr.ErrServiceUnavailable) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrQuotaExceeded) {
		return ExitService
	}

	// Generation errors (ExitGeneration = 6).
	if errors.Is(err, apierr.ErrUnparsable) || errors.Is(err, apierr.ErrBadRequest) ||
		errors.Is(err, apierr.ErrUnknown) {
		return ExitGeneration
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
