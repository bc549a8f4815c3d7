package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-studygen/internal/chunk"
	"github.com/alnah/go-studygen/internal/config"
	"github.com/alnah/go-studygen/internal/format"
	"github.com/alnah/go-studygen/internal/generate"
	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/prompt"
	"github.com/alnah/go-studygen/internal/study"
)

// generateOptions holds the generate command flags.
type generateOptions struct {
	flashcards   int
	quiz         int
	mode         string
	title        string
	documentIDs  []string
	collectionID string
	provider     string
	language     string
	concurrency  int
	output       string
}

// GenerateCmd creates the generate command.
// The env parameter provides injectable dependencies for testing.
func GenerateCmd(env *Env) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate <text-file>",
		Short: "Generate flashcards and quiz items from a text file",
		Long: `Generate an exact number of flashcards and quiz items from a text file.

Long texts are split into overlapping parts processed in parallel; results are
merged, deduplicated and truncated to the requested counts. The language (French
or English) is detected from the text unless --lang is given.

The result is written as JSON. Use -o - to print it to stdout.

Providers: deepseek (default, DEEPSEEK_API_KEY), openai (OPENAI_API_KEY),
gemini (GEMINI_API_KEY).`,
		Example: `  studygen generate chapter1.txt --flashcards 20 --quiz 10
  studygen generate notes.txt --flashcards 15 --quiz 5 --mode collection --collection-id bio-101
  studygen generate cours.txt --flashcards 10 --quiz 10 --lang fr --provider openai -o cours.json
  studygen generate chapter1.txt --flashcards 5 --quiz 5 -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, env, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.flashcards, "flashcards", "f", 0, "Number of flashcards to generate (required)")
	cmd.Flags().IntVarP(&opts.quiz, "quiz", "q", 0, "Number of quiz items to generate (required)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", study.Document, "Corpus origin: "+strings.Join(study.Modes(), ", "))
	cmd.Flags().StringVar(&opts.title, "title", "", "Title shown to the model (default: file name)")
	cmd.Flags().StringSliceVar(&opts.documentIDs, "document-id", nil, "Source document id (repeatable)")
	cmd.Flags().StringVar(&opts.collectionID, "collection-id", "", "Source collection id")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Completion provider: deepseek, openai, gemini (default: config)")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "Force the language: "+strings.Join(prompt.Languages(), ", ")+" (default: detect)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "p", 0, "Max concurrent completion calls (default: config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path, - for stdout (default: <input>.study.json)")
	_ = cmd.MarkFlagRequired("flashcards")
	_ = cmd.MarkFlagRequired("quiz")

	return cmd
}

// runGenerate executes a generation request.
// Validation order: file -> mode -> counts -> language -> config -> provider -> API key -> output
func runGenerate(cmd *cobra.Command, env *Env, inputPath string, opts generateOptions) error {
	ctx := cmd.Context()
	start := env.Now()

	// === VALIDATION (fail-fast) ===

	// 1. Input file readable and not empty
	data, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified input file
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot read input file: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyInput, inputPath)
	}

	// 2. Mode
	mode, err := study.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	// 3. Counts
	target := study.Target{Flashcards: opts.flashcards, Quiz: opts.quiz}
	if err := target.Validate(); err != nil {
		return err
	}

	// 4. Language (empty = detect)
	language, err := lang.Parse(opts.language)
	if err != nil {
		return err
	}

	// 5. Configuration
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	// 6. Provider (flag wins over config)
	providerName := opts.provider
	if providerName == "" {
		providerName = cfg.Provider
	}
	provider, err := ParseProvider(providerName)
	if err != nil {
		return err
	}

	// 7. API key
	apiKey := env.Getenv(provider.APIKeyEnv())
	if apiKey == "" {
		return fmt.Errorf("%w: %s (set it with: export %s=...)", ErrAPIKeyMissing, provider.APIKeyEnv(), provider.APIKeyEnv())
	}

	// 8. Output path, checked before any completion call is paid for
	toStdout := opts.output == stdoutPath
	output := opts.output
	if !toStdout {
		output = config.ResolveOutputPath(output, cfg.OutputDir, deriveOutputPath(filepath.Base(inputPath)))
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output file already exists: %s: %w", output, ErrOutputExists)
		}
		warnNonJSONExtension(env.Stderr, output)
	}

	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = cfg.Generation.Concurrency
	}

	title := opts.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}

	// === SETUP ===

	log, err := env.NewLogger(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	completer, closer, err := env.CompleterFactory.NewCompleter(ctx, provider, apiKey, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	engineOpts := []generate.Option{
		generate.WithConcurrency(concurrency),
		generate.WithChunkOptions(chunk.Options{
			Threshold: cfg.Chunking.Threshold,
			Window:    cfg.Chunking.Window,
			Overlap:   cfg.Chunking.Overlap,
		}),
		generate.WithProgress(progressPrinter(env.Stderr)),
		generate.WithLogger(log),
	}
	if !language.IsZero() {
		engineOpts = append(engineOpts, generate.WithLanguage(language))
	}
	engine := generate.New(completer, engineOpts...)

	corpus := study.SourceCorpus{
		Text:         text,
		Title:        title,
		Documents:    documentRefs(opts.documentIDs),
		CollectionID: opts.collectionID,
	}

	// === GENERATION ===

	result, err := engine.Generate(ctx, corpus, mode, target)
	if err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode result: %w", err)
	}
	body = append(body, '\n')

	if toStdout {
		if _, err := env.Stdout.Write(body); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if err := writeFileAtomic(output, body); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done in %s: %d flashcards, %d quiz items, %s, session %s (model: %s)\n",
		format.Elapsed(env.Now().Sub(start)), len(result.Flashcards), len(result.Quiz),
		format.Tokens(result.TotalTokens), format.Minutes(result.Metadata.RecommendedSessionLength), result.Model)
	if !toStdout {
		fmt.Fprintf(env.Stderr, "Wrote %s (%s)\n", output, format.Size(int64(len(body))))
	}
	if n := len(result.Flashcards); n < target.Flashcards {
		fmt.Fprintf(env.Stderr, "Warning: only %d of %d flashcards could be generated\n", n, target.Flashcards)
	}
	if n := len(result.Quiz); n < target.Quiz {
		fmt.Fprintf(env.Stderr, "Warning: only %d of %d quiz items could be generated\n", n, target.Quiz)
	}
	return nil
}

// documentRefs turns --document-id values into references, skipping blanks.
func documentRefs(ids []string) []study.DocumentRef {
	refs := make([]study.DocumentRef, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			refs = append(refs, study.DocumentRef{ID: id})
		}
	}
	return refs
}

