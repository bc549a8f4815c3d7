// Package generate turns a corpus into an exact quota of flashcards and quiz
// items: it chunks the corpus, fans one completion call out per chunk on a
// bounded pool, then merges, deduplicates and truncates the results.
package generate

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/chunk"
	"github.com/alnah/go-studygen/internal/completion"
	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/logger"
	"github.com/alnah/go-studygen/internal/study"
)

// DefaultConcurrency is the number of chunk calls in flight at once.
const DefaultConcurrency = 5

const tracerName = "github.com/alnah/go-studygen/internal/generate"

// Engine runs generation requests. Safe for concurrent use.
type Engine struct {
	completer   completion.Completer
	detector    lang.Detector
	language    lang.Language
	concurrency int
	chunkOpts   chunk.Options
	progress    ProgressFunc
	log         *logger.Logger
	tracer      trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguage forces the prompt and message language, bypassing detection.
func WithLanguage(l lang.Language) Option {
	return func(e *Engine) {
		e.language = l
	}
}

// WithDetector replaces the language detector.
func WithDetector(d lang.Detector) Option {
	return func(e *Engine) {
		if d != nil {
			e.detector = d
		}
	}
}

// WithConcurrency bounds the number of concurrent chunk calls.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithChunkOptions sets the chunking parameters.
func WithChunkOptions(o chunk.Options) Option {
	return func(e *Engine) {
		e.chunkOpts = o
	}
}

// WithProgress registers a state transition callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.log = l.OrNop()
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates an Engine that sends its calls to c.
func New(c completion.Completer, opts ...Option) *Engine {
	e := &Engine{
		completer:   c,
		detector:    lang.StopWordDetector{},
		concurrency: DefaultConcurrency,
		log:         logger.Nop(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// request carries the per-call state shared by chunk workers.
type request struct {
	corpus   study.SourceCorpus
	mode     study.Mode
	target   study.Target
	language lang.Language
	events   *emitter
}

// errContext returns the diagnostic context of the request.
func (r *request) errContext() apierr.Context {
	return apierr.Context{
		Mode:         r.mode.String(),
		DocumentIDs:  r.corpus.DocumentIDs(),
		CollectionID: r.corpus.CollectionID,
	}
}

// Generate produces exactly target.Flashcards flashcards and target.Quiz
// quiz items from corpus, fewer only when the service returned fewer
// distinct valid items. Any chunk failure fails the whole request.
// Errors are *apierr.StructuredError.
func (e *Engine) Generate(ctx context.Context, corpus study.SourceCorpus, mode study.Mode, target study.Target) (study.GenerationResult, error) {
	req := &request{
		corpus: corpus,
		mode:   mode,
		target: target,
		events: &emitter{fn: e.progress},
	}
	req.language = e.language
	if req.language.IsZero() {
		req.language = e.detector.Detect(corpus.Text)
	}
	req.events.emit(Event{State: StateReceived, Chunk: -1})

	ctx, span := e.tracer.Start(ctx, "generate.Generate", trace.WithAttributes(
		attribute.String("generate.mode", mode.String()),
		attribute.String("generate.language", req.language.String()),
		attribute.Int("generate.corpus_chars", corpus.Len()),
		attribute.Int("generate.target.flashcards", target.Flashcards),
		attribute.Int("generate.target.quiz", target.Quiz),
	))
	defer span.End()

	result, err := e.generate(ctx, req)
	if err != nil {
		se := apierr.Classify(err, req.language).WithContext(req.errContext())
		span.RecordError(se)
		span.SetStatus(codes.Error, string(se.Kind))
		e.log.Error("generation failed",
			"kind", se.Kind,
			"retryable", se.Retryable,
			"diagnostic", se.Error())
		req.events.emit(Event{State: StateFailed, Chunk: -1, Err: se})
		return study.GenerationResult{}, se
	}

	span.SetAttributes(attribute.Int("generate.tokens_used", result.TotalTokens))
	req.events.emit(Event{State: StateDone, Chunk: -1})
	return result, nil
}

func (e *Engine) generate(ctx context.Context, req *request) (study.GenerationResult, error) {
	if err := validate(req); err != nil {
		return study.GenerationResult{}, apierr.New(apierr.KindInvalidRequest, req.language, err)
	}

	req.events.emit(Event{State: StateChunking, Chunk: -1})
	chunks, err := chunk.Split(req.corpus.Text, req.target, e.chunkOpts)
	if err != nil {
		return study.GenerationResult{}, apierr.New(apierr.KindInvalidRequest, req.language, err)
	}
	e.log.Info("corpus chunked",
		"mode", req.mode.String(),
		"language", req.language.String(),
		"chars", req.corpus.Len(),
		"chunks", len(chunks),
		"flashcards", req.target.Flashcards,
		"quiz", req.target.Quiz)

	results, err := e.runChunks(ctx, req, chunks)
	if err != nil {
		return study.GenerationResult{}, err
	}

	req.events.emit(Event{State: StateMerging, Chunk: -1, Total: len(chunks)})
	merged := Concat(results)
	req.events.emit(Event{State: StateDeduplicating, Chunk: -1, Total: len(chunks)})
	merged = Deduplicate(merged)
	final := Finalize(merged, req.target)

	e.log.Info("generation merged",
		"chunks", len(chunks),
		"duplicates_dropped", merged.DuplicatesDropped,
		"flashcards_truncated", len(merged.Flashcards)-len(final.Flashcards),
		"quiz_truncated", len(merged.Quiz)-len(final.Quiz),
		"flashcards", len(final.Flashcards),
		"quiz", len(final.Quiz),
		"prompt_tokens", final.PromptTokens,
		"completion_tokens", final.CompletionTokens,
		"total_tokens", final.TotalTokens,
		"model", final.Model)
	return final, nil
}

// validate checks what the calling layer is expected to have validated.
func validate(req *request) error {
	if req.mode.IsZero() {
		return fmt.Errorf("mode is required: %w", study.ErrInvalidMode)
	}
	if err := req.target.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(req.corpus.Text) == "" {
		return ErrEmptyCorpus
	}
	return nil
}
