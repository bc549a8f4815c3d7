package generate

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/chunk"
	"github.com/alnah/go-studygen/internal/completion"
	"github.com/alnah/go-studygen/internal/prompt"
	"github.com/alnah/go-studygen/internal/study"
)

// runChunks processes every chunk concurrently, at most e.concurrency at a
// time. Results are indexed by chunk. The first failure cancels the calls
// still in flight and is the error returned; later failures are discarded.
func (e *Engine) runChunks(ctx context.Context, req *request, chunks []chunk.Chunk) ([]study.ChunkResult, error) {
	results := make([]study.ChunkResult, len(chunks))
	sem := semaphore.NewWeighted(int64(e.concurrency))

	g, gctx := errgroup.WithContext(ctx)

	for i, c := range chunks {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res, err := e.processChunk(gctx, req, c)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// processChunk builds the prompt for c, calls the service and decodes the answer.
func (e *Engine) processChunk(ctx context.Context, req *request, c chunk.Chunk) (study.ChunkResult, error) {
	ctx, span := e.tracer.Start(ctx, "generate.chunk", trace.WithAttributes(
		attribute.Int("chunk.index", c.Index),
		attribute.Int("chunk.total", c.Total),
		attribute.Int("chunk.target.flashcards", c.Target.Flashcards),
		attribute.Int("chunk.target.quiz", c.Target.Quiz),
	))
	defer span.End()

	log := e.log.With("chunk", c.Index+1, "chunks", c.Total)
	chunkCtx := req.errContext()
	chunkCtx.ChunkIndex, chunkCtx.ChunkTotal = c.Index, c.Total

	fail := func(se *apierr.StructuredError) (study.ChunkResult, error) {
		se = se.WithContext(chunkCtx)
		span.RecordError(se)
		span.SetStatus(codes.Error, string(se.Kind))
		// Siblings cancelled by an earlier failure are not worth a warning.
		if !errors.Is(se, context.Canceled) {
			log.Warn("chunk failed", "kind", se.Kind, "diagnostic", se.Error())
		}
		req.events.emit(Event{State: StateChunkFailed, Chunk: c.Index, Total: c.Total, Err: se})
		return study.ChunkResult{}, se
	}

	req.events.emit(Event{State: StatePrompting, Chunk: c.Index, Total: c.Total})
	p, err := prompt.Build(prompt.Request{
		Mode:     req.mode,
		Language: req.language,
		Title:    req.corpus.Title,
		Chunk:    c,
	})
	if err != nil {
		return fail(apierr.New(apierr.KindInvalidRequest, req.language, err))
	}

	req.events.emit(Event{State: StateRequesting, Chunk: c.Index, Total: c.Total, Attempt: 1})
	var d decoded
	accepted := false
	res, err := e.completer.Complete(ctx, completion.Call{
		System:   p.System,
		User:     p.User,
		Target:   c.Target,
		Language: req.language,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			req.events.emit(Event{State: StateRetrying, Chunk: c.Index, Total: c.Total, Attempt: attempt, Delay: delay, Err: err})
		},
		Accept: func(r completion.Response) error {
			var derr error
			d, derr = decodeResponse(r.Text)
			accepted = derr == nil
			return derr
		},
	})
	if err == nil && !accepted {
		d, err = decodeResponse(res.Text)
	}
	if err != nil {
		se := apierr.Classify(err, req.language)
		if se.Context.Attempts == 0 {
			se = se.WithContext(apierr.Context{Attempts: max(res.Attempts, 1)})
		}
		return fail(se)
	}

	for _, rej := range d.Rejections {
		log.Warn("generated item rejected", "error", rej)
	}

	span.SetAttributes(
		attribute.Int("chunk.attempts", res.Attempts),
		attribute.Int("chunk.rejected", len(d.Rejections)),
		attribute.Bool("chunk.cached", res.Cached),
	)
	log.Debug("chunk done",
		"attempts", res.Attempts,
		"cached", res.Cached,
		"flashcards", len(d.Flashcards),
		"quiz", len(d.Quiz),
		"rejected", len(d.Rejections),
		"total_tokens", res.Usage.TotalTokens)
	req.events.emit(Event{State: StateChunkDone, Chunk: c.Index, Total: c.Total, Attempt: res.Attempts})

	return study.ChunkResult{
		Index:      c.Index,
		Flashcards: d.Flashcards,
		Quiz:       d.Quiz,
		Metadata:   d.Metadata,
		Usage:      res.Usage,
		Model:      res.Model,
		Attempts:   res.Attempts,
		Rejected:   len(d.Rejections),
	}, nil
}
