package generate_test

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alnah/go-studygen/internal/completion"
	"github.com/alnah/go-studygen/internal/generate"
	"github.com/alnah/go-studygen/internal/study"
)

// fragmentRe finds the fragment position in an English or French chunk prompt.
var fragmentRe = regexp.MustCompile(`Fragment (\d+) (?:of|sur) (\d+)`)

// chunkIndex returns the 0-based chunk index a call is for (0 for single-shot).
func chunkIndex(call completion.Call) int {
	m := fragmentRe.FindStringSubmatch(call.User)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n - 1
}

// fakeCompleter answers every call with respond(call). It honors Accept
// the way completion.Client does and records concurrency.
type fakeCompleter struct {
	respond func(call completion.Call) (string, error)
	delay   time.Duration

	mu       sync.Mutex
	calls    []completion.Call
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeCompleter) Complete(ctx context.Context, call completion.Call) (completion.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return completion.Result{Attempts: 1}, ctx.Err()
		}
	}

	text, err := f.respond(call)
	if err != nil {
		return completion.Result{Attempts: 1}, err
	}
	resp := completion.Response{
		Text:  text,
		Model: "fake-model",
		Usage: study.Usage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
	}
	if call.Accept != nil {
		if err := call.Accept(resp); err != nil {
			return completion.Result{Attempts: 1}, err
		}
	}
	return completion.Result{Response: resp, Attempts: 1}, nil
}

func (f *fakeCompleter) Calls() []completion.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]completion.Call(nil), f.calls...)
}

// itemsJSON renders a valid response with the given flashcard questions and
// quiz prompts (completion questions).
func itemsJSON(questions, prompts []string, summary string) string {
	type out struct {
		Flashcards []study.FlashcardItem `json:"flashcards"`
		Quiz       []study.QuizItem      `json:"quiz"`
		Metadata   study.Metadata        `json:"metadata"`
	}
	var o out
	for _, q := range questions {
		o.Flashcards = append(o.Flashcards, study.FlashcardItem{Question: q, Answer: "answer to " + q, Tags: []string{"t"}})
	}
	for i, p := range prompts {
		o.Quiz = append(o.Quiz, study.QuizItem{
			ID:     fmt.Sprintf("q%d", i+1),
			Type:   study.Completion,
			Prompt: p,
			Answer: "x",
		})
	}
	o.Metadata = study.Metadata{Summary: summary, Notes: []string{"note " + summary}}
	raw, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// targetItems answers each call with exactly its target, numbered by chunk.
func targetItems(call completion.Call) (string, error) {
	i := chunkIndex(call)
	var qs, ps []string
	for n := range call.Target.Flashcards {
		qs = append(qs, fmt.Sprintf("Chunk %d question %d?", i, n))
	}
	for n := range call.Target.Quiz {
		ps = append(ps, fmt.Sprintf("Chunk %d prompt %d ___", i, n))
	}
	return itemsJSON(qs, ps, fmt.Sprintf("summary %d", i)), nil
}

// recorder collects progress events.
type recorder struct {
	mu     sync.Mutex
	events []generate.Event
}

func (r *recorder) record(ev generate.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) States() []generate.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]generate.State, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.State
	}
	return out
}

func (r *recorder) Events() []generate.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]generate.Event(nil), r.events...)
}
