// Package prompt builds the system and user instructions sent to the
// completion service for one generation call.
//
// Templates are keyed by language and call shape (single-shot or per-chunk)
// and parsed once at package initialization; the mode only changes how the
// source material is named.
package prompt

import (
	"fmt"
	"strings"

	"github.com/alnah/go-studygen/internal/chunk"
	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/study"
)

// Shape is the call shape a prompt is built for.
type Shape int

// Call shapes.
const (
	// Single embeds the whole corpus in one call.
	Single Shape = iota
	// PerChunk embeds one fragment and its neighbor context.
	PerChunk
)

// String returns the shape name used as template name prefix.
func (s Shape) String() string {
	if s == PerChunk {
		return "chunk"
	}
	return "single"
}

// Request describes one prompt to build.
type Request struct {
	Mode     study.Mode
	Language lang.Language
	// Title is the corpus title, optional.
	Title string
	// Chunk carries the text, position and local target.
	Chunk chunk.Chunk
}

// Shape returns PerChunk when the request covers one of several chunks.
func (r Request) Shape() Shape {
	if r.Chunk.IsSingle() {
		return Single
	}
	return PerChunk
}

// Prompt is a system/user instruction pair.
type Prompt struct {
	System string
	User   string
}

// data is the value passed to templates.
type data struct {
	Source     string
	Title      string
	Flashcards int
	Quiz       int
	Mix        Mix
	Text       string
	Leading    string
	Trailing   string
	// Index is 1-based for display.
	Index int
	Total int
}

// Build renders the prompt pair for req.
// The zero Language uses lang.Fallback.
func Build(req Request) (Prompt, error) {
	if req.Mode.IsZero() {
		return Prompt{}, fmt.Errorf("mode is required: %w", ErrInvalidRequest)
	}
	if err := req.Chunk.Target.Validate(); err != nil {
		return Prompt{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	l := req.Language.OrDefault()
	set, ok := registry[l.String()]
	if !ok {
		return Prompt{}, fmt.Errorf("no templates for language %q: %w", l, ErrInvalidRequest)
	}
	source, ok := sources[l.String()][req.Mode.String()]
	if !ok {
		return Prompt{}, fmt.Errorf("no wording for mode %q: %w", req.Mode, ErrInvalidRequest)
	}

	d := data{
		Source:     source,
		Title:      strings.TrimSpace(req.Title),
		Flashcards: req.Chunk.Target.Flashcards,
		Quiz:       req.Chunk.Target.Quiz,
		Mix:        QuizMix(req.Chunk.Target.Quiz),
		Text:       req.Chunk.Text,
		Leading:    req.Chunk.Leading,
		Trailing:   req.Chunk.Trailing,
		Index:      req.Chunk.Index + 1,
		Total:      max(req.Chunk.Total, 1),
	}

	shape := req.Shape().String()
	system, err := render(set, shape+".system", d)
	if err != nil {
		return Prompt{}, err
	}
	user, err := render(set, shape+".user", d)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: user}, nil
}

// Languages returns the codes that have a template set, in canonical order.
func Languages() []string {
	return []string{lang.French, lang.English}
}
