package prompt_test

// Notes:
// - Prompts are natural language; tests assert on the contract-bearing
//   fragments (counts, type mix, markers, JSON field names), not on wording.

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-studygen/internal/chunk"
	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/prompt"
	"github.com/alnah/go-studygen/internal/study"
)

func singleChunk(text string, f, q int) chunk.Chunk {
	return chunk.Chunk{Text: text, Index: 0, Total: 1, Target: study.Target{Flashcards: f, Quiz: q}}
}

// ---------------------------------------------------------------------------
// TestQuizMix
// ---------------------------------------------------------------------------

func TestQuizMix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want prompt.Mix
	}{
		{n: 1, want: prompt.Mix{MultipleChoice: 1}},
		{n: 4, want: prompt.Mix{MultipleChoice: 4}},
		{n: 5, want: prompt.Mix{MultipleChoice: 3, TrueFalse: 1, Completion: 1}},
		{n: 15, want: prompt.Mix{MultipleChoice: 13, TrueFalse: 1, Completion: 1}},
	}

	for _, tt := range tests {
		got := prompt.QuizMix(tt.n)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
		assert.Equal(t, tt.n, got.MultipleChoice+got.TrueFalse+got.Completion)
	}
}

// ---------------------------------------------------------------------------
// TestBuild
// ---------------------------------------------------------------------------

func TestBuild_SingleShot(t *testing.T) {
	t.Parallel()

	p, err := prompt.Build(prompt.Request{
		Mode:     study.DocumentMode,
		Language: lang.EnglishLanguage,
		Title:    "Thermodynamics",
		Chunk:    singleChunk("Heat flows from hot to cold.", 16, 9),
	})
	require.NoError(t, err)

	assert.Contains(t, p.System, "EXACTLY 16 flashcards")
	assert.Contains(t, p.System, "EXACTLY 9 quiz questions")
	assert.Contains(t, p.System, "7 multiple_choice, 1 true_false, 1 completion")
	assert.Contains(t, p.System, "a single document")
	assert.Contains(t, p.System, "$$...$$")
	for _, field := range []string{`"flashcards"`, `"quiz"`, `"metadata"`, `"recommendedSessionLength"`} {
		assert.Contains(t, p.System, field)
	}
	assert.NotContains(t, p.System, "fragment")

	assert.Contains(t, p.User, "Title: Thermodynamics")
	assert.Contains(t, p.User, "Heat flows from hot to cold.")
	assert.NotContains(t, p.User, "Fragment")
	assert.Equal(t, prompt.Single, prompt.Request{Chunk: singleChunk("x", 1, 1)}.Shape())
}

func TestBuild_PerChunk(t *testing.T) {
	t.Parallel()

	c := chunk.Chunk{
		Text:     "PRIMARY BODY",
		Leading:  "tail of previous",
		Trailing: "head of next",
		Index:    1,
		Total:    3,
		Target:   study.Target{Flashcards: 10, Quiz: 3},
	}
	req := prompt.Request{Mode: study.CollectionMode, Language: lang.EnglishLanguage, Chunk: c}
	require.Equal(t, prompt.PerChunk, req.Shape())

	p, err := prompt.Build(req)
	require.NoError(t, err)

	assert.Contains(t, p.System, "fragment 2 of 3")
	assert.Contains(t, p.System, "Use ONLY the content of this fragment")
	assert.Contains(t, p.System, "redundant across fragments")
	assert.Contains(t, p.System, "3 multiple_choice.")
	assert.NotContains(t, p.System, "true_false,")

	prev := strings.Index(p.User, "[CONTEXT FROM PREVIOUS FRAGMENT]")
	body := strings.Index(p.User, "PRIMARY BODY")
	next := strings.Index(p.User, "[CONTEXT FROM NEXT FRAGMENT]")
	require.True(t, prev >= 0 && body >= 0 && next >= 0, p.User)
	assert.Less(t, prev, body)
	assert.Less(t, body, next)
	assert.Contains(t, p.User, "tail of previous")
	assert.Contains(t, p.User, "head of next")
}

func TestBuild_FirstChunkHasNoLeadingContext(t *testing.T) {
	t.Parallel()

	p, err := prompt.Build(prompt.Request{
		Mode:     study.SubjectMode,
		Language: lang.FrenchLanguage,
		Chunk: chunk.Chunk{Text: "corps", Trailing: "suite", Index: 0, Total: 2,
			Target: study.Target{Flashcards: 5, Quiz: 5}},
	})
	require.NoError(t, err)

	assert.NotContains(t, p.User, "[CONTEXTE DU FRAGMENT PRÉCÉDENT]")
	assert.Contains(t, p.User, "[CONTEXTE DU FRAGMENT SUIVANT]")
	assert.Contains(t, p.System, "fragment 1 sur 2")
	assert.Contains(t, p.System, "EXACTEMENT 5 flashcards")
	assert.Contains(t, p.System, "3 multiple_choice, 1 true_false, 1 completion")
	assert.Contains(t, p.System, "d'une matière")
}

func TestBuild_ZeroLanguageUsesFallback(t *testing.T) {
	t.Parallel()

	req := prompt.Request{Mode: study.DocumentMode, Chunk: singleChunk("texte", 2, 2)}
	got, err := prompt.Build(req)
	require.NoError(t, err)

	req.Language = lang.Fallback
	want, err := prompt.Build(req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBuild_EveryModeAndLanguage(t *testing.T) {
	t.Parallel()

	for _, m := range study.Modes() {
		for _, code := range prompt.Languages() {
			p, err := prompt.Build(prompt.Request{
				Mode:     study.MustParseMode(m),
				Language: lang.MustParse(code),
				Chunk:    singleChunk("text", 1, 1),
			})
			require.NoError(t, err, "%s/%s", m, code)
			assert.NotEmpty(t, p.System)
			assert.NotEmpty(t, p.User)
			assert.NotContains(t, p.System, "<no value>")
			assert.NotContains(t, p.User, "<no value>")
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  prompt.Request
	}{
		{name: "zero mode", req: prompt.Request{Chunk: singleChunk("x", 1, 1)}},
		{name: "zero flashcards", req: prompt.Request{Mode: study.DocumentMode, Chunk: singleChunk("x", 0, 1)}},
		{name: "zero quiz", req: prompt.Request{Mode: study.DocumentMode, Chunk: singleChunk("x", 1, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := prompt.Build(tt.req)
			require.ErrorIs(t, err, prompt.ErrInvalidRequest)
		})
	}
}
