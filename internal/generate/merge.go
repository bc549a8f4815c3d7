package generate

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/alnah/go-studygen/internal/study"
)

// sessionMinutesPerItem drives the default recommended session length.
const sessionMinutesPerItem = 1.5

// Concat joins chunk results in chunk-index order, summing usage.
// The summary comes from the first chunk that has one, the session length
// from the first chunk; notes are concatenated and models listed once each.
func Concat(results []study.ChunkResult) study.MergedResult {
	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(a, b study.ChunkResult) int { return a.Index - b.Index })

	var m study.MergedResult
	var models []string
	for i, r := range ordered {
		m.Flashcards = append(m.Flashcards, r.Flashcards...)
		m.Quiz = append(m.Quiz, r.Quiz...)
		m.Usage = m.Usage.Add(r.Usage)
		if m.Metadata.Summary == "" {
			m.Metadata.Summary = r.Metadata.Summary
		}
		if i == 0 {
			m.Metadata.RecommendedSessionLength = r.Metadata.RecommendedSessionLength
		}
		m.Metadata.Notes = append(m.Metadata.Notes, r.Metadata.Notes...)
		if r.Model != "" && !slices.Contains(models, r.Model) {
			models = append(models, r.Model)
		}
	}
	m.Model = strings.Join(models, ",")
	return m
}

// Deduplicate drops flashcards with an already-seen normalized question and
// quiz items with an already-seen normalized prompt. First occurrence wins.
// Paraphrases are not detected.
func Deduplicate(m study.MergedResult) study.MergedResult {
	var droppedCards, droppedQuiz int
	m.Flashcards, droppedCards = dedupe(m.Flashcards, func(f study.FlashcardItem) string { return f.Question })
	m.Quiz, droppedQuiz = dedupe(m.Quiz, func(q study.QuizItem) string { return q.Prompt })
	m.DuplicatesDropped += droppedCards + droppedQuiz
	return m
}

func dedupe[T any](items []T, text func(T) string) ([]T, int) {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		key := NormalizeKey(text(it))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out, len(items) - len(out)
}

// NormalizeKey lowercases s, removes punctuation and collapses whitespace.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsPunct(r):
			continue
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Finalize truncates m to target, fills default metadata and makes quiz ids
// unique. The default session length is ceil((flashcards+quiz)*1.5) minutes
// of the global target.
func Finalize(m study.MergedResult, target study.Target) study.GenerationResult {
	cards := m.Flashcards[:min(len(m.Flashcards), target.Flashcards)]
	quiz := m.Quiz[:min(len(m.Quiz), target.Quiz)]

	meta := m.Metadata
	if meta.RecommendedSessionLength <= 0 {
		meta.RecommendedSessionLength = int(math.Ceil(float64(target.Total()) * sessionMinutesPerItem))
	}
	if meta.Notes == nil {
		meta.Notes = []string{}
	}

	return study.GenerationResult{
		Flashcards: nonNil(slices.Clone(cards)),
		Quiz:       repairIDs(slices.Clone(quiz)),
		Metadata:   meta,
		Usage:      m.Usage,
		Model:      m.Model,
	}
}

// repairIDs replaces empty or repeated quiz ids with fresh UUIDs.
func repairIDs(quiz []study.QuizItem) []study.QuizItem {
	seen := make(map[string]bool, len(quiz))
	for i := range quiz {
		if quiz[i].ID == "" || seen[quiz[i].ID] {
			quiz[i].ID = uuid.NewString()
		}
		seen[quiz[i].ID] = true
	}
	return nonNil(quiz)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
