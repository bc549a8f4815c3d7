// Package study defines the data model shared by the generation pipeline:
// the source corpus, the quantity contract, the flashcard and quiz items
// produced by the completion service, and the per-chunk and merged results.
package study

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidTarget indicates a generation target with a field below 1.
var ErrInvalidTarget = errors.New("invalid generation target")

// DocumentRef references one source document of a corpus.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// SourceCorpus is the immutable input of a generation request.
type SourceCorpus struct {
	Text         string
	Title        string
	Documents    []DocumentRef
	CollectionID string
}

// Len returns the corpus length in characters (runes, not bytes).
func (c SourceCorpus) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// DocumentIDs returns the ids of the referenced documents.
func (c SourceCorpus) DocumentIDs() []string {
	ids := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		ids = append(ids, d.ID)
	}
	return ids
}

// Target is the exact number of items to produce, globally or for one chunk.
type Target struct {
	Flashcards int `json:"flashcards"`
	Quiz       int `json:"quiz"`
}

// Validate returns ErrInvalidTarget unless both fields are at least 1.
func (t Target) Validate() error {
	if t.Flashcards < 1 || t.Quiz < 1 {
		return fmt.Errorf("flashcards=%d quiz=%d (both must be >= 1): %w",
			t.Flashcards, t.Quiz, ErrInvalidTarget)
	}
	return nil
}

// Total returns the combined item count.
func (t Target) Total() int {
	return t.Flashcards + t.Quiz
}

// Metadata describes a generated study set.
type Metadata struct {
	Summary string `json:"summary"`
	// RecommendedSessionLength is expressed in minutes.
	RecommendedSessionLength int      `json:"recommendedSessionLength"`
	Notes                    []string `json:"notes"`
}

// Usage holds token accounting reported by the completion service.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"tokensUsed"`
}

// Add returns the field-wise sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// ChunkResult is the decoded output of one chunk's completion call.
type ChunkResult struct {
	Index      int
	Flashcards []FlashcardItem
	Quiz       []QuizItem
	Metadata   Metadata
	Usage      Usage
	Model      string
	// Attempts is the number of service calls made for this chunk.
	Attempts int
	// Rejected counts decoded items dropped because they failed validation.
	Rejected int
}

// MergedResult is the concatenated and deduplicated output of all chunks,
// before truncation to the global target.
type MergedResult struct {
	Flashcards        []FlashcardItem
	Quiz              []QuizItem
	Metadata          Metadata
	Usage             Usage
	Model             string
	DuplicatesDropped int
}

// GenerationResult is the final output handed back to the caller.
type GenerationResult struct {
	Flashcards []FlashcardItem `json:"flashcards"`
	Quiz       []QuizItem      `json:"quiz"`
	Metadata   Metadata        `json:"metadata"`
	Usage
	Model string `json:"model"`
}
