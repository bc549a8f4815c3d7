package study

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Item validation errors.
var (
	// ErrInvalidItem indicates a generated item violates the data model.
	ErrInvalidItem = errors.New("invalid study item")

	// ErrAnswerNotInOptions indicates a multiple_choice answer missing from its options.
	ErrAnswerNotInOptions = errors.New("answer is not one of the options")
)

// QuizType is the kind of a quiz question.
type QuizType string

// Quiz question kinds.
const (
	MultipleChoice QuizType = "multiple_choice"
	TrueFalse      QuizType = "true_false"
	Completion     QuizType = "completion"
)

// FlashcardItem is a question/answer card.
type FlashcardItem struct {
	Question string   `json:"question" validate:"required"`
	Answer   string   `json:"answer" validate:"required"`
	Tags     []string `json:"tags"`
}

// QuizItem is a quiz question. For multiple_choice, Answer must be one of Options.
type QuizItem struct {
	ID          string   `json:"id"`
	Type        QuizType `json:"type" validate:"required,oneof=multiple_choice true_false completion"`
	Prompt      string   `json:"prompt" validate:"required"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer" validate:"required"`
	Explanation string   `json:"explanation"`
	Tags        []string `json:"tags"`
}

// minChoiceOptions is the smallest option list a multiple_choice question may carry.
const minChoiceOptions = 2

// trueFalseAnswers is the accepted vocabulary for true_false answers (both languages).
var trueFalseAnswers = []string{"true", "false", "vrai", "faux"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims whitespace from every text field and cleans the tag list
// (trimmed, empty entries removed, duplicates removed preserving order).
func (f FlashcardItem) Normalize() FlashcardItem {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	f.Tags = cleanTags(f.Tags)
	return f
}

// Validate checks required fields.
func (f FlashcardItem) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("flashcard: %w: %v", ErrInvalidItem, err)
	}
	return nil
}

// Normalize trims whitespace from every text field and cleans options and tags.
func (q QuizItem) Normalize() QuizItem {
	q.ID = strings.TrimSpace(q.ID)
	q.Type = QuizType(strings.ToLower(strings.TrimSpace(string(q.Type))))
	q.Prompt = strings.TrimSpace(q.Prompt)
	q.Answer = strings.TrimSpace(q.Answer)
	q.Explanation = strings.TrimSpace(q.Explanation)
	if q.Options != nil {
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		q.Options = opts
	}
	q.Tags = cleanTags(q.Tags)
	return q
}

// Validate checks required fields and the per-type invariants:
// multiple_choice needs at least two options containing the answer,
// true_false needs a true/false answer.
func (q QuizItem) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("quiz item %q: %w: %v", q.ID, ErrInvalidItem, err)
	}

	switch q.Type {
	case MultipleChoice:
		if len(q.Options) < minChoiceOptions {
			return fmt.Errorf("quiz item %q: %w: multiple_choice needs at least %d options, got %d",
				q.ID, ErrInvalidItem, minChoiceOptions, len(q.Options))
		}
		if !slices.Contains(q.Options, q.Answer) {
			return fmt.Errorf("quiz item %q: %w: %w", q.ID, ErrInvalidItem, ErrAnswerNotInOptions)
		}
	case TrueFalse:
		if !slices.Contains(trueFalseAnswers, strings.ToLower(q.Answer)) {
			return fmt.Errorf("quiz item %q: %w: true_false answer must be true or false", q.ID, ErrInvalidItem)
		}
	}
	return nil
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
