package generate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/alnah/go-studygen/internal/apierr"
	"github.com/alnah/go-studygen/internal/study"
)

// payload is the JSON object the model is asked to return.
type payload struct {
	Flashcards []study.FlashcardItem `json:"flashcards"`
	Quiz       []study.QuizItem      `json:"quiz"`
	Metadata   rawMetadata           `json:"metadata"`
}

// rawMetadata tolerates a session length written as a number or a string.
type rawMetadata struct {
	Summary                  string   `json:"summary"`
	RecommendedSessionLength any      `json:"recommendedSessionLength"`
	Notes                    []string `json:"notes"`
}

// decoded is the validated content of one chunk response.
type decoded struct {
	Flashcards []study.FlashcardItem
	Quiz       []study.QuizItem
	Metadata   study.Metadata
	// Rejections holds one validation error per dropped item.
	Rejections []error
}

// decodeResponse parses a model answer into validated items.
// Invalid items are dropped and reported in Rejections. The error wraps
// apierr.ErrUnparsable when the text is not a JSON object or holds no
// valid item at all.
func decodeResponse(text string) (decoded, error) {
	body := unwrapFence(text)
	if !strings.HasPrefix(body, "{") {
		return decoded{}, fmt.Errorf("response is not a JSON object: %w", apierr.ErrUnparsable)
	}

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return decoded{}, fmt.Errorf("decode response: %w: %w", apierr.ErrUnparsable, err)
	}

	var out decoded
	for i, f := range p.Flashcards {
		f = f.Normalize()
		if err := f.Validate(); err != nil {
			out.Rejections = append(out.Rejections, fmt.Errorf("flashcard %d: %w", i, err))
			continue
		}
		out.Flashcards = append(out.Flashcards, f)
	}
	for i, q := range p.Quiz {
		q = q.Normalize()
		if err := q.Validate(); err != nil {
			out.Rejections = append(out.Rejections, fmt.Errorf("quiz %d: %w", i, err))
			continue
		}
		out.Quiz = append(out.Quiz, q)
	}

	if len(out.Flashcards) == 0 && len(out.Quiz) == 0 {
		return out, fmt.Errorf("no valid item in response (%d rejected): %w",
			len(out.Rejections), apierr.ErrUnparsable)
	}

	out.Metadata = study.Metadata{
		Summary:                  strings.TrimSpace(p.Metadata.Summary),
		RecommendedSessionLength: minutes(p.Metadata.RecommendedSessionLength),
		Notes:                    cleanNotes(p.Metadata.Notes),
	}
	return out, nil
}

// unwrapFence strips a surrounding markdown code fence (```json ... ```).
func unwrapFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json") up to the end of the first line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimLeftFunc(s, unicode.IsLetter)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// minutes converts a decoded session length to whole minutes; 0 if unusable.
func minutes(v any) int {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return int(math.Ceil(t))
		}
	case string:
		digits := strings.TrimSpace(t)
		if end := strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }); end >= 0 {
			digits = digits[:end]
		}
		if n, err := strconv.Atoi(digits); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func cleanNotes(notes []string) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
