package generate

import "github.com/alnah/go-studygen/internal/study"

// Decoded mirrors decoded for black-box tests.
type Decoded struct {
	Flashcards []study.FlashcardItem
	Quiz       []study.QuizItem
	Metadata   study.Metadata
	Rejected   int
}

// DecodeResponse exposes decodeResponse.
func DecodeResponse(text string) (Decoded, error) {
	d, err := decodeResponse(text)
	return Decoded{
		Flashcards: d.Flashcards,
		Quiz:       d.Quiz,
		Metadata:   d.Metadata,
		Rejected:   len(d.Rejections),
	}, err
}

// UnwrapFence exposes unwrapFence.
var UnwrapFence = unwrapFence
