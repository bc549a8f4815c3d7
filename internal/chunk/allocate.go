package chunk

import (
	"fmt"

	"github.com/alnah/go-studygen/internal/study"
)

// Allocate distributes target across chunks proportionally to sizes.
//
// Each share starts as floor(total*size/sum), clamped to at least 1. The
// rounding error is then settled one unit at a time: a positive remainder
// goes to the chunk with the largest allocation, a negative one is taken
// from the largest allocation above 1. Ties go to the lowest index.
// The returned targets sum exactly to target and every field is >= 1.
//
// Returns ErrTargetTooSmall when a target field is below len(sizes).
func Allocate(target study.Target, sizes []int) ([]study.Target, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if len(sizes) == 0 {
		return nil, nil
	}
	if target.Flashcards < len(sizes) || target.Quiz < len(sizes) {
		return nil, fmt.Errorf("flashcards=%d quiz=%d across %d chunks: %w",
			target.Flashcards, target.Quiz, len(sizes), ErrTargetTooSmall)
	}

	flashcards := allocate(target.Flashcards, sizes)
	quiz := allocate(target.Quiz, sizes)

	out := make([]study.Target, len(sizes))
	for i := range sizes {
		out[i] = study.Target{Flashcards: flashcards[i], Quiz: quiz[i]}
	}
	return out, nil
}

// allocate splits total across sizes. Requires total >= len(sizes).
func allocate(total int, sizes []int) []int {
	sum := 0
	for _, s := range sizes {
		sum += s
	}

	shares := make([]int, len(sizes))
	assigned := 0
	for i, s := range sizes {
		share := 0
		if sum > 0 {
			share = total * s / sum
		}
		shares[i] = max(1, share)
		assigned += shares[i]
	}

	for assigned < total {
		shares[largest(shares, 0)]++
		assigned++
	}
	for assigned > total {
		i := largest(shares, 1)
		if i < 0 {
			break
		}
		shares[i]--
		assigned--
	}
	return shares
}

// largest returns the index of the largest value strictly greater than
// above, or -1 if there is none. Ties resolve to the lowest index.
func largest(values []int, above int) int {
	best := -1
	for i, v := range values {
		if v > above && (best < 0 || v > values[best]) {
			best = i
		}
	}
	return best
}
