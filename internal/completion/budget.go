package completion

import "github.com/alnah/go-studygen/internal/study"

// Token budgeting parameters.
const (
	tokensPerFlashcard = 250
	tokensPerQuizItem  = 400
	tokensOverhead     = 2000

	// MinOutputTokens is the floor of every output token budget.
	MinOutputTokens = 8000
	// DefaultMaxOutputTokens is the service ceiling used when none is configured.
	DefaultMaxOutputTokens = 16384
)

// Model upgrade thresholds: a call asking for more than this many items
// uses the upgraded model.
const (
	UpgradeFlashcards = 20
	UpgradeQuiz       = 10
)

// TokenBudget returns the output token budget for a call producing target:
// 250 per flashcard plus 400 per quiz item plus 2000, clamped to
// [MinOutputTokens, serviceMax]. A serviceMax below the floor wins.
func TokenBudget(target study.Target, serviceMax int) int {
	if serviceMax <= 0 {
		serviceMax = DefaultMaxOutputTokens
	}
	n := target.Flashcards*tokensPerFlashcard + target.Quiz*tokensPerQuizItem + tokensOverhead
	n = max(n, MinOutputTokens)
	return min(n, serviceMax)
}

// NeedsUpgrade reports whether target exceeds the default model's comfort zone.
func NeedsUpgrade(target study.Target) bool {
	return target.Flashcards > UpgradeFlashcards || target.Quiz > UpgradeQuiz
}
