package prompt

// minMixedQuiz is the quiz count from which the mix must include at least
// one true_false and one completion question.
const minMixedQuiz = 5

// Mix is the breakdown of a quiz count by question type.
type Mix struct {
	MultipleChoice int
	TrueFalse      int
	Completion     int
}

// QuizMix returns the question-type breakdown requested for n quiz items:
// one true_false and one completion when n >= 5, multiple_choice otherwise.
func QuizMix(n int) Mix {
	if n < minMixedQuiz {
		return Mix{MultipleChoice: max(n, 0)}
	}
	return Mix{MultipleChoice: n - 2, TrueFalse: 1, Completion: 1}
}
