package gameplay

import "github.com/zulfa-ai/project-iris-backend/internal/scenario"

// ScoreAnswer matches selectedText against the question's options by label
// and returns the matching option's score verbatim. ErrOptionNotFound when
// no label matches. Correctness is the caller's call (delta > 0).
func ScoreAnswer(q scenario.Question, selectedText string) (int, error) {
	for _, opt := range q.Options {
		if opt.Text == selectedText {
			return opt.Score, nil
		}
	}
	return 0, ErrOptionNotFound
}
