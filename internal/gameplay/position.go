package gameplay

import "github.com/zulfa-ai/project-iris-backend/internal/scenario"

// ResolveCurrent returns the question due at pos, or nil when pos lies past
// the end of the scenario (or past the end of its stage). A nil result for
// an in-progress session means the run is finished; it is never an error.
func ResolveCurrent(scn *scenario.Scenario, pos Position) *CurrentQuestion {
	if pos.Stage < 0 || pos.Stage >= len(scn.Stages) {
		return nil
	}
	stage := scn.Stages[pos.Stage]
	if pos.Question < 0 || pos.Question >= len(stage.Questions) {
		return nil
	}
	return &CurrentQuestion{
		Topic:        scn.Topic,
		Position:     pos,
		Stage:        stage.Name,
		TimeLimitSec: stage.TimeLimitSec,
		Question:     stage.Questions[pos.Question],
	}
}

// Advance computes the next position: question_index+1, rolling over to the
// next stage when the current stage's questions are exhausted. Exactly one
// stage transition per call; a following stage with zero questions is not
// skipped here — resolving it yields nil and the caller treats the run as
// finished.
func Advance(scn *scenario.Scenario, pos Position) Position {
	next := Position{Stage: pos.Stage, Question: pos.Question + 1}
	if next.Stage >= 0 && next.Stage < len(scn.Stages) {
		if next.Question >= len(scn.Stages[next.Stage].Questions) {
			next.Stage++
			next.Question = 0
		}
	}
	return next
}
