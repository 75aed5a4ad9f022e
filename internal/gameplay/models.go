package gameplay

import (
	"time"

	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether no further mutation of the session is possible.
func (s Status) Terminal() bool { return s != StatusInProgress }

type EndReason string

const (
	ReasonFinished      EndReason = "finished"
	ReasonTooManyWrongs EndReason = "too_many_wrongs"
	ReasonUserQuit      EndReason = "user_quit"
)

// DefaultWrongLimit applies when config does not override it.
const DefaultWrongLimit = 5

const defaultAdviceSummary = "Too many incorrect answers. Review basics: backups, isolation, reporting, containment, recovery."

// Session is one user's run through a scenario. Only the engine mutates it,
// always under the per-session exclusive scope.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`

	StageIndex    int `json:"current_stage_index"`
	QuestionIndex int `json:"current_question_index"`

	Status        Status    `json:"status"`
	EndedReason   EndReason `json:"ended_reason,omitempty"`
	TotalScore    int       `json:"total_score"`
	WrongCount    int       `json:"wrong_count"`
	WrongLimit    int       `json:"wrong_limit"`
	AdviceSummary string    `json:"advice_summary,omitempty"`

	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
}

func (s *Session) end(status Status, reason EndReason) {
	now := time.Now().UTC()
	s.Status = status
	s.EndedReason = reason
	s.EndedAt = &now
}

// Position is the (stage, question) pointer into a scenario.
type Position struct {
	Stage    int `json:"stage_index"`
	Question int `json:"question_index"`
}

// CurrentQuestion is the question due at a position, with its parent stage
// context, exactly as shown to the player.
type CurrentQuestion struct {
	Topic        string            `json:"topic"`
	Position     Position          `json:"position"`
	Stage        string            `json:"stage"`
	TimeLimitSec int               `json:"time_limit_sec"`
	Question     scenario.Question `json:"question"`
}

// Answer is one append-only ledger row. Prompt and Options snapshot what
// the user was shown, so the audit record stays reproducible even if the
// scenario content changes later.
type Answer struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Stage      string `json:"stage"`
	QuestionID string `json:"question_id"`

	Prompt  string            `json:"prompt"`
	Options []scenario.Option `json:"options"`

	SelectedText string `json:"selected_text"`
	ScoreDelta   int    `json:"score_delta"`
	IsCorrect    bool   `json:"is_correct"`

	// Optional client-supplied idempotency token, unique across all answers.
	ClientAnswerID string `json:"client_answer_id,omitempty"`

	AnsweredAt time.Time `json:"answered_at"`
}
