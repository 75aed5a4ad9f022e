package gameplay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

// Engine is the session state machine. It owns every session mutation and
// serializes them per session id: the key lock plus the store's exclusive
// update make submit/quit on one session single-writer, while different
// sessions never block each other.
type Engine struct {
	provider   scenario.Provider
	store      Store
	locks      *keyLock
	wrongLimit int
	log        zerolog.Logger
}

func NewEngine(provider scenario.Provider, store Store, wrongLimit int, log zerolog.Logger) *Engine {
	if wrongLimit <= 0 {
		wrongLimit = DefaultWrongLimit
	}
	return &Engine{
		provider:   provider,
		store:      store,
		locks:      newKeyLock(),
		wrongLimit: wrongLimit,
		log:        log.With().Str("component", "gameplay").Logger(),
	}
}

// StartResult is the session snapshot plus the due question (nil when the
// scenario is empty or the stored position is already past the end).
type StartResult struct {
	Resumed bool             `json:"resumed"`
	Session *Session         `json:"session"`
	Current *CurrentQuestion `json:"current"`
}

// StartOrResume resumes the newest in_progress session for (user, topic) or
// creates one at position (0,0).
func (e *Engine) StartOrResume(ctx context.Context, userID, topic string) (*StartResult, error) {
	if topic == "" {
		return nil, ErrTopicRequired
	}
	scn, err := e.provider.Load(ctx, topic)
	if err != nil {
		return nil, err
	}

	sess, err := e.store.FindActiveByUserTopic(ctx, userID, topic)
	if err != nil {
		return nil, err
	}
	resumed := sess != nil
	if sess == nil {
		sess, err = e.store.Create(ctx, userID, topic, e.wrongLimit)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		e.log.Info().Str("session_id", sess.ID).Str("topic", topic).Msg("session started")
	}

	cur := ResolveCurrent(scn, Position{Stage: sess.StageIndex, Question: sess.QuestionIndex})
	return &StartResult{Resumed: resumed, Session: sess, Current: cur}, nil
}

// StateResult is what Current returns.
type StateResult struct {
	Session *Session         `json:"session"`
	Current *CurrentQuestion `json:"current"`
}

// Current resolves the due question at the stored position. If the session
// is still in_progress but nothing resolves, the position is stale and the
// session is repaired to completed/finished — the one read with a
// documented side effect.
func (e *Engine) Current(ctx context.Context, sessionID, userID string) (*StateResult, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrForbidden
	}
	if sess.Status.Terminal() {
		return &StateResult{Session: sess}, nil
	}

	scn, err := e.provider.Load(ctx, sess.Topic)
	if err != nil {
		return nil, err
	}
	cur := ResolveCurrent(scn, Position{Stage: sess.StageIndex, Question: sess.QuestionIndex})
	if cur != nil {
		return &StateResult{Session: sess, Current: cur}, nil
	}

	// Stale position: close the run as finished.
	unlock := e.locks.Lock(sessionID)
	defer unlock()
	err = e.store.ExclusiveUpdate(ctx, sessionID, func(tx Tx) error {
		s := tx.Session()
		if s.Status == StatusInProgress {
			s.end(StatusCompleted, ReasonFinished)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sess, err = e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("session_id", sessionID).Msg("stale position repaired to completed")
	return &StateResult{Session: sess}, nil
}

// SubmitResult carries the new snapshot, the ledger row (nil when the call
// only closed out an already-exhausted run) and the next due question.
type SubmitResult struct {
	Session *Session         `json:"session"`
	Answer  *Answer          `json:"answer"`
	Next    *CurrentQuestion `json:"next"`
	// NoMoreQuestions is set when the submission found nothing due and the
	// run was (or already had been) completed.
	NoMoreQuestions bool `json:"no_more_questions,omitempty"`
}

// SubmitAnswer validates, scores and applies one answer. The whole path —
// precondition check through ledger append — runs inside the per-session
// exclusive scope, so two concurrent identical submissions produce exactly
// one answer row; the loser gets ErrConflict.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, userID, questionID, selectedText, clientAnswerID string) (*SubmitResult, error) {
	unlock := e.locks.Lock(sessionID)
	defer unlock()

	var out *SubmitResult
	err := e.store.ExclusiveUpdate(ctx, sessionID, func(tx Tx) error {
		sess := tx.Session()
		if sess.UserID != userID {
			return ErrForbidden
		}

		if sess.Status.Terminal() {
			// A finished run keeps reporting the same terminal outcome so
			// post-completion retries are not errors. Failed and abandoned
			// runs are real invalid states.
			if sess.Status == StatusCompleted {
				out = &SubmitResult{Session: sess, NoMoreQuestions: true}
				return nil
			}
			return fmt.Errorf("session is %s: %w", sess.Status, ErrInvalidState)
		}

		scn, err := e.provider.Load(ctx, sess.Topic)
		if err != nil {
			return err
		}

		cur := ResolveCurrent(scn, Position{Stage: sess.StageIndex, Question: sess.QuestionIndex})
		if cur == nil {
			sess.end(StatusCompleted, ReasonFinished)
			out = &SubmitResult{Session: sess, NoMoreQuestions: true}
			return nil
		}

		// Duplicate check first, keyed on the submitted question id. The
		// loser of a concurrent duplicate enters here after the winner
		// advanced the pointer, and must see Conflict, not a mismatch.
		answered, err := tx.HasAnswer(ctx, questionID)
		if err != nil {
			return err
		}
		if answered {
			return ErrConflict
		}

		if cur.Question.ID != questionID {
			return ErrQuestionMismatch
		}

		delta, err := ScoreAnswer(cur.Question, selectedText)
		if err != nil {
			return err
		}

		isCorrect := delta > 0
		sess.TotalScore += delta
		if !isCorrect {
			sess.WrongCount++
		}

		rec := &Answer{
			SessionID:      sess.ID,
			Stage:          cur.Stage,
			QuestionID:     questionID,
			Prompt:         cur.Question.Text,
			Options:        cur.Question.Options,
			SelectedText:   selectedText,
			ScoreDelta:     delta,
			IsCorrect:      isCorrect,
			ClientAnswerID: clientAnswerID,
			AnsweredAt:     time.Now().UTC(),
		}
		if err := tx.AppendAnswer(ctx, rec); err != nil {
			return err
		}

		if sess.WrongCount >= sess.WrongLimit {
			// Pointer stays on the failing question.
			sess.end(StatusFailed, ReasonTooManyWrongs)
			if sess.AdviceSummary == "" {
				sess.AdviceSummary = defaultAdviceSummary
			}
			out = &SubmitResult{Session: sess, Answer: rec}
			return nil
		}

		next := Advance(scn, Position{Stage: sess.StageIndex, Question: sess.QuestionIndex})
		sess.StageIndex, sess.QuestionIndex = next.Stage, next.Question

		nextCur := ResolveCurrent(scn, next)
		if nextCur == nil {
			sess.end(StatusCompleted, ReasonFinished)
		}
		out = &SubmitResult{Session: sess, Answer: rec, Next: nextCur}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Answer != nil {
		e.log.Info().
			Str("session_id", sessionID).
			Str("question_id", out.Answer.QuestionID).
			Int("score_delta", out.Answer.ScoreDelta).
			Str("status", string(out.Session.Status)).
			Msg("answer recorded")
	}
	return out, nil
}

// Quit transitions an in_progress session to abandoned; no-op otherwise.
func (e *Engine) Quit(ctx context.Context, sessionID, userID string) (*Session, error) {
	unlock := e.locks.Lock(sessionID)
	defer unlock()

	var snap *Session
	err := e.store.ExclusiveUpdate(ctx, sessionID, func(tx Tx) error {
		sess := tx.Session()
		if sess.UserID != userID {
			return ErrForbidden
		}
		if sess.Status == StatusInProgress {
			sess.end(StatusAbandoned, ReasonUserQuit)
		}
		snap = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// History returns the caller's most recent sessions.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]Session, error) {
	return e.store.History(ctx, userID, limit)
}
