package gameplay

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

// SQLStore persists sessions and the answer ledger over database/sql.
// Works against sqlite (modernc) and postgres (pgx stdlib); on postgres the
// session row is additionally claimed with SELECT ... FOR UPDATE.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const sessionCols = `id, user_id, topic, stage_index, question_index, status, ended_reason,
	total_score, wrong_count, wrong_limit, advice_summary, started_at, ended_at, last_activity_at`

func (s *SQLStore) FindActiveByUserTopic(ctx context.Context, userID, topic string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM game_sessions
		 WHERE user_id=$1 AND topic=$2 AND status=$3
		 ORDER BY started_at DESC LIMIT 1`,
		userID, topic, StatusInProgress)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) Create(ctx context.Context, userID, topic string, wrongLimit int) (*Session, error) {
	if wrongLimit <= 0 {
		wrongLimit = DefaultWrongLimit
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Topic:          topic,
		Status:         StatusInProgress,
		WrongLimit:     wrongLimit,
		StartedAt:      now,
		LastActivityAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions
		 (id, user_id, topic, stage_index, question_index, status, ended_reason,
		  total_score, wrong_count, wrong_limit, advice_summary, started_at, ended_at, last_activity_at)
		 VALUES ($1,$2,$3,0,0,$4,NULL,0,0,$5,'',$6,NULL,$7)`,
		sess.ID, userID, topic, StatusInProgress, wrongLimit, now.Unix(), now.Unix())
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM game_sessions WHERE id=$1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) History(ctx context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM game_sessions
		 WHERE user_id=$1 ORDER BY started_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) ExclusiveUpdate(ctx context.Context, id string, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT ` + sessionCols + ` FROM game_sessions WHERE id=$1`
	if s.driver == "postgres" {
		q += ` FOR UPDATE`
	}
	sess, err := scanSession(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}

	stx := &sqlTx{tx: tx, sess: sess}
	if err := fn(stx); err != nil {
		return err
	}

	sess.LastActivityAt = time.Now().UTC()
	var endedAt any
	if sess.EndedAt != nil {
		endedAt = sess.EndedAt.Unix()
	}
	var reason any
	if sess.EndedReason != "" {
		reason = string(sess.EndedReason)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE game_sessions SET
		 stage_index=$1, question_index=$2, status=$3, ended_reason=$4,
		 total_score=$5, wrong_count=$6, advice_summary=$7, ended_at=$8, last_activity_at=$9
		 WHERE id=$10`,
		sess.StageIndex, sess.QuestionIndex, sess.Status, reason,
		sess.TotalScore, sess.WrongCount, sess.AdviceSummary, endedAt,
		sess.LastActivityAt.Unix(), sess.ID)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return tx.Commit()
}

type sqlTx struct {
	tx   *sql.Tx
	sess *Session
}

func (t *sqlTx) Session() *Session { return t.sess }

func (t *sqlTx) HasAnswer(ctx context.Context, questionID string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		`SELECT 1 FROM answers WHERE session_id=$1 AND question_id=$2`,
		t.sess.ID, questionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *sqlTx) AppendAnswer(ctx context.Context, rec *Answer) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	oj, err := json.Marshal(rec.Options)
	if err != nil {
		return err
	}
	var clientID any
	if rec.ClientAnswerID != "" {
		clientID = rec.ClientAnswerID
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO answers
		 (id, session_id, stage, question_id, prompt, options_json, selected_text,
		  score_delta, is_correct, client_answer_id, answered_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.SessionID, rec.Stage, rec.QuestionID, rec.Prompt, string(oj),
		rec.SelectedText, rec.ScoreDelta, rec.IsCorrect, clientID, rec.AnsweredAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

// isUniqueViolation covers both drivers without importing their error types.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess      Session
		reason    sql.NullString
		startedAt int64
		endedAt   sql.NullInt64
		lastAct   int64
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Topic, &sess.StageIndex, &sess.QuestionIndex,
		&sess.Status, &reason, &sess.TotalScore, &sess.WrongCount, &sess.WrongLimit,
		&sess.AdviceSummary, &startedAt, &endedAt, &lastAct)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		sess.EndedReason = EndReason(reason.String)
	}
	sess.StartedAt = time.Unix(startedAt, 0).UTC()
	if endedAt.Valid {
		t := time.Unix(endedAt.Int64, 0).UTC()
		sess.EndedAt = &t
	}
	sess.LastActivityAt = time.Unix(lastAct, 0).UTC()
	return &sess, nil
}

// ListAnswers returns the ledger rows for a session, oldest first.
func (s *SQLStore) ListAnswers(ctx context.Context, sessionID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, stage, question_id, prompt, options_json, selected_text,
		        score_delta, is_correct, client_answer_id, answered_at
		 FROM answers WHERE session_id=$1 ORDER BY answered_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		var (
			a        Answer
			oj       string
			clientID sql.NullString
			at       int64
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Stage, &a.QuestionID, &a.Prompt, &oj,
			&a.SelectedText, &a.ScoreDelta, &a.IsCorrect, &clientID, &at); err != nil {
			return nil, err
		}
		var opts []scenario.Option
		if err := json.Unmarshal([]byte(oj), &opts); err != nil {
			return nil, err
		}
		a.Options = opts
		a.ClientAnswerID = clientID.String
		a.AnsweredAt = time.Unix(at, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

var (
	_ Store = (*SQLStore)(nil)
	_ Tx    = (*sqlTx)(nil)
)
