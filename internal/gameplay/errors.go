package gameplay

import "errors"

var (
	// ErrSessionNotFound: no session with that id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrForbidden: session belongs to another user.
	ErrForbidden = errors.New("not your session")
	// ErrTopicRequired: start_or_resume called without a topic.
	ErrTopicRequired = errors.New("topic is required")
	// ErrInvalidState: answer submitted to a failed or abandoned session.
	ErrInvalidState = errors.New("session is not in progress")
	// ErrQuestionMismatch: submitted question_id is not the due question.
	ErrQuestionMismatch = errors.New("question_id does not match current question")
	// ErrOptionNotFound: selected_text matches none of the question's options.
	ErrOptionNotFound = errors.New("selected_text not found in options")
	// ErrConflict: an answer for this (session, question) already exists.
	ErrConflict = errors.New("already answered")
)
