package gameplay

import "context"

// Store is the session store plus answer ledger consumed by the engine.
// Implementations must make ExclusiveUpdate atomic: the session mutation
// and every answer appended inside fn persist together, or not at all.
type Store interface {
	// FindActiveByUserTopic returns the newest in_progress session for
	// (user, topic), or nil when none exists.
	FindActiveByUserTopic(ctx context.Context, userID, topic string) (*Session, error)
	Create(ctx context.Context, userID, topic string, wrongLimit int) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	History(ctx context.Context, userID string, limit int) ([]Session, error)

	// ExclusiveUpdate loads the session with an exclusive claim on its
	// record, runs fn, and persists the (possibly mutated) session iff fn
	// returns nil. ErrSessionNotFound when the id is unknown.
	ExclusiveUpdate(ctx context.Context, id string, fn func(tx Tx) error) error
}

// Tx is the view fn gets inside ExclusiveUpdate. The ledger methods see and
// join the same atomic scope as the session write.
type Tx interface {
	// Session returns the locked session; fn mutates it in place.
	Session() *Session
	// HasAnswer reports whether this session already answered questionID.
	HasAnswer(ctx context.Context, questionID string) (bool, error)
	// AppendAnswer writes one ledger row. ErrConflict on a duplicate
	// (session, question) pair or a reused client answer id.
	AppendAnswer(ctx context.Context, rec *Answer) error
}
