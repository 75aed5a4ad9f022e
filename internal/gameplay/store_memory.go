package gameplay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore keeps sessions and answers in maps. Used by tests and by
// single-process setups that do not need a database.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	answers  map[string][]Answer // session id -> rows
	tokens   map[string]struct{} // client answer ids seen, global
}

func NewInMemoryStore() Store {
	return &memoryStore{
		sessions: map[string]Session{},
		answers:  map[string][]Answer{},
		tokens:   map[string]struct{}{},
	}
}

func (m *memoryStore) FindActiveByUserTopic(ctx context.Context, userID, topic string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *Session
	for _, s := range m.sessions {
		if s.UserID != userID || s.Topic != topic || s.Status != StatusInProgress {
			continue
		}
		if newest == nil || s.StartedAt.After(newest.StartedAt) {
			cp := s
			newest = &cp
		}
	}
	return newest, nil
}

func (m *memoryStore) Create(ctx context.Context, userID, topic string, wrongLimit int) (*Session, error) {
	if wrongLimit <= 0 {
		wrongLimit = DefaultWrongLimit
	}
	now := time.Now().UTC()
	s := Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Topic:          topic,
		Status:         StatusInProgress,
		WrongLimit:     wrongLimit,
		StartedAt:      now,
		LastActivityAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return &s, nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := s
	return &cp, nil
}

func (m *memoryStore) History(ctx context.Context, userID string, limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) ExclusiveUpdate(ctx context.Context, id string, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	cp := s
	tx := &memTx{store: m, sess: &cp}
	if err := fn(tx); err != nil {
		return err
	}
	cp.LastActivityAt = time.Now().UTC()
	m.sessions[id] = cp
	for _, rec := range tx.pending {
		m.answers[id] = append(m.answers[id], rec)
		if rec.ClientAnswerID != "" {
			m.tokens[rec.ClientAnswerID] = struct{}{}
		}
	}
	return nil
}

type memTx struct {
	store   *memoryStore
	sess    *Session
	pending []Answer
}

func (t *memTx) Session() *Session { return t.sess }

func (t *memTx) HasAnswer(ctx context.Context, questionID string) (bool, error) {
	for _, a := range t.store.answers[t.sess.ID] {
		if a.QuestionID == questionID {
			return true, nil
		}
	}
	for _, a := range t.pending {
		if a.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) AppendAnswer(ctx context.Context, rec *Answer) error {
	dup, err := t.HasAnswer(ctx, rec.QuestionID)
	if err != nil {
		return err
	}
	if dup {
		return ErrConflict
	}
	if rec.ClientAnswerID != "" {
		if _, seen := t.store.tokens[rec.ClientAnswerID]; seen {
			return ErrConflict
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	t.pending = append(t.pending, *rec)
	return nil
}
