package gameplay_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zulfa-ai/project-iris-backend/internal/db"
	"github.com/zulfa-ai/project-iris-backend/internal/gameplay"
	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

func newSQLStore(t *testing.T) *gameplay.SQLStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// one shared in-memory db per test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return gameplay.NewSQLStore(dbh, "sqlite")
}

func sampleAnswer(sessionID, questionID, token string) *gameplay.Answer {
	return &gameplay.Answer{
		SessionID:      sessionID,
		Stage:          "prepare",
		QuestionID:     questionID,
		Prompt:         "Backups?",
		Options:        []scenario.Option{{Text: "Yes", Score: 5}, {Text: "No", Score: -5}},
		SelectedText:   "Yes",
		ScoreDelta:     5,
		IsCorrect:      true,
		ClientAnswerID: token,
		AnsweredAt:     time.Now().UTC(),
	}
}

func TestSQLStoreCreateAndGet(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "u1", "ransomware", 5)
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" || got.Topic != "ransomware" || got.Status != gameplay.StatusInProgress {
		t.Fatalf("session = %+v", got)
	}
	if got.StageIndex != 0 || got.QuestionIndex != 0 || got.WrongLimit != 5 {
		t.Fatalf("session = %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, gameplay.ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSQLStoreFindActiveSkipsTerminal(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "u1", "ransomware", 5)
	if err != nil {
		t.Fatal(err)
	}
	err = store.ExclusiveUpdate(ctx, first.ID, func(tx gameplay.Tx) error {
		tx.Session().Status = gameplay.StatusAbandoned
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Create(ctx, "u1", "ransomware", 5)
	if err != nil {
		t.Fatal(err)
	}

	active, err := store.FindActiveByUserTopic(ctx, "u1", "ransomware")
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != second.ID {
		t.Fatalf("active = %+v, want %s", active, second.ID)
	}

	if none, _ := store.FindActiveByUserTopic(ctx, "u1", "phishing"); none != nil {
		t.Fatalf("unexpected active session: %+v", none)
	}
}

func TestSQLStoreExclusiveUpdatePersistsAtomically(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	sess, _ := store.Create(ctx, "u1", "ransomware", 5)

	err := store.ExclusiveUpdate(ctx, sess.ID, func(tx gameplay.Tx) error {
		s := tx.Session()
		s.TotalScore += 5
		s.QuestionIndex = 1
		return tx.AppendAnswer(ctx, sampleAnswer(s.ID, "prep-1", ""))
	})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.TotalScore != 5 || got.QuestionIndex != 1 {
		t.Fatalf("session = %+v", got)
	}
	answers, err := store.ListAnswers(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 || answers[0].QuestionID != "prep-1" || answers[0].ScoreDelta != 5 {
		t.Fatalf("answers = %+v", answers)
	}
	if len(answers[0].Options) != 2 {
		t.Fatalf("options snapshot = %+v", answers[0].Options)
	}
}

func TestSQLStoreExclusiveUpdateRollsBackOnError(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	sess, _ := store.Create(ctx, "u1", "ransomware", 5)

	boom := errors.New("boom")
	err := store.ExclusiveUpdate(ctx, sess.ID, func(tx gameplay.Tx) error {
		s := tx.Session()
		s.TotalScore = 99
		if err := tx.AppendAnswer(ctx, sampleAnswer(s.ID, "prep-1", "")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	got, _ := store.Get(ctx, sess.ID)
	if got.TotalScore != 0 {
		t.Fatalf("partial write visible: %+v", got)
	}
	answers, _ := store.ListAnswers(ctx, sess.ID)
	if len(answers) != 0 {
		t.Fatalf("rolled-back answer visible: %+v", answers)
	}
}

func TestSQLStoreDuplicateAnswerIsConflict(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	sess, _ := store.Create(ctx, "u1", "ransomware", 5)

	submit := func() error {
		return store.ExclusiveUpdate(ctx, sess.ID, func(tx gameplay.Tx) error {
			return tx.AppendAnswer(ctx, sampleAnswer(sess.ID, "prep-1", ""))
		})
	}
	if err := submit(); err != nil {
		t.Fatal(err)
	}
	if err := submit(); !errors.Is(err, gameplay.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestSQLStoreClientAnswerIDGloballyUnique(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	a, _ := store.Create(ctx, "u1", "ransomware", 5)
	b, _ := store.Create(ctx, "u2", "ransomware", 5)

	err := store.ExclusiveUpdate(ctx, a.ID, func(tx gameplay.Tx) error {
		return tx.AppendAnswer(ctx, sampleAnswer(a.ID, "prep-1", "tok-1"))
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.ExclusiveUpdate(ctx, b.ID, func(tx gameplay.Tx) error {
		return tx.AppendAnswer(ctx, sampleAnswer(b.ID, "prep-1", "tok-1"))
	})
	if !errors.Is(err, gameplay.ErrConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestSQLStoreHasAnswerInsideUpdate(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	sess, _ := store.Create(ctx, "u1", "ransomware", 5)

	err := store.ExclusiveUpdate(ctx, sess.ID, func(tx gameplay.Tx) error {
		return tx.AppendAnswer(ctx, sampleAnswer(sess.ID, "prep-1", ""))
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.ExclusiveUpdate(ctx, sess.ID, func(tx gameplay.Tx) error {
		got, err := tx.HasAnswer(ctx, "prep-1")
		if err != nil {
			return err
		}
		if !got {
			t.Error("HasAnswer(prep-1) = false")
		}
		got, err = tx.HasAnswer(ctx, "prep-2")
		if err != nil {
			return err
		}
		if got {
			t.Error("HasAnswer(prep-2) = true")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSQLStoreHistoryOrder(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		sess, err := store.Create(ctx, "u1", "ransomware", 5)
		if err != nil {
			t.Fatal(err)
		}
		// close each one out so the next Create is the active session
		err = store.ExclusiveUpdate(ctx, sess.ID, func(tx gameplay.Tx) error {
			tx.Session().Status = gameplay.StatusAbandoned
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	hist, err := store.History(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("history len = %d", len(hist))
	}
}
