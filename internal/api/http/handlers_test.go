package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	api "github.com/zulfa-ai/project-iris-backend/internal/api/http"
	"github.com/zulfa-ai/project-iris-backend/internal/auth"
	"github.com/zulfa-ai/project-iris-backend/internal/gameplay"
	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

type staticProvider struct{ scn *scenario.Scenario }

func (p *staticProvider) Load(ctx context.Context, topic string) (*scenario.Scenario, error) {
	if p.scn == nil || p.scn.Topic != topic {
		return nil, scenario.ErrNotFound
	}
	return p.scn, nil
}

func (p *staticProvider) Topics(ctx context.Context) ([]string, error) {
	return []string{p.scn.Topic}, nil
}

// asUser injects the authenticated subject the way JWTMiddleware would.
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), userID)))
		})
	}
}

func testRouter(t *testing.T) (*chi.Mux, *gameplay.Engine) {
	t.Helper()
	scn := &scenario.Scenario{
		Topic: "ransomware",
		Stages: []scenario.Stage{
			{Name: "prepare", TimeLimitSec: 30, Questions: []scenario.Question{
				{ID: "prep-1", Text: "Backups?", Options: []scenario.Option{
					{Text: "Yes", Score: 5}, {Text: "No", Score: -5},
				}},
				{ID: "prep-2", Text: "Offline copies?", Options: []scenario.Option{
					{Text: "Yes", Score: 5}, {Text: "No", Score: -5},
				}},
			}},
		},
	}
	provider := &staticProvider{scn: scn}
	engine := gameplay.NewEngine(provider, gameplay.NewInMemoryStore(), 5, zerolog.Nop())

	r := chi.NewRouter()
	r.Use(asUser("u1"))
	r.Post("/session/start", api.StartSessionHandler(engine))
	r.Get("/session/{sessionID}/current", api.CurrentStateHandler(engine))
	r.Post("/session/{sessionID}/answer", api.SubmitAnswerHandler(engine))
	r.Post("/session/{sessionID}/quit", api.QuitSessionHandler(engine))
	r.Get("/topics", api.TopicsHandler(provider))
	return r, engine
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(t, r, "POST", "/session/start", map[string]string{"topic": "ransomware"})
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res.Session.ID
}

func TestAnswerFlowOverHTTP(t *testing.T) {
	r, _ := testRouter(t)
	id := startSession(t, r)

	w := doJSON(t, r, "POST", "/session/"+id+"/answer",
		map[string]string{"question_id": "prep-1", "selected_text": "Yes"})
	if w.Code != http.StatusCreated {
		t.Fatalf("answer: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Answer struct {
			ScoreDelta int  `json:"score_delta"`
			IsCorrect  bool `json:"is_correct"`
		} `json:"answer"`
		Next *struct {
			Question struct {
				ID string `json:"id"`
			} `json:"question"`
		} `json:"next"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Answer.ScoreDelta != 5 || !res.Answer.IsCorrect {
		t.Fatalf("answer = %+v", res.Answer)
	}
	if res.Next == nil || res.Next.Question.ID != "prep-2" {
		t.Fatalf("next = %+v", res.Next)
	}
}

func TestAnswerErrorStatuses(t *testing.T) {
	r, _ := testRouter(t)
	id := startSession(t, r)

	// unknown session
	if w := doJSON(t, r, "POST", "/session/nope/answer",
		map[string]string{"question_id": "prep-1", "selected_text": "Yes"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown session: %d", w.Code)
	}

	// not the due question
	if w := doJSON(t, r, "POST", "/session/"+id+"/answer",
		map[string]string{"question_id": "prep-2", "selected_text": "Yes"}); w.Code != http.StatusBadRequest {
		t.Fatalf("mismatch: %d", w.Code)
	}

	// unknown option
	if w := doJSON(t, r, "POST", "/session/"+id+"/answer",
		map[string]string{"question_id": "prep-1", "selected_text": "Perhaps"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad option: %d", w.Code)
	}

	// missing fields
	if w := doJSON(t, r, "POST", "/session/"+id+"/answer",
		map[string]string{"question_id": "prep-1"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing selected_text: %d", w.Code)
	}

	// duplicate answer is a conflict
	if w := doJSON(t, r, "POST", "/session/"+id+"/answer",
		map[string]string{"question_id": "prep-1", "selected_text": "Yes"}); w.Code != http.StatusCreated {
		t.Fatalf("first answer: %d", w.Code)
	}
	if w := doJSON(t, r, "POST", "/session/"+id+"/answer",
		map[string]string{"question_id": "prep-1", "selected_text": "Yes"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
}

func TestQuitAndCurrentOverHTTP(t *testing.T) {
	r, _ := testRouter(t)
	id := startSession(t, r)

	if w := doJSON(t, r, "POST", "/session/"+id+"/quit", nil); w.Code != http.StatusOK {
		t.Fatalf("quit: %d", w.Code)
	}
	w := doJSON(t, r, "GET", "/session/"+id+"/current", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("current: %d", w.Code)
	}
	var res struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Current any `json:"current"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Session.Status != "abandoned" || res.Current != nil {
		t.Fatalf("res = %+v", res)
	}
}

func TestTopicsHandler(t *testing.T) {
	r, _ := testRouter(t)
	w := doJSON(t, r, "GET", "/topics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("topics: %d", w.Code)
	}
	var res struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Topics) != 1 || res.Topics[0] != "ransomware" {
		t.Fatalf("topics = %v", res.Topics)
	}
}
