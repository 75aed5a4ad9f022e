package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zulfa-ai/project-iris-backend/internal/auth"
	"github.com/zulfa-ai/project-iris-backend/internal/gameplay"
)

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "gameplay"})
	}
}

// POST /api/gameplay/session/start  {"topic": "ransomware"}
func StartSessionHandler(engine *gameplay.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := engine.StartOrResume(r.Context(), auth.SubjectFromContext(r.Context()), req.Topic)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /api/gameplay/session/{sessionID}/current
func CurrentStateHandler(engine *gameplay.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		res, err := engine.Current(r.Context(), id, auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /api/gameplay/session/{sessionID}/answer
// {"question_id": "prep-1", "selected_text": "Yes", "client_answer_id": "?"}
func SubmitAnswerHandler(engine *gameplay.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		var req struct {
			QuestionID     string `json:"question_id"`
			SelectedText   string `json:"selected_text"`
			ClientAnswerID string `json:"client_answer_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuestionID == "" || req.SelectedText == "" {
			http.Error(w, "question_id and selected_text are required", http.StatusBadRequest)
			return
		}
		res, err := engine.SubmitAnswer(r.Context(), id, auth.SubjectFromContext(r.Context()),
			req.QuestionID, req.SelectedText, req.ClientAnswerID)
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusCreated
		if res.Answer == nil {
			// nothing was due; the run was just closed out
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

// POST /api/gameplay/session/{sessionID}/quit
func QuitSessionHandler(engine *gameplay.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, err := engine.Quit(r.Context(), id, auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": sess})
	}
}

// GET /api/gameplay/sessions/history
func HistoryHandler(engine *gameplay.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := engine.History(r.Context(), auth.SubjectFromContext(r.Context()), 50)
		if err != nil {
			writeError(w, err)
			return
		}
		if sessions == nil {
			sessions = []gameplay.Session{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
	}
}
