package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

// GET /api/topics — public listing of available scenarios.
func TopicsHandler(provider scenario.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topics, err := provider.Topics(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if topics == nil {
			topics = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
	}
}

// GET /api/scenario/{topic} — full definition, scores included. The client
// never scores; this exists for review screens and tooling.
func ScenarioDetailHandler(provider scenario.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := chi.URLParam(r, "topic")
		scn, err := provider.Load(r.Context(), topic)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scn)
	}
}
