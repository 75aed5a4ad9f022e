package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zulfa-ai/project-iris-backend/internal/gameplay"
	"github.com/zulfa-ai/project-iris-backend/internal/scenario"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the gameplay error taxonomy onto HTTP statuses. Conflict
// gets its own status so clients can treat "already recorded" apart from
// bad input.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, gameplay.ErrSessionNotFound), errors.Is(err, scenario.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gameplay.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, gameplay.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, gameplay.ErrInvalidState),
		errors.Is(err, gameplay.ErrQuestionMismatch),
		errors.Is(err, gameplay.ErrOptionNotFound),
		errors.Is(err, gameplay.ErrTopicRequired):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
