package controller

import (
	"encoding/json"
	"net/http"

	"tawarin-backend/apperr"
	"tawarin-backend/usecase"
)

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps error kinds to HTTP statuses. Backend failures surface as
// the in-persona retry line, never as raw internals.
func writeError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case apperr.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case apperr.KindConflict:
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case apperr.KindBackend:
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"reply":  usecase.FallbackReply,
			"isDeal": false,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
