package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"watchwhat/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps an error kind to an HTTP status. Store failures are
// logged with detail but surfaced as a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "kind", kind, "error", err)
		writeError(w, status, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  string(kind),
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidState, apperr.KindDuplicateTitle, apperr.KindDuplicateVote:
		return http.StatusConflict
	case apperr.KindInvalidRound, apperr.KindInvalidTarget:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
