package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"calendar-scheduler/internal/planner"
	"calendar-scheduler/internal/service"
)

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, msg string, statusCode int) {
	writeJSON(w, map[string]any{"error": msg}, statusCode)
}

// writeServiceError maps domain errors onto HTTP statuses with their
// user-facing messages intact: "already confirmed" must read as exactly
// that, not as a generic failure.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyConfirmed),
		errors.Is(err, service.ErrNotConfirmed),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrRunInProgress):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrNotCreator),
		errors.Is(err, service.ErrNotPermitted):
		writeError(w, err.Error(), http.StatusForbidden)
	case planner.IsValidation(err):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}
