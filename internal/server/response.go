package server

import (
	"encoding/json"
	"log"
	"net/http"

	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
)

// writeError writes a JSON error response with the given HTTP status code
// and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.Printf("[APIServer] failed to write error response: %v", err)
	}
}

// writeJSON writes a JSON payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[APIServer] failed to write response: %v", err)
	}
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case configstore.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case configstore.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case configstore.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case configstore.IsExternalResolution(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
