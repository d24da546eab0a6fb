package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/transfero/internal/models"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForKind maps pipeline error kinds to HTTP status codes
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case models.ErrorKindStoreUnavailable:
		return http.StatusServiceUnavailable
	case models.ErrorKindPreprocessingTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
