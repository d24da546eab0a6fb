package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/interfaces"
)

// RequestHandler serves read access to stored requests and their sub-jobs
type RequestHandler struct {
	storage interfaces.SubJobStorage
	logger  arbor.ILogger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(storage interfaces.SubJobStorage, logger arbor.ILogger) *RequestHandler {
	return &RequestHandler{
		storage: storage,
		logger:  logger,
	}
}

// HandleGetRequest processes GET /api/requests/{id}
func (h *RequestHandler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	if requestID == "" || strings.Contains(requestID, "/") {
		writeError(w, http.StatusBadRequest, "request id required")
		return
	}

	jobs, err := h.storage.GetByRequest(r.Context(), requestID)
	if err != nil {
		h.logger.Warn().Str("request_id", requestID).Err(err).Msg("Failed to read request sub-jobs")
		writeError(w, http.StatusServiceUnavailable, "failed to read request")
		return
	}
	if len(jobs) == 0 {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}

	terminal := 0
	for _, job := range jobs {
		if job.State.IsTerminal() {
			terminal++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id": requestID,
		"complete":   terminal == len(jobs),
		"sub_jobs":   jobs,
	})
}
