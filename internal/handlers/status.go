package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
)

// StatusHandler serves the liveness snapshot and throughput counters
type StatusHandler struct {
	monitor   interfaces.LivenessMonitor
	config    *common.Config
	logger    arbor.ILogger
	startedAt time.Time
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(monitor interfaces.LivenessMonitor, config *common.Config, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		monitor:   monitor,
		config:    config,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// HandleStatus processes GET /api/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.monitor.Snapshot(r.Context(), h.config.ActiveThreshold(), h.config.WaitingThreshold())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to build liveness snapshot")
		writeError(w, http.StatusServiceUnavailable, "failed to read store")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    "transfero",
		"version":    common.GetVersion(),
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"snapshot":   snapshot,
		"throughput": h.monitor.Throughput(),
	})
}

// HandleHealth processes GET /health
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	})
}
