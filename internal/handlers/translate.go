// -----------------------------------------------------------------------
// Translation intake - validates, fans out, and delivers per mode
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
	"github.com/ternarybob/transfero/internal/services/delivery"
)

// syncSlack pads the synchronous wait past the pipeline deadlines so the
// pipeline's own timeout fires first and produces a proper terminal event.
const syncSlack = 5 * time.Second

// translateRequestBody is the inbound JSON shape
type translateRequestBody struct {
	Text            string                    `json:"text"`
	TargetLanguages []string                  `json:"targetLanguages"`
	Options         *models.PreprocessOptions `json:"options,omitempty"`
	DeliveryMode    models.DeliveryMode       `json:"deliveryMode,omitempty"`
}

// languageOutcome is one per-language entry in a sync response
type languageOutcome struct {
	Language  string               `json:"language"`
	State     string               `json:"state,omitempty"`
	Result    *models.SubJobResult `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	ErrorKind string               `json:"error_kind,omitempty"`
}

// TranslateHandler handles translation request intake
type TranslateHandler struct {
	dispatcher interfaces.FanOutDispatcher
	collector  *delivery.SyncCollector
	config     *common.Config
	logger     arbor.ILogger
}

// NewTranslateHandler creates a new translate handler
func NewTranslateHandler(dispatcher interfaces.FanOutDispatcher, collector *delivery.SyncCollector, config *common.Config, logger arbor.ILogger) *TranslateHandler {
	return &TranslateHandler{
		dispatcher: dispatcher,
		collector:  collector,
		config:     config,
		logger:     logger,
	}
}

// HandleTranslate processes POST /api/translate
func (h *TranslateHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var body translateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	mode := body.DeliveryMode
	if mode == "" {
		mode = models.DeliveryModeSync
	}

	options := models.DefaultPreprocessOptions()
	if body.Options != nil {
		options = *body.Options
	}

	req := &models.TranslationRequest{
		ID:              common.NewRequestID(),
		Text:            body.Text,
		TargetLanguages: body.TargetLanguages,
		Options:         options,
		DeliveryMode:    mode,
		CreatedAt:       time.Now(),
	}

	// Sync callers must be registered before Dispatch so no terminal event
	// can slip out between fan-out and collection.
	var events <-chan delivery.PartialEvent
	if mode == models.DeliveryModeSync {
		events = h.collector.Register(req.ID, len(req.TargetLanguages))
		defer h.collector.Release(req.ID)
	}

	handles, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		writeError(w, statusForKind(models.KindOf(err)), err.Error())
		return
	}

	switch mode {
	case models.DeliveryModeSync:
		h.respondSync(w, r, req, handles, events)
	case models.DeliveryModeStream:
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"request_id": req.ID,
			"sub_jobs":   handleSummaries(handles),
			"stream_url": "/ws?request_id=" + req.ID,
		})
	default:
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"request_id": req.ID,
			"sub_jobs":   handleSummaries(handles),
		})
	}
}

// respondSync collects one terminal event per non-degraded language and
// returns them all in a single response.
func (h *TranslateHandler) respondSync(w http.ResponseWriter, r *http.Request, req *models.TranslationRequest, handles []*models.SubJobHandle, events <-chan delivery.PartialEvent) {
	outcomes := make(map[string]languageOutcome, len(handles))

	pending := 0
	for _, handle := range handles {
		if handle.Err != nil {
			outcomes[handle.Language] = languageOutcome{
				Language:  handle.Language,
				State:     string(models.SubJobStateFailed),
				Error:     handle.Err.Error(),
				ErrorKind: string(models.KindOf(handle.Err)),
			}
			continue
		}
		pending++
	}

	deadline := time.NewTimer(h.config.PreprocessTimeout() + h.config.TranslatorTimeout() + syncSlack)
	defer deadline.Stop()

	for pending > 0 {
		select {
		case event := <-events:
			outcome := languageOutcome{Language: event.Language}
			if event.Err != nil {
				outcome.State = string(models.SubJobStateFailed)
				if models.KindOf(event.Err) == models.ErrorKindPreprocessingTimeout {
					outcome.State = string(models.SubJobStateTimedOut)
				}
				outcome.Error = event.Err.Error()
				outcome.ErrorKind = string(models.KindOf(event.Err))
			} else if event.Result != nil {
				outcome.State = string(event.Result.State)
				outcome.Result = event.Result
			}
			outcomes[event.Language] = outcome
			pending--

		case <-deadline.C:
			h.logger.Warn().
				Str("request_id", req.ID).
				Int("pending", pending).
				Msg("Sync collection deadline reached")
			pending = 0

		case <-r.Context().Done():
			// Caller went away; pipelines keep running, results remain
			// pollable at the request endpoint.
			return
		}
	}

	results := make([]languageOutcome, 0, len(req.TargetLanguages))
	for _, lang := range req.TargetLanguages {
		if outcome, ok := outcomes[lang]; ok {
			results = append(results, outcome)
		} else {
			results = append(results, languageOutcome{
				Language:  lang,
				State:     string(models.SubJobStateTimedOut),
				Error:     "no terminal event before response deadline",
				ErrorKind: string(models.ErrorKindPreprocessingTimeout),
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id": req.ID,
		"results":    results,
	})
}

func handleSummaries(handles []*models.SubJobHandle) []map[string]string {
	summaries := make([]map[string]string, 0, len(handles))
	for _, handle := range handles {
		entry := map[string]string{
			"sub_job_id": handle.SubJobID,
			"language":   handle.Language,
		}
		if handle.Err != nil {
			entry["error"] = handle.Err.Error()
		}
		summaries = append(summaries, entry)
	}
	return summaries
}
