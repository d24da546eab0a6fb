package delivery

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
)

// EventPublisher mirrors terminal sub-job events onto the internal event
// bus so streaming consumers (websocket clients) can observe them. It is
// the sole publisher of the terminal and request-complete topics.
type EventPublisher struct {
	eventService interfaces.EventService
	logger       arbor.ILogger
}

// NewEventPublisher creates a bus-backed delivery adapter
func NewEventPublisher(eventService interfaces.EventService, logger arbor.ILogger) *EventPublisher {
	return &EventPublisher{
		eventService: eventService,
		logger:       logger,
	}
}

// OnPartialResult publishes one terminal sub-job event
func (p *EventPublisher) OnPartialResult(ctx context.Context, requestID, language string, result *models.SubJobResult, deliveryErr error) {
	payload := map[string]interface{}{
		"request_id": requestID,
		"language":   language,
	}
	if result != nil {
		payload["result"] = result
		payload["state"] = string(result.State)
	}
	if deliveryErr != nil {
		kind := models.KindOf(deliveryErr)
		payload["error"] = deliveryErr.Error()
		payload["error_kind"] = string(kind)
		if kind == models.ErrorKindPreprocessingTimeout {
			payload["state"] = string(models.SubJobStateTimedOut)
		} else {
			payload["state"] = string(models.SubJobStateFailed)
		}
	}

	if err := p.eventService.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventSubJobTerminal,
		Payload: payload,
	}); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to publish terminal sub-job event")
	}
}

// OnAllLanguagesComplete publishes the request-complete event
func (p *EventPublisher) OnAllLanguagesComplete(ctx context.Context, requestID string) {
	if err := p.eventService.Publish(ctx, interfaces.Event{
		Type: interfaces.EventRequestComplete,
		Payload: map[string]interface{}{
			"request_id": requestID,
		},
	}); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to publish request-complete event")
	}
}
