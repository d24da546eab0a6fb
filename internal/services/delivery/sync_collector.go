package delivery

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/models"
)

// PartialEvent is one terminal sub-job event observed by a synchronous
// caller. Exactly one of Result and Err is set.
type PartialEvent struct {
	RequestID string
	Language  string
	Result    *models.SubJobResult
	Err       error
}

// SyncCollector buffers terminal events for requests whose caller is
// blocked waiting on the HTTP response. A request with no registration
// is simply not collected - events for it are dropped without error.
type SyncCollector struct {
	mu       sync.RWMutex
	channels map[string]chan PartialEvent
	logger   arbor.ILogger
}

// NewSyncCollector creates a collector with no registrations
func NewSyncCollector(logger arbor.ILogger) *SyncCollector {
	return &SyncCollector{
		channels: make(map[string]chan PartialEvent),
		logger:   logger,
	}
}

// Register opens a buffered collection channel for a request. Capacity
// should be the language count so delivery never blocks on a slow reader.
func (c *SyncCollector) Register(requestID string, capacity int) <-chan PartialEvent {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan PartialEvent, capacity)

	c.mu.Lock()
	c.channels[requestID] = ch
	c.mu.Unlock()

	return ch
}

// Release drops the registration for a request. Events arriving after
// release are discarded.
func (c *SyncCollector) Release(requestID string) {
	c.mu.Lock()
	delete(c.channels, requestID)
	c.mu.Unlock()
}

// OnPartialResult hands the event to the registered channel, if any.
// The send is non-blocking: a full or missing channel drops the event
// rather than stalling the pipeline.
func (c *SyncCollector) OnPartialResult(ctx context.Context, requestID, language string, result *models.SubJobResult, deliveryErr error) {
	c.mu.RLock()
	ch, ok := c.channels[requestID]
	c.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case ch <- PartialEvent{RequestID: requestID, Language: language, Result: result, Err: deliveryErr}:
	default:
		c.logger.Warn().
			Str("request_id", requestID).
			Str("language", language).
			Msg("Sync collector channel full - dropping terminal event")
	}
}

// OnAllLanguagesComplete is advisory; the synchronous caller counts
// events itself.
func (c *SyncCollector) OnAllLanguagesComplete(ctx context.Context, requestID string) {}
