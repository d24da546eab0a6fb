// -----------------------------------------------------------------------
// Completion Bridge - resolves cross-process preprocessing notifications
// to local waiters, racing each against a deadline
// -----------------------------------------------------------------------

package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
)

// pendingWaiter represents one local registration awaiting a sub-job's
// preprocessing outcome. The settled flag is the per-waiter tie-break:
// whichever of {notification, timeout, cancel, stop} wins the
// compare-and-swap is authoritative, so exactly one of {resolve, reject}
// ever executes.
type pendingWaiter struct {
	ch      chan *models.PreprocessingOutcome // buffered 1 - resolver never blocks
	settled atomic.Bool
}

// cachedOutcome holds a notification that arrived with no active waiter.
// It stays available for the grace window so a late waiter still resolves
// correctly instead of timing out.
type cachedOutcome struct {
	outcome  *models.PreprocessingOutcome
	cachedAt time.Time
}

// Service implements the CompletionBridge. The waiter registry and outcome
// cache are per-key atomic (sync.Map + CAS) so unrelated sub-jobs never
// serialize against each other.
type Service struct {
	waiters     sync.Map // subJobID -> *pendingWaiter
	cache       sync.Map // subJobID -> *cachedOutcome
	graceWindow time.Duration

	eventService interfaces.EventService
	logger       arbor.ILogger

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewService creates a new completion bridge
func NewService(eventService interfaces.EventService, graceWindow time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		graceWindow:  graceWindow,
		eventService: eventService,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Start subscribes to the preprocessing notification topic and starts the
// cache janitor.
func (s *Service) Start(ctx context.Context) error {
	if err := s.eventService.Subscribe(interfaces.EventPreprocessingResult, s.onNotification); err != nil {
		return fmt.Errorf("failed to subscribe to preprocessing results: %w", err)
	}

	common.SafeGoWithContext(ctx, s.logger, "bridgeCacheJanitor", func() {
		s.runJanitor(ctx)
	})

	s.logger.Info().
		Str("grace_window", s.graceWindow.String()).
		Msg("Completion bridge started")
	return nil
}

// Stop rejects all pending waiters and releases resources
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Await blocks until the sub-job's preprocessing notification arrives or
// the timeout elapses.
func (s *Service) Await(ctx context.Context, subJobID string, timeout time.Duration) (*models.PreprocessingOutcome, error) {
	// Fast path: notification arrived before anyone asked
	if cached, ok := s.cache.LoadAndDelete(subJobID); ok {
		return cached.(*cachedOutcome).outcome, nil
	}

	w := &pendingWaiter{ch: make(chan *models.PreprocessingOutcome, 1)}
	if _, loaded := s.waiters.LoadOrStore(subJobID, w); loaded {
		return nil, models.ErrWaiterExists
	}

	// Re-check the cache: a notification may have been cached between the
	// fast-path check and the registry store. Without this a waiter could
	// hang on an outcome that already exists.
	if cached, ok := s.cache.LoadAndDelete(subJobID); ok {
		if w.settled.CompareAndSwap(false, true) {
			s.waiters.Delete(subJobID)
			return cached.(*cachedOutcome).outcome, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-w.ch:
		// Resolver already settled the waiter and removed it from the registry
		return outcome, nil

	case <-timer.C:
		if w.settled.CompareAndSwap(false, true) {
			s.waiters.Delete(subJobID)
			return nil, &models.PipelineError{
				Kind: models.ErrorKindPreprocessingTimeout,
				Err:  fmt.Errorf("no preprocessing notification within %s for %s", timeout, subJobID),
			}
		}
		// Lost the tie to a notification that was fully processed first -
		// the result is already in the buffered channel.
		return <-w.ch, nil

	case <-ctx.Done():
		if w.settled.CompareAndSwap(false, true) {
			s.waiters.Delete(subJobID)
			return nil, ctx.Err()
		}
		return <-w.ch, nil

	case <-s.stopCh:
		if w.settled.CompareAndSwap(false, true) {
			s.waiters.Delete(subJobID)
			return nil, fmt.Errorf("completion bridge stopped")
		}
		return <-w.ch, nil
	}
}

// PendingWaiters returns the number of currently registered waiters
func (s *Service) PendingWaiters() int {
	count := 0
	s.waiters.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// onNotification handles one message from the notification topic
func (s *Service) onNotification(ctx context.Context, event interfaces.Event) error {
	notification, ok := decodeNotification(event.Payload)
	if !ok {
		s.logger.Warn().Msg("Invalid preprocessing notification payload type")
		return nil
	}
	if notification.SubJobID == "" {
		s.logger.Warn().Msg("Preprocessing notification missing sub-job id")
		return nil
	}

	s.resolve(notification)
	return nil
}

// resolve delivers the notification to the registered waiter, or caches it
// for the grace window when no waiter is active or the waiter already
// settled (late or duplicate notification).
func (s *Service) resolve(notification *models.PreprocessingNotification) {
	outcome := outcomeFrom(notification)

	if v, ok := s.waiters.Load(notification.SubJobID); ok {
		w := v.(*pendingWaiter)
		if w.settled.CompareAndSwap(false, true) {
			s.waiters.Delete(notification.SubJobID)
			w.ch <- outcome

			s.logger.Debug().
				Str("sub_job_id", notification.SubJobID).
				Str("status", string(notification.Status)).
				Msg("Resolved pending waiter")
			return
		}
	}

	s.cache.Store(notification.SubJobID, &cachedOutcome{
		outcome:  outcome,
		cachedAt: time.Now(),
	})

	s.logger.Debug().
		Str("sub_job_id", notification.SubJobID).
		Msg("No active waiter - outcome cached for grace window")
}

// outcomeFrom converts a notification into a preprocessing outcome.
// Worker-reported failures become a synthetic filtered outcome carrying the
// reason - the waiter resolves successfully, it never hangs or errors.
func outcomeFrom(notification *models.PreprocessingNotification) *models.PreprocessingOutcome {
	if notification.Status == models.NotificationCompleted && notification.Result != nil {
		return notification.Result
	}

	reason := notification.Error
	if reason == "" {
		reason = "preprocessing worker reported failure"
	}
	return &models.PreprocessingOutcome{
		Filtered:     true,
		FilterReason: reason,
	}
}

// runJanitor evicts cached outcomes older than the grace window
func (s *Service) runJanitor(ctx context.Context) {
	interval := s.graceWindow / 2
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			evicted := 0
			s.cache.Range(func(key, value interface{}) bool {
				if now.Sub(value.(*cachedOutcome).cachedAt) > s.graceWindow {
					s.cache.Delete(key)
					evicted++
				}
				return true
			})
			if evicted > 0 {
				s.logger.Trace().Int("evicted", evicted).Msg("Evicted expired cached outcomes")
			}
		}
	}
}

// decodeNotification accepts both pointer and value payloads from the bus
func decodeNotification(payload interface{}) (*models.PreprocessingNotification, bool) {
	switch p := payload.(type) {
	case *models.PreprocessingNotification:
		return p, true
	case models.PreprocessingNotification:
		return &p, true
	}
	return nil, false
}
