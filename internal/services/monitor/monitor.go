// -----------------------------------------------------------------------
// Liveness Monitor - stuck-job classification and advisory throughput
// -----------------------------------------------------------------------

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
)

// Service implements the LivenessMonitor. Read-only against the durable
// store; tolerates a store larger than its page budget by returning a
// sampled view.
type Service struct {
	storage      interfaces.SubJobStorage
	counters     *Counters
	eventService interfaces.EventService
	logger       arbor.ILogger

	pageSize int
	maxPages int

	// Scan thresholds for the periodic cron scan
	activeThreshold  time.Duration
	waitingThreshold time.Duration

	sampleMu sync.RWMutex
	sample   models.ThroughputSample
	prev     [4]int64

	cron *cron.Cron
}

// NewService creates a liveness monitor
func NewService(storage interfaces.SubJobStorage, counters *Counters, eventService interfaces.EventService, config *common.Config, logger arbor.ILogger) *Service {
	pageSize := config.Monitor.PageSize
	if pageSize < 1 {
		pageSize = 200
	}
	maxPages := config.Monitor.MaxPages
	if maxPages < 1 {
		maxPages = 10
	}

	return &Service{
		storage:          storage,
		counters:         counters,
		eventService:     eventService,
		logger:           logger,
		pageSize:         pageSize,
		maxPages:         maxPages,
		activeThreshold:  config.ActiveThreshold(),
		waitingThreshold: config.WaitingThreshold(),
	}
}

// Start launches the throughput sampler and the periodic stuck-job scan
func (s *Service) Start(ctx context.Context, scanSchedule string) error {
	common.SafeGoWithContext(ctx, s.logger, "throughputSampler", func() {
		s.runSampler(ctx)
	})

	if scanSchedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(scanSchedule, func() {
			s.scan(ctx)
		}); err != nil {
			return fmt.Errorf("invalid monitor scan schedule %q: %w", scanSchedule, err)
		}
		s.cron.Start()
		s.logger.Info().Str("schedule", scanSchedule).Msg("Liveness scan scheduled")
	}

	return nil
}

// Stop halts the periodic scan
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Snapshot reads sub-job state in bounded pages and classifies stuck jobs
func (s *Service) Snapshot(ctx context.Context, activeThreshold, waitingThreshold time.Duration) (*models.LivenessSnapshot, error) {
	counts, err := s.storage.CountsByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read state counts: %w", err)
	}

	snapshot := &models.LivenessSnapshot{
		TakenAt:          time.Now(),
		CountsByState:    counts,
		WaitingJobs:      counts[models.SubJobStateAwaitingPreprocessing],
		ActiveJobs:       counts[models.SubJobStateTranslating],
		StuckWaitingJobs: []models.StuckJob{},
		StuckActiveJobs:  []models.StuckJob{},
	}

	stuckWaiting, sampledWaiting, err := s.collectStuck(ctx, models.SubJobStateAwaitingPreprocessing, waitingThreshold)
	if err != nil {
		return nil, err
	}
	stuckActive, sampledActive, err := s.collectStuck(ctx, models.SubJobStateTranslating, activeThreshold)
	if err != nil {
		return nil, err
	}

	snapshot.StuckWaitingJobs = stuckWaiting
	snapshot.StuckActiveJobs = stuckActive
	snapshot.Sampled = sampledWaiting || sampledActive

	return snapshot, nil
}

// collectStuck pages through one state and returns jobs past the threshold.
// The second return value is true when the page budget was exhausted and
// the result is a sample.
func (s *Service) collectStuck(ctx context.Context, state models.SubJobState, threshold time.Duration) ([]models.StuckJob, bool, error) {
	now := time.Now()
	stuck := []models.StuckJob{}

	for page := 0; page < s.maxPages; page++ {
		jobs, err := s.storage.Page(ctx, state, page*s.pageSize, s.pageSize)
		if err != nil {
			return nil, false, fmt.Errorf("failed to page %s sub-jobs: %w", state, err)
		}

		for _, job := range jobs {
			elapsed := now.Sub(job.StateChangedAt)
			if elapsed > threshold {
				stuck = append(stuck, models.StuckJob{
					SubJobID:  job.ID,
					RequestID: job.RequestID,
					Language:  job.Language,
					State:     job.State,
					Elapsed:   elapsed,
				})
			}
		}

		if len(jobs) < s.pageSize {
			return stuck, false, nil
		}
	}

	// Page budget exhausted - there may be more records than we looked at
	return stuck, true, nil
}

// Throughput returns the latest moving-window rate sample
func (s *Service) Throughput() models.ThroughputSample {
	s.sampleMu.RLock()
	defer s.sampleMu.RUnlock()
	return s.sample
}

// runSampler converts cumulative counters into per-second rates once a
// second and publishes the advisory sample.
func (s *Service) runSampler(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			if elapsed <= 0 {
				continue
			}
			last = now

			d, p, c, f := s.counters.totals()
			sample := models.ThroughputSample{
				DispatchedPerSec:   float64(d-s.prev[0]) / elapsed,
				PreprocessedPerSec: float64(p-s.prev[1]) / elapsed,
				CompletedPerSec:    float64(c-s.prev[2]) / elapsed,
				FailedPerSec:       float64(f-s.prev[3]) / elapsed,
			}
			s.prev = [4]int64{d, p, c, f}

			s.sampleMu.Lock()
			s.sample = sample
			s.sampleMu.Unlock()

			if s.eventService != nil {
				s.eventService.Publish(ctx, interfaces.Event{
					Type:    interfaces.EventThroughputSample,
					Payload: sample,
				})
			}
		}
	}
}

// scan runs the periodic stuck-job check and logs findings
func (s *Service) scan(ctx context.Context) {
	snapshot, err := s.Snapshot(ctx, s.activeThreshold, s.waitingThreshold)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Liveness scan failed")
		return
	}

	if len(snapshot.StuckWaitingJobs) == 0 && len(snapshot.StuckActiveJobs) == 0 {
		s.logger.Debug().
			Int("waiting", snapshot.WaitingJobs).
			Int("active", snapshot.ActiveJobs).
			Msg("Liveness scan clean")
		return
	}

	s.logger.Warn().
		Int("stuck_waiting", len(snapshot.StuckWaitingJobs)).
		Int("stuck_active", len(snapshot.StuckActiveJobs)).
		Bool("sampled", snapshot.Sampled).
		Msg("Liveness scan found stuck sub-jobs")

	for _, job := range snapshot.StuckActiveJobs {
		s.logger.Warn().
			Str("sub_job_id", job.SubJobID).
			Str("state", string(job.State)).
			Str("elapsed", job.Elapsed.String()).
			Msg("Stuck sub-job")
	}
}
