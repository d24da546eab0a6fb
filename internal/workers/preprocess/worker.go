package preprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
)

const jobBufferSize = 1024

// Worker is the embedded preprocessing worker pool. It consumes enqueued
// sub-jobs from the event bus, normalizes the text, and publishes the
// preprocessing notification the completion bridge resolves against.
type Worker struct {
	eventService interfaces.EventService
	logger       arbor.ILogger
	concurrency  int
	jobs         chan *models.SubJob
}

// NewWorker creates a preprocessing worker pool
func NewWorker(eventService interfaces.EventService, concurrency int, logger arbor.ILogger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		eventService: eventService,
		logger:       logger,
		concurrency:  concurrency,
		jobs:         make(chan *models.SubJob, jobBufferSize),
	}
}

// Start subscribes to the enqueue topic and launches the worker goroutines
func (w *Worker) Start(ctx context.Context) error {
	if err := w.eventService.Subscribe(interfaces.EventSubJobEnqueued, w.onEnqueued); err != nil {
		return fmt.Errorf("failed to subscribe to enqueued sub-jobs: %w", err)
	}

	for i := 0; i < w.concurrency; i++ {
		name := fmt.Sprintf("preprocessWorker-%d", i)
		common.SafeGoWithContext(ctx, w.logger, name, func() {
			w.run(ctx)
		})
	}

	w.logger.Info().Int("concurrency", w.concurrency).Msg("Preprocessing workers started")
	return nil
}

// onEnqueued queues one sub-job for processing. A full buffer drops the
// job; the bridge timeout then surfaces it as a preprocessing timeout.
func (w *Worker) onEnqueued(ctx context.Context, event interfaces.Event) error {
	job, ok := event.Payload.(*models.SubJob)
	if !ok {
		w.logger.Warn().Msg("Invalid enqueue event payload type")
		return nil
	}

	select {
	case w.jobs <- job:
	default:
		w.logger.Warn().Str("sub_job_id", job.ID).Msg("Preprocess buffer full - dropping sub-job")
	}
	return nil
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

// process normalizes one sub-job's text and publishes the notification
func (w *Worker) process(ctx context.Context, job *models.SubJob) {
	start := time.Now()
	outcome := Preprocess(job.Text, job.Options)
	outcome.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000.0

	notification := &models.PreprocessingNotification{
		SubJobID: job.ID,
		Status:   models.NotificationCompleted,
		Result:   outcome,
	}

	if err := w.eventService.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventPreprocessingResult,
		Payload: notification,
	}); err != nil {
		w.logger.Warn().Str("sub_job_id", job.ID).Err(err).Msg("Failed to publish preprocessing result")
		return
	}

	w.logger.Debug().
		Str("sub_job_id", job.ID).
		Bool("filtered", outcome.Filtered).
		Str("elapsed_ms", fmt.Sprintf("%.1f", outcome.ElapsedMs)).
		Msg("Sub-job preprocessed")
}

// Preprocess applies the requested normalization steps in a fixed order
// and detects the source language. Profanity and empty-after-cleanup
// yield a filtered outcome.
func Preprocess(text string, opts models.PreprocessOptions) *models.PreprocessingOutcome {
	outcome := &models.PreprocessingOutcome{
		OriginalText: text,
	}

	processed := text
	if opts.FixTypos {
		processed = FixTypos(processed)
	}
	if opts.ExpandAbbreviations {
		processed = ExpandAbbreviations(processed)
	}
	if opts.NormalizeRepeats {
		processed = NormalizeRepeats(processed)
	}
	if opts.RemoveEmoticons {
		processed = RemoveEmoticons(processed)
	}

	if opts.FilterProfanity && ContainsProfanity(processed) {
		outcome.Filtered = true
		outcome.FilterReason = "profanity"
		return outcome
	}

	if processed == "" {
		outcome.Filtered = true
		outcome.FilterReason = "empty_after_preprocessing"
		return outcome
	}

	outcome.PreprocessedText = processed
	outcome.DetectedLanguage = DetectLanguage(processed)
	return outcome
}
