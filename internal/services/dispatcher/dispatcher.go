// -----------------------------------------------------------------------
// Fan-Out Dispatcher - one independent sub-job pipeline per target language
// -----------------------------------------------------------------------

package dispatcher

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
	"github.com/ternarybob/transfero/internal/services/monitor"
)

// Service implements the FanOutDispatcher. Each target language gets its
// own durable record and its own supervised goroutine; no shared mutable
// state flows between sibling pipelines, so one language failing or
// timing out never touches another.
type Service struct {
	storage      interfaces.SubJobStorage
	bridge       interfaces.CompletionBridge
	invoker      interfaces.TranslationInvoker
	delivery     interfaces.DeliveryAdapter
	eventService interfaces.EventService
	counters     *monitor.Counters
	registry     *common.LanguageRegistry
	logger       arbor.ILogger

	preprocessTimeout time.Duration

	// remaining tracks undelivered languages per in-flight request so the
	// last terminal event can fire the request-complete signal.
	remaining sync.Map // requestID -> *atomic.Int32
}

// NewService creates a fan-out dispatcher
func NewService(
	storage interfaces.SubJobStorage,
	bridge interfaces.CompletionBridge,
	invoker interfaces.TranslationInvoker,
	delivery interfaces.DeliveryAdapter,
	eventService interfaces.EventService,
	counters *monitor.Counters,
	registry *common.LanguageRegistry,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:           storage,
		bridge:            bridge,
		invoker:           invoker,
		delivery:          delivery,
		eventService:      eventService,
		counters:          counters,
		registry:          registry,
		logger:            logger,
		preprocessTimeout: config.PreprocessTimeout(),
	}
}

// Dispatch validates the request and fans it out into one sub-job per
// target language. Handles are returned as soon as every enqueue attempt
// has been made; the pipelines run in the background.
func (s *Service) Dispatch(ctx context.Context, req *models.TranslationRequest) ([]*models.SubJobHandle, error) {
	if req == nil {
		return nil, &models.PipelineError{
			Kind: models.ErrorKindInvalidRequest,
			Err:  fmt.Errorf("nil request"),
		}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, lang := range req.TargetLanguages {
		if !s.registry.Supports(lang) {
			return nil, &models.PipelineError{
				Kind:     models.ErrorKindInvalidRequest,
				Language: lang,
				Err:      fmt.Errorf("unsupported target language: %s", lang),
			}
		}
	}

	counter := &atomic.Int32{}
	counter.Store(int32(len(req.TargetLanguages)))
	s.remaining.Store(req.ID, counter)

	handles := make([]*models.SubJobHandle, 0, len(req.TargetLanguages))
	for _, lang := range req.TargetLanguages {
		handle := s.dispatchLanguage(ctx, req, lang)
		handles = append(handles, handle)
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Int("languages", len(handles)).
		Msg("Request fanned out")

	return handles, nil
}

// dispatchLanguage enqueues one sub-job and starts its pipeline. An
// enqueue failure degrades only this language: the handle carries the
// error, no pipeline starts, and no delivery message is sent for it.
func (s *Service) dispatchLanguage(ctx context.Context, req *models.TranslationRequest, language string) *models.SubJobHandle {
	subJobID := common.SubJobID(req.ID, language)
	handle := &models.SubJobHandle{
		SubJobID:  subJobID,
		RequestID: req.ID,
		Language:  language,
	}

	job := &models.SubJob{
		ID:        subJobID,
		RequestID: req.ID,
		Language:  language,
		Text:      req.Text,
		Options:   req.Options,
		State:     models.SubJobStateCreated,
		CreatedAt: time.Now(),
	}

	if err := s.storage.Enqueue(ctx, job); err != nil {
		handle.Err = &models.PipelineError{
			Kind:     models.ErrorKindStoreUnavailable,
			Language: language,
			Err:      fmt.Errorf("failed to enqueue sub-job %s: %w", subJobID, err),
		}
		s.finishLanguage(ctx, req.ID)

		s.logger.Error().
			Str("sub_job_id", subJobID).
			Err(err).
			Msg("Sub-job enqueue failed - language degraded")
		return handle
	}

	s.counters.IncDispatched()
	if err := s.eventService.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventSubJobEnqueued,
		Payload: job,
	}); err != nil {
		s.logger.Warn().Str("sub_job_id", subJobID).Err(err).Msg("Failed to publish enqueue event")
	}

	// The pipeline outlives the intake request: async and stream callers
	// get their 202 immediately, and net/http cancels the request context
	// on return. Only validation and enqueue ride the caller's context.
	pipelineCtx := context.WithoutCancel(ctx)
	common.SafeGoWithContext(pipelineCtx, s.logger, "pipeline:"+subJobID, func() {
		s.runPipeline(pipelineCtx, job)
	})

	return handle
}

// runPipeline drives a single sub-job from awaiting_preprocessing to a
// terminal state.
func (s *Service) runPipeline(ctx context.Context, job *models.SubJob) {
	defer s.finishLanguage(ctx, job.RequestID)

	if err := s.storage.UpdateState(ctx, job.ID, models.SubJobStateAwaitingPreprocessing); err != nil {
		s.logger.Warn().Str("sub_job_id", job.ID).Err(err).Msg("Failed to mark sub-job awaiting preprocessing")
	}

	outcome, err := s.bridge.Await(ctx, job.ID, s.preprocessTimeout)
	if err != nil {
		s.failPreprocessing(ctx, job, err)
		return
	}

	s.counters.IncPreprocessed()
	if err := s.storage.SavePreprocessing(ctx, job.ID, outcome); err != nil {
		s.logger.Warn().Str("sub_job_id", job.ID).Err(err).Msg("Failed to persist preprocessing outcome")
	}

	if outcome.Filtered {
		// Filtered text never reaches the translation backend. Terminal,
		// delivered as a result rather than an error.
		if err := s.storage.UpdateState(ctx, job.ID, models.SubJobStateFiltered); err != nil {
			s.logger.Warn().Str("sub_job_id", job.ID).Err(err).Msg("Failed to mark sub-job filtered")
		}

		s.delivery.OnPartialResult(ctx, job.RequestID, job.Language, &models.SubJobResult{
			SubJobID:      job.ID,
			RequestID:     job.RequestID,
			Language:      job.Language,
			State:         models.SubJobStateFiltered,
			Preprocessing: outcome,
		}, nil)

		s.logger.Info().
			Str("sub_job_id", job.ID).
			Str("reason", outcome.FilterReason).
			Msg("Sub-job filtered at preprocessing")
		return
	}

	if err := s.storage.UpdateState(ctx, job.ID, models.SubJobStatePreprocessed); err != nil {
		s.logger.Warn().Str("sub_job_id", job.ID).Err(err).Msg("Failed to mark sub-job preprocessed")
	}

	// Invoker owns the terminal state and delivery from here
	if _, err := s.invoker.TranslateOne(ctx, job.ID, outcome, job.Language); err != nil {
		s.logger.Debug().Str("sub_job_id", job.ID).Err(err).Msg("Pipeline ended in translation failure")
	}
}

// failPreprocessing records a bridge failure as the sub-job's terminal
// state and delivers the error event.
func (s *Service) failPreprocessing(ctx context.Context, job *models.SubJob, cause error) {
	state := models.SubJobStateFailed
	kind := models.KindOf(cause)
	if kind == models.ErrorKindPreprocessingTimeout {
		state = models.SubJobStateTimedOut
	} else if kind == "" {
		kind = models.ErrorKindPreprocessingFailed
	}

	if err := s.storage.MarkFailed(ctx, job.ID, state, kind, cause.Error()); err != nil {
		s.logger.Warn().Str("sub_job_id", job.ID).Err(err).Msg("Failed to persist preprocessing failure")
	}

	s.counters.IncFailed()
	s.delivery.OnPartialResult(ctx, job.RequestID, job.Language, nil, &models.PipelineError{
		Kind:     kind,
		Language: job.Language,
		Err:      cause,
	})

	s.logger.Warn().
		Str("sub_job_id", job.ID).
		Str("state", string(state)).
		Err(cause).
		Msg("Sub-job failed before translation")
}

// finishLanguage decrements the per-request remaining counter and fires
// the request-complete signal when the last language lands.
func (s *Service) finishLanguage(ctx context.Context, requestID string) {
	v, ok := s.remaining.Load(requestID)
	if !ok {
		return
	}
	if v.(*atomic.Int32).Add(-1) == 0 {
		s.remaining.Delete(requestID)
		s.delivery.OnAllLanguagesComplete(ctx, requestID)

		s.logger.Info().Str("request_id", requestID).Msg("All languages terminal")
	}
}
