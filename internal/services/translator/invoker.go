package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
	"github.com/ternarybob/transfero/internal/services/monitor"
	"golang.org/x/time/rate"
)

// Invoker drives a preprocessed sub-job through its single remote
// translation call, writes the terminal state, and hands the terminal
// event to delivery. One invocation per sub-job; the invoker never
// retries the backend.
type Invoker struct {
	backend  interfaces.TranslationBackend
	storage  interfaces.SubJobStorage
	delivery interfaces.DeliveryAdapter
	counters *monitor.Counters
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewInvoker creates a translation invoker. A zero rate limit disables
// throttling.
func NewInvoker(backend interfaces.TranslationBackend, storage interfaces.SubJobStorage, delivery interfaces.DeliveryAdapter, counters *monitor.Counters, config *common.Config, logger arbor.ILogger) *Invoker {
	var limiter *rate.Limiter
	if config.Translator.RateLimit > 0 {
		burst := config.Translator.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.Translator.RateLimit), burst)
	}

	return &Invoker{
		backend:  backend,
		storage:  storage,
		delivery: delivery,
		counters: counters,
		limiter:  limiter,
		timeout:  config.TranslatorTimeout(),
		logger:   logger,
	}
}

// TranslateOne runs the translation phase for a single sub-job that
// passed preprocessing. It moves the sub-job to translating, issues the
// backend call, records the terminal state, and delivers the terminal
// event exactly once.
func (i *Invoker) TranslateOne(ctx context.Context, subJobID string, outcome *models.PreprocessingOutcome, language string) (*models.TranslationOutcome, error) {
	requestID := common.RequestIDOf(subJobID)

	if err := i.storage.UpdateState(ctx, subJobID, models.SubJobStateTranslating); err != nil {
		if errors.Is(err, models.ErrAlreadyTerminal) {
			// Another path won; nothing to invoke or deliver
			return nil, fmt.Errorf("failed to move %s to translating: %w", subJobID, err)
		}
		// A store failure is still this language's terminal event
		return nil, i.fail(ctx, subJobID, requestID, language, models.ErrorKindStoreUnavailable, err)
	}

	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, i.fail(ctx, subJobID, requestID, language, models.ErrorKindTranslationBackend, fmt.Errorf("rate limiter wait cancelled: %w", err))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	result, err := i.backend.Translate(callCtx, outcome.PreprocessedText, outcome.DetectedLanguage, language)
	if err != nil {
		return nil, i.fail(ctx, subJobID, requestID, language, models.ErrorKindTranslationBackend, err)
	}

	if err := i.storage.MarkCompleted(ctx, subJobID, result); err != nil {
		i.logger.Warn().
			Str("sub_job_id", subJobID).
			Err(err).
			Msg("Failed to persist completed translation")
	}

	i.counters.IncCompleted()
	i.delivery.OnPartialResult(ctx, requestID, language, &models.SubJobResult{
		SubJobID:      subJobID,
		RequestID:     requestID,
		Language:      language,
		State:         models.SubJobStateCompleted,
		Preprocessing: outcome,
		Translation:   result,
	}, nil)

	i.logger.Info().
		Str("sub_job_id", subJobID).
		Str("language", language).
		Bool("cache_hit", result.CacheHit).
		Msg("Sub-job translation completed")

	return result, nil
}

// fail records the failure terminal state and delivers the error event
func (i *Invoker) fail(ctx context.Context, subJobID, requestID, language string, kind models.ErrorKind, cause error) error {
	pipeErr := &models.PipelineError{
		Kind:     kind,
		Language: language,
		Err:      cause,
	}

	if err := i.storage.MarkFailed(ctx, subJobID, models.SubJobStateFailed, kind, cause.Error()); err != nil {
		i.logger.Warn().
			Str("sub_job_id", subJobID).
			Err(err).
			Msg("Failed to persist translation failure")
	}

	i.counters.IncFailed()
	i.delivery.OnPartialResult(ctx, requestID, language, nil, pipeErr)

	i.logger.Warn().
		Str("sub_job_id", subJobID).
		Str("language", language).
		Err(cause).
		Msg("Sub-job translation failed")

	return pipeErr
}
