package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SubJobStorage implements the SubJobStorage interface for Badger.
// Each sub-job is stored as two records: the immutable SubJobRecord written
// once at enqueue time, and the mutable SubJobStatusRecord updated as the
// state machine advances.
type SubJobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// SubJobRecord is the immutable part of a sub-job, written once at fan-out.
// IMPORTANT: store value types, not pointers - BadgerHold uses the type name
// for key prefixes and *SubJobRecord vs SubJobRecord create different prefixes.
type SubJobRecord struct {
	ID        string `badgerhold:"key"`
	RequestID string `badgerhold:"index"`
	Language  string
	Text      string
	Options   models.PreprocessOptions
	CreatedAt time.Time
}

// SubJobStatusRecord is the mutable runtime state, keyed by the same id.
// Terminal states are irreversible: any transition attempt out of one is
// rejected with models.ErrAlreadyTerminal.
type SubJobStatusRecord struct {
	SubJobID       string `badgerhold:"key"`
	State          string `badgerhold:"index"`
	Preprocessing  *models.PreprocessingOutcome
	Translation    *models.TranslationOutcome
	Error          string
	ErrorKind      string
	StateChangedAt time.Time
	FinishedAt     *time.Time
	UpdatedAt      time.Time
}

// NewSubJobStorage creates a new SubJobStorage instance
func NewSubJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SubJobStorage {
	return &SubJobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SubJobStorage) Enqueue(ctx context.Context, job *models.SubJob) error {
	if job.ID == "" {
		return fmt.Errorf("sub-job ID is required")
	}

	s.logger.Trace().
		Str("sub_job_id", job.ID).
		Str("language", job.Language).
		Msg("BadgerDB: Enqueue starting")

	record := SubJobRecord{
		ID:        job.ID,
		RequestID: job.RequestID,
		Language:  job.Language,
		Text:      job.Text,
		Options:   job.Options,
		CreatedAt: job.CreatedAt,
	}
	if err := s.db.Store().Insert(record.ID, record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("sub-job already enqueued: %s", job.ID)
		}
		return fmt.Errorf("failed to enqueue sub-job: %w", err)
	}

	status := SubJobStatusRecord{
		SubJobID:       job.ID,
		State:          string(models.SubJobStateCreated),
		StateChangedAt: job.CreatedAt,
		UpdatedAt:      time.Now(),
	}
	if err := s.db.Store().Upsert(status.SubJobID, &status); err != nil {
		return fmt.Errorf("failed to save sub-job status: %w", err)
	}

	return nil
}

func (s *SubJobStorage) Get(ctx context.Context, subJobID string) (*models.SubJob, error) {
	var record SubJobRecord
	if err := s.db.Store().Get(subJobID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrSubJobNotFound
		}
		return nil, fmt.Errorf("failed to get sub-job: %w", err)
	}

	var status SubJobStatusRecord
	if err := s.db.Store().Get(subJobID, &status); err != nil && err != badgerhold.ErrNotFound {
		s.logger.Warn().Err(err).Str("sub_job_id", subJobID).Msg("BadgerDB: Failed to get sub-job status record")
	}

	return combine(&record, &status), nil
}

func (s *SubJobStorage) GetByRequest(ctx context.Context, requestID string) ([]*models.SubJob, error) {
	var records []SubJobRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("RequestID").Eq(requestID).Index("RequestID")); err != nil {
		return nil, fmt.Errorf("failed to find sub-jobs for request: %w", err)
	}

	result := make([]*models.SubJob, 0, len(records))
	for i := range records {
		var status SubJobStatusRecord
		if err := s.db.Store().Get(records[i].ID, &status); err != nil && err != badgerhold.ErrNotFound {
			continue
		}
		result = append(result, combine(&records[i], &status))
	}

	return result, nil
}

func (s *SubJobStorage) UpdateState(ctx context.Context, subJobID string, state models.SubJobState) error {
	var status SubJobStatusRecord
	if err := s.db.Store().Get(subJobID, &status); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrSubJobNotFound
		}
		return fmt.Errorf("failed to get sub-job status record: %w", err)
	}

	current := models.SubJobState(status.State)
	if current.IsTerminal() {
		return models.ErrAlreadyTerminal
	}
	if current == state {
		return nil
	}
	if !models.CanTransition(current, state) {
		return fmt.Errorf("illegal state transition %s -> %s for %s", current, state, subJobID)
	}

	now := time.Now()
	status.State = string(state)
	status.StateChangedAt = now
	status.UpdatedAt = now
	if state.IsTerminal() {
		status.FinishedAt = &now
	}

	s.logger.Trace().
		Str("sub_job_id", subJobID).
		Str("old_state", string(current)).
		Str("new_state", string(state)).
		Msg("BadgerDB: Updating sub-job state")

	if err := s.db.Store().Upsert(subJobID, &status); err != nil {
		return fmt.Errorf("failed to update sub-job state: %w", err)
	}
	return nil
}

func (s *SubJobStorage) SavePreprocessing(ctx context.Context, subJobID string, outcome *models.PreprocessingOutcome) error {
	var status SubJobStatusRecord
	if err := s.db.Store().Get(subJobID, &status); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrSubJobNotFound
		}
		return fmt.Errorf("failed to get sub-job status record: %w", err)
	}

	if models.SubJobState(status.State).IsTerminal() {
		return models.ErrAlreadyTerminal
	}

	status.Preprocessing = outcome
	status.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(subJobID, &status); err != nil {
		return fmt.Errorf("failed to save preprocessing outcome: %w", err)
	}
	return nil
}

func (s *SubJobStorage) MarkCompleted(ctx context.Context, subJobID string, result *models.TranslationOutcome) error {
	return s.finish(subJobID, models.SubJobStateCompleted, func(status *SubJobStatusRecord) {
		status.Translation = result
	})
}

func (s *SubJobStorage) MarkFailed(ctx context.Context, subJobID string, state models.SubJobState, kind models.ErrorKind, errMsg string) error {
	if !state.IsTerminal() {
		return fmt.Errorf("MarkFailed requires a terminal state, got %s", state)
	}
	return s.finish(subJobID, state, func(status *SubJobStatusRecord) {
		status.Error = errMsg
		status.ErrorKind = string(kind)
	})
}

// finish applies a terminal transition with the mutation fn, enforcing
// terminal-state idempotence.
func (s *SubJobStorage) finish(subJobID string, state models.SubJobState, mutate func(*SubJobStatusRecord)) error {
	var status SubJobStatusRecord
	if err := s.db.Store().Get(subJobID, &status); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrSubJobNotFound
		}
		return fmt.Errorf("failed to get sub-job status record: %w", err)
	}

	current := models.SubJobState(status.State)
	if current.IsTerminal() {
		return models.ErrAlreadyTerminal
	}
	if !models.CanTransition(current, state) {
		return fmt.Errorf("illegal state transition %s -> %s for %s", current, state, subJobID)
	}

	now := time.Now()
	status.State = string(state)
	status.StateChangedAt = now
	status.FinishedAt = &now
	status.UpdatedAt = now
	mutate(&status)

	if err := s.db.Store().Upsert(subJobID, &status); err != nil {
		return fmt.Errorf("failed to finish sub-job: %w", err)
	}

	s.logger.Trace().
		Str("sub_job_id", subJobID).
		Str("state", string(state)).
		Msg("BadgerDB: Sub-job reached terminal state")
	return nil
}

func (s *SubJobStorage) CountsByState(ctx context.Context) (map[models.SubJobState]int, error) {
	var statuses []SubJobStatusRecord
	if err := s.db.Store().Find(&statuses, nil); err != nil {
		return nil, fmt.Errorf("failed to count sub-jobs by state: %w", err)
	}

	counts := make(map[models.SubJobState]int)
	for _, status := range statuses {
		counts[models.SubJobState(status.State)]++
	}
	return counts, nil
}

func (s *SubJobStorage) Page(ctx context.Context, state models.SubJobState, offset, limit int) ([]*models.SubJob, error) {
	var statuses []SubJobStatusRecord
	query := badgerhold.Where("State").Eq(string(state)).Index("State").
		SortBy("StateChangedAt").
		Skip(offset).
		Limit(limit)
	if err := s.db.Store().Find(&statuses, query); err != nil {
		return nil, fmt.Errorf("failed to page sub-jobs: %w", err)
	}

	result := make([]*models.SubJob, 0, len(statuses))
	for i := range statuses {
		var record SubJobRecord
		if err := s.db.Store().Get(statuses[i].SubJobID, &record); err != nil {
			continue
		}
		result = append(result, combine(&record, &statuses[i]))
	}
	return result, nil
}

func (s *SubJobStorage) CountJobs(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&SubJobRecord{}, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// combine builds the full SubJob view from the record pair
func combine(record *SubJobRecord, status *SubJobStatusRecord) *models.SubJob {
	job := &models.SubJob{
		ID:        record.ID,
		RequestID: record.RequestID,
		Language:  record.Language,
		Text:      record.Text,
		Options:   record.Options,
		CreatedAt: record.CreatedAt,
		State:     models.SubJobStateCreated,
	}

	if status.SubJobID != "" {
		job.State = models.SubJobState(status.State)
		job.Preprocessing = status.Preprocessing
		job.Translation = status.Translation
		job.Error = status.Error
		job.ErrorKind = models.ErrorKind(status.ErrorKind)
		job.StateChangedAt = status.StateChangedAt
		job.FinishedAt = status.FinishedAt
	}

	return job
}
