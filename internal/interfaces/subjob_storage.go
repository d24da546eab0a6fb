package interfaces

import (
	"context"

	"github.com/ternarybob/transfero/internal/models"
)

// SubJobStorage is the durable job store consumed by the core.
// It is the only cross-process mutable state: append-mostly, with
// read-your-writes guaranteed for the writing process only.
type SubJobStorage interface {
	// Enqueue writes the initial record for a new sub-job (state=created).
	// One write per language; a failure affects only that language.
	Enqueue(ctx context.Context, job *models.SubJob) error

	// Get returns the combined immutable+runtime view of a sub-job
	Get(ctx context.Context, subJobID string) (*models.SubJob, error)

	// GetByRequest returns all sub-jobs belonging to a request
	GetByRequest(ctx context.Context, requestID string) ([]*models.SubJob, error)

	// UpdateState applies a monotonic state transition. Transitions out of a
	// terminal state fail with models.ErrAlreadyTerminal and leave the
	// record untouched.
	UpdateState(ctx context.Context, subJobID string, state models.SubJobState) error

	// SavePreprocessing stores the preprocessing outcome on the runtime record
	SavePreprocessing(ctx context.Context, subJobID string, outcome *models.PreprocessingOutcome) error

	// MarkCompleted sets the completed terminal state with the translation result
	MarkCompleted(ctx context.Context, subJobID string, result *models.TranslationOutcome) error

	// MarkFailed sets a failure terminal state (failed or timed_out) with the
	// captured error.
	MarkFailed(ctx context.Context, subJobID string, state models.SubJobState, kind models.ErrorKind, errMsg string) error

	// CountsByState returns the number of sub-jobs per state
	CountsByState(ctx context.Context) (map[models.SubJobState]int, error)

	// Page returns a bounded page of sub-jobs in the given state,
	// oldest first.
	Page(ctx context.Context, state models.SubJobState, offset, limit int) ([]*models.SubJob, error)

	// CountJobs returns the total number of stored sub-jobs
	CountJobs(ctx context.Context) (int, error)
}
