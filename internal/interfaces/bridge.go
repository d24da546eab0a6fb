package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/transfero/internal/models"
)

// CompletionBridge resolves asynchronous cross-process preprocessing
// notifications to local waiters, racing each against a deadline.
//
// Guarantees:
//   - exactly one of {resolve, reject} per waiter, even when notification
//     and timeout land within the same millisecond
//   - a notification arriving before any waiter registers is cached for a
//     bounded grace window and handed to a later waiter immediately
//   - a worker-reported failure resolves the waiter with a synthetic
//     filtered outcome carrying the reason, never an error
type CompletionBridge interface {
	// Await blocks until the sub-job's preprocessing notification arrives or
	// the timeout elapses. Timeout yields a PipelineError with kind
	// preprocessing_timeout.
	Await(ctx context.Context, subJobID string, timeout time.Duration) (*models.PreprocessingOutcome, error)

	// PendingWaiters returns the number of currently registered waiters
	PendingWaiters() int

	// Start subscribes to the notification topic and starts the cache janitor
	Start(ctx context.Context) error

	// Stop rejects all pending waiters and releases resources
	Stop()
}
