package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/transfero/internal/models"
)

// LivenessMonitor classifies in-flight sub-jobs and exposes advisory
// throughput counters. Read-only; never on the correctness path.
type LivenessMonitor interface {
	// Snapshot reads sub-job state in bounded pages and classifies jobs
	// stuck past the thresholds. A store larger than the page budget yields
	// a sampled view rather than blocking.
	Snapshot(ctx context.Context, activeThreshold, waitingThreshold time.Duration) (*models.LivenessSnapshot, error)

	// Throughput returns the latest moving-window rate sample
	Throughput() models.ThroughputSample
}
