package models

import "time"

// StuckJob describes a sub-job whose time in a non-terminal state exceeds
// the diagnostic threshold.
type StuckJob struct {
	SubJobID  string        `json:"sub_job_id"`
	RequestID string        `json:"request_id"`
	Language  string        `json:"language"`
	State     SubJobState   `json:"state"`
	Elapsed   time.Duration `json:"elapsed"`
}

// LivenessSnapshot is an on-demand, advisory view of in-flight work.
// It is never persisted and plays no part in correctness.
type LivenessSnapshot struct {
	TakenAt          time.Time           `json:"taken_at"`
	CountsByState    map[SubJobState]int `json:"counts_by_state"`
	WaitingJobs      int                 `json:"waiting_jobs"`
	ActiveJobs       int                 `json:"active_jobs"`
	StuckWaitingJobs []StuckJob          `json:"stuck_waiting_jobs"`
	StuckActiveJobs  []StuckJob          `json:"stuck_active_jobs"`
	// Sampled is true when the store exceeded the page budget and the stuck
	// lists reflect a bounded sample rather than a full scan.
	Sampled bool `json:"sampled"`
}

// ThroughputSample is a moving-window rate snapshot from the advisory counters
type ThroughputSample struct {
	DispatchedPerSec   float64 `json:"dispatched_per_sec"`
	PreprocessedPerSec float64 `json:"preprocessed_per_sec"`
	CompletedPerSec    float64 `json:"completed_per_sec"`
	FailedPerSec       float64 `json:"failed_per_sec"`
}
