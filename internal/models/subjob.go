// -----------------------------------------------------------------------
// Sub-Job - Per-(request, language) unit of work
// -----------------------------------------------------------------------

package models

import (
	"time"
)

// SubJobState is the lifecycle state of a sub-job.
//
// Transitions are monotonic:
//
//	created -> awaiting_preprocessing -> {preprocessed | filtered | failed | timed_out}
//	preprocessed -> translating -> {completed | failed}
//
// Exactly one terminal state is reached, after which no further mutation occurs.
type SubJobState string

const (
	SubJobStateCreated               SubJobState = "created"
	SubJobStateAwaitingPreprocessing SubJobState = "awaiting_preprocessing"
	SubJobStatePreprocessed          SubJobState = "preprocessed"
	SubJobStateTranslating           SubJobState = "translating"
	SubJobStateCompleted             SubJobState = "completed"
	SubJobStateFailed                SubJobState = "failed"
	SubJobStateFiltered              SubJobState = "filtered"
	SubJobStateTimedOut              SubJobState = "timed_out"
)

// validTransitions encodes the monotonic state machine
var validTransitions = map[SubJobState][]SubJobState{
	SubJobStateCreated:               {SubJobStateAwaitingPreprocessing, SubJobStateFailed},
	SubJobStateAwaitingPreprocessing: {SubJobStatePreprocessed, SubJobStateFiltered, SubJobStateFailed, SubJobStateTimedOut},
	SubJobStatePreprocessed:          {SubJobStateTranslating},
	SubJobStateTranslating:           {SubJobStateCompleted, SubJobStateFailed},
}

// IsTerminal reports whether the state is terminal and irreversible
func (s SubJobState) IsTerminal() bool {
	switch s {
	case SubJobStateCompleted, SubJobStateFailed, SubJobStateFiltered, SubJobStateTimedOut:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal monotonic transition
func CanTransition(from, to SubJobState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SubJob is the combined view of a sub-job: immutable creation fields plus
// mutable runtime state, read back from the durable store.
type SubJob struct {
	ID        string            `json:"id"` // <requestID>:<language>
	RequestID string            `json:"request_id"`
	Language  string            `json:"language"`
	Text      string            `json:"text"`
	Options   PreprocessOptions `json:"options"`

	State         SubJobState           `json:"state"`
	Preprocessing *PreprocessingOutcome `json:"preprocessing,omitempty"`
	Translation   *TranslationOutcome   `json:"translation,omitempty"`
	Error         string                `json:"error,omitempty"`
	ErrorKind     ErrorKind             `json:"error_kind,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	StateChangedAt time.Time  `json:"state_changed_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// SubJobHandle is returned by the dispatcher immediately after fan-out,
// one per target language. A handle with Err set means that language was
// degraded to immediate failure at enqueue time.
type SubJobHandle struct {
	SubJobID  string `json:"sub_job_id"`
	RequestID string `json:"request_id"`
	Language  string `json:"language"`
	Err       error  `json:"-"`
}

// SubJobResult is the terminal payload handed to delivery adapters
type SubJobResult struct {
	SubJobID      string                `json:"sub_job_id"`
	RequestID     string                `json:"request_id"`
	Language      string                `json:"language"`
	State         SubJobState           `json:"state"`
	Preprocessing *PreprocessingOutcome `json:"preprocessing,omitempty"`
	Translation   *TranslationOutcome   `json:"translation,omitempty"`
}
