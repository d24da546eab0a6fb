package models

// NotificationStatus is the status carried on the preprocessing topic
type NotificationStatus string

const (
	NotificationCompleted NotificationStatus = "completed"
	NotificationFailed    NotificationStatus = "failed"
)

// PreprocessingNotification is the message published by preprocessing
// workers when a sub-job's preprocessing finishes or fails. Delivery is
// at-least-once with no ordering across sub-job ids.
type PreprocessingNotification struct {
	SubJobID string                `json:"sub_job_id"`
	Status   NotificationStatus    `json:"status"`
	Result   *PreprocessingOutcome `json:"result,omitempty"`
	Error    string                `json:"error,omitempty"`
}
