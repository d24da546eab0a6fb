package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventSubJobEnqueued fires when the dispatcher writes a new sub-job to
	// the durable store. The embedded preprocessing workers consume it.
	EventSubJobEnqueued EventType = "sub_job_enqueued"

	// EventPreprocessingResult is the notification topic fed by preprocessing
	// workers: {sub_job_id, status completed|failed, payload}. At-least-once,
	// no ordering across sub-job ids.
	EventPreprocessingResult EventType = "preprocessing_result"

	// EventSubJobTerminal fires once per sub-job when it reaches a terminal
	// state. Stream delivery subscribes to it.
	EventSubJobTerminal EventType = "sub_job_terminal"

	// EventRequestComplete fires when every language of a request is terminal.
	// Best-effort, advisory only.
	EventRequestComplete EventType = "request_complete"

	// EventThroughputSample carries the advisory per-second counters
	EventThroughputSample EventType = "throughput_sample"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Unsubscribe from an event type
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
