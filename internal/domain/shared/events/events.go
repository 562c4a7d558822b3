package events

import "time"

// Event is a domain fact recorded by an aggregate during a mutation. The name
// keys outbox topic routing; the aggregate ID becomes the partition key.
type Event interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects events raised by an aggregate so the application
// layer can stage them for post-commit publication. Embed it by value.
type EventRecorder struct {
	recorded []Event
}

// Record appends an event to the pending list.
func (r *EventRecorder) Record(event Event) {
	r.recorded = append(r.recorded, event)
}

// Events returns the pending events in the order recorded.
func (r *EventRecorder) Events() []Event {
	return r.recorded
}

// ClearEvents drops the pending list after the events are staged.
func (r *EventRecorder) ClearEvents() {
	r.recorded = nil
}
