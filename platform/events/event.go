// Package events provides event infrastructure for decoupled,
// event-driven communication between services.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is the base interface all domain events must implement.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
// The timestamp is serialized as UTC ISO-8601 on the wire.
type BaseEvent struct {
	TraceID   string    `json:"trace_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a new base event stamped with the current UTC time.
func NewBaseEvent(traceID string) BaseEvent {
	return BaseEvent{TraceID: traceID, Timestamp: time.Now().UTC()}
}

// Publisher sends domain events to the message bus. Delivery is
// fire-and-forget: implementations never block the business-critical
// path on broker availability.
type Publisher interface {
	// Publish sends an event to the bus subject derived from its name.
	Publish(ctx context.Context, event Event) error
	// Retries returns the cumulative number of publish retry attempts,
	// for run telemetry.
	Retries() int64
}
