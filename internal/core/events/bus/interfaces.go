package bus

// Event is an immutable payload routed by its Type.
//
// Implementations are plain value types (see models.Collision); handlers must
// treat them as read-only.
type Event interface {
	Type() string
}

// Envelope carries one queued event through delivery. Processed is shared by
// every handler receiving the same envelope, so at-most-once consumption
// across several matching systems is explicit: a consumer checks it, acts,
// then sets it.
type Envelope struct {
	Event     Event
	Seq       uint64
	Processed bool
}

type (
	// Handler is invoked once per delivered envelope. Returned errors are
	// joined and surfaced from Dispatch.
	Handler func(env *Envelope) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// EventType returns the event type this subscription listens to.
	EventType() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about queueing and deliveries. Implementations can
// export metrics or logs and should return quickly.
type Observer interface {
	OnEnqueue(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, durationMicros int64)
}

// Metrics is a minimal set of counters, updated only while at least one
// observer is registered.
type Metrics struct {
	Enqueued          uint64
	Delivered         uint64
	DeliveredHandlers uint64
	Discarded         uint64
	Errors            uint64
	SubscribersActive uint64
}
