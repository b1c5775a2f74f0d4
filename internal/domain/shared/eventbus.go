package shared

import "context"

// EventHandler consumes domain events
type EventHandler interface {
	// Handle processes one domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes names the event types the handler wants. An empty slice
	// subscribes the handler to every event.
	EventTypes() []string
}

// EventPublisher publishes domain events after aggregate state changes
// have been persisted
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations
type EventSubscriber interface {
	// Subscribe registers a handler for the given event types, or for all
	// events when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a previously registered handler
	Unsubscribe(handler EventHandler)
}

// EventBus is the full in-process event pipeline: publishing, handler
// registration and lifecycle.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
