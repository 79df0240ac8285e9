package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(DoorStateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case DoorStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ConnectivityChangedEvent:
		event.Publish(b.dispatcher, e)
	case ProvisioningStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case IndicatorActionEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type selects which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e DoorStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DoorStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConnectivityChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProvisioningStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorActionEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
