package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels
// so the SSE endpoint can select over every event kind at once.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Drop event if channel is full (non-blocking)
		}
	})
}

// SubscribeAll forwards every event kind to ch and returns one function
// that unsubscribes them all.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[DoorStateChangedEvent](bus, ch),
		SubscribeToChannel[ConnectivityChangedEvent](bus, ch),
		SubscribeToChannel[ProvisioningStateChangedEvent](bus, ch),
		SubscribeToChannel[IndicatorActionEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
