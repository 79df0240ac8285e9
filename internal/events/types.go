package events

// Event type constants for kelindar/event.
const (
	TypeDoorStateChanged uint32 = iota + 1
	TypeConnectivityChanged
	TypeProvisioningStateChanged
	TypeIndicatorAction
)

// Provisioning states carried by ProvisioningStateChangedEvent.
const (
	ProvisioningStarted = "started"
	ProvisioningFailed  = "failed"
	ProvisioningDone    = "done"
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DoorStateChangedEvent is published by the relay monitor after the
// contact has settled in a new position.
type DoorStateChangedEvent struct {
	Open      bool   `json:"open" doc:"Whether the door is open"`
	Pin       string `json:"pin" example:"GPIO20" doc:"Relay input pin"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DoorStateChangedEvent.
func (e DoorStateChangedEvent) Type() uint32 { return TypeDoorStateChanged }

// ConnectivityChangedEvent reports the uplink going up or down.
type ConnectivityChangedEvent struct {
	Connected bool   `json:"connected" doc:"Whether the uplink is connected"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectivityChangedEvent.
func (e ConnectivityChangedEvent) Type() uint32 { return TypeConnectivityChanged }

// ProvisioningStateChangedEvent reports progress of device provisioning.
type ProvisioningStateChangedEvent struct {
	State     string `json:"state" example:"started" enum:"started,failed,done" doc:"Provisioning state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProvisioningStateChangedEvent.
func (e ProvisioningStateChangedEvent) Type() uint32 { return TypeProvisioningStateChanged }

// IndicatorActionEvent is published whenever an action is queued on the
// indicator, whatever the source.
type IndicatorActionEvent struct {
	Action    string `json:"action" example:"blink-angry" doc:"Queued action"`
	Repeats   int    `json:"repeats" example:"2" doc:"Repeat count, -1 for forever"`
	Source    string `json:"source" example:"api" doc:"What queued the action"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for IndicatorActionEvent.
func (e IndicatorActionEvent) Type() uint32 { return TypeIndicatorAction }
