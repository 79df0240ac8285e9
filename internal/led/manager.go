package led

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/doorlight/internal/events"
)

// Status keys understood by the Manager.
const (
	StatusProvisioning       = "provisioning"
	StatusProvisioningFailed = "provisioning_failed"
	StatusProvisioned        = "provisioned"
	StatusConnected          = "connected"
	StatusDisconnected       = "disconnected"
	StatusDoorOpen           = "door_open"
	StatusDoorClosed         = "door_closed"
)

// Statuses returns every status key in a stable order.
func Statuses() []string {
	return []string{
		StatusProvisioning,
		StatusProvisioningFailed,
		StatusProvisioned,
		StatusConnected,
		StatusDisconnected,
		StatusDoorOpen,
		StatusDoorClosed,
	}
}

// Step is one action of a status pattern.
type Step struct {
	Action  Action `json:"action"`
	Repeats int    `json:"repeats"`
}

// Patterns maps a status key to the steps pushed when it is reported.
type Patterns map[string][]Step

// DefaultPatterns returns the built-in status table.
func DefaultPatterns() Patterns {
	ack := []Step{{ActionBlinkOnce, 1}, {ActionOff, Forever}}
	return Patterns{
		StatusProvisioning:       {{ActionBlinkSlow, Forever}},
		StatusProvisioningFailed: {{ActionBlinkAngry, Forever}},
		StatusProvisioned:        slices.Clone(ack),
		StatusConnected:          slices.Clone(ack),
		StatusDisconnected:       {{ActionBlinkAngry, Forever}},
		StatusDoorOpen:           {{ActionOn, Forever}},
		StatusDoorClosed:         {{ActionOff, Forever}},
	}
}

// Clone returns a deep copy of p.
func (p Patterns) Clone() Patterns {
	out := make(Patterns, len(p))
	for k, steps := range p {
		out[k] = slices.Clone(steps)
	}
	return out
}

// Pusher queues indicator actions. Indicator implements it.
type Pusher interface {
	Push(action Action, repeatCount int)
}

// Manager subscribes to status events and drives the indicator through
// the configured pattern for each status.
type Manager struct {
	pusher      Pusher
	eventBus    *events.Bus
	unsubscribe []func()
	logger      *slog.Logger

	// pushMu keeps each pattern's steps contiguous in the queue.
	pushMu sync.Mutex

	mu       sync.RWMutex
	patterns Patterns
	last     string
}

// NewManager creates a status manager with the default pattern table.
func NewManager(pusher Pusher, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		pusher:   pusher,
		eventBus: eventBus,
		logger:   logger,
		patterns: DefaultPatterns(),
	}
}

// Start begins listening for status events
func (m *Manager) Start() {
	m.unsubscribe = append(m.unsubscribe,
		m.eventBus.Subscribe(func(e events.ProvisioningStateChangedEvent) {
			switch e.State {
			case events.ProvisioningStarted:
				m.Report(StatusProvisioning)
			case events.ProvisioningFailed:
				m.Report(StatusProvisioningFailed)
			case events.ProvisioningDone:
				m.Report(StatusProvisioned)
			default:
				m.logger.Warn("Ignoring unknown provisioning state", "state", e.State)
			}
		}),
		m.eventBus.Subscribe(func(e events.ConnectivityChangedEvent) {
			if e.Connected {
				m.Report(StatusConnected)
			} else {
				m.Report(StatusDisconnected)
			}
		}),
		m.eventBus.Subscribe(func(e events.DoorStateChangedEvent) {
			if e.Open {
				m.Report(StatusDoorOpen)
			} else {
				m.Report(StatusDoorClosed)
			}
		}),
	)
	m.logger.Info("LED manager started")
}

// Stop unsubscribes from events. The indicator itself stays initialised.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
	m.logger.Info("LED manager stopped")
}

// SetPatterns replaces the status table. Statuses missing from p keep
// their default pattern.
func (m *Manager) SetPatterns(p Patterns) {
	merged := DefaultPatterns()
	maps.Copy(merged, p.Clone())

	m.mu.Lock()
	m.patterns = merged
	m.mu.Unlock()

	m.logger.Info("LED patterns updated", "statuses", len(p))
}

// Patterns returns a copy of the active status table.
func (m *Manager) Patterns() Patterns {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.patterns.Clone()
}

// LastStatus returns the most recently applied status key.
func (m *Manager) LastStatus() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Report pushes the pattern for status. Unknown statuses are logged and
// ignored; the return value tells whether anything was pushed.
func (m *Manager) Report(status string) bool {
	m.pushMu.Lock()
	defer m.pushMu.Unlock()

	m.mu.Lock()
	steps, ok := m.patterns[status]
	if ok {
		steps = slices.Clone(steps)
		m.last = status
	}
	m.mu.Unlock()

	if !ok {
		m.logger.Warn("No LED pattern for status", "status", status)
		return false
	}

	m.logger.Debug("Applying LED pattern", "status", status, "steps", len(steps))
	now := time.Now().Format(time.RFC3339)
	for _, s := range steps {
		m.pusher.Push(s.Action, s.Repeats)
		m.eventBus.Publish(events.IndicatorActionEvent{
			Action:    s.Action.String(),
			Repeats:   s.Repeats,
			Source:    "status:" + status,
			Timestamp: now,
		})
	}
	return true
}
