// Package relay watches the door relay contact and publishes door state
// changes on the event bus.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/smazurov/doorlight/internal/events"
)

const (
	defaultSettle       = 500 * time.Millisecond
	defaultPollInterval = time.Second
)

// Input is a digital input line.
type Input interface {
	Name() string
	// Read returns the current level, true = high.
	Read() bool
	// WaitForEdge blocks until an edge or the timeout and reports whether
	// an edge was seen.
	WaitForEdge(timeout time.Duration) bool
}

// Publisher receives door events. *events.Bus implements it.
type Publisher interface {
	Publish(ev events.Event)
}

// Config tunes the monitor.
type Config struct {
	// Settle is the minimum spacing between two published changes.
	Settle time.Duration
	// PollInterval bounds each edge wait so cancellation is noticed.
	PollInterval time.Duration
}

// Monitor reports the door as open while the input reads high.
type Monitor struct {
	input   Input
	bus     Publisher
	logger  *slog.Logger
	limiter *catrate.Limiter
	poll    time.Duration

	mu       sync.RWMutex
	open     bool
	reported bool
}

// NewMonitor creates a monitor for input. Zero config fields take defaults.
func NewMonitor(input Input, bus Publisher, cfg Config, logger *slog.Logger) *Monitor {
	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Monitor{
		input:   input,
		bus:     bus,
		logger:  logger,
		limiter: catrate.NewLimiter(map[time.Duration]int{cfg.Settle: 1}),
		poll:    cfg.PollInterval,
	}
}

// State returns the last published door state and whether one has been
// published yet.
func (m *Monitor) State() (open bool, known bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open, m.reported
}

// Run publishes the current state once, then every settled change, until
// ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Relay monitor started", "pin", m.input.Name())
	defer m.logger.Info("Relay monitor stopped", "pin", m.input.Name())

	m.check(ctx)
	for {
		if ctx.Err() != nil {
			return nil
		}
		m.input.WaitForEdge(m.poll)
		m.check(ctx)
	}
}

// check publishes the current level if it differs from the last report.
// A change inside the settle window is re-read once the window closes.
func (m *Monitor) check(ctx context.Context) {
	for {
		open := m.input.Read()

		m.mu.RLock()
		unchanged := m.reported && open == m.open
		m.mu.RUnlock()
		if unchanged {
			return
		}

		next, ok := m.limiter.Allow(m.input.Name())
		if ok {
			m.publish(open)
			return
		}

		m.logger.Debug("Relay change inside settle window", "pin", m.input.Name(), "retry_at", next)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (m *Monitor) publish(open bool) {
	m.mu.Lock()
	m.open = open
	m.reported = true
	m.mu.Unlock()

	if open {
		m.logger.Info("Door is OPEN", "pin", m.input.Name())
	} else {
		m.logger.Info("Door is closed", "pin", m.input.Name())
	}
	m.bus.Publish(events.DoorStateChangedEvent{
		Open:      open,
		Pin:       m.input.Name(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
