package led

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/doorlight/internal/logging"
)

const (
	defaultCapacity    = 8
	defaultTickQuantum = 10 * time.Millisecond
)

// Config holds the compiled-in indicator constants.
type Config struct {
	Capacity    int
	Timings     Timings
	TickQuantum time.Duration
}

// DefaultConfig returns an 8-deep queue polled every 10ms with firmware timings.
func DefaultConfig() Config {
	return Config{
		Capacity:    defaultCapacity,
		Timings:     DefaultTimings(),
		TickQuantum: defaultTickQuantum,
	}
}

// withDefaults replaces non-positive values with their defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.TickQuantum <= 0 {
		c.TickQuantum = d.TickQuantum
	}
	if c.Timings.On <= 0 {
		c.Timings.On = d.Timings.On
	}
	if c.Timings.OffAngry <= 0 {
		c.Timings.OffAngry = d.Timings.OffAngry
	}
	if c.Timings.OffSlow <= 0 {
		c.Timings.OffSlow = d.Timings.OffSlow
	}
	if c.Timings.OffOnce <= 0 {
		c.Timings.OffOnce = d.Timings.OffOnce
	}
	return c
}

// Handle identifies one indicator inside a Registry. The zero Handle is
// never valid and is what Init returns on failure.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h is the failure sentinel.
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("indicator#%d.%d", h.slot, h.gen)
}

// running is the state of the action currently animating.
type running struct {
	index    int // queue slot, -1 when idle
	phase    int
	deadline time.Duration
}

// indicator is one output pin with its queue and playback state.
type indicator struct {
	gen         uint32
	inUse       bool
	pin         Pin
	activeLevel bool
	queue       actionQueue
	dirty       bool
	running     running
	lit         bool
}

// Registry owns every indicator of a process behind a single lock.
// Deinit retires a slot's generation instead of freeing it, so a stale
// Handle resolves to nothing rather than to reused state.
type Registry struct {
	mu     sync.Mutex
	slots  []indicator
	free   []uint32
	cfg    Config
	logger *slog.Logger
	sleep  func(time.Duration)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithSleep replaces the pause between scheduler ticks. Tests use it to
// step loops by hand.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Registry) {
		r.sleep = sleep
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		cfg:   cfg.withDefaults(),
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.GetLogger("led")
	}
	return r
}

// Config returns the effective configuration.
func (r *Registry) Config() Config {
	return r.cfg
}

// Init configures pin as an output at its inactive level, allocates an
// indicator and starts its scheduler loop. activeLevel is the electrical
// level that lights the LED. On failure no loop is started and the zero
// Handle is returned.
func (r *Registry) Init(pin Pin, activeLevel bool) (Handle, error) {
	if pin == nil {
		return Handle{}, ErrNilPin
	}

	r.logger.Info("Initializing indicator", "pin", pin.Name(), "active_level", activeLevel)

	if err := pin.ConfigureOutput(!activeLevel); err != nil {
		r.logger.Error("Failed to configure indicator pin", "pin", pin.Name(), "error", err)
		return Handle{}, fmt.Errorf("%w: %s: %w", ErrPinSetup, pin.Name(), err)
	}

	r.mu.Lock()
	h := r.allocate()
	ind := &r.slots[h.slot]
	ind.pin = pin
	ind.activeLevel = activeLevel
	ind.queue = newActionQueue(r.cfg.Capacity)
	ind.running.index = -1
	r.mu.Unlock()

	loopsRunning.Inc()
	go r.run(h)

	r.logger.Debug("Indicator loop started", "handle", h.String(), "tick", r.cfg.TickQuantum)
	return h, nil
}

// allocate claims a slot; caller holds r.mu.
func (r *Registry) allocate() Handle {
	var slot uint32
	if n := len(r.free); n > 0 {
		slot = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		slot = uint32(len(r.slots))
		r.slots = append(r.slots, indicator{})
	}
	ind := &r.slots[slot]
	ind.gen++
	if ind.gen == 0 {
		ind.gen = 1
	}
	ind.inUse = true
	return Handle{slot: slot, gen: ind.gen}
}

// lookup resolves h, returning nil when the handle is stale, unknown or its
// queue bookkeeping is out of range. Caller holds r.mu.
func (r *Registry) lookup(h Handle) *indicator {
	if h.IsZero() || int(h.slot) >= len(r.slots) {
		return nil
	}
	ind := &r.slots[h.slot]
	if !ind.inUse || ind.gen != h.gen || !ind.queue.wellFormed() {
		return nil
	}
	return ind
}

// Push queues action with the given repeat count (Forever or >= 0).
// Invalid handles are ignored. When the queue is full the oldest pending
// action is evicted and the current animation is abandoned.
func (r *Registry) Push(h Handle, action Action, repeatCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ind := r.lookup(h)
	if ind == nil {
		return
	}
	if ind.queue.push(cell{action: action, repeats: newRepeats(repeatCount)}) {
		ind.running.index = -1
		overflowEvictions.Inc()
	}
	ind.dirty = true
	pushesTotal.WithLabelValues(action.String()).Inc()
}

// Deinit releases the indicator. Its loop observes the retired handle on
// its next tick and exits. Invalid handles are ignored.
func (r *Registry) Deinit(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ind := r.lookup(h)
	if ind == nil {
		return
	}
	*ind = indicator{gen: ind.gen}
	r.free = append(r.free, h.slot)
}

// Snapshot is a point-in-time view of an indicator.
type Snapshot struct {
	Pin         string `json:"pin" doc:"Output pin identifier"`
	ActiveLevel bool   `json:"active_level" doc:"Electrical level that lights the LED"`
	Action      string `json:"action,omitempty" doc:"Action at the head of the queue"`
	Repeats     int    `json:"repeats" doc:"Remaining repeats of the head action, -1 when unbounded or spent"`
	Exhausted   bool   `json:"exhausted" doc:"Head action has used up its repeats"`
	Running     bool   `json:"running" doc:"Whether an action is currently animating"`
	Phase       int    `json:"phase" doc:"Blink phase, 0 = on interval, 1 = off interval"`
	Lit         bool   `json:"lit" doc:"Last logical level written to the pin"`
	Queued      int    `json:"queued" doc:"Number of queued actions"`
	Capacity    int    `json:"capacity" doc:"Queue capacity"`
	Pending     bool   `json:"pending" doc:"Queue changed since the last evaluation"`
}

// State returns a snapshot of h, or false when the handle is invalid.
func (r *Registry) State(h Handle) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ind := r.lookup(h)
	if ind == nil {
		return Snapshot{}, false
	}
	s := Snapshot{
		Pin:         ind.pin.Name(),
		ActiveLevel: ind.activeLevel,
		Running:     ind.running.index >= 0,
		Phase:       ind.running.phase,
		Lit:         ind.lit,
		Queued:      ind.queue.length,
		Capacity:    ind.queue.capacity(),
		Pending:     ind.dirty,
	}
	if c := ind.queue.front(); c != nil {
		s.Action = c.action.String()
		s.Repeats = c.repeats.count()
		s.Exhausted = c.repeats.state == repeatsExhausted
	}
	return s, true
}

// Indicator binds a Handle to its Registry for producers that want a
// method set instead of passing the handle around.
type Indicator struct {
	reg    *Registry
	handle Handle
}

// Bind returns the Indicator for h.
func (r *Registry) Bind(h Handle) Indicator {
	return Indicator{reg: r, handle: h}
}

// Handle returns the bound handle.
func (i Indicator) Handle() Handle { return i.handle }

// Push queues an action on the bound indicator.
func (i Indicator) Push(action Action, repeatCount int) {
	i.reg.Push(i.handle, action, repeatCount)
}

// State returns a snapshot of the bound indicator.
func (i Indicator) State() (Snapshot, bool) {
	return i.reg.State(i.handle)
}

// Close releases the bound indicator.
func (i Indicator) Close() {
	i.reg.Deinit(i.handle)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry used by Init, Push and Deinit.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(DefaultConfig())
	})
	return defaultRegistry
}

// Init starts an indicator on the default registry.
func Init(pin Pin, activeLevel bool) (Handle, error) {
	return Default().Init(pin, activeLevel)
}

// Push queues an action on the default registry.
func Push(h Handle, action Action, repeatCount int) {
	Default().Push(h, action, repeatCount)
}

// Deinit releases an indicator on the default registry.
func Deinit(h Handle) {
	Default().Deinit(h)
}
