package led

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/doorlight/internal/events"
)

// recordingPusher captures every pushed step.
type recordingPusher struct {
	mu    sync.Mutex
	steps []Step
	delay time.Duration
}

func (p *recordingPusher) Push(action Action, repeatCount int) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, Step{Action: action, Repeats: repeatCount})
}

func (p *recordingPusher) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.steps)
}

func TestManager_StatusEvents(t *testing.T) {
	tests := []struct {
		name  string
		event events.Event
		want  []Step
	}{
		{
			name:  "provisioning started",
			event: events.ProvisioningStateChangedEvent{State: events.ProvisioningStarted},
			want:  []Step{{ActionBlinkSlow, Forever}},
		},
		{
			name:  "provisioning failed",
			event: events.ProvisioningStateChangedEvent{State: events.ProvisioningFailed},
			want:  []Step{{ActionBlinkAngry, Forever}},
		},
		{
			name:  "connected",
			event: events.ConnectivityChangedEvent{Connected: true},
			want:  []Step{{ActionBlinkOnce, 1}, {ActionOff, Forever}},
		},
		{
			name:  "disconnected",
			event: events.ConnectivityChangedEvent{Connected: false},
			want:  []Step{{ActionBlinkAngry, Forever}},
		},
		{
			name:  "door open",
			event: events.DoorStateChangedEvent{Open: true, Pin: "GPIO20"},
			want:  []Step{{ActionOn, Forever}},
		},
		{
			name:  "door closed",
			event: events.DoorStateChangedEvent{Open: false, Pin: "GPIO20"},
			want:  []Step{{ActionOff, Forever}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pusher := &recordingPusher{}
			eventBus := events.New()
			mgr := NewManager(pusher, eventBus, discardLogger())
			mgr.Start()
			defer mgr.Stop()

			eventBus.Publish(tt.event)

			waitFor(t, "pattern pushed", func() bool { return len(pusher.Steps()) == len(tt.want) })
			if got := pusher.Steps(); !slices.Equal(got, tt.want) {
				t.Errorf("pushed %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_PublishesIndicatorActions(t *testing.T) {
	eventBus := events.New()
	received := make(chan events.IndicatorActionEvent, 4)
	unsub := eventBus.Subscribe(func(e events.IndicatorActionEvent) {
		received <- e
	})
	defer unsub()

	mgr := NewManager(&recordingPusher{}, eventBus, discardLogger())
	if !mgr.Report(StatusConnected) {
		t.Fatal("Report(connected) pushed nothing")
	}

	first := <-received
	second := <-received
	if first.Action != "blink-once" || first.Repeats != 1 || first.Source != "status:connected" {
		t.Errorf("first event = %+v", first)
	}
	if second.Action != "off" || second.Repeats != Forever {
		t.Errorf("second event = %+v", second)
	}
	if mgr.LastStatus() != StatusConnected {
		t.Errorf("LastStatus() = %q", mgr.LastStatus())
	}
}

func TestManager_UnknownStatus(t *testing.T) {
	pusher := &recordingPusher{}
	mgr := NewManager(pusher, events.New(), discardLogger())

	if mgr.Report("rebooting") {
		t.Error("Report() of an unknown status should return false")
	}
	if len(pusher.Steps()) != 0 {
		t.Errorf("unknown status pushed %v", pusher.Steps())
	}
}

func TestManager_ConcurrentReportsStayContiguous(t *testing.T) {
	patterns := DefaultPatterns()
	connected := patterns[StatusConnected]
	doorOpen := patterns[StatusDoorOpen]
	connectedFirst := slices.Concat(connected, doorOpen)
	doorFirst := slices.Concat(doorOpen, connected)

	for round := range 100 {
		pusher := &recordingPusher{delay: 50 * time.Microsecond}
		mgr := NewManager(pusher, events.New(), discardLogger())

		var wg sync.WaitGroup
		for _, status := range []string{StatusConnected, StatusDoorOpen} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				mgr.Report(status)
			}()
		}
		wg.Wait()

		got := pusher.Steps()
		switch {
		case slices.Equal(got, connectedFirst):
			if mgr.LastStatus() != StatusDoorOpen {
				t.Fatalf("round %d: LastStatus() = %q after door pattern was pushed last", round, mgr.LastStatus())
			}
		case slices.Equal(got, doorFirst):
			if mgr.LastStatus() != StatusConnected {
				t.Fatalf("round %d: LastStatus() = %q after connected pattern was pushed last", round, mgr.LastStatus())
			}
		default:
			t.Fatalf("round %d: patterns interleaved: %v", round, got)
		}
	}
}

func TestManager_SetPatterns(t *testing.T) {
	pusher := &recordingPusher{}
	mgr := NewManager(pusher, events.New(), discardLogger())

	mgr.SetPatterns(Patterns{
		StatusDoorOpen: {{ActionBlinkAngry, 3}, {ActionOn, Forever}},
	})

	mgr.Report(StatusDoorOpen)
	want := []Step{{ActionBlinkAngry, 3}, {ActionOn, Forever}}
	if got := pusher.Steps(); !slices.Equal(got, want) {
		t.Errorf("pushed %v, want %v", got, want)
	}

	// Statuses left out of the new table fall back to their defaults.
	p := mgr.Patterns()
	if !slices.Equal(p[StatusDoorClosed], DefaultPatterns()[StatusDoorClosed]) {
		t.Errorf("door_closed = %v, want default", p[StatusDoorClosed])
	}
}

func TestManager_Stop(t *testing.T) {
	pusher := &recordingPusher{}
	eventBus := events.New()
	mgr := NewManager(pusher, eventBus, discardLogger())
	mgr.Start()
	mgr.Stop()

	eventBus.Publish(events.DoorStateChangedEvent{Open: true})
	time.Sleep(20 * time.Millisecond)
	if len(pusher.Steps()) != 0 {
		t.Errorf("stopped manager pushed %v", pusher.Steps())
	}
}

func TestManager_DrivesIndicator(t *testing.T) {
	m := newManual(t)
	pin := &fakePin{name: "GPIO2"}
	h := m.init(t, pin, true)

	mgr := NewManager(m.reg.Bind(h), events.New(), discardLogger())
	mgr.Report(StatusDoorOpen)
	m.reg.tick(h, 0)

	if got := pin.Writes(); !slices.Equal(got, []bool{true}) {
		t.Errorf("writes = %v, want [true]", got)
	}
}

func TestDefaultPatternsCoverStatuses(t *testing.T) {
	p := DefaultPatterns()
	for _, s := range Statuses() {
		steps, ok := p[s]
		if !ok || len(steps) == 0 {
			t.Errorf("no default pattern for %s", s)
		}
		for _, st := range steps {
			if !st.Action.Valid() {
				t.Errorf("%s: invalid action %v", s, st.Action)
			}
		}
	}
}
