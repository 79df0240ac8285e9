package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/doorlight/internal/api/models"
	"github.com/smazurov/doorlight/internal/events"
	"github.com/smazurov/doorlight/internal/led"
	"github.com/smazurov/doorlight/internal/logging"
)

type pushed struct {
	action  led.Action
	repeats int
}

type fakeIndicator struct {
	mu     sync.Mutex
	pushes []pushed
	snap   led.Snapshot
	gone   bool
}

func (f *fakeIndicator) Push(action led.Action, repeats int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushed{action, repeats})
	f.snap.Queued++
	f.snap.Action = action.String()
}

func (f *fakeIndicator) State() (led.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, !f.gone
}

func (f *fakeIndicator) pushed() []pushed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushed(nil), f.pushes...)
}

type fakeStatus struct {
	patterns led.Patterns
	last     string
}

func (f fakeStatus) Patterns() led.Patterns { return f.patterns }
func (f fakeStatus) LastStatus() string     { return f.last }

type fakeDoor struct {
	open, known bool
}

func (f fakeDoor) State() (bool, bool) { return f.open, f.known }

func newTestAPI(t *testing.T, opts *Options) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	s := newServer(api, opts)
	s.registerRoutes()
	return api
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func expectEvent[T any](t *testing.T, ch <-chan any) T {
	t.Helper()
	select {
	case ev := <-ch:
		typed, ok := ev.(T)
		if !ok {
			t.Fatalf("got event %T, want %T", ev, *new(T))
		}
		return typed
	case <-time.After(time.Second):
		t.Fatalf("no %T published", *new(T))
	}
	panic("unreachable")
}

func TestHealthAndVersion(t *testing.T) {
	api := newTestAPI(t, &Options{})

	resp := api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("health status = %d", resp.Code)
	}
	if h := decode[models.HealthData](t, resp.Body.Bytes()); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}

	resp = api.Get("/api/version")
	if resp.Code != http.StatusOK {
		t.Fatalf("version status = %d", resp.Code)
	}
	if v := decode[models.VersionData](t, resp.Body.Bytes()); v.Version == "" || v.GoVersion == "" {
		t.Errorf("version = %+v", v)
	}
}

func TestGetIndicator(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		api := newTestAPI(t, &Options{})
		if resp := api.Get("/api/indicator"); resp.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.Code)
		}
	})

	t.Run("released handle", func(t *testing.T) {
		api := newTestAPI(t, &Options{Indicator: &fakeIndicator{gone: true}})
		if resp := api.Get("/api/indicator"); resp.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.Code)
		}
	})

	t.Run("running", func(t *testing.T) {
		ind := &fakeIndicator{snap: led.Snapshot{Pin: "GPIO2", Action: "blink-slow", Repeats: -1, Queued: 1, Capacity: 8}}
		api := newTestAPI(t, &Options{Indicator: ind})

		resp := api.Get("/api/indicator")
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.Code, resp.Body)
		}
		snap := decode[led.Snapshot](t, resp.Body.Bytes())
		if snap.Pin != "GPIO2" || snap.Action != "blink-slow" || snap.Capacity != 8 {
			t.Errorf("snapshot = %+v", snap)
		}
	})
}

func TestPushIndicatorAction(t *testing.T) {
	bus := events.New()
	ch := make(chan any, 4)
	defer events.SubscribeToChannel[events.IndicatorActionEvent](bus, ch)()

	ind := &fakeIndicator{}
	api := newTestAPI(t, &Options{Indicator: ind, EventBus: bus})

	resp := api.Post("/api/indicator/actions", map[string]any{"action": "blink-angry", "repeats": 2})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	data := decode[models.PushActionData](t, resp.Body.Bytes())
	if data.Action != "blink-angry" || data.Repeats != 2 || data.Queued != 1 {
		t.Errorf("response = %+v", data)
	}

	got := ind.pushed()
	if len(got) != 1 || got[0] != (pushed{led.ActionBlinkAngry, 2}) {
		t.Errorf("pushes = %+v", got)
	}

	ev := expectEvent[events.IndicatorActionEvent](t, ch)
	if ev.Action != "blink-angry" || ev.Repeats != 2 || ev.Source != "api" {
		t.Errorf("event = %+v", ev)
	}
}

func TestPushIndicatorActionRejects(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"unknown action", map[string]any{"action": "disco", "repeats": 0}, http.StatusBadRequest},
		{"repeats below forever", map[string]any{"action": "on", "repeats": -2}, http.StatusBadRequest},
		{"empty action", map[string]any{"action": "", "repeats": 0}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := &fakeIndicator{}
			api := newTestAPI(t, &Options{Indicator: ind})

			resp := api.Post("/api/indicator/actions", tt.body)
			if resp.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.Code, tt.want, resp.Body)
			}
			if len(ind.pushed()) != 0 {
				t.Error("rejected request must not push")
			}
		})
	}

	t.Run("no indicator", func(t *testing.T) {
		api := newTestAPI(t, &Options{})
		resp := api.Post("/api/indicator/actions", map[string]any{"action": "on", "repeats": -1})
		if resp.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.Code)
		}
	})
}

func TestPushAcceptsUnderscoreNames(t *testing.T) {
	ind := &fakeIndicator{}
	api := newTestAPI(t, &Options{Indicator: ind})

	resp := api.Post("/api/indicator/actions", map[string]any{"action": "BLINK_ONCE", "repeats": 0})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	if got := ind.pushed(); len(got) != 1 || got[0].action != led.ActionBlinkOnce {
		t.Errorf("pushes = %+v", got)
	}
}

func TestListIndicatorActions(t *testing.T) {
	patterns := led.Patterns{led.StatusDoorOpen: {{Action: led.ActionOn, Repeats: led.Forever}}}
	api := newTestAPI(t, &Options{Status: fakeStatus{patterns: patterns, last: led.StatusDoorOpen}})

	resp := api.Get("/api/indicator/actions")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	data := decode[models.ActionsData](t, resp.Body.Bytes())

	if len(data.Actions) != len(led.Actions()) {
		t.Fatalf("got %d actions", len(data.Actions))
	}
	byName := map[string]models.ActionInfo{}
	for _, a := range data.Actions {
		byName[a.Name] = a
	}
	if slow := byName["blink-slow"]; slow.CycleMs != 2000 || !slow.Blinks {
		t.Errorf("blink-slow = %+v", slow)
	}
	if on := byName["on"]; !on.IsStatic || on.CycleMs != 0 {
		t.Errorf("on = %+v", on)
	}
	if data.Capacity != 8 || data.TickMs != 10 || data.Forever != -1 {
		t.Errorf("config = capacity %d tick %d forever %d", data.Capacity, data.TickMs, data.Forever)
	}
	if data.LastStatus != led.StatusDoorOpen {
		t.Errorf("last status = %q", data.LastStatus)
	}
	if steps := data.Patterns[led.StatusDoorOpen]; len(steps) != 1 || steps[0].Action != led.ActionOn {
		t.Errorf("patterns = %+v", data.Patterns)
	}
}

func TestReportConnectivity(t *testing.T) {
	bus := events.New()
	ch := make(chan any, 4)
	defer events.SubscribeToChannel[events.ConnectivityChangedEvent](bus, ch)()
	api := newTestAPI(t, &Options{EventBus: bus})

	resp := api.Post("/api/status/connectivity", map[string]any{"connected": false})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	if data := decode[models.StatusAcceptedData](t, resp.Body.Bytes()); data.Status != led.StatusDisconnected {
		t.Errorf("status key = %q", data.Status)
	}
	if ev := expectEvent[events.ConnectivityChangedEvent](t, ch); ev.Connected {
		t.Errorf("event = %+v", ev)
	}
}

func TestReportProvisioning(t *testing.T) {
	bus := events.New()
	ch := make(chan any, 4)
	defer events.SubscribeToChannel[events.ProvisioningStateChangedEvent](bus, ch)()
	api := newTestAPI(t, &Options{EventBus: bus})

	if resp := api.Post("/api/status/provisioning", map[string]any{"state": "halfway"}); resp.Code != http.StatusBadRequest {
		t.Errorf("bad state status = %d, want 400", resp.Code)
	}

	resp := api.Post("/api/status/provisioning", map[string]any{"state": "failed"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	if data := decode[models.StatusAcceptedData](t, resp.Body.Bytes()); data.Status != led.StatusProvisioningFailed {
		t.Errorf("status key = %q", data.Status)
	}
	if ev := expectEvent[events.ProvisioningStateChangedEvent](t, ch); ev.State != events.ProvisioningFailed {
		t.Errorf("event = %+v", ev)
	}
}

func TestGetStatus(t *testing.T) {
	api := newTestAPI(t, &Options{
		Status:    fakeStatus{last: led.StatusDoorOpen},
		Door:      fakeDoor{open: true, known: true},
		DoorPin:   "GPIO20",
		Indicator: &fakeIndicator{snap: led.Snapshot{Action: "on"}},
	})

	resp := api.Get("/api/status")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	data := decode[models.StatusData](t, resp.Body.Bytes())
	if data.LastStatus != led.StatusDoorOpen {
		t.Errorf("last status = %q", data.LastStatus)
	}
	if data.Door == nil || !data.Door.Open || !data.Door.Known || data.Door.Pin != "GPIO20" {
		t.Errorf("door = %+v", data.Door)
	}
	if data.Indicator == nil || data.Indicator.Action != "on" {
		t.Errorf("indicator = %+v", data.Indicator)
	}
}

func TestGetStatusWithoutCollaborators(t *testing.T) {
	api := newTestAPI(t, &Options{})

	resp := api.Get("/api/status")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	data := decode[models.StatusData](t, resp.Body.Bytes())
	if data.Door != nil || data.Indicator != nil || data.LastStatus != "" {
		t.Errorf("status = %+v", data)
	}
}

func TestGetLogs(t *testing.T) {
	history := logging.NewHistory(10)
	history.Add(logging.Entry{Module: "relay", Level: "info", Message: "Door is OPEN"})
	history.Add(logging.Entry{Module: "led", Level: "debug", Message: "write"})
	history.Add(logging.Entry{Module: "relay", Level: "warn", Message: "flap"})
	history.Add(logging.Entry{Module: "api", Level: "error", Message: "boom"})
	api := newTestAPI(t, &Options{History: history})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Door is OPEN", "write", "flap", "boom"}},
		{"?module=relay", []string{"Door is OPEN", "flap"}},
		{"?level=warn", []string{"flap", "boom"}},
		{"?module=relay&level=warn", []string{"flap"}},
		{"?limit=2", []string{"flap", "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := api.Get("/api/logs" + tt.query)
			if resp.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.Code, resp.Body)
			}
			data := decode[models.LogsData](t, resp.Body.Bytes())
			if len(data.Entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(data.Entries), len(tt.want))
			}
			for i, e := range data.Entries {
				if e.Message != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, e.Message, tt.want[i])
				}
			}
		})
	}

	if resp := api.Get("/api/logs?level=loud"); resp.Code != http.StatusBadRequest {
		t.Errorf("bad level status = %d, want 400", resp.Code)
	}
}

func TestPushDrivesRealIndicator(t *testing.T) {
	pin, err := led.OpenPin(led.DriverNoop, "test", logging.GetLogger("led"))
	if err != nil {
		t.Fatal(err)
	}
	reg := led.NewRegistry(led.DefaultConfig())
	h, err := reg.Init(pin, true)
	if err != nil {
		t.Fatal(err)
	}
	ind := reg.Bind(h)
	defer ind.Close()

	api := newTestAPI(t, &Options{Indicator: ind, IndicatorConfig: reg.Config()})

	resp := api.Post("/api/indicator/actions", map[string]any{"action": "blink-slow", "repeats": -1})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	if data := decode[models.PushActionData](t, resp.Body.Bytes()); data.Queued != 1 {
		t.Errorf("queued = %d, want 1", data.Queued)
	}

	snap := decode[led.Snapshot](t, api.Get("/api/indicator").Body.Bytes())
	if snap.Action != "blink-slow" || snap.Pin != "test" {
		t.Errorf("snapshot = %+v", snap)
	}

	ind.Close()
	if resp := api.Get("/api/indicator"); resp.Code != http.StatusNotFound {
		t.Errorf("after close status = %d, want 404", resp.Code)
	}
}

func TestStatusReportDrivesManager(t *testing.T) {
	bus := events.New()
	ind := &fakeIndicator{}
	mgr := led.NewManager(ind, bus, logging.GetLogger("led"))
	mgr.Start()
	defer mgr.Stop()

	api := newTestAPI(t, &Options{EventBus: bus, Status: mgr})

	if resp := api.Post("/api/status/connectivity", map[string]any{"connected": false}); resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d", resp.Code)
	}

	deadline := time.Now().Add(time.Second)
	for len(ind.pushed()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("manager never pushed a pattern")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := ind.pushed(); got[0].action != led.ActionBlinkAngry {
		t.Errorf("pushes = %+v", got)
	}
	if mgr.LastStatus() != led.StatusDisconnected {
		t.Errorf("last status = %q", mgr.LastStatus())
	}
}
