package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

type recorder struct {
	mu     sync.Mutex
	states []string
	err    error
}

func (r *recorder) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return r.err == nil, r.err
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func install(t *testing.T, rec *recorder, interval time.Duration, intervalErr error) {
	t.Helper()
	prevNotify, prevInterval := notify, watchdogInterval
	notify = rec.notify
	watchdogInterval = func() (time.Duration, error) { return interval, intervalErr }
	t.Cleanup(func() {
		notify, watchdogInterval = prevNotify, prevInterval
	})
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestReadyStoppingStatus(t *testing.T) {
	rec := &recorder{}
	install(t, rec, 0, nil)

	Ready(discard)
	Status(discard, "door closed")
	Stopping(discard)

	want := []string{daemon.SdNotifyReady, "STATUS=door closed", daemon.SdNotifyStopping}
	if len(rec.states) != len(want) {
		t.Fatalf("states = %v, want %v", rec.states, want)
	}
	for i := range want {
		if rec.states[i] != want[i] {
			t.Errorf("state %d = %q, want %q", i, rec.states[i], want[i])
		}
	}
}

func TestNotifyErrorIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("socket gone")}
	install(t, rec, 0, nil)

	Ready(discard)
	if rec.count(daemon.SdNotifyReady) != 1 {
		t.Error("Ready should still attempt the notification")
	}
}

func TestWatchdogDisabled(t *testing.T) {
	rec := &recorder{}
	install(t, rec, 0, nil)

	done := make(chan struct{})
	go func() {
		Watchdog(context.Background(), discard)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog should return when disabled")
	}
}

func TestWatchdogConfigError(t *testing.T) {
	rec := &recorder{}
	install(t, rec, 0, errors.New("bad WATCHDOG_USEC"))

	Watchdog(context.Background(), discard)
	if len(rec.states) != 0 {
		t.Errorf("no pings expected, got %v", rec.states)
	}
}

func TestWatchdogPings(t *testing.T) {
	rec := &recorder{}
	install(t, rec, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Watchdog(ctx, discard)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(daemon.SdNotifyWatchdog) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("watchdog never pinged twice")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog did not stop on cancel")
	}
}
