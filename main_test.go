package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/smazurov/doorlight/internal/led"
)

func TestFallbackIndicatorUsesNoopPin(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	registry := led.NewRegistry(led.DefaultConfig(), led.WithLogger(logger))

	ind := fallbackIndicator(registry, "GPIO2", true, logger)
	t.Cleanup(ind.Close)

	if _, ok := ind.State(); !ok {
		t.Fatal("fallback indicator should be live")
	}
	if strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("unexpected error log:\n%s", buf.String())
	}
}

func TestFallbackIndicatorLogsOpenFailure(t *testing.T) {
	orig := openPin
	openPin = func(string, string, *slog.Logger) (led.Pin, error) {
		return nil, errors.New("no gpio")
	}
	t.Cleanup(func() { openPin = orig })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	registry := led.NewRegistry(led.DefaultConfig(), led.WithLogger(logger))

	ind := fallbackIndicator(registry, "GPIO2", true, logger)
	if _, ok := ind.State(); ok {
		t.Error("indicator should be inert after a failed fallback")
	}
	if !strings.Contains(buf.String(), "Noop indicator unavailable") || !strings.Contains(buf.String(), "no gpio") {
		t.Errorf("failure not logged:\n%s", buf.String())
	}
}

func TestFallbackIndicatorLogsInitFailure(t *testing.T) {
	orig := openPin
	openPin = func(string, string, *slog.Logger) (led.Pin, error) { return nil, nil }
	t.Cleanup(func() { openPin = orig })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	registry := led.NewRegistry(led.DefaultConfig(), led.WithLogger(logger))

	ind := fallbackIndicator(registry, "GPIO2", true, logger)
	if _, ok := ind.State(); ok {
		t.Error("indicator should be inert after a failed init")
	}
	if !strings.Contains(buf.String(), "Noop indicator failed to start") {
		t.Errorf("init failure not logged:\n%s", buf.String())
	}
}
