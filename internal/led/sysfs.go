package led

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Pin on top of the Linux LED class interface. The kernel
// trigger is switched to "none" so the engine owns the brightness.
type sysfs struct {
	root string // LED class directory, overridable in tests
	name string // sysfs LED name, e.g. "usr_led"
}

// newSysfs creates a pin for the named LED under /sys/class/leds.
func newSysfs(name string) *sysfs {
	return &sysfs{
		root: sysfsLEDPath,
		name: name,
	}
}

func (s *sysfs) Name() string {
	return s.name
}

func (s *sysfs) path(attr string) string {
	return filepath.Join(s.root, s.name, attr)
}

// ConfigureOutput takes the LED away from its kernel trigger and sets level.
func (s *sysfs) ConfigureOutput(level bool) error {
	ledPath := filepath.Join(s.root, s.name)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s", s.name, ledPath)
	}

	if err := os.WriteFile(s.path("trigger"), []byte("none"), 0o644); err != nil {
		return fmt.Errorf("failed to set LED trigger to none: %w", err)
	}

	return s.Set(level)
}

// Set writes the brightness attribute (1 = high).
func (s *sysfs) Set(level bool) error {
	value := "0"
	if level {
		value = "1"
	}
	if err := os.WriteFile(s.path("brightness"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}
