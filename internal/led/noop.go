package led

import "log/slog"

// noop implements Pin for systems without a usable LED line.
type noop struct {
	name   string
	logger *slog.Logger
}

// newNoop creates a pin that only logs the levels it is asked to drive.
func newNoop(name string, logger *slog.Logger) *noop {
	return &noop{
		name:   name,
		logger: logger,
	}
}

func (n *noop) Name() string {
	return n.name
}

// ConfigureOutput logs the request but touches no hardware.
func (n *noop) ConfigureOutput(level bool) error {
	n.logger.Debug("LED output not available (no-op)", "pin", n.name, "level", level)
	return nil
}

// Set logs the level but performs no actual LED control.
func (n *noop) Set(level bool) error {
	n.logger.Debug("LED write (no-op)", "pin", n.name, "level", level)
	return nil
}
