package led

import "errors"

// Pin abstracts a single digital output driving an indicator LED.
// Implementations handle the board-specific way of reaching the line.
type Pin interface {
	// Name returns the driver-specific pin identifier (e.g. "GPIO17", "usr_led").
	Name() string

	// ConfigureOutput switches the line to output mode at the given electrical level.
	ConfigureOutput(level bool) error

	// Set drives the line to the given electrical level (true = high).
	Set(level bool) error
}

var (
	// ErrNilPin is returned by Init when no pin is supplied.
	ErrNilPin = errors.New("indicator pin is nil")
	// ErrPinSetup wraps driver failures while configuring the output.
	ErrPinSetup = errors.New("indicator pin setup failed")
	// ErrUnknownDriver is returned by OpenPin for unsupported driver names.
	ErrUnknownDriver = errors.New("unknown indicator driver")
)
