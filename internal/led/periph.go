package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphPin drives a GPIO line through periph.io.
type periphPin struct {
	pin gpio.PinIO
}

// openPeriph initialises the periph host drivers and resolves name
// ("GPIO17", "P1_11", ...) in the GPIO registry.
func openPeriph(name string) (*periphPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("GPIO pin %q not found", name)
	}
	return &periphPin{pin: p}, nil
}

func (p *periphPin) Name() string {
	return p.pin.Name()
}

func (p *periphPin) ConfigureOutput(level bool) error {
	return p.pin.Out(gpio.Level(level))
}

func (p *periphPin) Set(level bool) error {
	return p.pin.Out(gpio.Level(level))
}

// PinInfo describes one GPIO line known to periph.
type PinInfo struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Level  string `json:"level"`
}

// ListPins returns every GPIO line periph registered on this host.
func ListPins() ([]PinInfo, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	all := gpioreg.All()
	pins := make([]PinInfo, 0, len(all))
	for _, p := range all {
		pins = append(pins, PinInfo{
			Name:   p.Name(),
			Number: p.Number(),
			Level:  p.Read().String(),
		})
	}
	return pins, nil
}
