package relay

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// pollStep is the sampling period of inputs without edge support.
const pollStep = 50 * time.Millisecond

// periphInput is a pulled-up GPIO input. When the line cannot deliver
// edge interrupts it falls back to polling.
type periphInput struct {
	pin     gpio.PinIO
	polling bool
}

// OpenInput resolves name in the periph GPIO registry and configures it as
// a pulled-up input with edge detection on both edges.
func OpenInput(name string) (Input, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("GPIO pin %q not found", name)
	}

	in := &periphInput{pin: p}
	if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s as input: %w", name, err)
		}
		in.polling = true
	}
	return in, nil
}

func (i *periphInput) Name() string {
	return i.pin.Name()
}

func (i *periphInput) Read() bool {
	return i.pin.Read() == gpio.High
}

func (i *periphInput) WaitForEdge(timeout time.Duration) bool {
	if i.polling {
		time.Sleep(min(timeout, pollStep))
		return false
	}
	return i.pin.WaitForEdge(timeout)
}
