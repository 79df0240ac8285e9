package led

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// maxBCM is the highest GPIO line go-rpio can address.
const maxBCM = 53

var (
	rpioOnce sync.Once
	rpioErr  error
)

// rpioPin drives a BCM GPIO line through /dev/gpiomem.
type rpioPin struct {
	pin rpio.Pin
}

// openRPIO maps the GPIO registers once per process and returns the line
// named by a BCM number ("17", "GPIO17", "BCM17").
func openRPIO(name string) (*rpioPin, error) {
	n, err := parseBCM(name)
	if err != nil {
		return nil, err
	}
	rpioOnce.Do(func() {
		rpioErr = rpio.Open()
	})
	if rpioErr != nil {
		return nil, fmt.Errorf("rpio open: %w", rpioErr)
	}
	return &rpioPin{pin: rpio.Pin(n)}, nil
}

func parseBCM(name string) (uint8, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "GPIO"), "BCM")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > maxBCM {
		return 0, fmt.Errorf("invalid BCM pin %q", name)
	}
	return uint8(n), nil
}

func (p *rpioPin) Name() string {
	return fmt.Sprintf("GPIO%d", uint8(p.pin))
}

func (p *rpioPin) ConfigureOutput(level bool) error {
	p.pin.Output()
	return p.Set(level)
}

func (p *rpioPin) Set(level bool) error {
	if level {
		p.pin.Write(rpio.High)
	} else {
		p.pin.Write(rpio.Low)
	}
	return nil
}
