package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Driver names accepted by OpenPin.
const (
	DriverAuto   = "auto"
	DriverPeriph = "periph"
	DriverRPIO   = "rpio"
	DriverSysfs  = "sysfs"
	DriverNoop   = "noop"
)

// Drivers lists the accepted driver names.
func Drivers() []string {
	return []string{DriverAuto, DriverPeriph, DriverRPIO, DriverSysfs, DriverNoop}
}

var deviceTreeModelPath = "/proc/device-tree/model"

// boardLEDs maps friendly LED names to sysfs LED names for boards with
// on-board user LEDs.
var boardLEDs = map[string]map[string]string{
	"NanoPC-T6": {
		"user":   "usr_led",
		"system": "sys_led",
	},
	"Orange Pi": {
		"blue":  "blue_led",
		"green": "green_led",
	},
	"Raspberry Pi": {
		"act": "ACT",
	},
}

// OpenPin returns the output pin called name using the given driver.
// The "auto" driver inspects the device tree: on-board LED names resolve
// to sysfs, other names on a Raspberry Pi go through periph, and anything
// else falls back to a no-op pin.
func OpenPin(driver, name string, logger *slog.Logger) (Pin, error) {
	switch driver {
	case DriverPeriph:
		return openPeriph(name)
	case DriverRPIO:
		return openRPIO(name)
	case DriverSysfs:
		return newSysfs(name), nil
	case DriverNoop:
		return newNoop(name, logger), nil
	case DriverAuto, "":
		return autoPin(name, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func autoPin(name string, logger *slog.Logger) (Pin, error) {
	boardModel := detectBoard()
	logger.Info("Detecting board for LED control", "board_model", boardModel)

	for board, leds := range boardLEDs {
		if !strings.Contains(boardModel, board) {
			continue
		}
		if sysName, ok := leds[strings.ToLower(name)]; ok {
			logger.Info("Using sysfs LED", "board", board, "led", sysName)
			return newSysfs(sysName), nil
		}
		if board == "Raspberry Pi" {
			logger.Info("Detected Raspberry Pi, using periph GPIO", "pin", name)
			return openPeriph(name)
		}
		logger.Info("Using sysfs LED", "board", board, "led", name)
		return newSysfs(name), nil
	}

	logger.Info("No LED support detected, using no-op pin", "board_model", boardModel)
	return newNoop(name, logger), nil
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
