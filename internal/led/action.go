package led

import (
	"errors"
	"fmt"
	"strings"
)

// Action is a requested indicator behaviour.
type Action int

// Actions are numbered as the firmware status codes they replace.
const (
	ActionOff Action = iota
	ActionBlinkSlow
	ActionBlinkAngry
	ActionBlinkOnce
	ActionOn
)

// Forever keeps an action running until a newer one supersedes it.
const Forever = -1

// ErrUnknownAction is returned by ParseAction for names outside the action set.
var ErrUnknownAction = errors.New("unknown indicator action")

var actionNames = map[Action]string{
	ActionOff:        "off",
	ActionBlinkSlow:  "blink-slow",
	ActionBlinkAngry: "blink-angry",
	ActionBlinkOnce:  "blink-once",
	ActionOn:         "on",
}

// Actions returns every recognised action in numeric order.
func Actions() []Action {
	return []Action{ActionOff, ActionBlinkSlow, ActionBlinkAngry, ActionBlinkOnce, ActionOn}
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Valid reports whether a is one of the recognised actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// Blinks reports whether a alternates between an on and an off phase.
func (a Action) Blinks() bool {
	return a == ActionBlinkSlow || a == ActionBlinkAngry || a == ActionBlinkOnce
}

// ParseAction converts a kebab-case name ("blink-angry") to an Action.
// Underscores and case are tolerated so TOML keys like "BLINK_ONCE" parse too.
func ParseAction(s string) (Action, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for a, name := range actionNames {
		if name == norm {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
