package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/doorlight/internal/led"
)

// ErrInvalidPattern is returned when the [patterns] table cannot be used.
var ErrInvalidPattern = errors.New("invalid indicator pattern")

type patternStep struct {
	Action  string `toml:"action"`
	Repeats *int   `toml:"repeats"`
}

type patternFile struct {
	Patterns map[string][]patternStep `toml:"patterns"`
}

// LoadPatterns reads the [patterns] table of the TOML file at path and
// lays it over the default status table. Omitted repeats mean forever.
// An empty path yields the defaults.
func LoadPatterns(path string) (led.Patterns, error) {
	patterns := led.DefaultPatterns()
	if path == "" {
		return patterns, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	var file patternFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	for status, steps := range file.Patterns {
		parsed, err := parseSteps(status, steps)
		if err != nil {
			return nil, err
		}
		patterns[status] = parsed
	}
	return patterns, nil
}

func parseSteps(status string, steps []patternStep) ([]led.Step, error) {
	if !slices.Contains(led.Statuses(), status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPattern, status)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s: no steps", ErrInvalidPattern, status)
	}

	out := make([]led.Step, 0, len(steps))
	for i, s := range steps {
		action, err := led.ParseAction(s.Action)
		if err != nil {
			return nil, fmt.Errorf("%w: %s step %d: %w", ErrInvalidPattern, status, i, err)
		}
		repeats := led.Forever
		if s.Repeats != nil {
			repeats = *s.Repeats
		}
		if repeats < led.Forever {
			return nil, fmt.Errorf("%w: %s step %d: repeats %d below %d", ErrInvalidPattern, status, i, repeats, led.Forever)
		}
		out = append(out, led.Step{Action: action, Repeats: repeats})
	}
	return out, nil
}
