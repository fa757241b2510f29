package common

import (
	"fmt"
	"time"
)

// Duration is a time.Duration read from TOML as a Go duration string ("30s", "1h").
// Bare integers are rejected rather than read as nanoseconds.
type Duration struct {
	time.Duration
}

// NewDuration wraps d
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q (use a unit, e.g. \"30s\" or \"1h\"): %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
