package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration read from TOML either as a Go duration
// string ("250ms") or as a bare integer number of milliseconds, the same
// rules the BUTTON_* environment variables follow.
type Duration time.Duration

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case int64:
		*d = Duration(time.Duration(x) * time.Millisecond)
	case string:
		parsed, err := parseDuration(x)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("duration must be a string or integer milliseconds, got %T", v)
	}
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }
