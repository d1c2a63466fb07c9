// Package logic contains the pure gesture logic for a momentary button.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Pin levels and time are always injected through LevelSource and Clock.
package logic

import "time"

// Level is a raw electrical pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// PullMode describes how the button input is biased.
type PullMode uint8

const (
	PullUp PullMode = iota
	PullDown
	InternalPullUp
)

func (p PullMode) String() string {
	switch p {
	case PullUp:
		return "pull-up"
	case PullDown:
		return "pull-down"
	case InternalPullUp:
		return "internal-pull-up"
	}
	return "unknown"
}

// ContactMode describes the switch contact at rest.
type ContactMode uint8

const (
	NormallyOpen ContactMode = iota
	NormallyClosed
)

func (c ContactMode) String() string {
	switch c {
	case NormallyOpen:
		return "normally-open"
	case NormallyClosed:
		return "normally-closed"
	}
	return "unknown"
}

// Millis is a millisecond reading or duration from a Clock.
// Readings wrap at 2^32; use Elapsed to compare them.
type Millis uint32

// Elapsed returns now - since modulo 2^32, so a clock wraparound between the
// two readings still yields the small forward delta.
func Elapsed(now, since Millis) Millis {
	return Millis(uint32(now) - uint32(since))
}

// Duration converts m to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// MillisOf converts d to Millis, truncating sub-millisecond precision.
// Negative durations become 0.
func MillisOf(d time.Duration) Millis {
	if d <= 0 {
		return 0
	}
	return Millis(d.Milliseconds())
}

// Classification is the result of a single Sample call.
type Classification string

const (
	Unpressed     Classification = "UNPRESSED"
	Pressed       Classification = "PRESSED"
	DoublePressed Classification = "DOUBLE_PRESSED"
	PressedWake   Classification = "PRESSED_WAKE" // active, not yet held
	Held          Classification = "HELD"
	Released      Classification = "RELEASED"
	Debouncing    Classification = "DEBOUNCING" // sample discarded
)

// LevelSource reads the raw level of a pin. No debouncing, no caching.
type LevelSource interface {
	ReadRaw(pin int) bool
}

// Clock returns monotonically non-decreasing milliseconds since an
// arbitrary epoch. Readings may wrap.
type Clock interface {
	NowMillis() Millis
}

// Thresholds holds the debouncer timing configuration.
type Thresholds struct {
	PressDebounce   Millis
	ReleaseDebounce Millis
	Hold            Millis
	DoublePress     Millis
}

// Default timing, in milliseconds.
const (
	DefaultPressDebounce   Millis = 100
	DefaultReleaseDebounce Millis = DefaultPressDebounce
	DefaultHold            Millis = DefaultPressDebounce + 10
	DefaultDoublePress     Millis = DefaultPressDebounce + 600
)

// DefaultThresholds returns the thresholds a new Debouncer starts with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PressDebounce:   DefaultPressDebounce,
		ReleaseDebounce: DefaultReleaseDebounce,
		Hold:            DefaultHold,
		DoublePress:     DefaultDoublePress,
	}
}

// EventType names a gesture reported by a Recorder.
type EventType string

const (
	EventPress              EventType = "PRESS"
	EventDoublePress        EventType = "DOUBLE_PRESS"
	EventHold               EventType = "HOLD"
	EventReleasePress       EventType = "RELEASE_PRESS"
	EventReleaseDoublePress EventType = "RELEASE_DOUBLE_PRESS"
	EventReleaseHold        EventType = "RELEASE_HOLD"
)

// Event represents a gesture to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Pin       int
	// Hold duration in ms; only set for HOLD and RELEASE_HOLD
	HoldMs int64
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Press              int
	DoublePress        int
	Hold               int
	ReleasePress       int
	ReleaseDoublePress int
	ReleaseHold        int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
