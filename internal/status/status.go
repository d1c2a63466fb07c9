// Package status provides a thread-safe status tracker for the button-sensor daemon.
// It is read by the HTTP handlers and by the STARTUP/HEARTBEAT/SHUTDOWN events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-sensor/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Name              string
	Pin               int
	Pull              string
	Contact           string
	ActiveLevel       string
	Backend           string
	PollMs            int64
	PressDebounceMs   int64
	ReleaseDebounceMs int64
	HoldMs            int64
	DoublePressMs     int64
	HeartbeatMs       int64
	Broker            string
	HTTPAddr          string
	WSBroker          string // websocket broker URL for browser MQTT (empty = disabled)
	EventsTopic       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Last          logic.Classification
	HoldMs        int64
	Counts        logic.EventCounts
	GPIOErrors    int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Held reports whether the button was held at the last update.
func (s Snapshot) Held() bool {
	return s.Last == logic.Held
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the button state, event counts and GPIO error count.
// Called from runLoop on every tick.
func (t *Tracker) Update(last logic.Classification, holdMs int64, counts logic.EventCounts, gpioErrors int) {
	t.mu.Lock()
	t.snap.Last = last
	t.snap.HoldMs = holdMs
	t.snap.Counts = counts
	t.snap.GPIOErrors = gpioErrors
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
