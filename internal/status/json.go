package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Button        ButtonJSON   `json:"button"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	GPIOErrors    int          `json:"gpio_errors"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ButtonJSON reports the last classification of the button.
type ButtonJSON struct {
	State  string `json:"state"`
	Held   bool   `json:"held"`
	HoldMs int64  `json:"hold_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Press              int `json:"press"`
	DoublePress        int `json:"double_press"`
	Hold               int `json:"hold"`
	ReleasePress       int `json:"release_press"`
	ReleaseDoublePress int `json:"release_double_press"`
	ReleaseHold        int `json:"release_hold"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Name              string `json:"name"`
	Pin               int    `json:"pin"`
	Pull              string `json:"pull"`
	Contact           string `json:"contact"`
	ActiveLevel       string `json:"active_level"`
	Backend           string `json:"backend"`
	PollMs            int64  `json:"poll_ms"`
	PressDebounceMs   int64  `json:"press_debounce_ms"`
	ReleaseDebounceMs int64  `json:"release_debounce_ms"`
	HoldMs            int64  `json:"hold_ms"`
	DoublePressMs     int64  `json:"double_press_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	Broker            string `json:"broker"`
	HTTPAddr          string `json:"http_addr"`
	WSBroker          string `json:"ws_broker,omitempty"`
	EventsTopic       string `json:"events_topic,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Last)
	if state == "" {
		state = "UNKNOWN"
	}

	c := snap.Config
	return StatusInner{
		Button: ButtonJSON{
			State:  state,
			Held:   snap.Held(),
			HoldMs: snap.HoldMs,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: c.Broker},
		Counts: CountsJSON{
			Press:              snap.Counts.Press,
			DoublePress:        snap.Counts.DoublePress,
			Hold:               snap.Counts.Hold,
			ReleasePress:       snap.Counts.ReleasePress,
			ReleaseDoublePress: snap.Counts.ReleaseDoublePress,
			ReleaseHold:        snap.Counts.ReleaseHold,
		},
		GPIOErrors: snap.GPIOErrors,
		Config: ConfigJSON{
			Name:              c.Name,
			Pin:               c.Pin,
			Pull:              c.Pull,
			Contact:           c.Contact,
			ActiveLevel:       c.ActiveLevel,
			Backend:           c.Backend,
			PollMs:            c.PollMs,
			PressDebounceMs:   c.PressDebounceMs,
			ReleaseDebounceMs: c.ReleaseDebounceMs,
			HoldMs:            c.HoldMs,
			DoublePressMs:     c.DoublePressMs,
			HeartbeatMs:       c.HeartbeatMs,
			Broker:            c.Broker,
			HTTPAddr:          c.HTTPAddr,
			WSBroker:          c.WSBroker,
			EventsTopic:       c.EventsTopic,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
