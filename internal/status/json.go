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
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Buttons        []ButtonJSON `json:"buttons"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Counts         CountsJSON   `json:"action_counts"`
	QueueOverflows int          `json:"queue_overflows"`
	Config         ConfigJSON   `json:"config"`
}

// ButtonJSON is the JSON representation of one button.
type ButtonJSON struct {
	ID         int  `json:"id"`
	Pressed    bool `json:"pressed"`
	Holding    bool `json:"holding"`
	PressCount int  `json:"press_count"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of action counts.
type CountsJSON struct {
	ShortPress int `json:"short_press"`
	LongPress  int `json:"long_press"`
	Hold       int `json:"hold"`
	MultiPress int `json:"multi_press"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Source      string `json:"source"`
	Buttons     int    `json:"buttons"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	TopicPrefix string `json:"topic_prefix"`
	HTTPAddr    string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	buttons := make([]ButtonJSON, 0, len(snap.Buttons))
	for _, b := range snap.Buttons {
		buttons = append(buttons, ButtonJSON{
			ID:         b.ID,
			Pressed:    b.Pressed,
			Holding:    b.Holding,
			PressCount: b.PressCount,
		})
	}

	return StatusInner{
		Buttons:       buttons,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ShortPress: snap.Counts.ShortPress,
			LongPress:  snap.Counts.LongPress,
			Hold:       snap.Counts.Hold,
			MultiPress: snap.Counts.MultiPress,
		},
		QueueOverflows: snap.QueueOverflows,
		Config: ConfigJSON{
			Source:      snap.Config.Source,
			Buttons:     snap.Config.Buttons,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			TopicPrefix: snap.Config.TopicPrefix,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
