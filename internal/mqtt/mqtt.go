// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/button-handler/internal/logic"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "home/buttons"

// Topics holds the topics the daemon publishes to.
type Topics struct {
	// Events carries classified button actions.
	Events string
	// System carries lifecycle events (STARTUP, HEARTBEAT, SHUTDOWN, RECONNECTED).
	System string
}

// TopicsFor derives the topics under prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Events: prefix + "/events",
		System: prefix + "/system",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a classified button action to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishRaw sends an arbitrary payload, used by action bindings.
	PublishRaw(topic string, payload []byte, retained bool) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a button action.
type Payload struct {
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the action details.
type ButtonPayload struct {
	Timestamp string      `json:"timestamp"`
	Ticks     logic.Ticks `json:"ticks"`
	ID        int         `json:"id"`
	Action    string      `json:"action"`
	Count     int         `json:"count"`
}

// FormatPayload creates the JSON payload for an action observed at wall-clock time at.
func FormatPayload(event logic.Event, at time.Time) ([]byte, error) {
	payload := Payload{
		Button: ButtonPayload{
			Timestamp: at.UTC().Format(time.RFC3339),
			Ticks:     event.Timestamp,
			ID:        event.Button,
			Action:    event.Action.String(),
			Count:     event.Action.Count(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
