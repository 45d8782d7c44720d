// Package mqtt publishes mailbox telemetry to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/logic"
)

// Topic is the MQTT topic for mailbox events.
const Topic = "home/mailbox/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/mailbox/system"

// System event names.
const (
	SystemStartup     = "STARTUP"
	SystemShutdown    = "SHUTDOWN"
	SystemHeartbeat   = "HEARTBEAT"
	SystemOffline     = "OFFLINE"
	SystemReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a mailbox event under the given event id.
	// Returns error if publishing fails (should not crash the process).
	Publish(id string, event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a daemon lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // signal name, shutdown only
	RawPayload []byte // pre-formatted status snapshot; sent as is when set
	Retained   bool
}

// Payload is the JSON body of a mailbox event message.
type Payload struct {
	Mailbox MailboxPayload `json:"mailbox"`
}

// MailboxPayload contains the event details.
type MailboxPayload struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	Count       int    `json:"count,omitempty"`
	MailPresent bool   `json:"mail_present"`
}

// FormatPayload creates the JSON payload for a mailbox event.
func FormatPayload(id string, event logic.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Mailbox: MailboxPayload{
			ID:          id,
			Timestamp:   formatTime(event.Timestamp),
			Event:       string(event.Type),
			Count:       event.Count,
			MailPresent: event.MailPresent,
		},
	})
}

// SystemPayload is the JSON body of a simple system event (LWT, reconnect)
// that carries no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: formatTime(event.Timestamp),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// formatTime renders t as RFC 3339 UTC; the zero time renders empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
