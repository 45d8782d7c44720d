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
	Mailbox       MailboxJSON  `json:"mailbox"`
	LEDs          LEDsJSON     `json:"leds"`
	Display       []string     `json:"display"`
	RecentEvents  []EventJSON  `json:"recent_events"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	TimeSynced    bool         `json:"time_synced"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MailboxJSON reports the mailbox state.
type MailboxJSON struct {
	MailPresent      bool   `json:"mail_present"`
	DropFlap         string `json:"drop_flap"`
	DropOpenSince    string `json:"drop_open_since,omitempty"`
	RetrievalFlap    string `json:"retrieval_flap"`
	OpenedSinceReset bool   `json:"opened_since_reset"`
	TodayCount       int    `json:"today_count"`
}

// LEDsJSON reports the indicator levels.
type LEDsJSON struct {
	Mail      bool `json:"mail"`
	Retrieval bool `json:"retrieval"`
}

// EventJSON is one entry of the recent event list.
type EventJSON struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Count     int    `json:"count,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts since startup.
type CountsJSON struct {
	MailArrived     int `json:"mail_arrived"`
	AutoRetrieval   int `json:"auto_retrieval"`
	ManualRetrieval int `json:"manual_retrieval"`
	FlapOpenTooLong int `json:"flap_open_too_long"`
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
	PollMs      int64    `json:"poll_ms"`
	DebounceMs  int64    `json:"debounce_ms"`
	WarnAfterMs int64    `json:"warn_after_ms"`
	HeartbeatMs int64    `json:"heartbeat_ms"`
	Broker      string   `json:"broker"`
	HTTPAddr    string   `json:"http_addr"`
	TimeZone    string   `json:"time_zone"`
	Notifiers   []string `json:"notifiers"`
}

// FlapState renders a flap position.
func FlapState(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}

func buildInner(snap Snapshot) StatusInner {
	m := snap.Mailbox
	inner := StatusInner{
		Mailbox: MailboxJSON{
			MailPresent:      m.MailPresent,
			DropFlap:         FlapState(m.DropOpen),
			RetrievalFlap:    FlapState(m.RetrievalOpen),
			OpenedSinceReset: m.OpenedSinceReset,
			TodayCount:       m.TodayCount,
		},
		LEDs:          LEDsJSON{Mail: snap.Indicators.MailLED, Retrieval: snap.Indicators.RetrievalLED},
		Display:       []string{snap.Display[0], snap.Display[1]},
		RecentEvents:  make([]EventJSON, 0, len(snap.Recent)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		TimeSynced:    snap.TimeSynced,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			MailArrived:     m.Counts.MailArrived,
			AutoRetrieval:   m.Counts.AutoRetrieval,
			ManualRetrieval: m.Counts.ManualRetrieval,
			FlapOpenTooLong: m.Counts.FlapOpenTooLong,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			WarnAfterMs: snap.Config.WarnAfterMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			TimeZone:    snap.Config.TimeZone,
			Notifiers:   append([]string{}, snap.Config.Notifiers...),
		},
	}
	if m.DropOpen {
		inner.Mailbox.DropOpenSince = m.DropOpenSince.UTC().Format(time.RFC3339)
	}
	for _, r := range snap.Recent {
		inner.RecentEvents = append(inner.RecentEvents, EventJSON{
			ID:        r.ID,
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(r.Type),
			Count:     r.Count,
		})
	}
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
	return inner
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
