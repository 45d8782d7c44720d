// Package status provides a thread-safe view of the mailbox daemon's state.
// The scheduler loop writes it; HTTP handlers and MQTT system events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/logic"
)

// RecentLimit is the number of events kept for the status page.
const RecentLimit = 10

// NetworkInfo contains network state as reported by the host helper.
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
	PollMs      int64
	DebounceMs  int64
	WarnAfterMs int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	TimeZone    string
	Notifiers   []string
}

// EventRecord is one dispatched event.
type EventRecord struct {
	ID        string
	Timestamp time.Time
	Type      logic.EventType
	Count     int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mailbox       logic.Snapshot
	Indicators    logic.Indicators
	Recent        []EventRecord // newest last
	Display       [2]string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	TimeSynced    bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
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

// Update stores the machine state and LED levels.
// Called from the scheduler loop on every tick.
func (t *Tracker) Update(state logic.Snapshot, ind logic.Indicators) {
	t.mu.Lock()
	t.snap.Mailbox = state
	t.snap.Indicators = ind
	t.mu.Unlock()
}

// RecordEvent appends an event, keeping the last RecentLimit.
func (t *Tracker) RecordEvent(id string, e logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	recent := append(t.snap.Recent, EventRecord{ID: id, Timestamp: e.Timestamp, Type: e.Type, Count: e.Count})
	if len(recent) > RecentLimit {
		recent = recent[len(recent)-RecentLimit:]
	}
	// A fresh backing array keeps earlier snapshots unchanged.
	t.snap.Recent = append([]EventRecord(nil), recent...)
}

// SetDisplay records what the display currently shows.
func (t *Tracker) SetDisplay(line1, line2 string) {
	t.mu.Lock()
	t.snap.Display = [2]string{line1, line2}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetTimeSynced records whether the clock has been corrected from NTP.
func (t *Tracker) SetTimeSynced(synced bool) {
	t.mu.Lock()
	t.snap.TimeSynced = synced
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
