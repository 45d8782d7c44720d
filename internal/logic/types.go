// Package logic contains the pure mailbox state machine and the per-day counter.
// This package has NO external dependencies (no GPIO, network, OS, or time.Sleep).
// Time and the calendar day are always injected via Input.
package logic

import "time"

// DefaultWarnAfter is how long the drop flap may stay open before a warning.
const DefaultWarnAfter = 5 * time.Minute

// EventType identifies a mailbox event.
type EventType string

const (
	EventMailArrived     EventType = "MAIL_ARRIVED"
	EventAutoRetrieval   EventType = "AUTO_RETRIEVAL"
	EventManualRetrieval EventType = "MANUAL_RETRIEVAL"
	EventFlapOpenTooLong EventType = "FLAP_OPEN_TOO_LONG"
)

// Event is a discrete mailbox event emitted by Machine.Tick.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Count is today's arrival count after this event. Only set for MAIL_ARRIVED.
	Count int
	// MailPresent is the presence flag after the tick that produced the event.
	MailPresent bool
}

// DayID identifies a calendar day. Equal values mean the same day.
type DayID int

// DayOf returns the ordinal day (days since 1970-01-01) of t in t's own location.
func DayOf(t time.Time) DayID {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return DayID(midnight.Unix() / 86400)
}

// Input represents a single sample of logical inputs.
type Input struct {
	DropOpen      bool // drop flap currently open
	RetrievalOpen bool // retrieval flap currently open
	ResetPressed  bool // manual reset button held
	Time          time.Time
	Day           DayID
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	MailArrived     int
	AutoRetrieval   int
	ManualRetrieval int
	FlapOpenTooLong int
}

// Indicators are the LED levels derived from the current state.
type Indicators struct {
	MailLED      bool // mail present or drop flap open
	RetrievalLED bool // retrieval flap opened since last reset
}

// Snapshot is a copy of the machine state for status consumers.
type Snapshot struct {
	MailPresent      bool
	DropOpen         bool
	DropOpenSince    time.Time
	Warned           bool
	RetrievalOpen    bool
	OpenedSinceReset bool
	TodayCount       int
	Day              DayID
	Counts           EventCounts
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
