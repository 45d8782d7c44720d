package logic

import "time"

// dropWindow tracks one uninterrupted open period of the drop flap.
type dropWindow struct {
	open     bool
	openedAt time.Time
	warned   bool
}

// Machine tracks mailbox state and turns input samples into events.
// It is owned by a single goroutine.
type Machine struct {
	warnAfter time.Duration

	mailPresent        bool
	drop               dropWindow
	retrievalOpen      bool
	retrievalWasClosed bool
	openedSinceReset   bool

	day           DayCounter
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMachine creates a state machine in its initial state: no mail, both
// flaps closed. warnAfter <= 0 selects DefaultWarnAfter.
// The startTime is used for calculating uptime in heartbeat events.
func NewMachine(warnAfter time.Duration, startTime time.Time) *Machine {
	if warnAfter <= 0 {
		warnAfter = DefaultWarnAfter
	}
	return &Machine{
		warnAfter:          warnAfter,
		retrievalWasClosed: true,
		startTime:          startTime,
		lastHeartbeat:      startTime,
	}
}

// Tick evaluates one input sample and returns the events it produced.
// Repeating the same input never emits the same event twice.
func (m *Machine) Tick(in Input) []Event {
	var events []Event
	emit := func(t EventType, count int) {
		events = append(events, Event{Timestamp: in.Time, Type: t, Count: count})
	}

	// Read before anything below can change state.
	retrievalEdge := m.retrievalWasClosed && in.RetrievalOpen

	if in.RetrievalOpen {
		m.openedSinceReset = true
	}
	m.retrievalOpen = in.RetrievalOpen

	if in.ResetPressed && m.mailPresent {
		m.mailPresent = false
		m.openedSinceReset = false
		emit(EventManualRetrieval, 0)
	}

	if retrievalEdge && m.mailPresent {
		m.mailPresent = false
		emit(EventAutoRetrieval, 0)
	}

	m.retrievalWasClosed = !in.RetrievalOpen

	switch {
	case in.DropOpen && !m.drop.open:
		m.drop = dropWindow{open: true, openedAt: in.Time}
		if !m.mailPresent {
			m.mailPresent = true
			m.openedSinceReset = false
			emit(EventMailArrived, m.day.Record(in.Day))
		}
	case !in.DropOpen && m.drop.open:
		m.drop = dropWindow{}
	}

	if m.drop.open && !m.drop.warned && in.Time.Sub(m.drop.openedAt) > m.warnAfter {
		m.drop.warned = true
		emit(EventFlapOpenTooLong, 0)
	}

	for i := range events {
		events[i].MailPresent = m.mailPresent
		m.count(events[i].Type)
	}
	return events
}

func (m *Machine) count(t EventType) {
	switch t {
	case EventMailArrived:
		m.eventCounts.MailArrived++
	case EventAutoRetrieval:
		m.eventCounts.AutoRetrieval++
	case EventManualRetrieval:
		m.eventCounts.ManualRetrieval++
	case EventFlapOpenTooLong:
		m.eventCounts.FlapOpenTooLong++
	}
}

// MailPresent reports whether mail is currently considered present.
func (m *Machine) MailPresent() bool {
	return m.mailPresent
}

// WarnAfter returns the configured prolonged-open threshold.
func (m *Machine) WarnAfter() time.Duration {
	return m.warnAfter
}

// Indicators returns the LED levels for the current state.
func (m *Machine) Indicators() Indicators {
	return Indicators{
		MailLED:      m.mailPresent || m.drop.open,
		RetrievalLED: m.openedSinceReset,
	}
}

// State returns a copy of the current state.
func (m *Machine) State() Snapshot {
	day, _ := m.day.Day()
	return Snapshot{
		MailPresent:      m.mailPresent,
		DropOpen:         m.drop.open,
		DropOpenSince:    m.drop.openedAt,
		Warned:           m.drop.warned,
		RetrievalOpen:    m.retrievalOpen,
		OpenedSinceReset: m.openedSinceReset,
		TodayCount:       m.day.Count(),
		Day:              day,
		Counts:           m.eventCounts,
	}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
