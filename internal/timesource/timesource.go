// Package timesource provides wall-clock time corrected from an NTP server,
// presented in a fixed UTC offset.
package timesource

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"

	"github.com/sweeney/mailbox-sensor/internal/logic"
)

// DefaultServer is the NTP pool queried when none is configured.
const DefaultServer = "pool.ntp.org"

// TimeFormat is the layout used in notifications and on the display.
const TimeFormat = "15:04:05"

// Source supplies the current time.
type Source interface {
	// Update refreshes the clock from the network. Best effort: on failure
	// the previous correction is kept.
	Update(ctx context.Context) error

	// Now returns the corrected current time in the configured zone.
	Now() time.Time

	// Synced reports whether the clock has been corrected at least once.
	Synced() bool

	// DayID returns the local calendar day of t, used by the day counter.
	DayID(t time.Time) logic.DayID
}

// Format renders t the way notifications and the display show it.
func Format(t time.Time) string {
	return t.Format(TimeFormat)
}

// Zone returns a fixed zone for a UTC offset in seconds.
func Zone(offsetSeconds int) *time.Location {
	name := fmt.Sprintf("UTC%+03d:%02d", offsetSeconds/3600, abs(offsetSeconds%3600)/60)
	return time.FixedZone(name, offsetSeconds)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTP is a Source backed by an NTP server.
// Not safe for concurrent use; owned by the scheduler loop.
type NTP struct {
	server  string
	zone    *time.Location
	refresh time.Duration
	timeout time.Duration

	query queryFunc
	clock func() time.Time

	offset      time.Duration
	synced      bool
	lastSync    time.Time
	lastAttempt time.Time
}

// NewNTP creates an NTP source. refresh is the minimum interval between
// queries once synced (the first successful sync is always attempted).
func NewNTP(server string, utcOffsetSeconds int, refresh time.Duration) *NTP {
	if server == "" {
		server = DefaultServer
	}
	return &NTP{
		server:  server,
		zone:    Zone(utcOffsetSeconds),
		refresh: refresh,
		timeout: 5 * time.Second,
		query:   ntp.QueryWithOptions,
		clock:   time.Now,
	}
}

// Update queries the server unless the last attempt is younger than the
// refresh interval. Before the first sync every call queries.
func (n *NTP) Update(ctx context.Context) error {
	now := n.clock()
	if n.synced && now.Sub(n.lastAttempt) < n.refresh {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.lastAttempt = now

	timeout := n.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}

	resp, err := n.query(n.server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return fmt.Errorf("ntp query %s: %w", n.server, err)
	}
	if err := resp.Validate(); err != nil {
		return fmt.Errorf("ntp response from %s: %w", n.server, err)
	}

	n.offset = resp.ClockOffset
	n.synced = true
	n.lastSync = now
	return nil
}

// Now returns local time corrected by the last known offset.
func (n *NTP) Now() time.Time {
	return n.clock().Add(n.offset).In(n.zone)
}

// DayID returns the calendar day of t in the configured zone.
func (n *NTP) DayID(t time.Time) logic.DayID {
	return logic.DayOf(t.In(n.zone))
}

// Synced reports whether at least one query has succeeded.
func (n *NTP) Synced() bool {
	return n.synced
}

// LastSync returns when the last successful query happened.
func (n *NTP) LastSync() time.Time {
	return n.lastSync
}

// Offset returns the last measured clock offset.
func (n *NTP) Offset() time.Duration {
	return n.offset
}
