package sink

import (
	"fmt"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/logic"
	"github.com/sweeney/mailbox-sensor/internal/notify"
	"github.com/sweeney/mailbox-sensor/internal/timesource"
)

// Display texts shown outside of events.
const (
	BootLine1       = "Mailbox..."
	ConnectingLine2 = "Connecting..."
	ReadyLine1      = "System ready"
	ReadyLine2      = "Waiting for mail"
)

// FormatText renders the notification for e.
func FormatText(e logic.Event, warnAfter time.Duration) (string, notify.ParseMode) {
	switch e.Type {
	case logic.EventMailArrived:
		return fmt.Sprintf("📬 *New mail dropped in!*\n🕒 Time: %s\n📈 Openings today: %d",
			timesource.Format(e.Timestamp), e.Count), notify.ModeMarkdown
	case logic.EventAutoRetrieval:
		return "📤 *Mail was retrieved!*", notify.ModeMarkdown
	case logic.EventManualRetrieval:
		return "📤 *Mail removed manually (button)*", notify.ModeMarkdown
	case logic.EventFlapOpenTooLong:
		return fmt.Sprintf("⚠️ The drop flap has been open for more than %s! Possibly a large item.",
			humanDuration(warnAfter)), notify.ModePlain
	}
	return string(e.Type), notify.ModePlain
}

// DisplayLines returns the screen for e. ok is false when the event leaves
// the display unchanged.
func DisplayLines(e logic.Event) (line1, line2 string, ok bool) {
	switch e.Type {
	case logic.EventMailArrived:
		return "New mail!", timesource.Format(e.Timestamp), true
	case logic.EventAutoRetrieval:
		return "Retrieved", "Mailbox empty", true
	case logic.EventManualRetrieval:
		return "Mailbox empty", "", true
	}
	return "", "", false
}

func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}
