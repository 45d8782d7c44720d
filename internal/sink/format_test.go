package sink

import (
	"strings"
	"testing"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/logic"
	"github.com/sweeney/mailbox-sensor/internal/notify"
)

func TestFormatTextArrival(t *testing.T) {
	e := logic.Event{
		Timestamp: time.Date(2026, 3, 4, 23, 5, 9, 0, time.UTC),
		Type:      logic.EventMailArrived,
		Count:     11,
	}
	text, mode := FormatText(e, 0)
	if mode != notify.ModeMarkdown {
		t.Errorf("mode: got %q", mode)
	}
	want := "📬 *New mail dropped in!*\n🕒 Time: 23:05:09\n📈 Openings today: 11"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestFormatTextWarningThreshold(t *testing.T) {
	tests := []struct {
		warnAfter time.Duration
		want      string
	}{
		{5 * time.Minute, "more than 5 minutes!"},
		{time.Minute, "more than 1 minute!"},
		{90 * time.Second, "more than 1m30s!"},
		{10 * time.Second, "more than 10s!"},
	}
	for _, tt := range tests {
		text, mode := FormatText(logic.Event{Type: logic.EventFlapOpenTooLong}, tt.warnAfter)
		if mode != notify.ModePlain {
			t.Errorf("%v: mode %q, want plain", tt.warnAfter, mode)
		}
		if !strings.Contains(text, tt.want) {
			t.Errorf("%v: %q does not contain %q", tt.warnAfter, text, tt.want)
		}
	}
}

func TestDisplayLines(t *testing.T) {
	ts := time.Date(2026, 3, 4, 7, 0, 1, 0, time.UTC)
	tests := []struct {
		typ          logic.EventType
		line1, line2 string
		ok           bool
	}{
		{logic.EventMailArrived, "New mail!", "07:00:01", true},
		{logic.EventAutoRetrieval, "Retrieved", "Mailbox empty", true},
		{logic.EventManualRetrieval, "Mailbox empty", "", true},
		{logic.EventFlapOpenTooLong, "", "", false},
	}
	for _, tt := range tests {
		l1, l2, ok := DisplayLines(logic.Event{Timestamp: ts, Type: tt.typ})
		if l1 != tt.line1 || l2 != tt.line2 || ok != tt.ok {
			t.Errorf("%s: got (%q, %q, %v), want (%q, %q, %v)", tt.typ, l1, l2, ok, tt.line1, tt.line2, tt.ok)
		}
	}
}
