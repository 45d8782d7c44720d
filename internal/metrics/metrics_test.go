package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sweeney/mailbox-sensor/internal/logic"
)

func TestEventCounter(t *testing.T) {
	m := New()
	m.Event(logic.EventMailArrived)
	m.Event(logic.EventMailArrived)
	m.Event(logic.EventAutoRetrieval)

	if got := testutil.ToFloat64(m.events.WithLabelValues("MAIL_ARRIVED")); got != 2 {
		t.Errorf("MAIL_ARRIVED: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("AUTO_RETRIEVAL")); got != 1 {
		t.Errorf("AUTO_RETRIEVAL: got %v, want 1", got)
	}
}

func TestNotified(t *testing.T) {
	m := New()
	m.Notified(100*time.Millisecond, nil)
	m.Notified(200*time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(m.notifyFailures); got != 1 {
		t.Errorf("failures: got %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.notifyDuration); got != 1 {
		t.Errorf("histogram series: got %d, want 1", got)
	}
}

func TestTick(t *testing.T) {
	m := New()
	m.Tick(logic.Snapshot{MailPresent: true, TodayCount: 3}, nil)
	m.Tick(logic.Snapshot{MailPresent: true, TodayCount: 3}, errors.New("read"))

	if got := testutil.ToFloat64(m.ticks); got != 2 {
		t.Errorf("ticks: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.readErrors); got != 1 {
		t.Errorf("read errors: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.mailPresent); got != 1 {
		t.Errorf("mail_present: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.todayCount); got != 3 {
		t.Errorf("deliveries_today: got %v, want 3", got)
	}

	m.Tick(logic.Snapshot{}, nil)
	if got := testutil.ToFloat64(m.mailPresent); got != 0 {
		t.Errorf("mail_present after retrieval: got %v, want 0", got)
	}
}

func TestFailureCounters(t *testing.T) {
	m := New()
	m.DisplayFailed()
	m.PublishFailed()
	m.PublishFailed()
	m.TimeSynced(true)

	if got := testutil.ToFloat64(m.displayFailures); got != 1 {
		t.Errorf("display failures: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.publishFailures); got != 2 {
		t.Errorf("publish failures: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.timeSynced); got != 1 {
		t.Errorf("time_synced: got %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Event(logic.EventMailArrived)
	m.Notified(time.Second, errors.New("x"))
	m.DisplayFailed()
	m.PublishFailed()
	m.Tick(logic.Snapshot{}, nil)
	m.TimeSynced(true)
	if m.Handler() != nil {
		t.Error("nil metrics should have no handler")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Event(logic.EventFlapOpenTooLong)

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `mailbox_events_total{type="FLAP_OPEN_TOO_LONG"} 1`) {
		t.Errorf("event counter missing from output:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected Go runtime metrics")
	}
}
