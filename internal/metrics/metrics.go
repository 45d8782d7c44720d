// Package metrics exposes Prometheus collectors for the mailbox daemon.
// All methods are no-ops on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/mailbox-sensor/internal/logic"
)

const namespace = "mailbox"

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	notifyDuration  prometheus.Histogram
	notifyFailures  prometheus.Counter
	displayFailures prometheus.Counter
	publishFailures prometheus.Counter
	readErrors      prometheus.Counter
	ticks           prometheus.Counter
	mailPresent     prometheus.Gauge
	todayCount      prometheus.Gauge
	timeSynced      prometheus.Gauge
}

// New registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Mailbox events emitted, by type.",
		}, []string{"type"}),
		notifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notify_duration_seconds",
			Help:      "Time spent sending one notification.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		notifyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Notifications that could not be delivered.",
		}),
		displayFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_failures_total",
			Help:      "Failed display writes.",
		}),
		publishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_failures_total",
			Help:      "Failed MQTT publishes.",
		}),
		readErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gpio_read_errors_total",
			Help:      "Ticks on which an input could not be read.",
		}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks evaluated.",
		}),
		mailPresent: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mail_present",
			Help:      "1 while mail is considered present.",
		}),
		todayCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deliveries_today",
			Help:      "Mail arrivals counted for the current day.",
		}),
		timeSynced: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "time_synced",
			Help:      "1 once the clock has been set from NTP.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Event counts one emitted event.
func (m *Metrics) Event(t logic.EventType) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(t)).Inc()
}

// Notified records one notification attempt.
func (m *Metrics) Notified(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.notifyDuration.Observe(d.Seconds())
	if err != nil {
		m.notifyFailures.Inc()
	}
}

// DisplayFailed counts a failed display write.
func (m *Metrics) DisplayFailed() {
	if m == nil {
		return
	}
	m.displayFailures.Inc()
}

// PublishFailed counts a failed MQTT publish.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// Tick records one scheduler tick and the state after it.
func (m *Metrics) Tick(state logic.Snapshot, readErr error) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	if readErr != nil {
		m.readErrors.Inc()
	}
	m.mailPresent.Set(boolToFloat(state.MailPresent))
	m.todayCount.Set(float64(state.TodayCount))
}

// TimeSynced records the NTP sync state.
func (m *Metrics) TimeSynced(synced bool) {
	if m == nil {
		return
	}
	m.timeSynced.Set(boolToFloat(synced))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
