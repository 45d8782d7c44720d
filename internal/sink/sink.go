// Package sink delivers mailbox events to their consumers: the notifier,
// the display, MQTT, metrics, the status tracker and the log.
package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sweeney/mailbox-sensor/internal/display"
	"github.com/sweeney/mailbox-sensor/internal/logic"
	"github.com/sweeney/mailbox-sensor/internal/metrics"
	"github.com/sweeney/mailbox-sensor/internal/mqtt"
	"github.com/sweeney/mailbox-sensor/internal/notify"
	"github.com/sweeney/mailbox-sensor/internal/status"
)

// DefaultNotifyTimeout bounds a single notification send.
const DefaultNotifyTimeout = 10 * time.Second

// Config wires a Sink. Publisher, Tracker and Metrics may be nil.
type Config struct {
	Notifier      notify.Notifier
	ChatID        string
	Display       display.Display
	Publisher     mqtt.Publisher
	Tracker       *status.Tracker
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	WarnAfter     time.Duration
	NotifyTimeout time.Duration
}

// Sink dispatches events. Failures of any consumer are logged and never
// returned, so the scheduler loop keeps running.
type Sink struct {
	cfg   Config
	newID func() string
}

// New creates a Sink.
func New(cfg Config) *Sink {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	if cfg.WarnAfter <= 0 {
		cfg.WarnAfter = logic.DefaultWarnAfter
	}
	return &Sink{cfg: cfg, newID: uuid.NewString}
}

// Dispatch delivers e to every consumer and returns the id assigned to it.
// It blocks until the notification has been sent or has failed.
func (s *Sink) Dispatch(ctx context.Context, e logic.Event) string {
	id := s.newID()
	log := s.cfg.Logger.With("event", string(e.Type), "id", id)

	if e.Type == logic.EventMailArrived {
		log.Info("mail arrived", "count", e.Count)
	} else {
		log.Info("mailbox event", "mail_present", e.MailPresent)
	}
	s.cfg.Metrics.Event(e.Type)

	if line1, line2, ok := DisplayLines(e); ok {
		s.Show(line1, line2)
	}

	s.notify(ctx, log, e)

	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(id, e); err != nil {
			log.Warn("mqtt publish failed", "err", err)
			s.cfg.Metrics.PublishFailed()
		}
	}
	if s.cfg.Tracker != nil {
		s.cfg.Tracker.RecordEvent(id, e)
	}
	return id
}

func (s *Sink) notify(ctx context.Context, log *slog.Logger, e logic.Event) {
	if s.cfg.Notifier == nil {
		return
	}
	text, mode := FormatText(e, s.cfg.WarnAfter)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	start := time.Now()
	err := s.cfg.Notifier.Send(ctx, s.cfg.ChatID, text, mode)
	s.cfg.Metrics.Notified(time.Since(start), err)
	if err != nil {
		log.Error("notification failed", "err", err)
		return
	}
	log.Debug("notification sent")
}

// Show writes both display lines and records them for the status page.
func (s *Sink) Show(line1, line2 string) {
	if s.cfg.Tracker != nil {
		s.cfg.Tracker.SetDisplay(line1, line2)
	}
	if s.cfg.Display == nil {
		return
	}
	if err := s.cfg.Display.Show(line1, line2); err != nil {
		s.cfg.Logger.Warn("display write failed", "err", err)
		s.cfg.Metrics.DisplayFailed()
	}
}
