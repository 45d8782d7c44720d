package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/logic"
	"github.com/sweeney/mailbox-sensor/internal/metrics"
	"github.com/sweeney/mailbox-sensor/internal/mqtt"
	"github.com/sweeney/mailbox-sensor/internal/sensor"
	"github.com/sweeney/mailbox-sensor/internal/status"
	"github.com/sweeney/mailbox-sensor/internal/timesource"
)

var errInterrupted = errors.New("interrupted by signal")

// indicators drives the two LEDs.
type indicators interface {
	Set(mail, retrieval bool) error
}

// dispatcher delivers one event to its consumers.
type dispatcher interface {
	Dispatch(ctx context.Context, e logic.Event) string
}

// loop is the fixed-period scheduler. publisher, mqttStatus, tracker and
// metrics may be nil.
type loop struct {
	reader     sensor.Reader
	leds       indicators
	clock      timesource.Source
	sink       dispatcher
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	logger     *slog.Logger

	warnAfter  time.Duration
	heartbeat  time.Duration
	resetPause time.Duration
	sleep      func(time.Duration)
}

// run processes one tick per value received on tick until a signal arrives.
func (l *loop) run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	machine := logic.NewMachine(l.warnAfter, l.clock.Now())

	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil

		case <-ctx.Done():
			return ctx.Err()

		case <-tick:
			if err := l.clock.Update(ctx); err != nil {
				l.logger.Warn("time refresh failed", "err", err)
			}
			now := l.clock.Now()

			// On error the reading holds the last known input values.
			reading, readErr := l.reader.Read(now)
			if readErr != nil {
				l.logger.Warn("gpio read error", "err", readErr)
			}

			wasDropOpen := machine.State().DropOpen
			events := machine.Tick(logic.Input{
				DropOpen:      reading.DropOpen,
				RetrievalOpen: reading.RetrievalOpen,
				ResetPressed:  reading.ResetPressed,
				Time:          now,
				Day:           l.clock.DayID(now),
			})

			manual := false
			for _, e := range events {
				l.sink.Dispatch(ctx, e)
				if e.Type == logic.EventManualRetrieval {
					manual = true
				}
			}

			state := machine.State()
			if wasDropOpen && !state.DropOpen {
				l.logger.Info("drop flap closed")
			}

			ind := machine.Indicators()
			if err := l.leds.Set(ind.MailLED, ind.RetrievalLED); err != nil {
				l.logger.Warn("led write error", "err", err)
			}

			l.metrics.Tick(state, readErr)
			l.metrics.TimeSynced(l.clock.Synced())
			if l.tracker != nil {
				l.tracker.Update(state, ind)
				l.tracker.SetTimeSynced(l.clock.Synced())
				if l.mqttStatus != nil {
					l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
				}
			}

			if hb := machine.CheckHeartbeat(now, l.heartbeat); hb != nil {
				l.publishHeartbeat(hb)
			}

			if manual && l.resetPause > 0 {
				l.sleep(l.resetPause)
			}
		}
	}
}

func (l *loop) publishHeartbeat(hb *logic.HeartbeatData) {
	l.logger.Info("heartbeat",
		"uptime", hb.Uptime,
		"mail_arrived", hb.Counts.MailArrived,
		"auto_retrieval", hb.Counts.AutoRetrieval,
		"manual_retrieval", hb.Counts.ManualRetrieval,
		"flap_open_too_long", hb.Counts.FlapOpenTooLong)

	if l.publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp: hb.Timestamp,
		Event:     mqtt.SystemHeartbeat,
	}
	if l.tracker != nil {
		if net := readNetworkInfo(); net != nil {
			l.tracker.SetNetwork(net)
		}
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), mqtt.SystemHeartbeat, "")
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.logger.Warn("heartbeat publish error", "err", err)
		l.metrics.PublishFailed()
	}
}

func (l *loop) shutdown(s os.Signal) {
	name := signalName(s)
	l.logger.Info("shutting down", "signal", name)

	if err := l.leds.Set(false, false); err != nil {
		l.logger.Warn("led write error", "err", err)
	}

	if l.publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp: l.clock.Now(),
		Event:     mqtt.SystemShutdown,
		Reason:    name,
		Retained:  true,
	}
	if l.tracker != nil {
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), mqtt.SystemShutdown, name)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.logger.Warn("failed to publish shutdown event", "err", err)
	} else {
		l.logger.Info("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// waitForSync retries the first time sync every interval until it succeeds.
// It returns errInterrupted if a signal arrives first.
func waitForSync(ctx context.Context, src timesource.Source, interval time.Duration, sig <-chan os.Signal, logger *slog.Logger) error {
	for attempt := 1; ; attempt++ {
		err := src.Update(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("waiting for time sync", "attempt", attempt, "err", err)

		timer := time.NewTimer(interval)
		select {
		case s := <-sig:
			timer.Stop()
			logger.Info("interrupted before time sync", "signal", signalName(s))
			return errInterrupted
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
