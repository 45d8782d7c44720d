// Command mailbox-sensor watches the mailbox flaps and reset button, and
// reports deliveries and retrievals through notifications, LEDs, an LCD
// and MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/sweeney/mailbox-sensor/internal/config"
	"github.com/sweeney/mailbox-sensor/internal/display"
	"github.com/sweeney/mailbox-sensor/internal/gpio"
	"github.com/sweeney/mailbox-sensor/internal/logging"
	"github.com/sweeney/mailbox-sensor/internal/metrics"
	"github.com/sweeney/mailbox-sensor/internal/mqtt"
	"github.com/sweeney/mailbox-sensor/internal/notify"
	"github.com/sweeney/mailbox-sensor/internal/sensor"
	"github.com/sweeney/mailbox-sensor/internal/sink"
	"github.com/sweeney/mailbox-sensor/internal/status"
	"github.com/sweeney/mailbox-sensor/internal/timesource"
	"github.com/sweeney/mailbox-sensor/internal/web"
)

// syncRetry is the pause between NTP attempts before the first sync.
const syncRetry = 500 * time.Millisecond

func main() {
	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := config.LoadDotEnv(".env"); err != nil {
		boot.Error("load .env", "err", err)
		os.Exit(1)
	}

	v := viper.New()
	cfg, err := config.Load(v, os.Getenv(config.EnvConfigFile))
	if err != nil {
		boot.Error("load config", "err", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		boot.Error("init logging", "err", err)
		os.Exit(1)
	}
	if f := config.UsedFile(v); f != "" {
		logger.Info("loaded config", "file", f)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pins, err := gpio.NewRealPins(cfg.GPIO.Chip, cfg.InputPins(), cfg.OutputPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer pins.Close()

	panel := sensor.NewPanel(pins, sensor.PanelConfig{
		DropPin:      cfg.Pins.Drop,
		RetrievalPin: cfg.Pins.Retrieval,
		ResetPin:     cfg.Pins.Reset,
		Window:       cfg.Sensor.Debounce,
	})
	leds := sensor.NewLEDs(pins, cfg.Pins.MailLED, cfg.Pins.RetrievalLED)
	disp := newDisplay(cfg, pins, logger)

	clock := timesource.NewNTP(cfg.NTP.Server, cfg.NTP.UTCOffset, cfg.NTP.Refresh)
	m := metrics.New()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Sensor.Debounce.Milliseconds(),
		WarnAfterMs: cfg.WarnAfter.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		TimeZone:    timesource.Zone(cfg.NTP.UTCOffset).String(),
		Notifiers:   cfg.Notifiers(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	showDirect(disp, tracker, logger, sink.BootLine1, sink.ConnectingLine2)
	if err := waitForSync(ctx, clock, syncRetry, sigCh, logger); err != nil {
		if errors.Is(err, errInterrupted) {
			return nil
		}
		return fmt.Errorf("time sync: %w", err)
	}
	logger.Info("time synced", "server", cfg.NTP.Server, "offset", clock.Offset())
	m.TimeSynced(true)
	tracker.SetTimeSynced(true)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, logger)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	snk := sink.New(sink.Config{
		Notifier:      notifier,
		ChatID:        cfg.Telegram.ChatID,
		Display:       disp,
		Publisher:     publisher,
		Tracker:       tracker,
		Metrics:       m,
		Logger:        logger,
		WarnAfter:     cfg.WarnAfter,
		NotifyTimeout: cfg.Notify.Timeout,
	})

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, m.Handler(), logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	if publisher != nil {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  clock.Now(),
			Event:      mqtt.SystemStartup,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, mqtt.SystemStartup, ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			logger.Warn("failed to publish startup event", "err", err)
		} else {
			logger.Info("published startup event")
		}
	}

	snk.Show(sink.ReadyLine1, sink.ReadyLine2)
	logger.Info("started",
		"poll", cfg.Poll,
		"debounce", cfg.Sensor.Debounce,
		"warn_after", cfg.WarnAfter,
		"heartbeat", cfg.Heartbeat,
		"notifiers", cfg.Notifiers(),
		"broker", cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	l := &loop{
		reader:     panel,
		leds:       leds,
		clock:      clock,
		sink:       snk,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		metrics:    m,
		logger:     logger,
		warnAfter:  cfg.WarnAfter,
		heartbeat:  cfg.Heartbeat,
		resetPause: cfg.ResetPause,
		sleep:      time.Sleep,
	}
	return l.run(ctx, ticker.C, sigCh)
}

// newDisplay returns the LCD, or a logging display when the LCD is disabled
// or fails to initialise.
func newDisplay(cfg config.Config, pins gpio.Pins, logger *slog.Logger) display.Display {
	if !cfg.Display.Enabled {
		return display.NewLog(logger)
	}
	lcd, err := display.NewLCD(pins, display.LCDPins{
		RS: cfg.Pins.LCDRS,
		E:  cfg.Pins.LCDE,
		D4: cfg.Pins.LCDD4,
		D5: cfg.Pins.LCDD5,
		D6: cfg.Pins.LCDD6,
		D7: cfg.Pins.LCDD7,
	}, nil)
	if err != nil {
		logger.Warn("lcd init failed, logging display text instead", "err", err)
		return display.NewLog(logger)
	}
	return lcd
}

// newNotifier builds the enabled notification backends. It returns nil when
// none is enabled. A Telegram login failure is fatal.
func newNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, error) {
	var backends notify.Multi

	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.Endpoint, cfg.Notify.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("telegram bot authorized", "username", tg.Username())
		backends = append(backends, tg)
	}
	if cfg.SMTP.Enabled {
		backends = append(backends, notify.NewSMTP(notify.SMTPConfig{
			Addr:     cfg.SMTP.Addr,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		}))
		logger.Info("smtp notifications enabled", "addr", cfg.SMTP.Addr, "to", cfg.SMTP.To)
	}

	if len(backends) == 0 {
		logger.Warn("no notification backend enabled")
		return nil, nil
	}
	return backends, nil
}

// showDirect writes to the display before the sink exists.
func showDirect(d display.Display, tracker *status.Tracker, logger *slog.Logger, line1, line2 string) {
	tracker.SetDisplay(line1, line2)
	if err := d.Show(line1, line2); err != nil {
		logger.Warn("display write failed", "err", err)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
