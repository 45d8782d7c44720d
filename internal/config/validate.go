package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/mailbox-sensor/internal/logging"
)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Poll <= 0 {
		add("poll must be positive, got %v", c.Poll)
	}
	if c.WarnAfter <= 0 {
		add("warn_after must be positive, got %v", c.WarnAfter)
	}
	if c.ResetPause < 0 {
		add("reset_pause must not be negative")
	}
	if c.Heartbeat < 0 {
		add("heartbeat must not be negative")
	}
	if c.Sensor.Debounce < 0 {
		add("sensor.debounce must not be negative")
	}
	if c.Notify.Timeout <= 0 {
		add("notify.timeout must be positive")
	}
	if c.NTP.UTCOffset < -14*3600 || c.NTP.UTCOffset > 14*3600 {
		add("ntp.utc_offset %d out of range", c.NTP.UTCOffset)
	}

	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			add("telegram.token is required when telegram is enabled")
		}
		if !validChatID(c.Telegram.ChatID) {
			add("telegram.chat_id must be a numeric chat id or @channel, got %q", c.Telegram.ChatID)
		}
	}
	if c.SMTP.Enabled {
		if c.SMTP.Addr == "" {
			add("smtp.addr is required when smtp is enabled")
		}
		if c.SMTP.From == "" {
			add("smtp.from is required when smtp is enabled")
		}
		if len(c.SMTP.To) == 0 {
			add("smtp.to needs at least one recipient")
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		add("log.format must be %q or %q, got %q", logging.FormatText, logging.FormatJSON, c.Log.Format)
	}

	if err := c.checkPins(); err != nil {
		add("%v", err)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (c Config) checkPins() error {
	type named struct {
		name string
		pin  int
	}
	pins := []named{
		{"pins.drop", c.Pins.Drop},
		{"pins.retrieval", c.Pins.Retrieval},
		{"pins.reset", c.Pins.Reset},
		{"pins.mail_led", c.Pins.MailLED},
		{"pins.retrieval_led", c.Pins.RetrievalLED},
	}
	if c.Display.Enabled {
		pins = append(pins,
			named{"pins.lcd_rs", c.Pins.LCDRS},
			named{"pins.lcd_e", c.Pins.LCDE},
			named{"pins.lcd_d4", c.Pins.LCDD4},
			named{"pins.lcd_d5", c.Pins.LCDD5},
			named{"pins.lcd_d6", c.Pins.LCDD6},
			named{"pins.lcd_d7", c.Pins.LCDD7},
		)
	}

	var errs []error
	seen := make(map[int]string)
	for _, p := range pins {
		if p.pin < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", p.name))
			continue
		}
		if other, ok := seen[p.pin]; ok {
			errs = append(errs, fmt.Errorf("%s and %s both use pin %d", other, p.name, p.pin))
			continue
		}
		seen[p.pin] = p.name
	}
	return errors.Join(errs...)
}

// InputPins returns the pins requested as inputs.
func (c Config) InputPins() []int {
	return []int{c.Pins.Drop, c.Pins.Retrieval, c.Pins.Reset}
}

// OutputPins returns the pins requested as outputs, including the LCD
// lines when the display is enabled.
func (c Config) OutputPins() []int {
	out := []int{c.Pins.MailLED, c.Pins.RetrievalLED}
	if c.Display.Enabled {
		out = append(out, c.Pins.LCDRS, c.Pins.LCDE, c.Pins.LCDD4, c.Pins.LCDD5, c.Pins.LCDD6, c.Pins.LCDD7)
	}
	return out
}

// Notifiers names the enabled notification backends.
func (c Config) Notifiers() []string {
	var names []string
	if c.Telegram.Enabled {
		names = append(names, "telegram")
	}
	if c.SMTP.Enabled {
		names = append(names, "smtp")
	}
	return names
}

func validChatID(id string) bool {
	if strings.HasPrefix(id, "@") {
		return len(id) > 1
	}
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}
