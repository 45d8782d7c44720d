package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	d := Default()
	if cfg.Poll != d.Poll {
		t.Errorf("Poll: got %v, want %v", cfg.Poll, d.Poll)
	}
	if cfg.WarnAfter != 5*time.Minute {
		t.Errorf("WarnAfter: got %v, want 5m", cfg.WarnAfter)
	}
	if cfg.ResetPause != 300*time.Millisecond {
		t.Errorf("ResetPause: got %v, want 300ms", cfg.ResetPause)
	}
	if cfg.NTP.UTCOffset != 7200 {
		t.Errorf("NTP.UTCOffset: got %d, want 7200", cfg.NTP.UTCOffset)
	}
	if cfg.Pins.Drop != d.Pins.Drop || cfg.Pins.LCDD7 != d.Pins.LCDD7 {
		t.Errorf("Pins: got %+v", cfg.Pins)
	}
	if cfg.Telegram.Enabled || cfg.SMTP.Enabled {
		t.Error("notification backends should be disabled by default")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeFile(t, "mailbox-sensor.yaml", `
poll: 250ms
warn_after: 2m
pins:
  drop: 5
  retrieval: 6
  reset: 13
display:
  enabled: false
ntp:
  utc_offset: 3600
telegram:
  enabled: true
  token: "123:abc"
  chat_id: "-1001234"
smtp:
  enabled: true
  addr: mail.home.test:587
  from: box@home.test
  to:
    - a@home.test
    - b@home.test
log:
  level: debug
  format: json
`)

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Poll != 250*time.Millisecond {
		t.Errorf("Poll: got %v", cfg.Poll)
	}
	if cfg.WarnAfter != 2*time.Minute {
		t.Errorf("WarnAfter: got %v", cfg.WarnAfter)
	}
	if cfg.Pins.Drop != 5 || cfg.Pins.Retrieval != 6 || cfg.Pins.Reset != 13 {
		t.Errorf("Pins: got %+v", cfg.Pins)
	}
	if cfg.Display.Enabled {
		t.Error("display should be disabled")
	}
	if cfg.NTP.UTCOffset != 3600 {
		t.Errorf("UTCOffset: got %d", cfg.NTP.UTCOffset)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.ChatID != "-1001234" {
		t.Errorf("Telegram: got %+v", cfg.Telegram)
	}
	if len(cfg.SMTP.To) != 2 || cfg.SMTP.To[1] != "b@home.test" {
		t.Errorf("SMTP.To: got %v", cfg.SMTP.To)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format: got %q", cfg.Log.Format)
	}
	if got := cfg.Notifiers(); len(got) != 2 {
		t.Errorf("Notifiers: got %v", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "mailbox-sensor.yaml", "poll: 250ms\nhttp:\n  addr: \":8080\"\n")
	t.Setenv("MAILBOX_POLL", "50ms")
	t.Setenv("MAILBOX_TELEGRAM_ENABLED", "true")
	t.Setenv("MAILBOX_TELEGRAM_TOKEN", "secret")
	t.Setenv("MAILBOX_TELEGRAM_CHAT_ID", "42")
	t.Setenv("MAILBOX_SMTP_TO", "x@home.test,y@home.test")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Poll != 50*time.Millisecond {
		t.Errorf("Poll: got %v, want 50ms from env", cfg.Poll)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr: got %q, want file value", cfg.HTTP.Addr)
	}
	if cfg.Telegram.Token != "secret" || cfg.Telegram.ChatID != "42" {
		t.Errorf("Telegram: got %+v", cfg.Telegram)
	}
	if len(cfg.SMTP.To) != 2 {
		t.Errorf("SMTP.To: got %v", cfg.SMTP.To)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := writeFile(t, "bad.yaml", "poll: 0s\ntelegram:\n  enabled: true\n")

	_, err := Load(viper.New(), path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	joined := strings.Join(verr.Problems, "\n")
	for _, want := range []string{"poll", "telegram.token", "telegram.chat_id"} {
		if !strings.Contains(joined, want) {
			t.Errorf("problems %q should mention %q", joined, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"negative reset pause", func(c *Config) { c.ResetPause = -1 }, "reset_pause"},
		{"zero warn after", func(c *Config) { c.WarnAfter = 0 }, "warn_after"},
		{"zero notify timeout", func(c *Config) { c.Notify.Timeout = 0 }, "notify.timeout"},
		{"offset out of range", func(c *Config) { c.NTP.UTCOffset = 20 * 3600 }, "utc_offset"},
		{"smtp without recipients", func(c *Config) {
			c.SMTP = SMTPConfig{Enabled: true, Addr: "x:25", From: "a@b"}
		}, "smtp.to"},
		{"non numeric chat id", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, Token: "t", ChatID: "mailbox"}
		}, "chat_id"},
		{"bare at sign chat id", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, Token: "t", ChatID: "@"}
		}, "chat_id"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"duplicate input pins", func(c *Config) { c.Pins.Retrieval = c.Pins.Drop }, "pins.drop and pins.retrieval"},
		{"led on lcd pin", func(c *Config) { c.Pins.MailLED = c.Pins.LCDE }, "pins.lcd_e"},
		{"negative pin", func(c *Config) { c.Pins.Reset = -4 }, "pins.reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateChannelChatID(t *testing.T) {
	cfg := Default()
	cfg.Telegram = TelegramConfig{Enabled: true, Token: "t", ChatID: "@mailbox_channel"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("channel chat id should be accepted: %v", err)
	}
}

func TestLCDPinsIgnoredWhenDisplayDisabled(t *testing.T) {
	cfg := Default()
	cfg.Display.Enabled = false
	cfg.Pins.MailLED = cfg.Pins.LCDE

	if err := cfg.Validate(); err != nil {
		t.Errorf("LCD pins should not be checked with the display off: %v", err)
	}
	if got := len(cfg.OutputPins()); got != 2 {
		t.Errorf("OutputPins: got %d pins, want 2", got)
	}
}

func TestPinLists(t *testing.T) {
	cfg := Default()
	if got := cfg.InputPins(); len(got) != 3 || got[0] != cfg.Pins.Drop {
		t.Errorf("InputPins: got %v", got)
	}
	if got := cfg.OutputPins(); len(got) != 8 {
		t.Errorf("OutputPins: got %v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "MAILBOX_TEST_DOTENV=from-file\nMAILBOX_TEST_PRESET=from-file\n")
	t.Setenv("MAILBOX_TEST_PRESET", "from-env")
	// Registered for cleanup; LoadDotEnv sets it via os.Setenv.
	t.Setenv("MAILBOX_TEST_DOTENV", "")
	os.Unsetenv("MAILBOX_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("MAILBOX_TEST_DOTENV"); got != "from-file" {
		t.Errorf("MAILBOX_TEST_DOTENV: got %q", got)
	}
	if got := os.Getenv("MAILBOX_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variables must win, got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
