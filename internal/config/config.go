// Package config loads daemon configuration from a YAML file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sweeney/mailbox-sensor/internal/gpio"
	"github.com/sweeney/mailbox-sensor/internal/logging"
	"github.com/sweeney/mailbox-sensor/internal/logic"
	"github.com/sweeney/mailbox-sensor/internal/timesource"
)

// EnvPrefix prefixes every environment override, e.g. MAILBOX_TELEGRAM_TOKEN.
const EnvPrefix = "MAILBOX"

// EnvConfigFile names an explicit config file, bypassing the search path.
const EnvConfigFile = "MAILBOX_CONFIG"

// ConfigName is the config file name searched for (without extension).
const ConfigName = "mailbox-sensor"

// Config is the complete daemon configuration.
type Config struct {
	Poll       time.Duration `mapstructure:"poll"`
	WarnAfter  time.Duration `mapstructure:"warn_after"`
	ResetPause time.Duration `mapstructure:"reset_pause"`
	Heartbeat  time.Duration `mapstructure:"heartbeat"`

	Pins     PinsConfig     `mapstructure:"pins"`
	GPIO     GPIOConfig     `mapstructure:"gpio"`
	Sensor   SensorConfig   `mapstructure:"sensor"`
	Display  DisplayConfig  `mapstructure:"display"`
	NTP      NTPConfig      `mapstructure:"ntp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

// PinsConfig is the BCM pin assignment.
type PinsConfig struct {
	Drop         int `mapstructure:"drop"`
	Retrieval    int `mapstructure:"retrieval"`
	Reset        int `mapstructure:"reset"`
	MailLED      int `mapstructure:"mail_led"`
	RetrievalLED int `mapstructure:"retrieval_led"`
	LCDRS        int `mapstructure:"lcd_rs"`
	LCDE         int `mapstructure:"lcd_e"`
	LCDD4        int `mapstructure:"lcd_d4"`
	LCDD5        int `mapstructure:"lcd_d5"`
	LCDD6        int `mapstructure:"lcd_d6"`
	LCDD7        int `mapstructure:"lcd_d7"`
}

// GPIOConfig selects the GPIO character device.
type GPIOConfig struct {
	Chip string `mapstructure:"chip"`
}

// SensorConfig controls input sampling.
type SensorConfig struct {
	// Debounce is the stability window; 0 adopts every read directly.
	Debounce time.Duration `mapstructure:"debounce"`
}

// DisplayConfig controls the LCD.
type DisplayConfig struct {
	// Enabled drives the LCD; otherwise display text is only logged.
	Enabled bool `mapstructure:"enabled"`
}

// NTPConfig controls the time source.
type NTPConfig struct {
	Server string `mapstructure:"server"`
	// UTCOffset is the fixed zone offset in seconds.
	UTCOffset int           `mapstructure:"utc_offset"`
	Refresh   time.Duration `mapstructure:"refresh"`
}

// TelegramConfig configures the Telegram bot backend.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Token    string `mapstructure:"token"`
	ChatID   string `mapstructure:"chat_id"`  // numeric id or @channel
	Endpoint string `mapstructure:"endpoint"` // Bot API URL format; empty for the public API
}

// SMTPConfig configures the e-mail backend.
type SMTPConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Addr     string   `mapstructure:"addr"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// NotifyConfig applies to every notification backend.
type NotifyConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// MQTTConfig configures telemetry. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
}

// HTTPConfig configures the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Poll:       100 * time.Millisecond,
		WarnAfter:  logic.DefaultWarnAfter,
		ResetPause: 300 * time.Millisecond,
		Heartbeat:  15 * time.Minute,
		Pins: PinsConfig{
			Drop:         gpio.DefaultPinDrop,
			Retrieval:    gpio.DefaultPinRetrieval,
			Reset:        gpio.DefaultPinReset,
			MailLED:      gpio.DefaultPinMailLED,
			RetrievalLED: gpio.DefaultPinRetrievalLED,
			LCDRS:        gpio.DefaultPinLCDRS,
			LCDE:         gpio.DefaultPinLCDE,
			LCDD4:        gpio.DefaultPinLCDD4,
			LCDD5:        gpio.DefaultPinLCDD5,
			LCDD6:        gpio.DefaultPinLCDD6,
			LCDD7:        gpio.DefaultPinLCDD7,
		},
		GPIO:    GPIOConfig{Chip: "gpiochip0"},
		Display: DisplayConfig{Enabled: true},
		NTP: NTPConfig{
			Server:    timesource.DefaultServer,
			UTCOffset: 7200,
			Refresh:   time.Hour,
		},
		Notify: NotifyConfig{Timeout: 10 * time.Second},
		MQTT:   MQTTConfig{ClientID: "mailbox-sensor"},
		HTTP:   HTTPConfig{Addr: ":80"},
		Log:    LogConfig{Level: logging.LevelInfo, Format: logging.FormatText},
	}
}

// SetDefaults registers default values with v. Every key must have a
// default so that environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("poll", d.Poll)
	v.SetDefault("warn_after", d.WarnAfter)
	v.SetDefault("reset_pause", d.ResetPause)
	v.SetDefault("heartbeat", d.Heartbeat)

	v.SetDefault("pins.drop", d.Pins.Drop)
	v.SetDefault("pins.retrieval", d.Pins.Retrieval)
	v.SetDefault("pins.reset", d.Pins.Reset)
	v.SetDefault("pins.mail_led", d.Pins.MailLED)
	v.SetDefault("pins.retrieval_led", d.Pins.RetrievalLED)
	v.SetDefault("pins.lcd_rs", d.Pins.LCDRS)
	v.SetDefault("pins.lcd_e", d.Pins.LCDE)
	v.SetDefault("pins.lcd_d4", d.Pins.LCDD4)
	v.SetDefault("pins.lcd_d5", d.Pins.LCDD5)
	v.SetDefault("pins.lcd_d6", d.Pins.LCDD6)
	v.SetDefault("pins.lcd_d7", d.Pins.LCDD7)

	v.SetDefault("gpio.chip", d.GPIO.Chip)
	v.SetDefault("sensor.debounce", d.Sensor.Debounce)
	v.SetDefault("display.enabled", d.Display.Enabled)

	v.SetDefault("ntp.server", d.NTP.Server)
	v.SetDefault("ntp.utc_offset", d.NTP.UTCOffset)
	v.SetDefault("ntp.refresh", d.NTP.Refresh)

	v.SetDefault("telegram.enabled", d.Telegram.Enabled)
	v.SetDefault("telegram.token", d.Telegram.Token)
	v.SetDefault("telegram.chat_id", d.Telegram.ChatID)
	v.SetDefault("telegram.endpoint", d.Telegram.Endpoint)

	v.SetDefault("smtp.enabled", d.SMTP.Enabled)
	v.SetDefault("smtp.addr", d.SMTP.Addr)
	v.SetDefault("smtp.username", d.SMTP.Username)
	v.SetDefault("smtp.password", d.SMTP.Password)
	v.SetDefault("smtp.from", d.SMTP.From)
	v.SetDefault("smtp.to", []string{})

	v.SetDefault("notify.timeout", d.Notify.Timeout)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// SearchPaths returns the directories searched for the config file.
func SearchPaths() []string {
	paths := []string{filepath.Join("/etc", ConfigName)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigName))
	}
	return append(paths, ".")
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are not overwritten. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration. file names an explicit config file; when
// empty the search paths are tried and a missing file leaves the defaults.
// Environment variables override both.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UsedFile returns the config file viper read, or "" when none was found.
func UsedFile(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
