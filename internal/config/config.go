package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	appErrors "notifier/internal/pkg/errors"
)

// Settings store drivers.
const (
	DriverSQLite = "sqlite"
	DriverYAML   = "yaml"
)

// Notification sinks.
const (
	SinkLog      = "log"
	SinkLine     = "line"
	SinkTelegram = "telegram"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port int

	SettingsDriver string
	DBURL          string
	SettingsFile   string

	Sink              string
	ChannelSecret     string
	ChannelToken      string
	LineTargetUserID  string
	TelegramToken     string
	TelegramChatID    int64
	RatePerMinute     int
	MessageText       string
	NotifyTimeout     time.Duration
	ExitOnDisable     bool
	RestartMinBackoff time.Duration
	RestartMaxBackoff time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		SettingsDriver:   strings.ToLower(getEnv("SETTINGS_DRIVER", DriverSQLite)),
		DBURL:            getEnv("BLUEPRINT_DB_URL", "notifier.db"),
		SettingsFile:     getEnv("SETTINGS_FILE", "settings.yaml"),
		Sink:             strings.ToLower(getEnv("NOTIFY_SINK", SinkLog)),
		ChannelSecret:    os.Getenv("CHANNEL_SECRET"),
		ChannelToken:     os.Getenv("CHANNEL_ACCESS_TOKEN"),
		LineTargetUserID: os.Getenv("LINE_TARGET_USER_ID"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		MessageText:      getEnv("NOTIFY_MESSAGE", "Hello World"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RatePerMinute, err = getInt("NOTIFY_RATE_PER_MINUTE", 0); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RestartMinBackoff, err = getDuration("RESTART_MIN_BACKOFF", time.Second); err != nil {
		return nil, err
	}
	if cfg.RestartMaxBackoff, err = getDuration("RESTART_MAX_BACKOFF", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExitOnDisable, err = getBool("EXIT_ON_DISABLE", false); err != nil {
		return nil, err
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, invalid("TELEGRAM_CHAT_ID", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parsed but make no sense together.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", appErrors.ErrInvalidConfig, c.Port)
	}
	switch c.SettingsDriver {
	case DriverSQLite, DriverYAML:
	default:
		return fmt.Errorf("%w: unknown SETTINGS_DRIVER %q", appErrors.ErrInvalidConfig, c.SettingsDriver)
	}
	switch c.Sink {
	case SinkLog:
	case SinkLine:
		if c.ChannelSecret == "" || c.ChannelToken == "" || c.LineTargetUserID == "" {
			return fmt.Errorf("%w: the line sink needs CHANNEL_SECRET, CHANNEL_ACCESS_TOKEN and LINE_TARGET_USER_ID", appErrors.ErrInvalidConfig)
		}
	case SinkTelegram:
		if c.TelegramToken == "" || c.TelegramChatID == 0 {
			return fmt.Errorf("%w: the telegram sink needs TELEGRAM_TOKEN and TELEGRAM_CHAT_ID", appErrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown NOTIFY_SINK %q", appErrors.ErrInvalidConfig, c.Sink)
	}
	if c.RatePerMinute < 0 {
		return fmt.Errorf("%w: NOTIFY_RATE_PER_MINUTE must not be negative", appErrors.ErrInvalidConfig)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("%w: NOTIFY_TIMEOUT must be positive", appErrors.ErrInvalidConfig)
	}
	if c.RestartMinBackoff <= 0 || c.RestartMaxBackoff < c.RestartMinBackoff {
		return fmt.Errorf("%w: need 0 < RESTART_MIN_BACKOFF <= RESTART_MAX_BACKOFF", appErrors.ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(key, v, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, invalid(key, v, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, invalid(key, v, err)
	}
	return b, nil
}

func invalid(key, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", appErrors.ErrInvalidConfig, key, value, err)
}
