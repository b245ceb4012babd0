package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/numerobot/core/config"
	coredatabase "github.com/m3rciful/numerobot/core/database"
	"github.com/m3rciful/numerobot/core/telegram/state"
)

// TextsConfig points at the text resource.
type TextsConfig struct {
	// Path of a JSON, YAML or TOML resource, relative to the install root.
	// Empty selects the bundled resource.
	Path string `yaml:"path" envconfig:"TEXTS_PATH"`
}

// SessionConfig controls conversation state.
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// NotificationsConfig schedules the number of the day. Time is the local
// HH:MM from which the message is due, Timezone an IANA name (empty means the
// host zone) and Interval how often subscribers are checked.
type NotificationsConfig struct {
	Time     string        `yaml:"time" envconfig:"NOTIFY_TIME"`
	Timezone string        `yaml:"timezone" envconfig:"NOTIFY_TZ"`
	Interval time.Duration `yaml:"interval" envconfig:"NOTIFY_INTERVAL"`
}

// DefaultNotifyTime is used when notifications.time is empty.
const DefaultNotifyTime = "09:00"

// Clock parses Time into hour and minute.
func (n NotificationsConfig) Clock() (hour, minute int, err error) {
	raw := strings.TrimSpace(n.Time)
	if raw == "" {
		raw = DefaultNotifyTime
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("notifications.time %q: want HH:MM", n.Time)
	}
	return t.Hour(), t.Minute(), nil
}

// Location resolves Timezone.
func (n NotificationsConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(n.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(n.Timezone))
	if err != nil {
		return nil, fmt.Errorf("notifications.timezone: %w", err)
	}
	return loc, nil
}

// Config is the bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	// Database is disabled when its host is empty.
	Database      coredatabase.Config `yaml:"database"`
	Texts         TextsConfig         `yaml:"texts"`
	Session       SessionConfig       `yaml:"session"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Locale        string              `yaml:"locale" envconfig:"BOT_LOCALE"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// DatabaseEnabled reports whether a database is configured.
func (c *Config) DatabaseEnabled() bool {
	return strings.TrimSpace(c.Database.Host) != ""
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if cfg.Session.TTL < 0 {
		return nil, fmt.Errorf("session.ttl must be >= 0")
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = state.DefaultTTL
	}
	if strings.TrimSpace(cfg.Notifications.Time) == "" {
		cfg.Notifications.Time = DefaultNotifyTime
	}
	if _, _, err := cfg.Notifications.Clock(); err != nil {
		return nil, err
	}
	if _, err := cfg.Notifications.Location(); err != nil {
		return nil, err
	}
	if cfg.Notifications.Interval < 0 {
		return nil, fmt.Errorf("notifications.interval must be >= 0")
	}
	if cfg.Notifications.Interval == 0 {
		cfg.Notifications.Interval = time.Minute
	}
	cfg.Locale = strings.ToLower(strings.TrimSpace(cfg.Locale))
	if cfg.Locale == "" {
		cfg.Locale = "ru"
	}
	return &cfg, nil
}
