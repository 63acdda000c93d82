// Package config loads the bot's configuration from two places: required
// secrets from the environment, and operational settings from an optional
// yaml file that can be hot-reloaded.
package config

import (
	"fmt"
	"strings"
	"time"
)

// File is the yaml-file half of the configuration. Everything here has a
// working default; the file is optional.
type File struct {
	// Endpoint overrides the homework API URL (testing against a stub).
	Endpoint string `yaml:"endpoint"`

	// PollInterval overrides the POLL_INTERVAL secret when set.
	// Go duration string (e.g. "30s", "10m").
	PollInterval string `yaml:"poll_interval"`

	// DebugEpoch pins the initial cursor to a fixed unix timestamp instead
	// of "now". Zero disables it.
	DebugEpoch int64 `yaml:"debug_epoch"`

	Logging LoggingConfig `yaml:"logging"`
	Notify  NotifyConfig  `yaml:"notify"`
	Storage StorageConfig `yaml:"storage"`
	Digest  DigestConfig  `yaml:"digest"`
}

type LoggingConfig struct {
	Level    string          `yaml:"level"`
	Console  *bool           `yaml:"console"` // nil means default (on)
	File     LoggingFile     `yaml:"file"`
	Telegram LoggingTelegram `yaml:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `yaml:"enabled"`
	MinLevel   string `yaml:"min_level"`
	RatePerSec int    `yaml:"rate_per_sec"`
}

type NotifyConfig struct {
	RatePerSec int `yaml:"rate_per_sec"`
	ThreadID   int `yaml:"thread_id"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // "none" (default) or "sqlite"
	Path        string `yaml:"path"`
	BusyTimeout string `yaml:"busy_timeout"` // Go duration string
}

type DigestConfig struct {
	Schedule string `yaml:"schedule"` // cron spec; empty disables
	Timezone string `yaml:"timezone"`
}

// ConsoleEnabled resolves the tri-state console flag.
func (l LoggingConfig) ConsoleEnabled() bool {
	if l.Console == nil {
		return true
	}
	return *l.Console
}

// ParseDurationField parses an optional Go duration string, rejecting
// negatives. Empty means zero (use the default).
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
