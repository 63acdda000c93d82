package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Secrets are the required environment half of the configuration. A missing
// secret is fatal at startup; this is the only condition that terminates the
// bot besides a shutdown signal.
type Secrets struct {
	HomeworkToken  string        `env:"HOMEWORK_TOKEN,required"`
	TelegramToken  string        `env:"TELEGRAM_TOKEN,required"`
	TelegramChatID int64         `env:"TELEGRAM_CHAT_ID,required"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"10m"`
}

// LoadSecrets reads and validates the environment.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, fmt.Errorf("environment: %w", err)
	}
	if s.PollInterval <= 0 {
		return Secrets{}, fmt.Errorf("environment: POLL_INTERVAL must be > 0")
	}
	return s, nil
}
