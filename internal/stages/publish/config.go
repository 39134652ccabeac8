// internal/stages/publish/config.go
package publish

import (
	"time"

	"marketbrief/internal/common/config"
)

type Config struct {
	APIBaseURL string
	BotToken   string
	ChatID     string
	MaxLength  int
	TruncateAt int
	Timeout    time.Duration
}

func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		APIBaseURL: cfg.Telegram.APIBaseURL,
		BotToken:   cfg.Telegram.BotToken,
		ChatID:     cfg.Telegram.ChatID,
		MaxLength:  cfg.Telegram.MaxLength,
		TruncateAt: cfg.Telegram.TruncateAt,
		Timeout:    cfg.Telegram.TimeoutDuration(),
	}
}
