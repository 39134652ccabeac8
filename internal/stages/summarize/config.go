// internal/stages/summarize/config.go
package summarize

import (
	"time"

	"marketbrief/internal/common/config"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.SummaryModel,
		MaxTokens:   cfg.LLM.SummaryMaxTokens,
		Temperature: cfg.LLM.SummaryTemperature,
		Timeout:     cfg.LLM.SummaryTimeoutDuration(),
	}
}
