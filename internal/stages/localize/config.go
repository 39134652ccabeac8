// internal/stages/localize/config.go
package localize

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
		Model:       cfg.LLM.TranslationModel,
		MaxTokens:   cfg.LLM.TranslationMaxTokens,
		Temperature: cfg.LLM.TranslationTemp,
		Timeout:     cfg.LLM.TranslationTimeoutDuration(),
	}
}
