// internal/stages/fetch-news/config.go
package fetchnews

import (
	"time"

	"marketbrief/internal/common/config"
)

type Config struct {
	TavilyBaseURL string
	TavilyAPIKey  string
	SerperBaseURL string
	SerperAPIKey  string
	PerBackend    int
	MaxResults    int
	Timeout       time.Duration
	Dedupe        bool
}

func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		TavilyBaseURL: cfg.Search.TavilyBaseURL,
		TavilyAPIKey:  cfg.Search.TavilyAPIKey,
		SerperBaseURL: cfg.Search.SerperBaseURL,
		SerperAPIKey:  cfg.Search.SerperAPIKey,
		PerBackend:    cfg.Search.PerBackend,
		MaxResults:    cfg.Search.MaxResults,
		Timeout:       cfg.Search.TimeoutDuration(),
		Dedupe:        cfg.Search.Dedupe,
	}
}
