// internal/stages/present/config.go
package present

import (
	"time"

	"marketbrief/internal/common/config"
)

type Config struct {
	ImageSearchURL string
	SerperAPIKey   string
	MaxCharts      int
	Timeout        time.Duration
}

func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		ImageSearchURL: cfg.Charts.ImageSearchURL,
		SerperAPIKey:   cfg.Search.SerperAPIKey,
		MaxCharts:      cfg.Charts.MaxCharts,
		Timeout:        cfg.Charts.TimeoutDuration(),
	}
}
