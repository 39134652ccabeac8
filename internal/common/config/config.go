// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Topics   []string       `mapstructure:"topics"`
	Search   SearchConfig   `mapstructure:"search"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Charts   ChartsConfig   `mapstructure:"charts"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SearchConfig holds settings for the news search backends.
type SearchConfig struct {
	TavilyBaseURL string `mapstructure:"tavily_base_url"`
	TavilyAPIKey  string `mapstructure:"tavily_api_key"`
	SerperBaseURL string `mapstructure:"serper_base_url"`
	SerperAPIKey  string `mapstructure:"serper_api_key"`
	PerBackend    int    `mapstructure:"per_backend"`    // results requested per backend call
	MaxResults    int    `mapstructure:"max_results"`    // cap after merging all backends
	Timeout       int    `mapstructure:"timeout"`        // milliseconds
	TopicDelay    int    `mapstructure:"topic_delay"`    // milliseconds between topic iterations
	Dedupe        bool   `mapstructure:"dedupe"`         // drop repeated URLs across backends
}

// LLMConfig holds settings for the chat-completions collaborator.
type LLMConfig struct {
	BaseURL              string  `mapstructure:"base_url"`
	APIKey               string  `mapstructure:"api_key"`
	SummaryModel         string  `mapstructure:"summary_model"`
	TranslationModel     string  `mapstructure:"translation_model"`
	SummaryMaxTokens     int     `mapstructure:"summary_max_tokens"`
	TranslationMaxTokens int     `mapstructure:"translation_max_tokens"`
	SummaryTemperature   float64 `mapstructure:"summary_temperature"`
	TranslationTemp      float64 `mapstructure:"translation_temperature"`
	SummaryTimeout       int     `mapstructure:"summary_timeout"`     // milliseconds
	TranslationTimeout   int     `mapstructure:"translation_timeout"` // milliseconds
	MinInterval          int     `mapstructure:"min_interval"`        // milliseconds between LLM calls
}

// ChartsConfig holds settings for contextual chart lookup.
type ChartsConfig struct {
	ImageSearchURL string `mapstructure:"image_search_url"`
	MaxCharts      int    `mapstructure:"max_charts"`
	RequestDelay   int    `mapstructure:"request_delay"` // milliseconds between image queries
	Timeout        int    `mapstructure:"timeout"`       // milliseconds
}

// TelegramConfig holds settings for the chat-delivery collaborator.
type TelegramConfig struct {
	APIBaseURL   string `mapstructure:"api_base_url"`
	BotToken     string `mapstructure:"bot_token"`
	ChatID       string `mapstructure:"chat_id"`
	Timeout      int    `mapstructure:"timeout"`       // milliseconds
	MessageDelay int    `mapstructure:"message_delay"` // milliseconds between sends
	MaxLength    int    `mapstructure:"max_length"`
	TruncateAt   int    `mapstructure:"truncate_at"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the /metrics listener kept up during a run.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Duration helpers: config stores milliseconds, callers want time.Duration.

func (s SearchConfig) TimeoutDuration() time.Duration    { return time.Duration(s.Timeout) * time.Millisecond }
func (s SearchConfig) TopicDelayDuration() time.Duration { return time.Duration(s.TopicDelay) * time.Millisecond }

func (l LLMConfig) SummaryTimeoutDuration() time.Duration {
	return time.Duration(l.SummaryTimeout) * time.Millisecond
}

func (l LLMConfig) TranslationTimeoutDuration() time.Duration {
	return time.Duration(l.TranslationTimeout) * time.Millisecond
}

func (l LLMConfig) MinIntervalDuration() time.Duration {
	return time.Duration(l.MinInterval) * time.Millisecond
}

func (c ChartsConfig) TimeoutDuration() time.Duration      { return time.Duration(c.Timeout) * time.Millisecond }
func (c ChartsConfig) RequestDelayDuration() time.Duration { return time.Duration(c.RequestDelay) * time.Millisecond }

func (t TelegramConfig) TimeoutDuration() time.Duration      { return time.Duration(t.Timeout) * time.Millisecond }
func (t TelegramConfig) MessageDelayDuration() time.Duration { return time.Duration(t.MessageDelay) * time.Millisecond }
