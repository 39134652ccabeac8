// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "marketbrief/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like TELEGRAM_BOT_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile tries the usual locations so the binary and the tests can both
// pick up a project-level .env.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig falls back to well-known environment variables for
// secrets that are still empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.Search.TavilyAPIKey == "" {
		cfg.Search.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}
	if cfg.Search.SerperAPIKey == "" {
		cfg.Search.SerperAPIKey = os.Getenv("SERPER_API_KEY")
	}
	if cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.Telegram.ChatID == "" {
		cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketbrief"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if len(cfg.Topics) == 0 {
		cfg.Topics = []string{
			"US stock market news today latest",
			"NASDAQ today news",
			"Dow Jones updates",
			"S&P 500 market news",
		}
	}

	if cfg.Search.TavilyBaseURL == "" {
		cfg.Search.TavilyBaseURL = "https://api.tavily.com"
	}
	if cfg.Search.SerperBaseURL == "" {
		cfg.Search.SerperBaseURL = "https://google.serper.dev"
	}
	if cfg.Search.PerBackend == 0 {
		cfg.Search.PerBackend = 5
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 20
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 30000
	}
	if cfg.Search.TopicDelay == 0 {
		cfg.Search.TopicDelay = 1000
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.SummaryModel == "" {
		cfg.LLM.SummaryModel = "llama3-70b-8192"
	}
	if cfg.LLM.TranslationModel == "" {
		cfg.LLM.TranslationModel = "llama3-8b-8192"
	}
	if cfg.LLM.SummaryMaxTokens == 0 {
		cfg.LLM.SummaryMaxTokens = 2000
	}
	if cfg.LLM.TranslationMaxTokens == 0 {
		cfg.LLM.TranslationMaxTokens = 1500
	}
	if cfg.LLM.SummaryTemperature == 0 {
		cfg.LLM.SummaryTemperature = 0.3
	}
	if cfg.LLM.TranslationTemp == 0 {
		cfg.LLM.TranslationTemp = 0.2
	}
	if cfg.LLM.SummaryTimeout == 0 {
		cfg.LLM.SummaryTimeout = 60000
	}
	if cfg.LLM.TranslationTimeout == 0 {
		cfg.LLM.TranslationTimeout = 90000
	}
	if cfg.LLM.MinInterval == 0 {
		cfg.LLM.MinInterval = 15000
	}

	if cfg.Charts.ImageSearchURL == "" {
		cfg.Charts.ImageSearchURL = "https://google.serper.dev/images"
	}
	if cfg.Charts.MaxCharts == 0 {
		cfg.Charts.MaxCharts = 2
	}
	if cfg.Charts.RequestDelay == 0 {
		cfg.Charts.RequestDelay = 1000
	}
	if cfg.Charts.Timeout == 0 {
		cfg.Charts.Timeout = 15000
	}

	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 30000
	}
	if cfg.Telegram.MessageDelay == 0 {
		cfg.Telegram.MessageDelay = 3000
	}
	if cfg.Telegram.MaxLength == 0 {
		cfg.Telegram.MaxLength = 4000
	}
	if cfg.Telegram.TruncateAt == 0 {
		cfg.Telegram.TruncateAt = 3900
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}
}

// Validate checks the secrets the pipeline cannot run without. Missing
// values block construction; they are never degraded around.
func Validate(cfg *Config) error {
	required := map[string]string{
		"llm.api_key (GROQ_API_KEY)":            cfg.LLM.APIKey,
		"search.tavily_api_key (TAVILY_API_KEY)": cfg.Search.TavilyAPIKey,
		"search.serper_api_key (SERPER_API_KEY)": cfg.Search.SerperAPIKey,
		"telegram.bot_token (TELEGRAM_BOT_TOKEN)": cfg.Telegram.BotToken,
		"telegram.chat_id (TELEGRAM_CHAT_ID)":     cfg.Telegram.ChatID,
	}

	var missing []string
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.NewValidationError(
			apperrors.ErrCodeConfigInvalid,
			"missing required configuration",
			strings.Join(missing, ", "),
		)
	}

	return nil
}
