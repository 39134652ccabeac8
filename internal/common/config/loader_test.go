// internal/common/config/loader_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketbrief/internal/common/errors"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.LLM.APIKey = "groq-key"
	cfg.Search.TavilyAPIKey = "tavily-key"
	cfg.Search.SerperAPIKey = "serper-key"
	cfg.Telegram.BotToken = "bot-token"
	cfg.Telegram.ChatID = "-1001234"
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Len(t, cfg.Topics, 4)
	assert.Equal(t, "https://api.tavily.com", cfg.Search.TavilyBaseURL)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, "llama3-70b-8192", cfg.LLM.SummaryModel)
	assert.Equal(t, "llama3-8b-8192", cfg.LLM.TranslationModel)
	assert.Equal(t, 2, cfg.Charts.MaxCharts)
	assert.Equal(t, 4000, cfg.Telegram.MaxLength)
	assert.Equal(t, 3900, cfg.Telegram.TruncateAt)

	// millisecond fields convert through the duration helpers
	assert.Equal(t, 30*time.Second, cfg.Search.TimeoutDuration())
	assert.Equal(t, 15*time.Second, cfg.LLM.MinIntervalDuration())
	assert.Equal(t, 90*time.Second, cfg.LLM.TranslationTimeoutDuration())
	assert.Equal(t, 3*time.Second, cfg.Telegram.MessageDelayDuration())
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Topics = []string{"crypto market news"}
	cfg.Search.MaxResults = 5
	applyDefaults(cfg)

	assert.Equal(t, []string{"crypto market news"}, cfg.Topics)
	assert.Equal(t, 5, cfg.Search.MaxResults)
}

func TestValidate_AllSecretsPresent(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_MissingSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIKey = ""
	cfg.Telegram.BotToken = "   "

	err := Validate(cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryValidation, apperrors.CategoryOf(err))
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.CodeOf(err))

	var stageErr *apperrors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Contains(t, stageErr.Details, "GROQ_API_KEY")
	assert.Contains(t, stageErr.Details, "TELEGRAM_BOT_TOKEN")
	assert.NotContains(t, stageErr.Details, "TAVILY_API_KEY")
}
