// internal/stages/localize/handler.go
package localize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "marketbrief/internal/common/errors"
	"marketbrief/internal/models"
)

const (
	StageName = "localize"

	llmChannel = "llm"
)

// promptPair holds the per-language instructions. The user prompt gets the
// content appended after a blank line.
type promptPair struct {
	system string
	user   string
}

var prompts = map[models.Language]promptPair{
	models.LanguageArabic: {
		system: "You are an expert Arabic translator. Translate financial content to Arabic while keeping HTML tags and numbers unchanged.",
		user:   "Translate this financial summary to Arabic. Keep all HTML tags (<b>, <i>, <a>) exactly the same. Keep all numbers, percentages, and company names unchanged:",
	},
	models.LanguageHindi: {
		system: "You are an expert Hindi translator. Translate financial content to Hindi using Devanagari script.",
		user:   "Translate this financial summary to Hindi. Keep all HTML tags (<b>, <i>, <a>) exactly the same. Keep all numbers, percentages, and company names unchanged. Use Devanagari script:",
	},
	models.LanguageHebrew: {
		system: "You are an expert Hebrew translator. Translate financial content to Hebrew.",
		user:   "Translate this financial summary to Hebrew. Keep all HTML tags (<b>, <i>, <a>) exactly the same. Keep all numbers, percentages, and company names unchanged:",
	},
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Gate interface {
	Wait(ctx context.Context, channel string) error
}

type Handler struct {
	config *Config
	client *http.Client
	gate   Gate
	logger Logger
}

func NewHandler(config *Config, gate Gate, log Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		gate: gate,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Execute translates the content into the requested language. Any failure
// of the translation collaborator (rate limit, server error, transport,
// malformed body) yields the static per-language fallback document instead
// of an error. An unsupported target language is the one validation failure.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	prompt, ok := prompts[input.Language]
	if !ok {
		return nil, apperrors.NewValidationError(
			apperrors.ErrCodeTranslationError,
			"unsupported target language",
			string(input.Language),
		)
	}

	if h.gate != nil {
		if err := h.gate.Wait(ctx, llmChannel); err != nil {
			return nil, err
		}
	}

	requestBody := map[string]interface{}{
		"model": h.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt.system},
			{"role": "user", "content": fmt.Sprintf("%s\n\n%s", prompt.user, input.Content)},
		},
		"max_tokens":  h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return h.fallback(input.Language, err.Error()), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.config.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return h.fallback(input.Language, err.Error()), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return h.fallback(input.Language, fmt.Sprintf("status %d", resp.StatusCode)), nil
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return h.fallback(input.Language, err.Error()), nil
	}

	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return h.fallback(input.Language, "empty LLM response"), nil
	}

	h.logger.Info("translation completed", map[string]interface{}{
		"language": string(input.Language),
	})

	return &Output{
		Rendering: models.Rendering{
			Language: input.Language,
			Text:     apiResponse.Choices[0].Message.Content,
		},
	}, nil
}

func (h *Handler) fallback(language models.Language, reason string) *Output {
	h.logger.Warn("translation unavailable, using fallback document", map[string]interface{}{
		"language": string(language),
		"reason":   reason,
	})
	return &Output{
		Rendering: models.Rendering{
			Language: language,
			Text:     fallbackDocument(language),
			Fallback: true,
		},
	}
}
