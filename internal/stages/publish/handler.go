// internal/stages/publish/handler.go
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketbrief/internal/common/metrics"
	"marketbrief/internal/models"
)

const (
	StageName = "publish"

	telegramChannel = "telegram"

	truncationMarker = "\n\n<i>[Message truncated]</i>"
)

// entityNormalizer undoes double-escaped entities that upstream LLM output
// sometimes carries. The destination parses HTML itself.
var entityNormalizer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
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
	now    func() time.Time
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
		now: time.Now,
	}
}

// Execute delivers one rendering to the chat channel. Empty content is
// rejected before any network activity; transport and API failures come
// back as unsuccessful DeliveryResults. Execute itself only errors when
// the context is cancelled at the gate.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	language := input.Rendering.Language

	if strings.TrimSpace(input.Rendering.Text) == "" {
		h.logger.Warn("refusing to send empty message", map[string]interface{}{
			"language": string(language),
		})
		metrics.MessagesDelivered.WithLabelValues(string(language), "rejected").Inc()
		return &Output{Result: models.DeliveryResult{
			Language: language,
			Success:  false,
			Message:  fmt.Sprintf("%s rejected: empty message", language),
		}}, nil
	}

	text := h.envelope(input.Rendering)
	if len([]rune(text)) > h.config.MaxLength {
		text = string([]rune(text)[:h.config.TruncateAt]) + truncationMarker
	}
	text = entityNormalizer.Replace(text)

	if h.gate != nil {
		if err := h.gate.Wait(ctx, telegramChannel); err != nil {
			return nil, err
		}
	}

	result := h.send(ctx, language, text)
	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	metrics.MessagesDelivered.WithLabelValues(string(language), outcome).Inc()

	return &Output{Result: result}, nil
}

func (h *Handler) envelope(rendering models.Rendering) string {
	return fmt.Sprintf("<b>%s Financial Summary</b>\n%s\n<i>Automated Market Analysis</i>\n\n%s\n\n<i>•Financial Update</i>",
		rendering.Language,
		h.now().Format("2006-01-02 15:04 MST"),
		rendering.Text,
	)
}

func (h *Handler) send(ctx context.Context, language models.Language, text string) models.DeliveryResult {
	payload := map[string]interface{}{
		"chat_id":                  h.config.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/bot%s/sendMessage", h.config.APIBaseURL, h.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return h.failed(language, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return h.failed(language, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiError struct {
			Description string `json:"description"`
		}
		description := "Unknown error"
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiError); decodeErr == nil && apiError.Description != "" {
			description = apiError.Description
		}
		return h.failed(language, fmt.Sprintf("Telegram error: %s", description))
	}

	h.logger.Info("message delivered", map[string]interface{}{
		"language": string(language),
		"length":   len(text),
	})
	return models.DeliveryResult{
		Language: language,
		Success:  true,
		Message:  fmt.Sprintf("%s delivered successfully", language),
	}
}

func (h *Handler) failed(language models.Language, reason string) models.DeliveryResult {
	h.logger.Error("delivery failed", map[string]interface{}{
		"language": string(language),
		"reason":   reason,
	})
	return models.DeliveryResult{
		Language: language,
		Success:  false,
		Message:  fmt.Sprintf("%s failed: %s", language, reason),
	}
}
