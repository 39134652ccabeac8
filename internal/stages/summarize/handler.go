// internal/stages/summarize/handler.go
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	StageName = "summarize"

	llmChannel = "llm"
)

const systemPrompt = "You are a professional financial expert."

// structurePrompt fixes the section layout and word budgets of the daily
// summary. The merged search results are appended as context.
const structurePrompt = `Create a professional financial summary under 450 words with this structure:

MARKET OVERVIEW (100 words)
- Major indices performance (S&P 500, Dow, NASDAQ) with percentage changes
- Overall market sentiment and volume

KEY HEADLINES (200 words)
- 3-4 most important financial stories from today
- Brief explanation of market impact for each

NOTABLE MOVERS (100 words)
- Top 3 stock gainers with percentages and reasons
- Top 3 stock losers with percentages and reasons

TOMORROW'S WATCH (50 words)
- Upcoming earnings announcements
- Economic data releases
- Key events traders should monitor

Use clear, professional language. Include specific numbers and percentages.
Focus on actionable information for traders and investors.`

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

// Execute asks the LLM for the structured summary. Transport failures,
// non-success statuses, and malformed responses all degrade to a summary
// string describing the error; they never escape as errors. The pipeline
// always has something to hand to the next stage.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if h.gate != nil {
		if err := h.gate.Wait(ctx, llmChannel); err != nil {
			return nil, err
		}
	}

	contextJSON, err := json.MarshalIndent(map[string]interface{}{"results": input.Results}, "", "  ")
	if err != nil {
		return degraded(fmt.Sprintf("summary unavailable: encode context: %v", err)), nil
	}

	userPrompt := fmt.Sprintf("%s\n\nContext:\n%s", structurePrompt, contextJSON)

	requestBody := map[string]interface{}{
		"model": h.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"max_tokens":  h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return degraded(fmt.Sprintf("summary unavailable: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.config.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("LLM call failed, degrading summary", map[string]interface{}{
			"error": err.Error(),
		})
		return degraded(fmt.Sprintf("summary unavailable: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("LLM returned non-success status, degrading summary", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return degraded(fmt.Sprintf("LLM API error: %d", resp.StatusCode)), nil
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		h.logger.Warn("LLM response malformed, degrading summary", map[string]interface{}{
			"error": err.Error(),
		})
		return degraded(fmt.Sprintf("summary unavailable: malformed LLM response: %v", err)), nil
	}

	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return degraded("summary unavailable: empty LLM response"), nil
	}

	h.logger.Info("summary generated", map[string]interface{}{
		"sourceResults": len(input.Results),
	})

	return &Output{Summary: apiResponse.Choices[0].Message.Content}, nil
}

func degraded(reason string) *Output {
	return &Output{
		Summary:  reason,
		Degraded: true,
		Reason:   reason,
	}
}
