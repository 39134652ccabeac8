// internal/stages/fetch-news/handler.go
package fetchnews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"marketbrief/internal/models"
)

const (
	StageName = "fetch-news"

	backendTavily = "tavily"
	backendSerper = "serper"

	// gate channel for the delay between topic iterations
	searchChannel = "search"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Gate spaces outbound calls between topic iterations.
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

// Execute queries every backend for every topic and merges the results in
// query-then-backend order. A failed (topic, backend) pair degrades to zero
// results; it never aborts the other pairs. The merged list is capped to
// MaxResults after concatenation, not per source.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var merged []models.SearchResult
	calls, failures := 0, 0

	for i, topic := range input.Topics {
		if i > 0 && h.gate != nil {
			if err := h.gate.Wait(ctx, searchChannel); err != nil {
				return nil, err
			}
		}

		for _, backend := range []string{backendTavily, backendSerper} {
			calls++
			results, err := h.searchBackend(ctx, backend, topic)
			if err != nil {
				failures++
				h.logger.Warn("search backend failed, continuing with zero results", map[string]interface{}{
					"backend": backend,
					"topic":   topic,
					"error":   err.Error(),
				})
				continue
			}
			merged = append(merged, results...)
		}
	}

	if h.config.Dedupe {
		merged = dedupeByURL(merged)
	}

	if len(merged) > h.config.MaxResults {
		merged = merged[:h.config.MaxResults]
	}

	h.logger.Info("news search completed", map[string]interface{}{
		"topics":      len(input.Topics),
		"resultCount": len(merged),
		"failedCalls": failures,
	})

	output := &Output{Results: merged}
	if calls > 0 && failures == calls {
		output.Degraded = true
		output.Reason = "all search backends failed"
	}
	return output, nil
}

func (h *Handler) searchBackend(ctx context.Context, backend, topic string) ([]models.SearchResult, error) {
	switch backend {
	case backendTavily:
		return h.searchTavily(ctx, topic)
	case backendSerper:
		return h.searchSerper(ctx, topic)
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func (h *Handler) searchTavily(ctx context.Context, topic string) ([]models.SearchResult, error) {
	payload := map[string]interface{}{
		"api_key":      h.config.TavilyAPIKey,
		"query":        topic,
		"max_results":  h.config.PerBackend,
		"search_depth": "advanced",
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.TavilyBaseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily returned %d", resp.StatusCode)
	}

	var apiResponse struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(apiResponse.Results))
	for _, item := range apiResponse.Results {
		results = append(results, models.SearchResult{
			Backend: backendTavily,
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Content,
		})
	}
	return results, nil
}

func (h *Handler) searchSerper(ctx context.Context, topic string) ([]models.SearchResult, error) {
	payload := map[string]interface{}{
		"q":   topic,
		"num": h.config.PerBackend,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.SerperBaseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", h.config.SerperAPIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned %d", resp.StatusCode)
	}

	var apiResponse struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(apiResponse.Organic))
	for _, item := range apiResponse.Organic {
		results = append(results, models.SearchResult{
			Backend: backendSerper,
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}

func dedupeByURL(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if r.URL != "" && seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}
