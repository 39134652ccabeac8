// cmd/marketbrief/preflight.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"marketbrief/internal/common/config"
	"marketbrief/internal/common/httpclient"
)

// preflightRequired is how many of the four collaborators must answer
// before a run is worth starting. The pipeline degrades around one missing
// collaborator; with two or more down the output is not worth sending.
const preflightRequired = 3

const probeTimeout = 10 * time.Second

type probe struct {
	name string
	fn   func(ctx context.Context, client *httpclient.Client) error
}

// preflight fires one cheap request at each collaborator and reports how
// many answered. Probe failures are logged, never fatal here; the caller
// applies the threshold.
func preflight(ctx context.Context, cfg *config.Config, log *zap.Logger) (passed, total int) {
	client := httpclient.New(probeTimeout)

	probes := []probe{
		{"telegram", func(ctx context.Context, client *httpclient.Client) error {
			url := fmt.Sprintf("%s/bot%s/getMe", cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
			return expectOK(ctx, client, "GET", url, nil, nil)
		}},
		{"llm", func(ctx context.Context, client *httpclient.Client) error {
			body := map[string]interface{}{
				"model":      cfg.LLM.SummaryModel,
				"messages":   []map[string]string{{"role": "user", "content": "ping"}},
				"max_tokens": 1,
			}
			headers := map[string]string{"Authorization": "Bearer " + cfg.LLM.APIKey}
			return expectOK(ctx, client, "POST", cfg.LLM.BaseURL+"/chat/completions", body, headers)
		}},
		{"tavily", func(ctx context.Context, client *httpclient.Client) error {
			body := map[string]interface{}{
				"api_key":     cfg.Search.TavilyAPIKey,
				"query":       "US stock market",
				"max_results": 1,
			}
			return expectOK(ctx, client, "POST", cfg.Search.TavilyBaseURL+"/search", body, nil)
		}},
		{"serper", func(ctx context.Context, client *httpclient.Client) error {
			body := map[string]interface{}{"q": "US stock market", "num": 1}
			headers := map[string]string{"X-API-KEY": cfg.Search.SerperAPIKey}
			return expectOK(ctx, client, "POST", cfg.Search.SerperBaseURL+"/search", body, headers)
		}},
	}

	for _, p := range probes {
		if err := p.fn(ctx, client); err != nil {
			log.Warn("preflight probe failed", zap.String("collaborator", p.name), zap.Error(err))
			continue
		}
		log.Info("preflight probe ok", zap.String("collaborator", p.name))
		passed++
	}
	return passed, len(probes)
}

func expectOK(ctx context.Context, client *httpclient.Client, method, url string, body map[string]interface{}, headers map[string]string) error {
	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewBuffer(data)
	} else {
		payload = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
