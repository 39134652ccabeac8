// internal/stages/present/handler.go
package present

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketbrief/internal/models"
)

const (
	StageName = "present"

	imagesChannel = "images"
)

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
	rules  []ChartRule
	client *http.Client
	gate   Gate
	logger Logger
	now    func() time.Time
}

func NewHandler(config *Config, gate Gate, log Logger) (*Handler, error) {
	rules, err := LoadRules()
	if err != nil {
		return nil, err
	}

	return &Handler{
		config: config,
		rules:  rules,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		gate: gate,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
		now: time.Now,
	}, nil
}

// Execute picks up to MaxCharts chart links keyed off the summary text and
// wraps the summary in the delivery markup. Chart lookup failures degrade
// to fewer (or zero) charts; the formatted text is produced regardless.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	queries := selectQueries(h.rules, input.Summary)
	if len(queries) > h.config.MaxCharts {
		queries = queries[:h.config.MaxCharts]
	}

	var charts []models.ChartRef
	lookupFailed := false
	for _, query := range queries {
		if h.gate != nil {
			if err := h.gate.Wait(ctx, imagesChannel); err != nil {
				return nil, err
			}
		}

		chart, err := h.findChart(ctx, query)
		if err != nil {
			lookupFailed = true
			h.logger.Warn("chart search failed, skipping query", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
			continue
		}
		if chart == nil {
			// no image for this query; do not pad with placeholders
			continue
		}
		charts = append(charts, *chart)
	}

	if len(charts) > h.config.MaxCharts {
		charts = charts[:h.config.MaxCharts]
	}

	h.logger.Info("summary formatted", map[string]interface{}{
		"queries": len(queries),
		"charts":  len(charts),
	})

	output := &Output{
		Formatted: h.format(input.Summary, charts),
		Charts:    charts,
	}
	if lookupFailed {
		output.Degraded = true
		output.Reason = "chart lookup failed for at least one query"
	}
	return output, nil
}

func (h *Handler) findChart(ctx context.Context, query string) (*models.ChartRef, error) {
	payload := map[string]interface{}{
		"q":   query,
		"num": 1,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.ImageSearchURL, bytes.NewBuffer(body))
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
		return nil, fmt.Errorf("image search returned %d", resp.StatusCode)
	}

	var apiResponse struct {
		Images []struct {
			ImageURL string `json:"imageUrl"`
			Title    string `json:"title"`
		} `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, err
	}

	if len(apiResponse.Images) == 0 {
		return nil, nil
	}

	img := apiResponse.Images[0]
	title := img.Title
	if title == "" {
		title = query
	}
	return &models.ChartRef{URL: img.ImageURL, Title: title}, nil
}

func (h *Handler) format(summary string, charts []models.ChartRef) string {
	formatted := fmt.Sprintf("<b>Daily US Financial Summary</b>\n<i>%s</i>\n\n%s",
		h.now().Format("2006-01-02 15:04 MST"), summary)

	if len(charts) > 0 {
		section := "\n\n<b>Related Charts:</b>\n"
		for i, chart := range charts {
			section += fmt.Sprintf("%d. <a href=\"%s\">%s</a>\n", i+1, chart.URL, chart.Title)
		}
		formatted += section
	}

	return formatted
}
