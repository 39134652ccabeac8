// internal/stages/present/handler_test.go
package present

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger { return &TestLogger{t: t} }

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

type spyGate struct {
	mu    sync.Mutex
	waits []string
}

func (g *spyGate) Wait(ctx context.Context, channel string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waits = append(g.waits, channel)
	return nil
}

func createTestConfig(imageSearchURL string) *Config {
	return &Config{
		ImageSearchURL: imageSearchURL,
		SerperAPIKey:   "serper-key",
		MaxCharts:      2,
		Timeout:        5 * time.Second,
	}
}

func imageResponse(url, title string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"images": []map[string]string{
			{"imageUrl": url, "title": title},
		},
	})
	return string(data)
}

func createTestHandler(t *testing.T, cfg *Config, gate Gate) *Handler {
	handler, err := NewHandler(cfg, gate, NewTestLogger(t))
	require.NoError(t, err)
	handler.now = func() time.Time {
		return time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)
	}
	return handler
}

func TestHandler_Execute_ChartsCappedAtTwo(t *testing.T) {
	var queries []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, float64(1), reqBody["num"])

		mu.Lock()
		queries = append(queries, reqBody["q"].(string))
		mu.Unlock()

		fmt.Fprint(w, imageResponse("https://img.example.com/chart.png", "chart"))
	}))
	defer server.Close()

	gate := &spyGate{}
	handler := createTestHandler(t, createTestConfig(server.URL), gate)

	// summary mentions four instruments but only the first two rules fire
	output, err := handler.Execute(context.Background(), &Input{
		Summary: "S&P gained while NASDAQ and the Dow slipped; Tesla fell 4%.",
	})

	require.NoError(t, err)
	assert.False(t, output.Degraded)
	assert.Len(t, output.Charts, 2)
	assert.Equal(t, []string{"S&P 500 chart today", "NASDAQ chart today"}, queries)
	assert.Equal(t, []string{"images", "images"}, gate.waits)
}

func TestHandler_Execute_DefaultQueryWhenNothingMatches(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		queries = append(queries, reqBody["q"].(string))

		fmt.Fprint(w, imageResponse("https://img.example.com/market.png", "US market"))
	}))
	defer server.Close()

	handler := createTestHandler(t, createTestConfig(server.URL), &spyGate{})

	output, err := handler.Execute(context.Background(), &Input{
		Summary: "Treasury yields drifted lower in quiet trade.",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"US stock market chart today"}, queries)
	require.Len(t, output.Charts, 1)
	assert.Equal(t, "https://img.example.com/market.png", output.Charts[0].URL)
}

func TestHandler_Execute_SkipsQueriesWithNoImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"images":[]}`)
	}))
	defer server.Close()

	handler := createTestHandler(t, createTestConfig(server.URL), &spyGate{})

	output, err := handler.Execute(context.Background(), &Input{
		Summary: "Tesla dropped after deliveries missed estimates.",
	})

	require.NoError(t, err)
	assert.False(t, output.Degraded, "an empty result set is not a failure")
	assert.Empty(t, output.Charts)
	assert.NotContains(t, output.Formatted, "Related Charts")
}

func TestHandler_Execute_LookupFailureDegradesButStillFormats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	handler := createTestHandler(t, createTestConfig(server.URL), &spyGate{})

	output, err := handler.Execute(context.Background(), &Input{
		Summary: "Apple led megacaps higher.",
	})

	require.NoError(t, err, "chart failures must not fail the stage")
	assert.True(t, output.Degraded)
	assert.Empty(t, output.Charts)
	assert.Contains(t, output.Formatted, "Apple led megacaps higher.")
}

func TestHandler_Execute_FormatsHeaderTimestampAndCharts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, imageResponse("https://img.example.com/nvda.png", "NVIDIA daily"))
	}))
	defer server.Close()

	handler := createTestHandler(t, createTestConfig(server.URL), &spyGate{})

	output, err := handler.Execute(context.Background(), &Input{
		Summary: "NVIDIA rallied on data-center demand.",
	})

	require.NoError(t, err)
	assert.Contains(t, output.Formatted, "<b>Daily US Financial Summary</b>")
	assert.Contains(t, output.Formatted, "<i>2025-03-14 16:30 UTC</i>")
	assert.Contains(t, output.Formatted, "<b>Related Charts:</b>")
	assert.Contains(t, output.Formatted, `1. <a href="https://img.example.com/nvda.png">NVIDIA daily</a>`)
}

func TestParseRules_RejectsInvalidPolicy(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"empty array", `[]`},
		{"missing query", `[{"keywords":["S&P"]}]`},
		{"empty keywords", `[{"keywords":[],"query":"x"}]`},
		{"unknown field", `[{"keywords":["S&P"],"query":"x","weight":2}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_EmbeddedPolicyIsValid(t *testing.T) {
	rules, err := LoadRules()
	require.NoError(t, err)
	assert.NotEmpty(t, rules)
}
