// internal/stages/summarize/handler_test.go
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbrief/internal/models"
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
	waits []string
}

func (g *spyGate) Wait(ctx context.Context, channel string) error {
	g.waits = append(g.waits, channel)
	return nil
}

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		APIKey:      "llm-key",
		Model:       "llama3-70b-8192",
		MaxTokens:   2000,
		Temperature: 0.3,
		Timeout:     5 * time.Second,
	}
}

func chatResponse(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(data)
}

func TestHandler_Execute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer llm-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "llama3-70b-8192", reqBody["model"])
		assert.Equal(t, float64(2000), reqBody["max_tokens"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		user := messages[1].(map[string]interface{})
		assert.Contains(t, user["content"], "MARKET OVERVIEW")
		assert.Contains(t, user["content"], "sp500.example.com", "search results must ride along as context")

		fmt.Fprint(w, chatResponse("MARKET OVERVIEW\nS&P 500 rose 1.2%..."))
	}))
	defer server.Close()

	gate := &spyGate{}
	handler := NewHandler(createTestConfig(server.URL), gate, NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Results: []models.SearchResult{
			{Backend: "tavily", Title: "S&P update", URL: "https://sp500.example.com", Snippet: "up"},
		},
	})

	require.NoError(t, err)
	assert.False(t, output.Degraded)
	assert.Contains(t, output.Summary, "S&P 500 rose")
	assert.Equal(t, []string{"llm"}, gate.waits)
}

func TestHandler_Execute_APIErrorDegrades(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"Too Many Requests", http.StatusTooManyRequests},
		{"Internal Server Error", http.StatusInternalServerError},
		{"Bad Gateway", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			handler := NewHandler(createTestConfig(server.URL), &spyGate{}, NewTestLogger(t))

			output, err := handler.Execute(context.Background(), &Input{})

			require.NoError(t, err, "API failures must degrade, not escape")
			assert.True(t, output.Degraded)
			assert.Equal(t, fmt.Sprintf("LLM API error: %d", tt.statusCode), output.Summary)
		})
	}
}

func TestHandler_Execute_MalformedResponseDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer server.Close()

	handler := NewHandler(createTestConfig(server.URL), &spyGate{}, NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err, "a non-JSON LLM response must not crash the stage")
	assert.True(t, output.Degraded)
	assert.Contains(t, output.Summary, "malformed LLM response")
	assert.NotEmpty(t, output.Summary)
}

func TestHandler_Execute_TransportFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	handler := NewHandler(createTestConfig(server.URL), &spyGate{}, NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Degraded)
	assert.Contains(t, output.Summary, "summary unavailable")
}

func TestHandler_Execute_EmptyChoicesDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	handler := NewHandler(createTestConfig(server.URL), &spyGate{}, NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Degraded)
	assert.NotEmpty(t, output.Summary)
}
