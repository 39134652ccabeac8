// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbrief/internal/models"
	fetchnews "marketbrief/internal/stages/fetch-news"
	"marketbrief/internal/stages/localize"
	"marketbrief/internal/stages/present"
	"marketbrief/internal/stages/publish"
	"marketbrief/internal/stages/summarize"
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

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

type stubFetcher struct {
	output *fetchnews.Output
	err    error
}

func (s *stubFetcher) Execute(ctx context.Context, input *fetchnews.Input) (*fetchnews.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type stubSummarizer struct {
	output *summarize.Output
	err    error
}

func (s *stubSummarizer) Execute(ctx context.Context, input *summarize.Input) (*summarize.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type stubPresenter struct {
	output *present.Output
	err    error
}

func (s *stubPresenter) Execute(ctx context.Context, input *present.Input) (*present.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type stubLocalizer struct {
	fallback bool
	err      error
}

func (s *stubLocalizer) Execute(ctx context.Context, input *localize.Input) (*localize.Output, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &localize.Output{Rendering: models.Rendering{
		Language: input.Language,
		Text:     fmt.Sprintf("[%s] %s", input.Language, input.Content),
		Fallback: s.fallback,
	}}, nil
}

type stubPublisher struct {
	failAll   bool
	published []models.Rendering
}

func (s *stubPublisher) Execute(ctx context.Context, input *publish.Input) (*publish.Output, error) {
	s.published = append(s.published, input.Rendering)
	return &publish.Output{Result: models.DeliveryResult{
		Language: input.Rendering.Language,
		Success:  !s.failAll,
		Message:  string(input.Rendering.Language),
	}}, nil
}

func healthyStages() (*stubFetcher, *stubSummarizer, *stubPresenter, *stubLocalizer, *stubPublisher) {
	return &stubFetcher{output: &fetchnews.Output{Results: []models.SearchResult{
			{Backend: "tavily", Title: "S&P update", URL: "https://example.com", Snippet: "up"},
		}}},
		&stubSummarizer{output: &summarize.Output{Summary: "MARKET OVERVIEW..."}},
		&stubPresenter{output: &present.Output{Formatted: "<b>Daily US Financial Summary</b>\n\nMARKET OVERVIEW..."}},
		&stubLocalizer{},
		&stubPublisher{}
}

func newTestPipeline(t *testing.T, f Fetcher, s Summarizer, pr Presenter, l Localizer, pub Publisher) *Pipeline {
	return New([]string{"US stock market today"}, f, s, pr, l, pub, nil, NewTestLogger(t))
}

func TestPipeline_Run_HappyPath(t *testing.T) {
	fetcher, summarizer, presenter, localizer, publisher := healthyStages()
	p := newTestPipeline(t, fetcher, summarizer, presenter, localizer, publisher)

	result := p.Run(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, StateDone, result.State)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Deliveries, 4)
	assert.Equal(t, 4, result.Delivered())

	// English first, then the translation targets in order
	languages := make([]models.Language, 0, 4)
	for _, r := range publisher.published {
		languages = append(languages, r.Language)
	}
	assert.Equal(t, []models.Language{
		models.LanguageEnglish,
		models.LanguageArabic,
		models.LanguageHindi,
		models.LanguageHebrew,
	}, languages)

	// English rendering is the presenter output untouched
	assert.Equal(t, presenter.output.Formatted, publisher.published[0].Text)
}

func TestPipeline_Run_AllStagesDegradedStillDelivers(t *testing.T) {
	fetcher := &stubFetcher{output: &fetchnews.Output{Degraded: true, Reason: "all backends down"}}
	summarizer := &stubSummarizer{output: &summarize.Output{
		Summary: "summary unavailable: LLM API error: 429", Degraded: true, Reason: "rate limited",
	}}
	presenter := &stubPresenter{output: &present.Output{
		Formatted: "<b>Daily US Financial Summary</b>\n\nsummary unavailable", Degraded: true, Reason: "chart lookup failed",
	}}
	localizer := &stubLocalizer{fallback: true}
	publisher := &stubPublisher{}

	p := newTestPipeline(t, fetcher, summarizer, presenter, localizer, publisher)
	result := p.Run(context.Background())

	assert.True(t, result.Success, "a fully degraded run still completes")
	assert.Equal(t, StateDone, result.State)
	assert.Len(t, result.Deliveries, 4, "every language slot gets a send attempt")

	for _, stage := range result.Stages {
		if strings.HasPrefix(stage.Stage, publish.StageName) {
			continue // sends themselves succeeded
		}
		assert.Equal(t, StatusDegraded, stage.Status, stage.Stage)
	}
}

func TestPipeline_Run_FailedSendDoesNotBlockRemainingLanguages(t *testing.T) {
	fetcher, summarizer, presenter, localizer, _ := healthyStages()
	publisher := &stubPublisher{failAll: true}

	p := newTestPipeline(t, fetcher, summarizer, presenter, localizer, publisher)
	result := p.Run(context.Background())

	assert.True(t, result.Success, "delivery failures are results, not fatal errors")
	assert.Equal(t, StateDone, result.State)
	assert.Len(t, result.Deliveries, 4)
	assert.Equal(t, 0, result.Delivered())
}

func TestPipeline_Run_FatalErrorNotifiesAndFails(t *testing.T) {
	_, summarizer, presenter, localizer, publisher := healthyStages()
	fetcher := &stubFetcher{err: errors.New("context deadline exceeded")}

	p := newTestPipeline(t, fetcher, summarizer, presenter, localizer, publisher)
	result := p.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, StateFailed, result.State)

	require.Len(t, result.Stages, 1)
	assert.Equal(t, StatusFatal, result.Stages[0].Status)

	// best-effort notification went out with the status tag
	require.Len(t, publisher.published, 1)
	assert.Equal(t, notifyLanguage, publisher.published[0].Language)
	assert.Contains(t, publisher.published[0].Text, "Financial Bot Status")
	assert.Contains(t, publisher.published[0].Text, string(StateFetching))
}

func TestPipeline_Run_LocalizerFatalStopsBeforePublishing(t *testing.T) {
	fetcher, summarizer, presenter, _, publisher := healthyStages()
	localizer := &stubLocalizer{err: errors.New("unsupported target language")}

	p := newTestPipeline(t, fetcher, summarizer, presenter, localizer, publisher)
	result := p.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, StateFailed, result.State)

	// only the failure notification was published, no partial report
	require.Len(t, publisher.published, 1)
	assert.Equal(t, notifyLanguage, publisher.published[0].Language)
}

type panickingPresenter struct{}

func (panickingPresenter) Execute(ctx context.Context, input *present.Input) (*present.Output, error) {
	panic("nil rule table")
}

func TestPipeline_Run_PanicBecomesFailedRun(t *testing.T) {
	fetcher, summarizer, _, localizer, publisher := healthyStages()

	p := newTestPipeline(t, fetcher, summarizer, panickingPresenter{}, localizer, publisher)
	result := p.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, StateFailed, result.State)
}
