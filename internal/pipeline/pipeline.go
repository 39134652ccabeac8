// internal/pipeline/pipeline.go

// Package pipeline drives one end-to-end run: fetch news, summarize,
// format with charts, translate, and deliver every rendering. Stages
// degrade internally wherever a substitute output exists; only errors
// that escape a stage contract stop the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "marketbrief/internal/common/errors"
	"marketbrief/internal/common/metrics"
	"marketbrief/internal/models"
	fetchnews "marketbrief/internal/stages/fetch-news"
	"marketbrief/internal/stages/localize"
	"marketbrief/internal/stages/present"
	"marketbrief/internal/stages/publish"
	"marketbrief/internal/stages/summarize"
)

// notifyLanguage tags the best-effort failure notification sent when a run
// dies. It is not one of the report languages.
const notifyLanguage = models.Language("System Status")

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Recorder receives per-stage telemetry. May be nil.
type Recorder interface {
	RecordStageProcessed(ctx context.Context, stage, status string)
	RecordStageDuration(ctx context.Context, stage string, duration time.Duration)
}

type Fetcher interface {
	Execute(ctx context.Context, input *fetchnews.Input) (*fetchnews.Output, error)
}

type Summarizer interface {
	Execute(ctx context.Context, input *summarize.Input) (*summarize.Output, error)
}

type Presenter interface {
	Execute(ctx context.Context, input *present.Input) (*present.Output, error)
}

type Localizer interface {
	Execute(ctx context.Context, input *localize.Input) (*localize.Output, error)
}

type Publisher interface {
	Execute(ctx context.Context, input *publish.Input) (*publish.Output, error)
}

type Pipeline struct {
	topics     []string
	fetcher    Fetcher
	summarizer Summarizer
	presenter  Presenter
	localizer  Localizer
	publisher  Publisher
	recorder   Recorder
	logger     Logger
}

func New(topics []string, fetcher Fetcher, summarizer Summarizer, presenter Presenter,
	localizer Localizer, publisher Publisher, recorder Recorder, log Logger) *Pipeline {
	return &Pipeline{
		topics:     topics,
		fetcher:    fetcher,
		summarizer: summarizer,
		presenter:  presenter,
		localizer:  localizer,
		publisher:  publisher,
		recorder:   recorder,
		logger:     log,
	}
}

// Run executes the whole pipeline once. It always returns a RunResult; a
// panic anywhere inside is converted to a failed run with a best-effort
// notification to the chat channel.
func (p *Pipeline) Run(ctx context.Context) (result *RunResult) {
	result = &RunResult{
		RunID: uuid.NewString(),
		State: StateFetching,
	}
	log := p.logger.With(map[string]interface{}{"run_id": result.RunID})

	defer func() {
		if r := recover(); r != nil {
			p.fail(ctx, log, result, apperrors.NewInternalError(fmt.Sprintf("panic: %v", r), nil))
		}
	}()

	log.Info("pipeline run started", map[string]interface{}{"topics": len(p.topics)})

	// fetch
	fetchOut, err := p.observe(ctx, result, fetchnews.StageName, func() (outcome, error) {
		out, err := p.fetcher.Execute(ctx, &fetchnews.Input{Topics: p.topics})
		if err != nil {
			return outcome{}, err
		}
		return outcome{degraded: out.Degraded, reason: out.Reason, value: out}, nil
	})
	if err != nil {
		p.fail(ctx, log, result, err)
		return result
	}
	results := fetchOut.value.(*fetchnews.Output).Results

	// summarize
	result.State = StateSummarizing
	sumOut, err := p.observe(ctx, result, summarize.StageName, func() (outcome, error) {
		out, err := p.summarizer.Execute(ctx, &summarize.Input{Results: results})
		if err != nil {
			return outcome{}, err
		}
		return outcome{degraded: out.Degraded, reason: out.Reason, value: out}, nil
	})
	if err != nil {
		p.fail(ctx, log, result, err)
		return result
	}
	summary := sumOut.value.(*summarize.Output).Summary

	// present
	result.State = StatePresenting
	presOut, err := p.observe(ctx, result, present.StageName, func() (outcome, error) {
		out, err := p.presenter.Execute(ctx, &present.Input{Summary: summary})
		if err != nil {
			return outcome{}, err
		}
		return outcome{degraded: out.Degraded, reason: out.Reason, value: out}, nil
	})
	if err != nil {
		p.fail(ctx, log, result, err)
		return result
	}
	formatted := presOut.value.(*present.Output).Formatted

	// localize: English is the presenter output; the rest are translated
	result.State = StateLocalizing
	renderings := []models.Rendering{
		{Language: models.LanguageEnglish, Text: formatted},
	}
	for _, language := range models.TranslationTargets {
		language := language
		locOut, err := p.observe(ctx, result, localize.StageName+"/"+string(language), func() (outcome, error) {
			out, err := p.localizer.Execute(ctx, &localize.Input{Content: formatted, Language: language})
			if err != nil {
				return outcome{}, err
			}
			reason := ""
			if out.Rendering.Fallback {
				reason = "fallback document"
			}
			return outcome{degraded: out.Rendering.Fallback, reason: reason, value: out}, nil
		})
		if err != nil {
			p.fail(ctx, log, result, err)
			return result
		}
		renderings = append(renderings, locOut.value.(*localize.Output).Rendering)
	}

	// publish: one send per rendering, serialized; a failed send never
	// blocks the remaining languages
	result.State = StatePublishing
	for _, rendering := range renderings {
		rendering := rendering
		pubOut, err := p.observe(ctx, result, publish.StageName+"/"+string(rendering.Language), func() (outcome, error) {
			out, err := p.publisher.Execute(ctx, &publish.Input{Rendering: rendering})
			if err != nil {
				return outcome{}, err
			}
			reason := ""
			if !out.Result.Success {
				reason = out.Result.Message
			}
			return outcome{degraded: !out.Result.Success, reason: reason, value: out}, nil
		})
		if err != nil {
			p.fail(ctx, log, result, err)
			return result
		}
		result.Deliveries = append(result.Deliveries, pubOut.value.(*publish.Output).Result)
	}

	result.State = StateDone
	result.Success = true
	log.Info("pipeline run completed", map[string]interface{}{
		"delivered": result.Delivered(),
		"attempted": len(result.Deliveries),
	})
	return result
}

// outcome is the stage-agnostic slice of an Output the pipeline needs.
type outcome struct {
	degraded bool
	reason   string
	value    interface{}
}

// observe wraps one stage execution with timing, metrics, and the outcome
// record. A returned error marks the stage fatal; the caller stops the run.
func (p *Pipeline) observe(ctx context.Context, result *RunResult, stage string, fn func() (outcome, error)) (outcome, error) {
	start := time.Now()
	out, err := fn()
	duration := time.Since(start)

	metrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if p.recorder != nil {
		p.recorder.RecordStageDuration(ctx, stage, duration)
	}

	if err != nil {
		metrics.StageFailed.WithLabelValues(stage, string(apperrors.CodeOf(err))).Inc()
		if p.recorder != nil {
			p.recorder.RecordStageProcessed(ctx, stage, string(StatusFatal))
		}
		result.Stages = append(result.Stages, StageOutcome{
			Stage:    stage,
			Status:   StatusFatal,
			Reason:   err.Error(),
			Duration: duration,
		})
		return outcome{}, err
	}

	status := StatusOk
	if out.degraded {
		status = StatusDegraded
	}
	metrics.StageCompleted.WithLabelValues(stage, string(status)).Inc()
	if p.recorder != nil {
		p.recorder.RecordStageProcessed(ctx, stage, string(status))
	}
	result.Stages = append(result.Stages, StageOutcome{
		Stage:    stage,
		Status:   status,
		Reason:   out.reason,
		Duration: duration,
	})
	return out, nil
}

// fail marks the run failed and tries to tell the chat channel about it.
// The notification is best effort: its own failure is logged and dropped.
func (p *Pipeline) fail(ctx context.Context, log Logger, result *RunResult, err error) {
	stoppedAt := result.State
	result.State = StateFailed
	result.Success = false
	log.Error("pipeline run failed", map[string]interface{}{
		"state":    string(stoppedAt),
		"error":    err.Error(),
		"category": string(apperrors.CategoryOf(err)),
	})

	notification := models.Rendering{
		Language: notifyLanguage,
		Text: fmt.Sprintf("Financial Bot Status: run %s stopped at %s (%s).",
			result.RunID, stoppedAt, time.Now().Format(time.RFC3339)),
	}
	if out, pubErr := p.publisher.Execute(ctx, &publish.Input{Rendering: notification}); pubErr != nil {
		log.Warn("failure notification not delivered", map[string]interface{}{"error": pubErr.Error()})
	} else {
		result.Deliveries = append(result.Deliveries, out.Result)
	}
}
