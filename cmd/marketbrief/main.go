// cmd/marketbrief/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketbrief/internal/common/config"
	"marketbrief/internal/common/logger"
	"marketbrief/internal/common/observability"
	"marketbrief/internal/common/ratelimit"
	"marketbrief/internal/pipeline"
	fetchnews "marketbrief/internal/stages/fetch-news"
	"marketbrief/internal/stages/localize"
	"marketbrief/internal/stages/present"
	"marketbrief/internal/stages/publish"
	"marketbrief/internal/stages/summarize"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:          "marketbrief",
		Short:        "Fetch, summarize, translate, and deliver the daily US market brief",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), checkOnly)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "probe collaborators and exit without running the pipeline")
	return cmd
}

func run(ctx context.Context, checkOnly bool) error {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Error("config load failed", zap.Error(err))
		return err
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting marketbrief",
		zap.String("environment", cfg.App.Environment),
		zap.Int("topics", len(cfg.Topics)),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
		zapLog.Info("metrics listener up", zap.String("address", cfg.Metrics.Address))
	}

	passed, total := preflight(ctx, cfg, zapLog)
	if passed < preflightRequired {
		return fmt.Errorf("preflight failed: %d of %d collaborators reachable (need %d)", passed, total, preflightRequired)
	}
	zapLog.Info("preflight passed", zap.Int("reachable", passed), zap.Int("total", total))
	if checkOnly {
		return nil
	}

	gate := ratelimit.New(map[string]time.Duration{
		"search":   cfg.Search.TopicDelayDuration(),
		"llm":      cfg.LLM.MinIntervalDuration(),
		"images":   cfg.Charts.RequestDelayDuration(),
		"telegram": cfg.Telegram.MessageDelayDuration(),
	})

	fetcher := fetchnews.NewHandler(fetchnews.ConfigFrom(cfg), gate, &fetchNewsLoggerAdapter{log})
	summarizer := summarize.NewHandler(summarize.ConfigFrom(cfg), gate, &summarizeLoggerAdapter{log})
	presenter, err := present.NewHandler(present.ConfigFrom(cfg), gate, &presentLoggerAdapter{log})
	if err != nil {
		zapLog.Error("presenter init failed", zap.Error(err))
		return err
	}
	localizer := localize.NewHandler(localize.ConfigFrom(cfg), gate, &localizeLoggerAdapter{log})
	publisher := publish.NewHandler(publish.ConfigFrom(cfg), gate, &publishLoggerAdapter{log})

	p := pipeline.New(cfg.Topics, fetcher, summarizer, presenter, localizer, publisher,
		obs, &pipelineLoggerAdapter{log})

	result := p.Run(ctx)
	zapLog.Info("run finished",
		zap.String("runId", result.RunID),
		zap.String("state", string(result.State)),
		zap.Int("delivered", result.Delivered()),
		zap.Int("attempted", len(result.Deliveries)),
	)

	if !result.Success {
		return fmt.Errorf("pipeline run %s failed", result.RunID)
	}
	return nil
}

// Per-stage logger adapters. Each stage declares its own Logger interface
// whose With returns the stage's type; embedding the shared logger and
// overriding With bridges the two.

type fetchNewsLoggerAdapter struct {
	logger.Logger
}

func (a *fetchNewsLoggerAdapter) With(fields map[string]interface{}) fetchnews.Logger {
	return &fetchNewsLoggerAdapter{a.Logger.With(fields)}
}

type summarizeLoggerAdapter struct {
	logger.Logger
}

func (a *summarizeLoggerAdapter) With(fields map[string]interface{}) summarize.Logger {
	return &summarizeLoggerAdapter{a.Logger.With(fields)}
}

type presentLoggerAdapter struct {
	logger.Logger
}

func (a *presentLoggerAdapter) With(fields map[string]interface{}) present.Logger {
	return &presentLoggerAdapter{a.Logger.With(fields)}
}

type localizeLoggerAdapter struct {
	logger.Logger
}

func (a *localizeLoggerAdapter) With(fields map[string]interface{}) localize.Logger {
	return &localizeLoggerAdapter{a.Logger.With(fields)}
}

type publishLoggerAdapter struct {
	logger.Logger
}

func (a *publishLoggerAdapter) With(fields map[string]interface{}) publish.Logger {
	return &publishLoggerAdapter{a.Logger.With(fields)}
}

type pipelineLoggerAdapter struct {
	logger.Logger
}

func (a *pipelineLoggerAdapter) With(fields map[string]interface{}) pipeline.Logger {
	return &pipelineLoggerAdapter{a.Logger.With(fields)}
}
