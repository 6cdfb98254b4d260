package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/inf-covid19/prederr/internal/backtest"
	"github.com/inf-covid19/prederr/internal/config"
	"github.com/inf-covid19/prederr/internal/metrics"
	"github.com/inf-covid19/prederr/internal/report"
	"github.com/inf-covid19/prederr/internal/series"
)

// run executes one batch: load the series, backtest every threshold and
// write the configured outputs.
func run(ctx context.Context, s config.Settings, logger *zap.Logger) error {
	metric, err := series.ParseMetric(s.Backtest.Metric)
	if err != nil {
		return err
	}

	data, err := series.Load(s.Input.Path)
	if err != nil {
		return err
	}
	if s.Input.SinceFirstCase {
		data = series.SinceFirstCase(data)
	}
	if err := series.Validate(data); err != nil {
		return fmt.Errorf("input %s: %w", s.Input.Path, err)
	}

	logger.Named("series").Info("input loaded",
		zap.String("path", s.Input.Path),
		zap.Int("records", len(data)),
		zap.String("fingerprint", fmt.Sprintf("%016x", series.Fingerprint(data))),
	)

	if err := os.MkdirAll(s.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	reportLog := logger.Named("report")
	rec := metrics.New()
	for _, th := range s.Backtest.Thresholds {
		opts := backtest.Options{
			Threshold: th,
			BaseIndex: s.Backtest.BaseIndex,
			Metric:    metric,
			Workers:   s.Backtest.Workers,
			Logger:    logger.Named("backtest"),
		}

		start := time.Now()
		res, err := backtest.Backtest(ctx, data, opts)
		if err != nil {
			return fmt.Errorf("threshold %d: %w", th, err)
		}
		rec.Observe(metric.String(), th, res.Stats, time.Since(start))

		for _, format := range s.Output.Formats {
			path := filepath.Join(s.Output.Dir, outputName("prediction_errors", metric, th, format))
			if err := report.WriteFile(path, res.Records); err != nil {
				return err
			}
			reportLog.Info("errors written",
				zap.String("path", path),
				zap.Int("records", len(res.Records)),
			)
		}

		if s.Output.Chart {
			path := filepath.Join(s.Output.Dir, outputName("prediction_errors", metric, th, "png"))
			title := fmt.Sprintf("%s prediction error, %d day threshold", metric, th)
			if err := report.RenderChart(path, title, res.Records); err != nil {
				reportLog.Warn("chart skipped", zap.String("path", path), zap.Error(err))
			}
		}

		if s.Projection.Horizon > 0 {
			proj, err := backtest.Project(data, th, s.Projection.Horizon, metric)
			if err != nil {
				return fmt.Errorf("projection for threshold %d: %w", th, err)
			}
			path := filepath.Join(s.Output.Dir, outputName("projection", metric, th, "json"))
			if err := report.WriteProjectionFile(path, proj); err != nil {
				return err
			}
		}
	}

	rec.MarkSuccess(time.Now())
	if s.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(s.Metrics.Textfile); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
	}
	return nil
}

// outputName builds e.g. prediction_errors_deaths_7d.csv.gz.
func outputName(prefix string, metric series.Metric, threshold int, ext string) string {
	return fmt.Sprintf("%s_%s_%dd.%s", prefix, metric, threshold, ext)
}
