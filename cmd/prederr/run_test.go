package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inf-covid19/prederr/internal/backtest"
	"github.com/inf-covid19/prederr/internal/config"
	"github.com/inf-covid19/prederr/internal/series"
)

// writeQuadraticInput writes n days starting 2020-03-01 with cases = i*i.
func writeQuadraticInput(t *testing.T, n int) string {
	t.Helper()

	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	data := make([]series.DailyRecord, n)
	for i := range data {
		data[i] = series.DailyRecord{
			Date:   start.AddDate(0, 0, i).Format(series.DateLayout),
			Cases:  int64(i * i),
			Deaths: int64(i),
		}
	}

	body, err := json.Marshal(map[string]any{"data": data})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func testSettings(t *testing.T, input string) config.Settings {
	t.Helper()
	out := t.TempDir()
	return config.Settings{
		Input: config.InputSettings{Path: input},
		Backtest: config.BacktestSettings{
			Thresholds: []int{1, 3},
			BaseIndex:  backtest.DefaultBaseIndex,
			Metric:     "cases",
			Workers:    2,
		},
		Projection: config.ProjectionSettings{Horizon: 2},
		Output: config.OutputSettings{
			Dir:     out,
			Formats: []string{"json", "csv.gz"},
			Chart:   true,
		},
		Metrics: config.MetricsSettings{Textfile: filepath.Join(out, "prederr.prom")},
	}
}

func TestRun_WritesOutputs(t *testing.T) {
	s := testSettings(t, writeQuadraticInput(t, 60))

	require.NoError(t, run(t.Context(), s, zaptest.NewLogger(t)))

	for _, name := range []string{
		"prediction_errors_cases_1d.json",
		"prediction_errors_cases_1d.csv.gz",
		"prediction_errors_cases_1d.png",
		"prediction_errors_cases_3d.json",
		"prediction_errors_cases_3d.csv.gz",
		"prediction_errors_cases_3d.png",
		"projection_cases_1d.json",
		"projection_cases_3d.json",
		"prederr.prom",
	} {
		assert.FileExists(t, filepath.Join(s.Output.Dir, name))
	}

	body, err := os.ReadFile(filepath.Join(s.Output.Dir, "prediction_errors_cases_1d.json"))
	require.NoError(t, err)
	var records []backtest.ErrorRecord
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, backtest.DefaultBaseIndex)
	assert.Equal(t, "2020-04-29", records[len(records)-1].X)

	body, err = os.ReadFile(filepath.Join(s.Output.Dir, "projection_cases_1d.json"))
	require.NoError(t, err)
	var proj []backtest.Projection
	require.NoError(t, json.Unmarshal(body, &proj))
	require.Len(t, proj, 2)
	assert.Equal(t, backtest.Projection{Date: "2020-04-30", Value: 60 * 60}, proj[0])
}

func TestRun_SinceFirstCase(t *testing.T) {
	s := testSettings(t, writeQuadraticInput(t, 45))
	s.Input.SinceFirstCase = true
	s.Backtest.Thresholds = []int{1}
	s.Output.Formats = []string{"json"}
	s.Output.Chart = false
	s.Projection.Horizon = 0
	s.Metrics.Textfile = ""

	require.NoError(t, run(t.Context(), s, zaptest.NewLogger(t)))

	body, err := os.ReadFile(filepath.Join(s.Output.Dir, "prediction_errors_cases_1d.json"))
	require.NoError(t, err)
	var records []backtest.ErrorRecord
	require.NoError(t, json.Unmarshal(body, &records))
	// Day 0 has no cases, so 44 days remain and 14 are past the warm-up.
	assert.Len(t, records, 14)
}

func TestRun_LogsPerComponent(t *testing.T) {
	s := testSettings(t, writeQuadraticInput(t, 40))
	s.Backtest.Thresholds = []int{1}
	s.Output.Chart = false
	s.Projection.Horizon = 0

	core, logs := observer.New(zapcore.InfoLevel)
	require.NoError(t, run(t.Context(), s, zap.New(core)))

	names := map[string]int{}
	for _, e := range logs.All() {
		names[e.LoggerName]++
	}
	assert.Equal(t, 1, names["series"])
	assert.Equal(t, 1, names["backtest"])
	assert.Equal(t, len(s.Output.Formats), names["report"])

	loaded := logs.FilterMessage("input loaded").All()
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(40), loaded[0].ContextMap()["records"])
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		s := testSettings(t, filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, run(t.Context(), s, zaptest.NewLogger(t)))
	})

	t.Run("base index zero", func(t *testing.T) {
		s := testSettings(t, writeQuadraticInput(t, 40))
		s.Backtest.BaseIndex = 0
		err := run(t.Context(), s, zaptest.NewLogger(t))
		assert.ErrorIs(t, err, backtest.ErrNoViableCandidate)
	})

	t.Run("unknown metric", func(t *testing.T) {
		s := testSettings(t, writeQuadraticInput(t, 40))
		s.Backtest.Metric = "recovered"
		assert.ErrorIs(t, run(t.Context(), s, zaptest.NewLogger(t)), series.ErrInvalidMetric)
	})
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "prediction_errors_deaths_7d.csv.gz", outputName("prediction_errors", series.MetricDeaths, 7, "csv.gz"))
}
