package backtest

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/inf-covid19/prederr/internal/series"
)

// dayResult holds everything one worker produces for one day.
type dayResult struct {
	record ErrorRecord
	tally  Tally
	mse    float64
	start  int
	err    error
}

// Backtest evaluates every day of data[opts.BaseIndex:] and returns one
// error record per day, trimmed to the last opts.BaseIndex records.
//
// Days are independent, so they are spread over a worker pool; each result
// lands in its own slot and the output order matches the input. If any day
// has no viable candidate the run fails with the earliest such error.
func Backtest(ctx context.Context, data []series.DailyRecord, opts Options) (*Result, error) {
	// 1. Check options
	if opts.Threshold < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, opts.Threshold)
	}
	if opts.BaseIndex < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBaseIndex, opts.BaseIndex)
	}
	metric, err := series.ParseMetric(string(opts.Metric))
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	base := opts.BaseIndex
	n := max(len(data)-base, 0)
	days := make([]dayResult, n)

	logger.Debug("backtest starting",
		zap.Int("days", n),
		zap.Int("threshold", opts.Threshold),
		zap.Int("base_index", base),
		zap.Stringer("metric", metric),
	)

	// 2. Set up worker pool
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(min(numWorkers, n), 1)

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			days[i] = evaluateDay(data, base+i, opts.Threshold, metric)
			if days[i].err == nil {
				logger.Debug("day evaluated",
					zap.String("date", days[i].record.X),
					zap.Int("index", base+i),
					zap.Int("best_start", days[i].start),
					zap.Float64("best_mse", days[i].mse),
					zap.Int64("pred_value", days[i].record.PredValue),
				)
			}
		}
	}
	for w := 0; w < numWorkers; w++ {
		go worker()
	}

	// 3. Feed jobs until done or cancelled
	var cancelled error
dispatch:
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	// 4. Assemble in date order
	res := &Result{Records: make([]ErrorRecord, 0, n)}
	for i := range days {
		if days[i].err != nil {
			return nil, fmt.Errorf("backtest day %d (%s): %w", base+i, data[base+i].Date, days[i].err)
		}
		res.Stats.add(days[i].tally)
		res.Stats.Days++
		if days[i].record.Y == nil {
			res.Stats.UndefinedErrors++
		}
		res.Records = append(res.Records, days[i].record)
	}

	// 5. Only the final base window is reported; a base of zero keeps everything.
	if base > 0 && len(res.Records) > base {
		res.Records = res.Records[len(res.Records)-base:]
	}

	// 6. Summary over the reported records
	if len(res.Records) > 0 {
		var sum float64
		for _, r := range res.Records {
			sum += math.Abs(float64(r.RawError))
		}
		res.Stats.MeanAbsError = sum / float64(len(res.Records))
	}

	logger.Info("backtest finished",
		zap.Int("days", res.Stats.Days),
		zap.Int("records", len(res.Records)),
		zap.Int("candidates", res.Stats.Candidates),
		zap.Int("viable", res.Stats.Viable),
		zap.Int("undefined_errors", res.Stats.UndefinedErrors),
		zap.Float64("mean_abs_error", res.Stats.MeanAbsError),
	)

	return res, nil
}

// evaluateDay backtests the day at absolute index idx.
func evaluateDay(data []series.DailyRecord, idx, threshold int, metric series.Metric) dayResult {
	best, tally, err := selectBest(data, idx, threshold, metric)
	if err != nil {
		return dayResult{tally: tally, err: err}
	}

	predValue := calibratedForecast(best, len(best.X)+threshold)
	rawValue := data[idx].Value(metric)

	rec := ErrorRecord{
		X:            data[idx].Date,
		IsPrediction: true,
		RawValue:     int64(rawValue),
		PredValue:    int64(predValue),
		RawError:     int64(predValue - rawValue),
	}
	if predValue != 0 {
		pct := (predValue - rawValue) / predValue * 100
		rec.Y = &pct
	}

	return dayResult{record: rec, tally: tally, mse: best.MSE, start: best.Start}
}

// calibratedForecast is the candidate's forecast at n shifted by the gap
// between its last training value and its own fit at that point.
func calibratedForecast(c Candidate, n int) float64 {
	last := len(c.X) - 1
	predDiff := c.Y[last] - c.Predict(last)
	return c.Predict(n) + predDiff
}
