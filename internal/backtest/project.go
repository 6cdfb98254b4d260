package backtest

import (
	"fmt"
	"time"

	"github.com/inf-covid19/prederr/internal/series"
)

// Project forecasts the horizon days that follow the last record, using the
// candidate selected as if the day after the series were being backtested
// and the same calibration offset Backtest applies.
//
// Dates must be ISO formatted so the projected days can be labelled.
func Project(data []series.DailyRecord, threshold, horizon int, metric series.Metric) ([]Projection, error) {
	if horizon < 1 {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrNoViableCandidate)
	}

	metric, err := series.ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	lastDate, err := time.Parse(series.DateLayout, data[len(data)-1].Date)
	if err != nil {
		return nil, fmt.Errorf("parse last date: %w", err)
	}

	best, err := SelectBest(data, len(data), threshold, metric)
	if err != nil {
		return nil, err
	}

	// len(X)+threshold is the first day after the series
	first := len(best.X) + threshold
	out := make([]Projection, horizon)
	for k := range out {
		out[k] = Projection{
			Date:  lastDate.AddDate(0, 0, k+1).Format(series.DateLayout),
			Value: int64(calibratedForecast(best, first+k)),
		}
	}
	return out, nil
}
