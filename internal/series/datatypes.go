package series

import (
	"errors"
	"fmt"
)

// Errors returned while parsing or validating a series.
var (
	ErrInvalidMetric = errors.New("invalid metric")
	ErrInvalidRecord = errors.New("invalid record")
)

// Which daily value a run is forecasting
type Metric string

// Metrics available on every daily record
const (
	MetricCases  Metric = "cases"
	MetricDeaths Metric = "deaths"
)

// ParseMetric resolves a metric name. The empty string means cases.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricCases:
		return MetricCases, nil
	case MetricDeaths:
		return MetricDeaths, nil
	default:
		return "", fmt.Errorf("%w %q: must be %q or %q", ErrInvalidMetric, s, MetricCases, MetricDeaths)
	}
}

func (m Metric) String() string { return string(m) }

// DailyRecord is one day of the series. Position in the slice is the time
// axis, so records must be ordered by date with one record per day.
type DailyRecord struct {
	// Calendar date, usually ISO 8601 (2020-03-01)
	Date string `json:"date"`
	// Cumulative or daily count, whatever the source provides
	Cases  int64 `json:"cases"`
	Deaths int64 `json:"deaths"`
}

// Value returns the count selected by m.
func (r DailyRecord) Value(m Metric) float64 {
	if m == MetricDeaths {
		return float64(r.Deaths)
	}
	return float64(r.Cases)
}
