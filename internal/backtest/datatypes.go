package backtest

import (
	"go.uber.org/zap"

	"github.com/inf-covid19/prederr/internal/series"
)

// DefaultBaseIndex is the number of warm-up days skipped before backtesting.
const DefaultBaseIndex = 30

// Candidate is one fitted regressor. It is immutable once scored.
type Candidate struct {
	// Absolute index of the first training day
	Start int
	// Fitted polynomial, degree 1 or 2
	Poly Polynomial
	// Mean squared error against the held-out window
	MSE float64
	// Training sample the polynomial was fitted on
	X []float64
	Y []float64
}

// Predict is the rounded forecast of the candidate at time coordinate n,
// relative to the start of its training window.
func (c Candidate) Predict(n int) float64 { return Forecast(c.Poly, n) }

// Outcome is the result of attempting one candidate: either a scored
// candidate or the reason it was discarded.
type Outcome struct {
	Candidate Candidate
	Err       error
}

// OK reports whether the candidate survived fitting and scoring.
func (o Outcome) OK() bool { return o.Err == nil }

// ErrorRecord is one backtested day. Y is the percentage error and is nil
// when the prediction is zero, since the error is undefined there.
type ErrorRecord struct {
	X            string   `json:"x"`
	Y            *float64 `json:"y"`
	IsPrediction bool     `json:"is_prediction"`
	RawValue     int64    `json:"raw_value"`
	PredValue    int64    `json:"pred_value"`
	RawError     int64    `json:"raw_error"`
}

// ErrorPct returns the percentage error and whether it is defined.
func (r ErrorRecord) ErrorPct() (float64, bool) {
	if r.Y == nil {
		return 0, false
	}
	return *r.Y, true
}

// Options controls one backtest run.
type Options struct {
	// Number of most recent days held out to score candidates (>= 1)
	Threshold int
	// Warm-up days excluded from evaluation, also the output length cap
	BaseIndex int
	// Metric to forecast; empty means cases
	Metric series.Metric
	// Parallel day evaluations; <= 0 means runtime.NumCPU()
	Workers int
	// Optional; nil disables logging
	Logger *zap.Logger
}

// DefaultOptions returns options with the default base index and metric.
func DefaultOptions(threshold int) Options {
	return Options{
		Threshold: threshold,
		BaseIndex: DefaultBaseIndex,
		Metric:    series.MetricCases,
	}
}

// Tally counts candidate outcomes for one or more evaluations.
type Tally struct {
	Candidates         int
	Viable             int
	DiscardedEmpty     int
	DiscardedSingular  int
	DiscardedNonFinite int
}

func (t *Tally) add(o Tally) {
	t.Candidates += o.Candidates
	t.Viable += o.Viable
	t.DiscardedEmpty += o.DiscardedEmpty
	t.DiscardedSingular += o.DiscardedSingular
	t.DiscardedNonFinite += o.DiscardedNonFinite
}

// Stats summarises a backtest run. Counts cover every evaluated day, not
// only the records kept after trimming.
type Stats struct {
	Tally
	Days            int
	UndefinedErrors int
	// Mean of |raw_error| over the returned records
	MeanAbsError float64
}

// Result of a backtest run
type Result struct {
	Records []ErrorRecord
	Stats   Stats
}

// Projection is one forecast day beyond the end of the series.
type Projection struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}
