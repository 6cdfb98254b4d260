package backtest

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inf-covid19/prederr/internal/series"
)

// Candidates fits one regressor per training start in [0, idx) and scores
// each against the same held-out window data[idx-threshold:idx].
//
// Training ranges that come out empty or too short are still attempted; the
// outcome records why they were discarded.
func Candidates(data []series.DailyRecord, idx, threshold int, metric series.Metric) []Outcome {
	// Held-out target shared by every candidate
	_, target := series.Extract(series.Window(data, idx-threshold, idx), metric)

	outcomes := make([]Outcome, idx)
	for i := 0; i < idx; i++ {
		x, y := series.Extract(series.Window(data, i, idx-threshold), metric)
		c, err := scoreCandidate(x, y, target)
		c.Start = i
		outcomes[i] = Outcome{Candidate: c, Err: err}
	}
	return outcomes
}

// scoreCandidate fits (x, y) and computes the mean squared error of its
// rounded forecasts over target, continuing the training time axis.
func scoreCandidate(x, y, target []float64) (Candidate, error) {
	poly, err := Fit(x, y, DegreeFor(len(x)))
	if err != nil {
		return Candidate{}, err
	}
	if len(target) == 0 {
		return Candidate{}, fmt.Errorf("%w: empty held-out window", ErrEmptySample)
	}

	sq := make([]float64, len(target))
	for j, want := range target {
		d := want - Forecast(poly, len(y)+j)
		sq[j] = d * d
	}

	mse := stat.Mean(sq, nil)
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return Candidate{}, fmt.Errorf("%w: mse %v", ErrNonFinite, mse)
	}

	return Candidate{Poly: poly, MSE: mse, X: x, Y: y}, nil
}

// SelectBest returns the candidate with the lowest mean squared error for
// the day at idx. Ties go to the earliest training start.
func SelectBest(data []series.DailyRecord, idx, threshold int, metric series.Metric) (Candidate, error) {
	best, _, err := selectBest(data, idx, threshold, metric)
	return best, err
}

func selectBest(data []series.DailyRecord, idx, threshold int, metric series.Metric) (Candidate, Tally, error) {
	if threshold < 1 {
		return Candidate{}, Tally{}, fmt.Errorf("%w: got %d", ErrInvalidThreshold, threshold)
	}
	if idx < 0 || idx > len(data) {
		return Candidate{}, Tally{}, fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, idx, len(data))
	}

	outcomes := Candidates(data, idx, threshold, metric)
	tally := tallyOutcomes(outcomes)

	viable := make([]Candidate, 0, tally.Viable)
	for _, o := range outcomes {
		if o.OK() {
			viable = append(viable, o.Candidate)
		}
	}
	if len(viable) == 0 {
		return Candidate{}, tally, fmt.Errorf("%w at index %d (threshold %d, %d attempted)",
			ErrNoViableCandidate, idx, threshold, len(outcomes))
	}

	scores := make([]float64, len(viable))
	for i, c := range viable {
		scores[i] = c.MSE
	}

	return viable[floats.MinIdx(scores)], tally, nil
}

func tallyOutcomes(outcomes []Outcome) Tally {
	t := Tally{Candidates: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			t.Viable++
		case errors.Is(o.Err, ErrEmptySample):
			t.DiscardedEmpty++
		case errors.Is(o.Err, ErrSingular):
			t.DiscardedSingular++
		default:
			t.DiscardedNonFinite++
		}
	}
	return t
}
