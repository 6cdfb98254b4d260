package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inf-covid19/prederr/internal/series"
)

func TestProject_Quadratic(t *testing.T) {
	data := makeSeries(40, quadratic)

	got, err := Project(data, 1, 3, series.MetricDeaths)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Projection{Date: "2020-04-10", Value: 40 * 40}, got[0])
	assert.Equal(t, Projection{Date: "2020-04-11", Value: 41 * 41}, got[1])
	assert.Equal(t, Projection{Date: "2020-04-12", Value: 42 * 42}, got[2])
}

func TestProject_MatchesBacktestForLastDay(t *testing.T) {
	data := makeSeries(45, noisy)
	const threshold = 2

	// Projecting one day from data[:44] must agree with the backtest of day 44.
	proj, err := Project(data[:44], threshold, 1, series.MetricCases)
	require.NoError(t, err)
	require.Len(t, proj, 1)

	res, err := Backtest(t.Context(), data, DefaultOptions(threshold))
	require.NoError(t, err)
	last := res.Records[len(res.Records)-1]

	assert.Equal(t, last.X, proj[0].Date)
	assert.Equal(t, last.PredValue, proj[0].Value)
}

func TestProject_Errors(t *testing.T) {
	got, err := Project(makeSeries(40, flat), 1, 0, series.MetricCases)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Project(nil, 1, 3, series.MetricCases)
	assert.ErrorIs(t, err, ErrNoViableCandidate)

	opaque := makeSeries(40, flat)
	opaque[39].Date = "day forty"
	_, err = Project(opaque, 1, 3, series.MetricCases)
	assert.Error(t, err)

	_, err = Project(makeSeries(40, flat), 0, 3, series.MetricCases)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}
