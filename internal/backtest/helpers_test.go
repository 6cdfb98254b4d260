package backtest

import (
	"time"

	"github.com/inf-covid19/prederr/internal/series"
)

var seriesStart = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

// makeSeries builds n consecutive days with both metrics set to f(i).
func makeSeries(n int, f func(i int) int64) []series.DailyRecord {
	out := make([]series.DailyRecord, n)
	for i := range out {
		out[i] = series.DailyRecord{
			Date:   seriesStart.AddDate(0, 0, i).Format(series.DateLayout),
			Cases:  f(i),
			Deaths: f(i),
		}
	}
	return out
}

func quadratic(i int) int64 { return int64(i * i) }

func flat(int) int64 { return 100 }

// noisy grows roughly linearly with a repeating wobble so candidates
// disagree with each other.
func noisy(i int) int64 { return int64(20 + 5*i + (i*7)%11) }
