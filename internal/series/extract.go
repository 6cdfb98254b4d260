package series

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DateLayout is the date format used for ordering checks and projections.
const DateLayout = "2006-01-02"

// Extract turns a contiguous range of records into a training sample.
// X is the position relative to the start of the range (0, 1, 2, ...) and
// Y the selected metric. An empty range gives two empty slices.
func Extract(data []DailyRecord, m Metric) (x, y []float64) {
	x = make([]float64, len(data))
	y = make([]float64, len(data))
	for i, d := range data {
		x[i] = float64(i)
		y[i] = d.Value(m)
	}
	return x, y
}

// Window returns data[lo:hi] with both bounds clamped into the series.
// An inverted range is empty.
func Window(data []DailyRecord, lo, hi int) []DailyRecord {
	lo = min(max(lo, 0), len(data))
	hi = min(max(hi, 0), len(data))
	if lo >= hi {
		return data[lo:lo]
	}
	return data[lo:hi]
}

// SinceFirstCase drops the leading days before the first reported case.
func SinceFirstCase(data []DailyRecord) []DailyRecord {
	for i, d := range data {
		if d.Cases > 0 {
			return data[i:]
		}
	}
	return data[len(data):]
}

// Validate checks that counts are non-negative and that dates are present
// and strictly ascending. Dates that are not ISO formatted are only checked
// for presence.
func Validate(data []DailyRecord) error {
	var prev time.Time
	for i, d := range data {
		if d.Date == "" {
			return fmt.Errorf("%w: row %d has no date", ErrInvalidRecord, i)
		}
		if d.Cases < 0 || d.Deaths < 0 {
			return fmt.Errorf("%w: row %d (%s) has negative counts", ErrInvalidRecord, i, d.Date)
		}

		t, err := time.Parse(DateLayout, d.Date)
		if err != nil {
			prev = time.Time{}
			continue
		}
		if !prev.IsZero() && !t.After(prev) {
			return fmt.Errorf("%w: row %d (%s) is not after the previous day", ErrInvalidRecord, i, d.Date)
		}
		prev = t
	}
	return nil
}

// Fingerprint is a stable digest of the series, logged with every run so
// two outputs can be traced back to the same input.
func Fingerprint(data []DailyRecord) uint64 {
	h := xxhash.New()
	for _, d := range data {
		fmt.Fprintf(h, "%s|%d|%d\n", d.Date, d.Cases, d.Deaths)
	}
	return h.Sum64()
}
