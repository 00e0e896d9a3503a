package feed

import (
	"fmt"
	"math"
	"time"

	"github.com/raykavin/chartview/pkg/core"
)

// Resample aggregates bars of timeframe from into buckets of timeframe to. Buckets start on
// natural UTC boundaries: multiples of the target length, Monday for weeks and the first day
// for months. The trailing bucket is kept even when incomplete.
func Resample(bars []core.Bar, from, to core.Timeframe) ([]core.Bar, error) {
	src, dst := from.Duration(), to.Duration()
	if src == 0 {
		return nil, fmt.Errorf("%w: source %q", core.ErrInvalidTimeframe, from)
	}
	if dst == 0 {
		return nil, fmt.Errorf("%w: target %q", core.ErrInvalidTimeframe, to)
	}
	if dst < src {
		return nil, fmt.Errorf("%w: cannot resample %s into shorter %s", core.ErrInvalidTimeframe, from, to)
	}
	if from == to || len(bars) == 0 {
		return bars, nil
	}

	bucket := bucketFunc(to, dst)

	out := make([]core.Bar, 0, len(bars)/int(max(1, dst/src))+1)
	var current core.Bar
	var currentKey time.Time
	for i, bar := range bars {
		key := bucket(bar.Time)
		if i == 0 || !key.Equal(currentKey) {
			if i > 0 {
				out = append(out, current)
			}
			current = core.Bar{Time: key, Open: bar.Open, High: bar.High, Low: bar.Low, Close: bar.Close, Volume: bar.Volume}
			currentKey = key
			continue
		}

		current.High = math.Max(current.High, bar.High)
		current.Low = math.Min(current.Low, bar.Low)
		current.Close = bar.Close
		current.Volume += bar.Volume
	}
	out = append(out, current)

	return out, nil
}

func bucketFunc(tf core.Timeframe, d time.Duration) func(time.Time) time.Time {
	if tf == core.Timeframe1M {
		return func(t time.Time) time.Time {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
	}
	// the zero time is a Monday, so weekly truncation lands on Mondays
	return func(t time.Time) time.Time {
		return t.UTC().Truncate(d)
	}
}
