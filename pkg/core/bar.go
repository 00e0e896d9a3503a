package core

import (
	"fmt"
	"math"
	"time"
)

// Bar represents one OHLCV sample for a fixed time bucket
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Typical returns the typical price (high + low + close) / 3
func (b Bar) Typical() float64 { return (b.High + b.Low + b.Close) / 3 }

// Bullish reports whether the bar closed at or above its open
func (b Bar) Bullish() bool { return b.Close >= b.Open }

// Validate checks a single bar for missing or inconsistent fields
func (b Bar) Validate() error {
	if b.Time.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidBar)
	}

	fields := []struct {
		name  string
		value float64
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidBar, f.name)
		}
	}

	if b.Volume < 0 {
		return fmt.Errorf("%w: volume", ErrNegativeValue)
	}

	if b.High < b.Low || b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("%w: high/low do not bound open/close", ErrInvalidBar)
	}

	return nil
}

// ValidateBars checks that every bar is well formed and that timestamps are strictly increasing.
// The returned error is an InputError naming the first offending index.
func ValidateBars(bars []Bar) error {
	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return NewError(KindInput, fmt.Sprintf("bar %d", i), err)
		}

		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return NewError(KindInput, fmt.Sprintf("bar %d", i),
				fmt.Errorf("%w: %s after %s", ErrNonMonotonicTime,
					bar.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339)))
		}
	}

	return nil
}

// PriceRange returns the lowest low and highest high of bars[from:to].
// ok is false when the range holds no bars.
func PriceRange(bars []Bar, from, to int) (low, high float64, ok bool) {
	from, to = max(from, 0), min(to, len(bars))
	if from >= to {
		return 0, 0, false
	}

	low, high = math.Inf(1), math.Inf(-1)
	for _, bar := range bars[from:to] {
		low = math.Min(low, bar.Low)
		high = math.Max(high, bar.High)
	}

	return low, high, true
}

// Closes extracts the close prices as a series
func Closes(bars []Bar) Series[float64] {
	closes := make(Series[float64], len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}
