// Package indicator computes overlay lines aligned one to one with a bar sequence. Warm-up
// positions hold NaN and are skipped by the renderer.
package indicator

import (
	"fmt"
	"math"

	"github.com/raykavin/chartview/pkg/core"
)

// Line is one drawable indicator series
type Line struct {
	Name    string
	Color   string
	Values  core.Series[float64]
	Overlay bool // drawn on the price pane
}

// Provider derives indicator lines from bars. Every returned line has len(bars) values.
type Provider interface {
	Name() string
	Warmup() int
	Compute(bars []core.Bar) []Line
}

// Compute runs every provider over bars and concatenates their lines
func Compute(bars []core.Bar, providers ...Provider) []Line {
	var lines []Line
	for _, p := range providers {
		lines = append(lines, p.Compute(bars)...)
	}
	return lines
}

// CheckAligned reports the first line whose length differs from the bar count
func CheckAligned(lines []Line, bars int) error {
	for _, line := range lines {
		if len(line.Values) != bars {
			return core.NewError(core.KindInput, "indicator "+line.Name,
				fmt.Errorf("%w: %d values for %d bars", core.ErrMisalignedIndicator, len(line.Values), bars))
		}
	}
	return nil
}

// BaseIndicator holds the fields shared by the period-based providers
type BaseIndicator struct {
	Period int
	Color  string
}

func (b BaseIndicator) Warmup() int {
	return b.Period
}

// enough reports whether bars cover the warm-up period
func (b BaseIndicator) enough(bars []core.Bar) bool {
	return b.Period > 0 && len(bars) >= b.Period
}

// nanSeries returns n NaN values, the output for inputs shorter than the warm-up
func nanSeries(n int) core.Series[float64] {
	values := make(core.Series[float64], n)
	for i := range values {
		values[i] = math.NaN()
	}
	return values
}

// maskWarmup replaces the first warmup values, which talib leaves at zero, with NaN
func maskWarmup(values []float64, warmup int) core.Series[float64] {
	for i := 0; i < warmup && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func highsLowsCloses(bars []core.Bar) (high, low, close []float64) {
	high, low, close = make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars))
	for i, bar := range bars {
		high[i], low[i], close[i] = bar.High, bar.Low, bar.Close
	}
	return high, low, close
}
