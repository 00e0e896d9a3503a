// Package axis selects readable tick positions and labels for price and time axes.
package axis

import (
	"math"
	"strconv"
)

// maxTicks bounds the output for absurd extent/spacing ratios
const maxTicks = 1000

var niceMultipliers = []float64{1, 2, 5, 10}

// Tick is one labelled position on a numeric axis
type Tick struct {
	Value float64
	Label string
}

// NiceStep returns the value of the {1,2,5}×10^k family closest to span/count.
// Ties resolve to the smaller step. Non-positive input yields 0.
func NiceStep(span, count float64) float64 {
	if !(span > 0) || !(count > 0) || math.IsInf(span, 0) || math.IsInf(count, 0) {
		return 0
	}

	raw := span / count
	base := math.Pow(10, math.Floor(math.Log10(raw)))

	best, bestDiff := base, math.Inf(1)
	for _, m := range niceMultipliers {
		candidate := m * base
		if diff := math.Abs(candidate - raw); diff < bestDiff {
			best, bestDiff = candidate, diff
		}
	}
	return best
}

// ComputeTicks returns ticks at integer multiples of a nice step inside [min, max], aiming for one
// tick every targetSpacingPx over pixelExtent. A collapsed range returns a single tick.
func ComputeTicks(min, max, pixelExtent, targetSpacingPx float64) []Tick {
	if !finite(min) || !finite(max) {
		return nil
	}
	if min > max {
		min, max = max, min
	}
	if min == max {
		return []Tick{{Value: min, Label: FormatValue(min, 0)}}
	}

	count := pixelExtent / targetSpacingPx
	if !(count >= 1) || math.IsInf(count, 0) {
		count = 1
	}

	step := NiceStep(max-min, count)
	first := math.Ceil(min/step - 1e-9)
	last := math.Floor(max/step + 1e-9)
	if !(step > 0) || !finite(first) || !finite(last-first) {
		// the span itself overflows, label the ends only
		return []Tick{{Value: min, Label: FormatValue(min, 0)}, {Value: max, Label: FormatValue(max, 0)}}
	}

	// a step rounded up past the span may leave no multiple inside the range
	for last < first {
		step = smallerStep(step)
		first = math.Ceil(min/step - 1e-9)
		last = math.Floor(max/step + 1e-9)
	}
	if last-first+1 > maxTicks {
		last = first + maxTicks - 1
	}

	decimals := StepDecimals(step)
	scale := math.Pow(10, float64(decimals))

	ticks := make([]Tick, 0, int(last-first+1))
	for i := first; i <= last; i++ {
		v := math.Round(i*step*scale) / scale
		if v == 0 {
			v = 0 // drop negative zero
		}
		ticks = append(ticks, Tick{Value: v, Label: FormatValue(v, decimals)})
	}

	return ticks
}

// smallerStep returns the nice value preceding step in the 1, 2, 5 progression
func smallerStep(step float64) float64 {
	base := math.Pow(10, math.Floor(math.Log10(step)+1e-9))
	switch m := math.Round(step / base); {
	case m >= 5:
		return 2 * base
	case m >= 2:
		return base
	default:
		return base / 2
	}
}

// StepDecimals returns how many decimals are needed to print multiples of step exactly
func StepDecimals(step float64) int {
	if !(step > 0) || math.IsInf(step, 0) {
		return 0
	}
	return max(0, int(-math.Floor(math.Log10(step)+1e-9)))
}

// FormatValue prints v with the given number of decimals
func FormatValue(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
