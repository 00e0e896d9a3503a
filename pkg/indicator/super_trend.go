package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/chartview/pkg/core"
)

// SuperTrend creates an ATR band that flips sides when the close crosses it
func SuperTrend(period int, factor float64, color string) Provider {
	return &superTrend{BaseIndicator: BaseIndicator{Period: period, Color: color}, Factor: factor}
}

type superTrend struct {
	BaseIndicator
	Factor float64
}

func (s superTrend) Name() string {
	return fmt.Sprintf("SuperTrend(%d,%.1f)", s.Period, s.Factor)
}

// Warmup is one more than the ATR period; the band needs a previous value
func (s superTrend) Warmup() int {
	return s.Period + 1
}

func (s superTrend) Compute(bars []core.Bar) []Line {
	line := Line{Name: s.Name(), Color: s.Color, Values: nanSeries(len(bars)), Overlay: true}
	if s.Period <= 0 || len(bars) <= s.Warmup() {
		return []Line{line}
	}

	high, low, close := highsLowsCloses(bars)
	atr := talib.Atr(high, low, close, s.Period)

	upper, lower := make([]float64, len(bars)), make([]float64, len(bars))
	trend := make([]float64, len(bars))
	for i := s.Period; i < len(bars); i++ {
		median := (high[i] + low[i]) / 2
		basicUpper, basicLower := median+atr[i]*s.Factor, median-atr[i]*s.Factor

		if i == s.Period {
			upper[i], lower[i] = basicUpper, basicLower
			trend[i] = basicUpper
			continue
		}

		upper[i] = upper[i-1]
		if basicUpper < upper[i-1] || close[i-1] > upper[i-1] {
			upper[i] = basicUpper
		}
		lower[i] = lower[i-1]
		if basicLower > lower[i-1] || close[i-1] < lower[i-1] {
			lower[i] = basicLower
		}

		switch {
		case trend[i-1] == upper[i-1] && close[i] > upper[i]:
			trend[i] = lower[i]
		case trend[i-1] == upper[i-1]:
			trend[i] = upper[i]
		case close[i] < lower[i]:
			trend[i] = upper[i]
		default:
			trend[i] = lower[i]
		}
	}

	line.Values = maskWarmup(trend, s.Warmup())
	return []Line{line}
}
