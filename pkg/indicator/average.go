package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/chartview/pkg/core"
)

// SMA creates a simple moving average of closes
func SMA(period int, color string) Provider {
	return &sma{BaseIndicator{Period: period, Color: color}}
}

type sma struct {
	BaseIndicator
}

func (s sma) Name() string {
	return fmt.Sprintf("SMA(%d)", s.Period)
}

func (s sma) Compute(bars []core.Bar) []Line {
	values := nanSeries(len(bars))
	if s.enough(bars) {
		values = maskWarmup(talib.Sma(core.Closes(bars), s.Period), s.Period-1)
	}
	return []Line{{Name: s.Name(), Color: s.Color, Values: values, Overlay: true}}
}

// EMA creates an exponential moving average of closes
func EMA(period int, color string) Provider {
	return &ema{BaseIndicator{Period: period, Color: color}}
}

type ema struct {
	BaseIndicator
}

func (e ema) Name() string {
	return fmt.Sprintf("EMA(%d)", e.Period)
}

func (e ema) Compute(bars []core.Bar) []Line {
	values := nanSeries(len(bars))
	if e.enough(bars) {
		values = maskWarmup(talib.Ema(core.Closes(bars), e.Period), e.Period-1)
	}
	return []Line{{Name: e.Name(), Color: e.Color, Values: values, Overlay: true}}
}

// BollingerBands creates upper, middle and lower bands deviation standard deviations around an
// SMA of closes
func BollingerBands(period int, deviation float64, color string) Provider {
	return &bollinger{BaseIndicator: BaseIndicator{Period: period, Color: color}, Deviation: deviation}
}

type bollinger struct {
	BaseIndicator
	Deviation float64
}

func (b bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.Period, b.Deviation)
}

func (b bollinger) Compute(bars []core.Bar) []Line {
	upper, middle, lower := nanSeries(len(bars)), nanSeries(len(bars)), nanSeries(len(bars))
	if b.enough(bars) {
		u, m, l := talib.BBands(core.Closes(bars), b.Period, b.Deviation, b.Deviation, talib.SMA)
		upper, middle, lower = maskWarmup(u, b.Period-1), maskWarmup(m, b.Period-1), maskWarmup(l, b.Period-1)
	}

	name := b.Name()
	return []Line{
		{Name: name + " upper", Color: b.Color, Values: upper, Overlay: true},
		{Name: name + " middle", Color: b.Color, Values: middle, Overlay: true},
		{Name: name + " lower", Color: b.Color, Values: lower, Overlay: true},
	}
}
