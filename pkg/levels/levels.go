// Package levels finds notable price levels in a window of bars: swing points, support and
// resistance clusters, round numbers and the VWAP.
package levels

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/raykavin/chartview/pkg/axis"
	"github.com/raykavin/chartview/pkg/core"
)

type Kind int

const (
	KindSwingHigh Kind = iota
	KindSwingLow
	KindSupport
	KindResistance
	KindRoundNumber
	KindVWAP
)

func (k Kind) String() string {
	switch k {
	case KindSwingHigh:
		return "swing-high"
	case KindSwingLow:
		return "swing-low"
	case KindSupport:
		return "support"
	case KindResistance:
		return "resistance"
	case KindRoundNumber:
		return "round"
	case KindVWAP:
		return "vwap"
	default:
		return "unknown"
	}
}

// Level is one detected price level. Index is the bar that produced it, -1 for levels
// without a single origin.
type Level struct {
	Price   float64
	Kind    Kind
	Score   float64
	Index   int
	Touches int
}

// Config tunes the detector
type Config struct {
	SwingWindow      int     // bars on each side a swing point must exceed
	LookbackPad      int     // bars scanned before the window start
	ClusterTolerance float64 // band width as a fraction of the window price range
	MinClusterSize   int
	TickSize         float64
	MaxLevels        int
}

func ConfigFromSettings(s core.Settings) Config {
	s = s.Normalize()
	return Config{
		SwingWindow:      s.SwingWindow,
		LookbackPad:      s.LookbackPad,
		ClusterTolerance: s.ClusterTolerance,
		MinClusterSize:   s.MinClusterSize,
		TickSize:         s.TickSize,
		MaxLevels:        s.MaxKeyLevels,
	}
}

const (
	swingBaseScore = 1.0
	vwapScore      = 2.5
	roundTargets   = 4 // round-number lines aimed for across the window
)

// Detect scans bars[start-LookbackPad:end] and returns the strongest levels ordered by score.
// The result is a pure function of its arguments.
func Detect(bars []core.Bar, start, end int, cfg Config) []Level {
	cfg = cfg.normalize()

	end = min(end, len(bars))
	start = max(start, 0)
	if start >= end {
		return nil
	}
	from := max(0, start-cfg.LookbackPad)
	scan := bars[from:end]

	low, high, ok := core.PriceRange(bars, from, end)
	if !ok {
		return nil
	}

	var found []Level
	found = append(found, swings(scan, from, cfg.SwingWindow)...)
	found = append(found, clusters(scan, from, bars[end-1].Close, (high-low)*cfg.ClusterTolerance, cfg.MinClusterSize)...)
	found = append(found, roundNumbers(low, high, cfg.TickSize)...)
	if vwap, ok := VWAP(bars[start:end]); ok {
		found = append(found, Level{Price: vwap, Kind: KindVWAP, Score: vwapScore, Index: -1})
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.Kind < b.Kind
	})

	if len(found) > cfg.MaxLevels {
		found = found[:cfg.MaxLevels]
	}
	return found
}

func (c Config) normalize() Config {
	def := ConfigFromSettings(core.DefaultSettings())
	if c.SwingWindow <= 0 {
		c.SwingWindow = def.SwingWindow
	}
	if c.LookbackPad < 0 {
		c.LookbackPad = 0
	}
	if !(c.ClusterTolerance > 0) {
		c.ClusterTolerance = def.ClusterTolerance
	}
	if c.MinClusterSize <= 1 {
		c.MinClusterSize = def.MinClusterSize
	}
	if !(c.TickSize > 0) {
		c.TickSize = def.TickSize
	}
	if c.MaxLevels <= 0 {
		c.MaxLevels = def.MaxLevels
	}
	return c
}

// recency grows linearly from 0 at the first scanned bar to 1 at the last one
func recency(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return float64(i) / float64(n-1)
}

// swings finds bars whose high (low) strictly exceeds (undercuts) the k neighbours on each side
func swings(scan []core.Bar, offset, k int) []Level {
	var out []Level
	for i := k; i+k < len(scan); i++ {
		high, low := true, true
		for j := i - k; j <= i+k && (high || low); j++ {
			if j == i {
				continue
			}
			high = high && scan[i].High > scan[j].High
			low = low && scan[i].Low < scan[j].Low
		}

		score := swingBaseScore + recency(i, len(scan))
		if high {
			out = append(out, Level{Price: scan[i].High, Kind: KindSwingHigh, Score: score, Index: offset + i, Touches: 1})
		}
		if low {
			out = append(out, Level{Price: scan[i].Low, Kind: KindSwingLow, Score: score, Index: offset + i, Touches: 1})
		}
	}
	return out
}

type touch struct {
	price float64
	index int
}

// clusters groups highs and lows lying within tol of the group's first price
func clusters(scan []core.Bar, offset int, lastClose, tol float64, minSize int) []Level {
	touches := make([]touch, 0, 2*len(scan))
	for i, bar := range scan {
		touches = append(touches, touch{bar.High, i}, touch{bar.Low, i})
	}
	sort.SliceStable(touches, func(i, j int) bool { return touches[i].price < touches[j].price })

	var out []Level
	for i := 0; i < len(touches); {
		j := i + 1
		for j < len(touches) && touches[j].price-touches[i].price <= tol {
			j++
		}

		if group := touches[i:j]; len(group) >= minSize {
			prices := make([]float64, len(group))
			latest := 0
			for n, t := range group {
				prices[n] = t.price
				latest = max(latest, t.index)
			}
			mean := stat.Mean(prices, nil)

			kind := KindResistance
			if mean < lastClose {
				kind = KindSupport
			}
			out = append(out, Level{
				Price:   mean,
				Kind:    kind,
				Score:   float64(len(group)) + recency(latest, len(scan)),
				Index:   offset + latest,
				Touches: len(group),
			})
		}
		i = j
	}
	return out
}

// roundNumbers places levels at multiples of a nice step inside [low, high]. Prices made of more
// trailing zeros relative to the tick size score higher.
func roundNumbers(low, high, tick float64) []Level {
	step := axis.NiceStep(high-low, roundTargets)
	if step < tick || step == 0 {
		return nil
	}

	var out []Level
	for _, t := range axis.ComputeTicks(low, high, roundTargets, 1) {
		out = append(out, Level{Price: t.Value, Kind: KindRoundNumber, Score: roundness(t.Value, tick), Index: -1})
	}
	return out
}

func roundness(price, tick float64) float64 {
	units := math.Round(math.Abs(price) / tick)
	if units == 0 {
		return 1
	}

	zeros := 0
	for units >= 10 && math.Mod(units, 10) == 0 {
		units /= 10
		zeros++
	}
	return float64(zeros) / 2
}

// VWAP is the volume weighted typical price of bars. ok is false when there is no volume.
func VWAP(bars []core.Bar) (vwap float64, ok bool) {
	if len(bars) == 0 {
		return 0, false
	}

	typical := make([]float64, len(bars))
	volume := make([]float64, len(bars))
	for i, bar := range bars {
		typical[i] = bar.Typical()
		volume[i] = bar.Volume
	}

	total := floats.Sum(volume)
	if !(total > 0) {
		return 0, false
	}
	return floats.Dot(typical, volume) / total, true
}
