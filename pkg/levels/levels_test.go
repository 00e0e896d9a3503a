package levels

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/chartview/pkg/core"
)

func makeBars(highs, lows []float64) []core.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, len(highs))
	for i := range highs {
		mid := (highs[i] + lows[i]) / 2
		bars[i] = core.Bar{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   mid,
			High:   highs[i],
			Low:    lows[i],
			Close:  mid,
			Volume: 1,
		}
	}
	return bars
}

func defaultConfig() Config {
	return ConfigFromSettings(core.DefaultSettings())
}

func TestDetect_SwingHigh(t *testing.T) {
	highs := []float64{1, 2, 3, 9, 3, 2, 1}
	lows := []float64{0.5, 1.5, 2.5, 8.5, 2.5, 1.5, 0.5}

	found := Detect(makeBars(highs, lows), 0, len(highs), defaultConfig())
	require.Len(t, found, 6)

	assert.Equal(t, KindVWAP, found[0].Kind)
	assert.Equal(t, Level{Price: 9, Kind: KindSwingHigh, Score: 1.5, Index: 3, Touches: 1}, found[1])
	for _, lvl := range found[2:] {
		assert.Equal(t, KindRoundNumber, lvl.Kind)
	}
	assert.Equal(t, []float64{2, 4, 6, 8}, []float64{found[2].Price, found[3].Price, found[4].Price, found[5].Price})
}

func TestDetect_SwingNeedsStrictExtreme(t *testing.T) {
	// equal neighbouring highs never form a swing
	highs := []float64{1, 2, 3, 9, 9, 2, 1, 0.8}
	lows := []float64{0.5, 1.5, 2.5, 8.5, 8.5, 1.5, 0.5, 0.3}

	for _, lvl := range Detect(makeBars(highs, lows), 0, len(highs), defaultConfig()) {
		assert.NotEqual(t, KindSwingHigh, lvl.Kind)
	}
}

func TestDetect_SupportResistanceClusters(t *testing.T) {
	n := 12
	highs, lows := make([]float64, n), make([]float64, n)
	for i := range highs {
		highs[i], lows[i] = 105, 95
	}

	found := Detect(makeBars(highs, lows), 0, n, defaultConfig())
	require.GreaterOrEqual(t, len(found), 2)

	assert.Equal(t, KindSupport, found[0].Kind)
	assert.InDelta(t, 95, found[0].Price, 1e-9)
	assert.Equal(t, 12, found[0].Touches)
	assert.Equal(t, 11, found[0].Index)

	assert.Equal(t, KindResistance, found[1].Kind)
	assert.InDelta(t, 105, found[1].Price, 1e-9)
	assert.Equal(t, found[0].Score, found[1].Score)
}

func TestDetect_LookbackPad(t *testing.T) {
	n := 30
	highs, lows := make([]float64, n), make([]float64, n)
	for i := range highs {
		highs[i], lows[i] = 10, 9
	}
	highs[5] = 20

	hasSpike := func(found []Level) bool {
		for _, lvl := range found {
			if lvl.Kind == KindSwingHigh && lvl.Index == 5 {
				return true
			}
		}
		return false
	}

	bars := makeBars(highs, lows)
	cfg := defaultConfig()

	cfg.LookbackPad = 20
	assert.True(t, hasSpike(Detect(bars, 15, n, cfg)))

	cfg.LookbackPad = 5
	assert.False(t, hasSpike(Detect(bars, 15, n, cfg)))
}

func TestDetect_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 300
	highs, lows := make([]float64, n), make([]float64, n)
	price := 100.0
	for i := range highs {
		price += rng.NormFloat64()
		spread := rng.Float64() * 2
		highs[i], lows[i] = price+spread, price-spread
	}
	bars := makeBars(highs, lows)

	a := Detect(bars, 100, 250, defaultConfig())
	b := Detect(bars, 100, 250, defaultConfig())
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, len(a), defaultConfig().MaxLevels)

	for i := 1; i < len(a); i++ {
		assert.GreaterOrEqual(t, a[i-1].Score, a[i].Score)
	}
}

func TestDetect_Cap(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxLevels = 2

	highs := []float64{1, 2, 3, 9, 3, 2, 1}
	lows := []float64{0.5, 1.5, 2.5, 8.5, 2.5, 1.5, 0.5}
	assert.Len(t, Detect(makeBars(highs, lows), 0, len(highs), cfg), 2)
}

func TestDetect_EmptyWindow(t *testing.T) {
	assert.Nil(t, Detect(nil, 0, 10, defaultConfig()))

	bars := makeBars([]float64{2, 3}, []float64{1, 2})
	assert.Nil(t, Detect(bars, 2, 2, defaultConfig()))
	assert.Nil(t, Detect(bars, 5, 1, defaultConfig()))
}

func TestVWAP(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{
		{Time: base, Open: 10, High: 10, Low: 10, Close: 10, Volume: 1},
		{Time: base.Add(time.Hour), Open: 20, High: 20, Low: 20, Close: 20, Volume: 3},
	}

	vwap, ok := VWAP(bars)
	require.True(t, ok)
	assert.InDelta(t, 17.5, vwap, 1e-9)

	bars[0].Volume, bars[1].Volume = 0, 0
	_, ok = VWAP(bars)
	assert.False(t, ok)

	_, ok = VWAP(nil)
	assert.False(t, ok)
}

func TestRoundness(t *testing.T) {
	assert.Greater(t, roundness(100, 0.01), roundness(102, 0.01))
	assert.Greater(t, roundness(1000, 1), roundness(1500, 1))
	assert.Equal(t, 0.0, roundness(101.37, 0.01))
}
