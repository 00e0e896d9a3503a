package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/chartview/pkg/core"
)

func rampBars(n int) []core.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, n)
	for i := range bars {
		c := float64(i + 1)
		bars[i] = core.Bar{Time: base.Add(time.Duration(i) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := rampBars(10)
	lines := SMA(3, "#fff").Compute(bars)
	require.Len(t, lines, 1)

	values := lines[0].Values
	require.Len(t, values, len(bars))
	assert.True(t, math.IsNaN(values[0]))
	assert.True(t, math.IsNaN(values[1]))
	assert.InDelta(t, 2, values[2], 1e-9)
	assert.InDelta(t, 9, values[9], 1e-9)
	assert.Equal(t, "SMA(3)", lines[0].Name)
	assert.True(t, lines[0].Overlay)
}

func TestEMA_WarmupIsNaN(t *testing.T) {
	bars := rampBars(30)
	values := EMA(9, "#fff").Compute(bars)[0].Values
	require.Len(t, values, 30)

	for i := 0; i < 8; i++ {
		assert.True(t, math.IsNaN(values[i]), "index %d", i)
	}
	assert.False(t, math.IsNaN(values[8]))
	assert.Less(t, values[29], 30.0)
}

func TestBollingerBands(t *testing.T) {
	bars := rampBars(40)
	lines := BollingerBands(20, 2, "#888").Compute(bars)
	require.Len(t, lines, 3)

	for _, line := range lines {
		require.Len(t, line.Values, 40)
	}
	upper, middle, lower := lines[0].Values, lines[1].Values, lines[2].Values
	assert.Greater(t, upper[30], middle[30])
	assert.Less(t, lower[30], middle[30])
	assert.True(t, math.IsNaN(middle[18]))
}

func TestShortInputIsAllNaN(t *testing.T) {
	bars := rampBars(4)
	for _, p := range []Provider{SMA(10, ""), EMA(10, ""), BollingerBands(10, 2, ""), SuperTrend(10, 3, "")} {
		for _, line := range p.Compute(bars) {
			require.Len(t, line.Values, 4, p.Name())
			for _, v := range line.Values {
				assert.True(t, math.IsNaN(v), p.Name())
			}
		}
	}
}

func TestSuperTrend_FollowsUptrend(t *testing.T) {
	bars := rampBars(60)
	values := SuperTrend(7, 3, "#0f0").Compute(bars)[0].Values
	require.Len(t, values, 60)

	assert.True(t, math.IsNaN(values[7]))
	// a steady rise keeps the band below the close
	assert.Less(t, values[59], bars[59].Close)
}

func TestComputeAndCheckAligned(t *testing.T) {
	bars := rampBars(25)
	lines := Compute(bars, SMA(5, ""), BollingerBands(5, 2, ""))
	require.Len(t, lines, 4)
	assert.NoError(t, CheckAligned(lines, len(bars)))

	err := CheckAligned(lines, 24)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMisalignedIndicator))
	assert.True(t, core.IsKind(err, core.KindInput))
}
