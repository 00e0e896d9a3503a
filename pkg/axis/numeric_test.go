package axis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNiceStep(t *testing.T) {
	tests := []struct {
		span, count, want float64
	}{
		{100, 10, 10},
		{100, 7, 10},
		{100, 4, 20},
		{1, 3, 0.2},
		{1000, 3, 200},
		{0.004, 2, 0.002},
		{0, 5, 0},
		{10, 0, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, NiceStep(tt.span, tt.count), 1e-12, "span=%v count=%v", tt.span, tt.count)
	}
}

func TestComputeTicks_ZeroToHundred(t *testing.T) {
	ticks := ComputeTicks(0, 100, 500, 50)
	require.Len(t, ticks, 11)

	for i, tick := range ticks {
		assert.Equal(t, float64(i*10), tick.Value)
	}
	assert.Equal(t, "0", ticks[0].Label)
	assert.Equal(t, "100", ticks[10].Label)
}

func TestComputeTicks_Fractional(t *testing.T) {
	ticks := ComputeTicks(0, 1, 500, 50)
	require.Len(t, ticks, 11)
	assert.Equal(t, 0.3, ticks[3].Value)
	assert.Equal(t, "0.3", ticks[3].Label)
	assert.Equal(t, "1.0", ticks[10].Label)
}

func TestComputeTicks_UnalignedRange(t *testing.T) {
	ticks := ComputeTicks(101.3, 148.9, 400, 50)
	require.NotEmpty(t, ticks)
	for _, tick := range ticks {
		assert.GreaterOrEqual(t, tick.Value, 101.3)
		assert.LessOrEqual(t, tick.Value, 148.9)
	}
	// 47.6 over 8 slots -> 5
	assert.Equal(t, 105.0, ticks[0].Value)
	assert.Equal(t, 145.0, ticks[len(ticks)-1].Value)
}

func TestComputeTicks_StepWiderThanRange(t *testing.T) {
	ticks := ComputeTicks(0.1, 1.7, 50, 50)
	require.NotEmpty(t, ticks)
	for _, tick := range ticks {
		assert.GreaterOrEqual(t, tick.Value, 0.1)
		assert.LessOrEqual(t, tick.Value, 1.7)
	}
}

func TestComputeTicks_Degenerate(t *testing.T) {
	ticks := ComputeTicks(42, 42, 500, 50)
	require.Len(t, ticks, 1)
	assert.Equal(t, 42.0, ticks[0].Value)

	assert.Nil(t, ComputeTicks(math.NaN(), 1, 500, 50))
	assert.Nil(t, ComputeTicks(0, math.Inf(1), 500, 50))

	// zero extent falls back to a single slot
	ticks = ComputeTicks(0, 100, 0, 50)
	require.NotEmpty(t, ticks)

	swapped := ComputeTicks(100, 0, 500, 50)
	assert.Equal(t, ComputeTicks(0, 100, 500, 50), swapped)
}

func TestComputeTicks_OverflowingSpan(t *testing.T) {
	var ticks []Tick
	require.NotPanics(t, func() { ticks = ComputeTicks(-1e308, 1e308, 500, 50) })
	require.Len(t, ticks, 2)
	assert.Equal(t, -1e308, ticks[0].Value)
	assert.Equal(t, 1e308, ticks[1].Value)

	require.NotPanics(t, func() { ticks = ComputeTicks(-math.MaxFloat64, math.MaxFloat64, 500, 50) })
	assert.Len(t, ticks, 2)
}

func TestComputeTicks_NegativeRange(t *testing.T) {
	ticks := ComputeTicks(-1, 1, 400, 100)
	require.NotEmpty(t, ticks)
	assert.Equal(t, -1.0, ticks[0].Value)
	assert.Equal(t, 1.0, ticks[len(ticks)-1].Value)
	for _, tick := range ticks {
		assert.NotEqual(t, "-0.0", tick.Label)
		assert.NotEqual(t, "-0", tick.Label)
	}
}

func TestComputeTicks_Deterministic(t *testing.T) {
	a := ComputeTicks(12.345, 98.76, 733, 47)
	b := ComputeTicks(12.345, 98.76, 733, 47)
	assert.Equal(t, a, b)
}

func TestStepDecimals(t *testing.T) {
	assert.Equal(t, 0, StepDecimals(10))
	assert.Equal(t, 0, StepDecimals(1))
	assert.Equal(t, 1, StepDecimals(0.5))
	assert.Equal(t, 2, StepDecimals(0.02))
	assert.Equal(t, 0, StepDecimals(0))
}
