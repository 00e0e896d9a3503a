package viewport

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/raykavin/chartview/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, totalBars int) *State {
	t.Helper()
	s := New(ConfigFromSettings(core.DefaultSettings()), nil)
	s.Initialize(totalBars, 1000, 400, core.Timeframe1h)
	return s
}

func TestState_Initialize(t *testing.T) {
	s := newTestState(t, 500)

	start, end := s.VisibleRange()
	assert.Equal(t, 380.0, start)
	assert.Equal(t, 500.0, end)

	ls, le := s.LoadedRange()
	assert.Equal(t, 0, ls)
	assert.Equal(t, 500, le)
	assert.Equal(t, core.Timeframe1h, s.Timeframe())
}

func TestState_InitializeDegenerate(t *testing.T) {
	s := New(ConfigFromSettings(core.DefaultSettings()), nil)
	s.Initialize(0, 0, -5, core.Timeframe1d)

	start, end := s.VisibleRange()
	assert.Less(t, start, end)
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 5.0, end)

	w, h := s.CanvasSize()
	assert.Equal(t, 1.0, w)
	assert.Equal(t, 1.0, h)

	// fewer bars than the default window shows everything
	s.Initialize(50, 800, 600, core.Timeframe1d)
	start, end = s.VisibleRange()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 50.0, end)
}

func TestState_Pan(t *testing.T) {
	s := newTestState(t, 500)

	// the window already touches the newest bar
	assert.False(t, s.Pan(100))

	require.True(t, s.Pan(-100))
	start, end := s.VisibleRange()
	assert.InDelta(t, 368, start, 1e-9)
	assert.InDelta(t, 488, end, 1e-9)

	// a huge pan stops at the first bar and keeps the span
	require.True(t, s.Pan(-1e6))
	start, end = s.VisibleRange()
	assert.Equal(t, 0.0, start)
	assert.InDelta(t, 120, end, 1e-9)
	assert.False(t, s.Pan(-10))

	assert.False(t, s.Pan(math.NaN()))
	assert.False(t, s.Pan(0))
}

func TestState_WheelZoomKeepsAnchor(t *testing.T) {
	tests := []struct {
		name   string
		pivot  float64
		deltaY float64
	}{
		{"zoom in center", 500, -1},
		{"zoom in left", 120, -3},
		{"zoom out right", 870, 1},
		{"fractional notch", 333, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(t, 5000)
			s.Pan(-20000)

			anchor := s.ToDataIndex(tt.pivot)
			require.True(t, s.WheelZoom(tt.pivot, tt.deltaY))
			assert.InDelta(t, tt.pivot, s.ToPixelX(anchor), 1)
			assert.InDelta(t, tt.pivot, s.ToPixelX(s.ToDataIndex(tt.pivot)), 1)
		})
	}
}

func TestState_WheelZoomLimits(t *testing.T) {
	s := newTestState(t, 500)

	s.WheelZoom(500, 100)
	start, end := s.VisibleRange()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 500.0, end)

	s.WheelZoom(500, -100)
	start, end = s.VisibleRange()
	assert.InDelta(t, 5, end-start, 1e-9)

	// zooming further in is a no-op once at the minimum
	assert.False(t, s.WheelZoom(500, -1))
	assert.False(t, s.WheelZoom(500, 0))
}

func TestState_MaxVisibleBars(t *testing.T) {
	cfg := ConfigFromSettings(core.DefaultSettings())
	cfg.MaxVisibleBars = 200
	s := New(cfg, nil)
	s.Initialize(1000, 1000, 400, core.Timeframe1h)

	s.WheelZoom(500, 50)
	start, end := s.VisibleRange()
	assert.InDelta(t, 200, end-start, 1e-9)
}

func TestState_RandomSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := newTestState(t, 800)

	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			s.Pan((rng.Float64() - 0.5) * 3000)
		case 1:
			s.WheelZoom(rng.Float64()*1000, (rng.Float64()-0.5)*10)
		case 2:
			s.SetCanvasSize(rng.Float64()*2000-100, rng.Float64()*1000)
		}

		start, end := s.VisibleRange()
		require.Less(t, start, end, "step %d", i)
		require.GreaterOrEqual(t, start, 0.0, "step %d", i)
		require.LessOrEqual(t, end, 800.0, "step %d", i)
		require.False(t, math.IsNaN(start) || math.IsNaN(end))
	}
}

func TestState_TinyDatasetStaysInsideData(t *testing.T) {
	for _, total := range []int{1, 2, 3, 4} {
		rng := rand.New(rand.NewSource(int64(total)))
		s := newTestState(t, total)

		start, end := s.VisibleRange()
		require.Equal(t, 0.0, start)
		require.Equal(t, float64(total), end)

		for i := 0; i < 500; i++ {
			if rng.Intn(2) == 0 {
				s.Pan((rng.Float64() - 0.5) * 2000)
			} else {
				s.WheelZoom(rng.Float64()*1000, (rng.Float64()-0.5)*10)
			}

			start, end := s.VisibleRange()
			require.Less(t, start, end, "total %d step %d", total, i)
			require.GreaterOrEqual(t, start, 0.0, "total %d step %d", total, i)
			require.LessOrEqual(t, end, float64(total), "total %d step %d", total, i)
		}
	}
}

func TestState_RoundTrip(t *testing.T) {
	s := newTestState(t, 500)
	s.SetPriceRange(90, 110)

	for i := 380.0; i < 500; i += 7.25 {
		assert.InDelta(t, i, s.ToDataIndex(s.ToPixelX(i)), 1e-9)
	}
	for p := 90.0; p <= 110; p += 1.5 {
		assert.InDelta(t, p, s.ToPrice(s.ToPixelY(p)), 1e-9)
	}

	// higher price, smaller y
	assert.Less(t, s.ToPixelY(109), s.ToPixelY(91))
	assert.Equal(t, 400.0, s.ToPixelY(90))
	assert.Equal(t, 0.0, s.ToPixelY(110))
}

func TestState_SetCanvasSize(t *testing.T) {
	s := newTestState(t, 500)
	before := s.Bounds()

	assert.False(t, s.SetCanvasSize(0, 300))
	assert.False(t, s.SetCanvasSize(math.Inf(1), 300))
	assert.Equal(t, before, s.Bounds())

	require.True(t, s.SetCanvasSize(500, 200))
	start, end := s.VisibleRange()
	assert.Equal(t, before.VisibleStart, start)
	assert.Equal(t, before.VisibleEnd, end)
	assert.InDelta(t, 500.0/120, s.BarWidthPx(), 1e-9)
}

func TestState_FetchRequest(t *testing.T) {
	s := newTestState(t, 500)
	s.SetLoadedRange(300, 500)

	var requests []FetchRequest
	s.OnFetch(func(r FetchRequest) { requests = append(requests, r) })

	s.Pan(-100)
	assert.Empty(t, requests)

	s.Pan(-1000)
	require.Len(t, requests, 1)
	assert.Equal(t, FetchRequest{From: 248, To: 500, Timeframe: core.Timeframe1h}, requests[0])
}

func TestState_SetTotalBarsFollow(t *testing.T) {
	s := newTestState(t, 500)
	s.SetTotalBars(510, true)
	start, end := s.VisibleRange()
	assert.Equal(t, 390.0, start)
	assert.Equal(t, 510.0, end)
	_, le := s.LoadedRange()
	assert.Equal(t, 510, le)

	s.SetTotalBars(520, false)
	start, end = s.VisibleRange()
	assert.Equal(t, 390.0, start)
	assert.Equal(t, 510.0, end)

	s.SetTotalBars(100, true)
	start, end = s.VisibleRange()
	assert.LessOrEqual(t, end, 100.0)
	assert.Less(t, start, end)
}

func TestState_ApplyTimeframe(t *testing.T) {
	cfg := ConfigFromSettings(core.DefaultSettings())
	cfg.VisibleBarsByTimeframe = map[core.Timeframe]int{core.Timeframe1d: 30}
	s := New(cfg, nil)
	s.Initialize(1000, 1000, 400, core.Timeframe1h)
	s.Pan(-5000)

	s.ApplyTimeframe(core.Timeframe1d, 42)
	start, end := s.VisibleRange()
	assert.Equal(t, 12.0, start)
	assert.Equal(t, 42.0, end)
	assert.Equal(t, core.Timeframe1d, s.Timeframe())
	assert.Equal(t, 42, s.TotalBars())
}

func TestState_Autoscale(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, 10)
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = core.Bar{Time: base.Add(time.Duration(i) * time.Hour), Open: p, High: p + 1, Low: p - 1, Close: p, Volume: float64(i * 10)}
	}

	s := New(ConfigFromSettings(core.DefaultSettings()), nil)
	s.Initialize(len(bars), 500, 300, core.Timeframe1h)
	s.Autoscale(bars)

	low, high := s.PriceRange()
	// lows 99..108 and highs 101..110, padded by 5% of 11
	assert.InDelta(t, 99-0.55, low, 1e-9)
	assert.InDelta(t, 110+0.55, high, 1e-9)

	_, vmax := s.VolumeRange()
	assert.Equal(t, 90.0, vmax)
	assert.Equal(t, 1.0, s.VolumeRatio(90))
	assert.Equal(t, 0.0, s.VolumeRatio(-5))

	first, last := s.VisibleIndices()
	assert.Equal(t, 0, first)
	assert.Equal(t, 10, last)
}

func TestState_AutoscaleFlatPrices(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{
		{Time: base, Open: 50, High: 50, Low: 50, Close: 50},
		{Time: base.Add(time.Hour), Open: 50, High: 50, Low: 50, Close: 50},
	}
	s := New(ConfigFromSettings(core.DefaultSettings()), nil)
	s.Initialize(len(bars), 500, 300, core.Timeframe1h)
	s.Autoscale(bars)

	low, high := s.PriceRange()
	assert.Less(t, low, 50.0)
	assert.Greater(t, high, 50.0)
}
