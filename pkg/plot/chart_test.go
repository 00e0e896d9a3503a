package plot

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	chartdrawing "github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/chartview/pkg/canvas"
	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/drawing"
	"github.com/raykavin/chartview/pkg/feed"
	"github.com/raykavin/chartview/pkg/indicator"
	"github.com/raykavin/chartview/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testBars(n int) []core.Bar {
	bars := make([]core.Bar, n)
	for i := range bars {
		p := 100 + 10*math.Sin(float64(i)/8)
		bars[i] = core.Bar{
			Time:   testStart.Add(time.Duration(i) * time.Hour),
			Open:   p,
			High:   p + 1,
			Low:    p - 1,
			Close:  p + 0.5,
			Volume: float64(100 + i),
		}
	}
	return bars
}

func newLoadedChart(t *testing.T, opts ...Option) (*Chart, *canvas.Recorder) {
	t.Helper()
	c := NewChart(append([]Option{WithSize(800, 450)}, opts...)...)
	require.NoError(t, c.LoadBars("BTCUSDT", core.Timeframe1h, testBars(200)))
	return c, canvas.NewRecorder(800, 450)
}

func TestChart_FlushCoalescesRequests(t *testing.T) {
	c, rec := newLoadedChart(t)

	c.Pan(-50)
	c.WheelZoom(300, -1)
	c.RequestRender()
	require.True(t, c.Pending())

	assert.True(t, c.Flush(rec))
	assert.False(t, c.Pending())
	assert.False(t, c.Flush(rec))
	assert.Equal(t, 1, c.Readout().Frames)
	assert.Equal(t, 1, rec.Count(canvas.OpClear))
}

type reentrantSurface struct {
	*canvas.Recorder
	chart  *Chart
	nested []bool
}

func (r *reentrantSurface) Clear(col chartdrawing.Color) {
	r.chart.RequestRender()
	r.nested = append(r.nested, r.chart.Flush(r))
	r.Recorder.Clear(col)
}

func TestChart_FlushIsNotReentrant(t *testing.T) {
	c, rec := newLoadedChart(t)
	s := &reentrantSurface{Recorder: rec, chart: c}

	require.True(t, c.Flush(s))
	assert.Equal(t, []bool{false}, s.nested)
	assert.Equal(t, 1, c.Readout().Frames)

	// the request made during the frame is kept for the next flush
	assert.True(t, c.Pending())
}

func TestChart_LoadBarsRejectsInvalidInput(t *testing.T) {
	c, _ := newLoadedChart(t)
	var diags []error
	c.OnDiagnostic(func(err error) { diags = append(diags, err) })

	bad := testBars(10)
	bad[3].High = bad[3].Low - 5
	err := c.LoadBars("BTCUSDT", core.Timeframe1h, bad)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindInput))
	assert.ErrorIs(t, err, core.ErrInvalidBar)

	unordered := testBars(10)
	unordered[5].Time = unordered[4].Time
	assert.ErrorIs(t, c.LoadBars("BTCUSDT", core.Timeframe1h, unordered), core.ErrNonMonotonicTime)

	assert.Len(t, c.Bars(), 200)
	assert.Len(t, diags, 2)
	assert.Equal(t, feed.StatusReady, c.Readout().Status)
}

func TestChart_SetIndicators(t *testing.T) {
	c, rec := newLoadedChart(t)

	err := c.SetIndicators([]indicator.Line{{Name: "short", Values: make(core.Series[float64], 10), Overlay: true}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMisalignedIndicator)
	assert.True(t, core.IsKind(err, core.KindInput))

	values := make(core.Series[float64], 200)
	for i := range values {
		values[i] = 100
		if i == 190 {
			values[i] = math.NaN()
		}
	}
	require.NoError(t, c.SetIndicators([]indicator.Line{{Name: "flat", Color: "#ffffff", Values: values, Overlay: true}}))

	require.True(t, c.Flush(rec))
	// the NaN splits the visible part of the line in two
	assert.Equal(t, 2, rec.Count(canvas.OpPolyline))
}

func TestChart_ProvidersFollowBars(t *testing.T) {
	c, rec := newLoadedChart(t, WithIndicators(indicator.SMA(20, "#ffeb3b")))

	require.True(t, c.Flush(rec))
	assert.Equal(t, 1, rec.Count(canvas.OpPolyline))

	next := testBars(201)[200]
	require.NoError(t, c.AppendBar(next))
	rec.Reset()
	require.True(t, c.Flush(rec))
	assert.Equal(t, 1, rec.Count(canvas.OpPolyline))
}

// shortOnSmallSeries returns a line one value short when given fewer than 100 bars
type shortOnSmallSeries struct{}

func (shortOnSmallSeries) Name() string { return "short" }
func (shortOnSmallSeries) Warmup() int { return 0 }
func (shortOnSmallSeries) Compute(bars []core.Bar) []indicator.Line {
	n := len(bars)
	if n < 100 {
		n--
	}
	return []indicator.Line{{Name: "short", Values: make(core.Series[float64], max(n, 0)), Overlay: true}}
}

func TestChart_SetTimeframeRejectsMisalignedProvider(t *testing.T) {
	c, _ := newLoadedChart(t, WithIndicators(shortOnSmallSeries{}))

	err := c.SetTimeframe(core.Timeframe4h, testBars(50))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMisalignedIndicator)
	assert.Len(t, c.Bars(), 200)
	assert.Equal(t, core.Timeframe1h, c.Bounds().Timeframe)
}

func TestChart_PanAndZoomEvents(t *testing.T) {
	c, _ := newLoadedChart(t)

	var pans, zooms []viewport.Bounds
	c.OnPan(func(b viewport.Bounds) { pans = append(pans, b) })
	c.OnZoom(func(b viewport.Bounds) { zooms = append(zooms, b) })

	assert.False(t, c.Pan(100), "already at the newest bar")
	assert.True(t, c.Pan(-100))
	assert.False(t, c.Pan(0))
	require.Len(t, pans, 1)
	assert.Less(t, pans[0].VisibleEnd, 200.0)

	assert.True(t, c.WheelZoom(300, -1))
	require.Len(t, zooms, 1)
	assert.Less(t, zooms[0].VisibleEnd-zooms[0].VisibleStart, pans[0].VisibleEnd-pans[0].VisibleStart)
}

func TestChart_FetchRequest(t *testing.T) {
	c, _ := newLoadedChart(t)

	var requests []viewport.FetchRequest
	c.OnFetchRequest(func(r viewport.FetchRequest) { requests = append(requests, r) })

	c.SetLoadedRange(150, 200)
	c.Pan(-1e6)

	require.NotEmpty(t, requests)
	assert.Equal(t, core.Timeframe1h, requests[0].Timeframe)
	assert.Less(t, requests[0].From, 150)
}

func TestChart_PointerBeforeSurface(t *testing.T) {
	c, _ := newLoadedChart(t)
	var diags []error
	c.OnDiagnostic(func(err error) { diags = append(diags, err) })

	require.NoError(t, c.SetTool(drawing.KindHorizontalRay))
	c.PointerDown(100, 100)

	require.Len(t, diags, 1)
	assert.True(t, core.IsKind(diags[0], core.KindPrecondition))
	assert.ErrorIs(t, diags[0], core.ErrCanvasNotSet)
	assert.Empty(t, c.Annotations())
}

func TestChart_DrawingThroughChart(t *testing.T) {
	c, rec := newLoadedChart(t)
	require.True(t, c.Flush(rec))

	var changes []drawing.Change
	c.OnAnnotationsChanged(func(ch drawing.Change) { changes = append(changes, ch) })

	// presses in the price gutter are not drawing input
	require.NoError(t, c.SetTool(drawing.KindHorizontalRay))
	c.PointerDown(790, 100)
	assert.Empty(t, c.Annotations())

	c.PointerDown(100, 100)
	c.PointerUp(100, 100)
	require.Len(t, c.Annotations(), 1)
	require.Len(t, changes, 1)
	assert.Equal(t, drawing.ChangeAdded, changes[0].Op)
	assert.Equal(t, drawing.KindCursor, c.Readout().Tool)
	assert.True(t, c.Pending())

	require.True(t, c.Flush(rec))
	assert.Equal(t, 1, c.LastFrame().Annotations)
}

func TestChart_DebugOverlay(t *testing.T) {
	c, rec := newLoadedChart(t)

	var settings []core.Settings
	c.OnSettingsChanged(func(s core.Settings) { settings = append(settings, s) })

	c.SetDebugOverlay(true)
	c.SetDebugOverlay(true)
	require.Len(t, settings, 1)
	assert.True(t, settings[0].ShowDebugOverlay)

	require.True(t, c.Flush(rec))
	var overlay []string
	for _, text := range rec.Texts() {
		if strings.HasPrefix(text, "window ") || strings.HasPrefix(text, "tool ") {
			overlay = append(overlay, text)
		}
	}
	assert.Len(t, overlay, 2)
	assert.Contains(t, overlay[1], "state idle")
}

func TestChart_Readout(t *testing.T) {
	c, _ := newLoadedChart(t)

	r := c.Readout()
	assert.Equal(t, "BTCUSDT", r.Symbol)
	assert.Equal(t, core.Timeframe1h, r.Timeframe)
	assert.Equal(t, 200, r.Bars)
	assert.Equal(t, feed.StatusReady, r.Status)
	assert.Equal(t, drawing.KindCursor, r.Tool)
	assert.Equal(t, drawing.StateIdle, r.DrawState)
	assert.NoError(t, r.Err)
}

func TestChart_AppendBar(t *testing.T) {
	c, _ := newLoadedChart(t)
	bars := testBars(201)

	require.NoError(t, c.AppendBar(bars[200]))
	assert.Len(t, c.Bars(), 201)
	assert.Equal(t, 201, c.Bounds().TotalBars)
	assert.Equal(t, 201.0, c.Bounds().VisibleEnd)

	update := bars[200]
	update.Close = update.High
	require.NoError(t, c.AppendBar(update))
	assert.Len(t, c.Bars(), 201)
	assert.Equal(t, update.High, c.Bars()[200].Close)

	err := c.AppendBar(bars[10])
	assert.ErrorIs(t, err, core.ErrNonMonotonicTime)
	assert.Len(t, c.Bars(), 201)
}

func TestChart_SetTimeframe(t *testing.T) {
	c, _ := newLoadedChart(t)

	require.NoError(t, c.SetTimeframe(core.Timeframe4h, testBars(50)))
	b := c.Bounds()
	assert.Equal(t, core.Timeframe4h, b.Timeframe)
	assert.Equal(t, 50, b.TotalBars)
	assert.Equal(t, 50.0, b.VisibleEnd)

	assert.ErrorIs(t, c.SetTimeframe("7x", testBars(5)), core.ErrInvalidTimeframe)
	assert.Len(t, c.Bars(), 50)
}

func TestChart_LabelsNeverOverlap(t *testing.T) {
	c, rec := newLoadedChart(t)

	for _, step := range []float64{0, -40, -400, -15} {
		c.Pan(step)
		c.RequestRender()
		rec.Reset()
		require.True(t, c.Flush(rec))

		f := c.LastFrame()
		require.NotEmpty(t, f.Labels)
		assert.LessOrEqual(t, len(f.Labels), f.LabelCandidates)
		for i := range f.Labels {
			for j := i + 1; j < len(f.Labels); j++ {
				assert.False(t, f.Labels[i].Box.Intersects(f.Labels[j].Box),
					"%q overlaps %q", f.Labels[i].Text, f.Labels[j].Text)
			}
		}
	}
}

func TestChart_LastPriceLabelWins(t *testing.T) {
	c, rec := newLoadedChart(t)
	require.True(t, c.Flush(rec))

	var found bool
	for _, l := range c.LastFrame().Labels {
		if l.Group == groupLastPrice {
			found = true
			assert.Equal(t, c.Bars()[199].Close, l.Value)
		}
	}
	assert.True(t, found)
}

func TestChart_KeyLevels(t *testing.T) {
	c, rec := newLoadedChart(t)
	assert.Empty(t, c.KeyLevels())

	require.True(t, c.Flush(rec))
	lv := c.KeyLevels()
	require.NotEmpty(t, lv)
	assert.LessOrEqual(t, len(lv), c.Settings().MaxKeyLevels)
	for i := 1; i < len(lv); i++ {
		assert.GreaterOrEqual(t, lv[i-1].Score, lv[i].Score)
	}
}

func TestChart_StatusText(t *testing.T) {
	c := NewChart()
	rec := canvas.NewRecorder(640, 360)

	c.RequestRender()
	require.True(t, c.Flush(rec))
	assert.Contains(t, rec.Texts(), "Loading...")

	require.NoError(t, c.LoadSnapshot(feed.Failed("ETHUSDT", core.Timeframe1d, errors.New("boom"))))
	rec.Reset()
	require.True(t, c.Flush(rec))
	assert.Contains(t, rec.Texts(), "Error: boom")
	assert.Equal(t, feed.StatusError, c.Readout().Status)
}

func TestChart_ResizeKeepsWindow(t *testing.T) {
	c, _ := newLoadedChart(t)
	before := c.Bounds()

	assert.False(t, c.Resize(0, 100))
	assert.True(t, c.Resize(1200, 600))

	after := c.Bounds()
	assert.Equal(t, before.VisibleStart, after.VisibleStart)
	assert.Equal(t, before.VisibleEnd, after.VisibleEnd)
	assert.Equal(t, 1200-c.Settings().AxisGutterPx, after.WidthPx)
}
