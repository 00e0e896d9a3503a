// Package plot orchestrates a chart frame: it owns the viewport and drawing engine, reacts to host
// input and paints bars, axes, levels, annotations and labels onto a canvas.Surface.
package plot

import (
	"fmt"
	"math"
	"time"

	"github.com/raykavin/chartview/pkg/canvas"
	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/drawing"
	"github.com/raykavin/chartview/pkg/feed"
	"github.com/raykavin/chartview/pkg/indicator"
	"github.com/raykavin/chartview/pkg/levels"
	"github.com/raykavin/chartview/pkg/logger"
	"github.com/raykavin/chartview/pkg/viewport"
)

// Chart is one interactive chart instance. It is driven from a single goroutine: input methods
// mutate state and request a frame, Flush paints it.
type Chart struct {
	settings core.Settings
	theme    Theme
	loc      *time.Location
	log      logger.Logger

	vp       *viewport.State
	drawings *drawing.Engine

	providers []indicator.Provider
	computed  []indicator.Line
	external  []indicator.Line

	symbol    string
	timeframe core.Timeframe
	bars      []core.Bar
	status    feed.Status
	statusErr error

	width, height float64

	pending   bool
	rendering bool
	frames    int
	last      Frame

	events events
}

// Option defines a function type for configuring a Chart instance
type Option func(*Chart)

func WithLogger(log logger.Logger) Option {
	return func(c *Chart) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSettings replaces the default settings; invalid values are normalized
func WithSettings(s core.Settings) Option {
	return func(c *Chart) {
		c.settings = s.Normalize()
	}
}

// WithIndicators adds providers recomputed whenever bars change
func WithIndicators(providers ...indicator.Provider) Option {
	return func(c *Chart) {
		c.providers = append(c.providers, providers...)
	}
}

// WithDebugOverlay toggles the diagnostic text overlay
func WithDebugOverlay(on bool) Option {
	return func(c *Chart) {
		c.settings.ShowDebugOverlay = on
	}
}

// WithLocation sets the time zone used to align and label the time axis
func WithLocation(loc *time.Location) Option {
	return func(c *Chart) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithTheme(t Theme) Option {
	return func(c *Chart) {
		c.theme = t
	}
}

// WithSize sets the initial surface size used before a surface is attached
func WithSize(width, height float64) Option {
	return func(c *Chart) {
		if validSize(width, height) {
			c.width, c.height = width, height
		}
	}
}

// NewChart creates a chart with no data. Pointer input is rejected until a surface is attached
// with AttachSurface or Flush.
func NewChart(options ...Option) *Chart {
	c := &Chart{
		settings: core.DefaultSettings(),
		theme:    DefaultTheme(),
		loc:      time.UTC,
		log:      logger.Nop(),
		width:    800,
		height:   450,
		status:   feed.StatusPending,
	}
	for _, option := range options {
		option(c)
	}

	c.vp = viewport.New(viewport.ConfigFromSettings(c.settings), c.log.WithField("component", "viewport"))
	w, h := c.plotSize()
	c.vp.Initialize(0, w, h, "")
	c.vp.OnFetch(c.events.fetch)

	c.drawings = drawing.NewEngine(c.vp,
		drawing.WithLogger(c.log.WithField("component", "drawing")),
		drawing.WithTolerance(c.settings.HitTolerancePx),
		drawing.WithStickyTools(c.settings.StickyTools),
	)
	c.drawings.OnChange(func(change drawing.Change) {
		c.events.annotations(change)
		c.RequestRender()
	})
	c.drawings.OnDiagnostic(c.events.diagnostic)

	return c
}

// LoadSnapshot applies a data collaborator result. Pending and failed snapshots keep the bars
// already on screen and only change the reported status.
func (c *Chart) LoadSnapshot(snap feed.Snapshot) error {
	switch snap.Status {
	case feed.StatusPending:
		c.status, c.statusErr = feed.StatusPending, nil
		c.RequestRender()
		return nil
	case feed.StatusError:
		c.status, c.statusErr = feed.StatusError, snap.Err
		c.log.WithError(snap.Err).WithField("symbol", snap.Symbol).Warn("data load failed")
		c.RequestRender()
		return nil
	}
	return c.LoadBars(snap.Symbol, snap.Timeframe, snap.Bars)
}

// LoadBars replaces the bar series. Invalid bars are rejected with an InputError and the previous
// series stays on screen. Loading more bars for the same symbol and timeframe keeps the window
// following the newest bar.
func (c *Chart) LoadBars(symbol string, tf core.Timeframe, bars []core.Bar) error {
	if err := core.ValidateBars(bars); err != nil {
		c.reject("load bars", err)
		return err
	}

	computed := indicator.Compute(bars, c.providers...)
	if err := indicator.CheckAligned(computed, len(bars)); err != nil {
		c.reject("load bars", err)
		return err
	}

	sameSeries := symbol == c.symbol && tf == c.timeframe && len(c.bars) > 0 && len(bars) > 0 &&
		bars[0].Time.Equal(c.bars[0].Time)
	switch {
	case sameSeries:
		c.vp.SetTotalBars(len(bars), true)
	case symbol == c.symbol && tf != c.timeframe && len(c.bars) > 0:
		c.vp.ApplyTimeframe(tf, len(bars))
	default:
		w, h := c.plotSize()
		c.vp.Initialize(len(bars), w, h, tf)
	}

	if len(c.external) > 0 && len(bars) != len(c.bars) {
		c.log.Debug("dropping external indicators misaligned with new bars")
		c.external = nil
	}

	c.symbol, c.timeframe, c.bars, c.computed = symbol, tf, bars, computed
	c.status, c.statusErr = feed.StatusReady, nil
	c.log.WithFields(map[string]any{"symbol": symbol, "timeframe": tf.String(), "bars": len(bars)}).Debug("bars loaded")
	c.RequestRender()
	return nil
}

// SetTimeframe switches to bars of another granularity and resets the window to its default span
func (c *Chart) SetTimeframe(tf core.Timeframe, bars []core.Bar) error {
	if _, err := core.ParseTimeframe(tf.String()); err != nil {
		err = core.NewError(core.KindInput, "set timeframe", err)
		c.reject("set timeframe", err)
		return err
	}
	if len(c.bars) == 0 {
		return c.LoadBars(c.symbol, tf, bars)
	}

	if err := core.ValidateBars(bars); err != nil {
		c.reject("set timeframe", err)
		return err
	}
	computed := indicator.Compute(bars, c.providers...)
	if err := indicator.CheckAligned(computed, len(bars)); err != nil {
		c.reject("set timeframe", err)
		return err
	}

	c.vp.ApplyTimeframe(tf, len(bars))
	c.timeframe, c.bars, c.computed, c.external = tf, bars, computed, nil
	c.status, c.statusErr = feed.StatusReady, nil
	c.RequestRender()
	return nil
}

// AppendBar adds a live bar, or replaces the last one when it carries the same timestamp
func (c *Chart) AppendBar(bar core.Bar) error {
	if err := bar.Validate(); err != nil {
		err = core.NewError(core.KindInput, "append bar", err)
		c.reject("append bar", err)
		return err
	}

	bars := c.bars
	switch n := len(bars); {
	case n > 0 && bar.Time.Equal(bars[n-1].Time):
		bars = append(bars[:n-1:n-1], bar)
	case n > 0 && !bar.Time.After(bars[n-1].Time):
		err := core.NewError(core.KindInput, "append bar", fmt.Errorf("%w: %s", core.ErrNonMonotonicTime, bar.Time))
		c.reject("append bar", err)
		return err
	default:
		bars = append(bars[:n:n], bar)
	}

	if len(c.bars) == 0 {
		return c.LoadBars(c.symbol, c.timeframe, bars)
	}
	c.external = nil
	c.bars, c.computed = bars, indicator.Compute(bars, c.providers...)
	c.vp.SetTotalBars(len(bars), true)
	c.RequestRender()
	return nil
}

// SetIndicators installs precomputed lines. Every line must hold one value per bar.
func (c *Chart) SetIndicators(lines []indicator.Line) error {
	if err := indicator.CheckAligned(lines, len(c.bars)); err != nil {
		c.reject("set indicators", err)
		return err
	}
	c.external = lines
	c.RequestRender()
	return nil
}

func (c *Chart) reject(op string, err error) {
	c.log.WithError(err).WithField("op", op).Warn("rejected input, keeping previous data")
	c.events.diagnostic(err)
}

// AttachSurface binds the surface used for text measurement and sizes the chart to it
func (c *Chart) AttachSurface(s canvas.Surface) {
	c.drawings.SetCanvas(s)
	w, h := s.Size()
	c.Resize(w, h)
}

// Resize changes the surface size. The visible data window is unchanged.
func (c *Chart) Resize(width, height float64) bool {
	if !validSize(width, height) {
		c.log.Debugf("ignoring resize to %vx%v", width, height)
		return false
	}
	if width == c.width && height == c.height {
		return false
	}

	c.width, c.height = width, height
	w, h := c.plotSize()
	c.vp.SetCanvasSize(w, h)
	c.RequestRender()
	return true
}

// Pan scrolls by deltaPx; positive values reveal newer bars
func (c *Chart) Pan(deltaPx float64) bool {
	if !c.vp.Pan(deltaPx) {
		return false
	}
	c.events.pan(c.vp.Bounds())
	c.RequestRender()
	return true
}

// WheelZoom zooms around the bar under pivotPx; deltaY > 0 zooms out
func (c *Chart) WheelZoom(pivotPx, deltaY float64) bool {
	if !c.vp.WheelZoom(pivotPx, deltaY) {
		return false
	}
	c.events.zoom(c.vp.Bounds())
	c.RequestRender()
	return true
}

// SetLoadedRange tells the chart which bars [start, end) the host actually holds. Windows reaching
// outside that range raise OnFetchRequest.
func (c *Chart) SetLoadedRange(start, end int) {
	c.vp.SetLoadedRange(start, end)
}

// PointerDown forwards a press inside the price pane to the drawing engine
func (c *Chart) PointerDown(x, y float64) {
	w, h := c.plotSize()
	if x < 0 || y < 0 || x > w || y > h {
		return
	}
	c.drawings.HandlePointerDown(x, y)
	c.RequestRender()
}

func (c *Chart) PointerMove(x, y float64) {
	c.drawings.HandlePointerMove(x, y)
	if c.drawings.State() == drawing.StatePlacing || c.drawings.State() == drawing.StateDragging {
		c.RequestRender()
	}
}

func (c *Chart) PointerUp(x, y float64) {
	c.drawings.HandlePointerUp(x, y)
	c.RequestRender()
}

func (c *Chart) SetTool(kind drawing.Kind) error {
	if err := c.drawings.SetTool(kind); err != nil {
		return err
	}
	c.RequestRender()
	return nil
}

func (c *Chart) Escape() {
	c.drawings.Escape()
	c.RequestRender()
}

func (c *Chart) DeleteSelected() bool {
	return c.drawings.DeleteSelected()
}

// CompleteDrawing commits the shape being placed
func (c *Chart) CompleteDrawing() error {
	err := c.drawings.Complete()
	c.RequestRender()
	return err
}

// SetDebugOverlay toggles the diagnostic overlay and notifies settings listeners
func (c *Chart) SetDebugOverlay(on bool) {
	if c.settings.ShowDebugOverlay == on {
		return
	}
	c.settings.ShowDebugOverlay = on
	c.events.settings(c.settings)
	c.RequestRender()
}

// RequestRender marks the chart dirty. Any number of requests before the next Flush produce one
// frame.
func (c *Chart) RequestRender() {
	c.pending = true
}

// Pending reports whether a frame has been requested and not yet painted
func (c *Chart) Pending() bool {
	return c.pending
}

// Flush paints the pending frame onto s. It returns false when nothing was pending or a frame
// is already being painted.
func (c *Chart) Flush(s canvas.Surface) bool {
	if !c.pending || c.rendering {
		return false
	}
	c.rendering = true
	defer func() { c.rendering = false }()

	c.pending = false
	c.AttachSurface(s)
	c.pending = false // attaching may have requested a frame for the resize it applied

	c.last = c.Render(s)
	c.frames++
	return true
}

// Readout summarizes the chart for a host status bar
type Readout struct {
	Symbol      string
	Timeframe   core.Timeframe
	Tool        drawing.Kind
	DrawState   drawing.State
	Annotations int
	Status      feed.Status
	Err         error
	Bars        int
	Frames      int
}

func (c *Chart) Readout() Readout {
	return Readout{
		Symbol:      c.symbol,
		Timeframe:   c.timeframe,
		Tool:        c.drawings.Tool(),
		DrawState:   c.drawings.State(),
		Annotations: c.drawings.Count(),
		Status:      c.status,
		Err:         c.statusErr,
		Bars:        len(c.bars),
		Frames:      c.frames,
	}
}

// Bounds returns the viewport snapshot used by minimap widgets
func (c *Chart) Bounds() viewport.Bounds { return c.vp.Bounds() }

// LastFrame returns the statistics of the most recent frame painted by Flush
func (c *Chart) LastFrame() Frame { return c.last }

// KeyLevels returns the levels detected in the most recent frame
func (c *Chart) KeyLevels() []levels.Level { return c.last.Levels }

func (c *Chart) Annotations() []drawing.Annotation { return c.drawings.Annotations() }
func (c *Chart) Settings() core.Settings { return c.settings }
func (c *Chart) Bars() []core.Bar { return c.bars }
func (c *Chart) Viewport() *viewport.State { return c.vp }
func (c *Chart) Drawings() *drawing.Engine { return c.drawings }

// plotSize is the price pane extent: the surface minus the axis gutters and the volume pane
func (c *Chart) plotSize() (float64, float64) {
	w := math.Max(1, c.width-c.settings.AxisGutterPx)
	h := math.Max(1, (c.height-c.settings.TimeGutterPx)*(1-c.settings.VolumePaneRatio))
	return w, h
}

func validSize(w, h float64) bool {
	return w > 0 && h > 0 && !math.IsInf(w, 0) && !math.IsInf(h, 0)
}
