// Package viewport holds the geometric state of a chart: which bars are visible, how they map onto
// the canvas and how pan, zoom and resize move that window.
package viewport

import (
	"math"

	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/logger"
)

// Config holds the tuning values used by State
type Config struct {
	DefaultVisibleBars     int
	VisibleBarsByTimeframe map[core.Timeframe]int
	MinVisibleBars         int
	MaxVisibleBars         int // 0 means no limit besides the data length
	ZoomFactor             float64
	PricePadding           float64
}

// ConfigFromSettings extracts the viewport part of the chart settings
func ConfigFromSettings(s core.Settings) Config {
	s = s.Normalize()
	return Config{
		DefaultVisibleBars:     s.DefaultVisibleBars,
		VisibleBarsByTimeframe: s.VisibleBarsByTimeframe,
		MinVisibleBars:         s.MinVisibleBars,
		MaxVisibleBars:         s.MaxVisibleBars,
		ZoomFactor:             s.ZoomFactor,
		PricePadding:           s.PricePadding,
	}
}

// FetchRequest asks the data collaborator for bars in [From, To)
type FetchRequest struct {
	From, To  int
	Timeframe core.Timeframe
}

// Bounds is a read-only snapshot of the viewport, used by minimap widgets and event callbacks
type Bounds struct {
	VisibleStart, VisibleEnd float64
	LoadedStart, LoadedEnd   int
	TotalBars                int
	WidthPx, HeightPx        float64
	PriceMin, PriceMax       float64
	Timeframe                core.Timeframe
}

// State is the mutable geometric core of one chart instance.
// It is not safe for concurrent use.
type State struct {
	cfg Config
	log logger.Logger

	visibleStart, visibleEnd float64
	loadedStart, loadedEnd   int
	totalBars                int

	widthPx, heightPx  float64
	priceMin, priceMax float64
	volMin, volMax     float64

	timeframe core.Timeframe

	fetchListeners []func(FetchRequest)
}

// New creates a viewport showing an empty one-pixel canvas until Initialize is called
func New(cfg Config, log logger.Logger) *State {
	if log == nil {
		log = logger.Nop()
	}
	cfg = cfg.normalize()

	s := &State{cfg: cfg, log: log, widthPx: 1, heightPx: 1, priceMin: 0, priceMax: 1, volMax: 1}
	s.visibleEnd = float64(cfg.MinVisibleBars)
	return s
}

func (c Config) normalize() Config {
	def := ConfigFromSettings(core.DefaultSettings())
	if c.DefaultVisibleBars <= 0 {
		c.DefaultVisibleBars = def.DefaultVisibleBars
	}
	if c.MinVisibleBars <= 0 {
		c.MinVisibleBars = def.MinVisibleBars
	}
	if c.MaxVisibleBars < 0 || (c.MaxVisibleBars > 0 && c.MaxVisibleBars < c.MinVisibleBars) {
		c.MaxVisibleBars = 0
	}
	if !(c.ZoomFactor > 1) || math.IsInf(c.ZoomFactor, 0) {
		c.ZoomFactor = def.ZoomFactor
	}
	if c.PricePadding < 0 || c.PricePadding >= 0.5 || math.IsNaN(c.PricePadding) {
		c.PricePadding = def.PricePadding
	}
	return c
}

// OnFetch registers a listener invoked when the visible window leaves the loaded range
func (s *State) OnFetch(fn func(FetchRequest)) {
	s.fetchListeners = append(s.fetchListeners, fn)
}

// Initialize shows the most recent bars on a canvas of the given size. Degenerate input is
// clamped to a minimal window rather than rejected.
func (s *State) Initialize(totalBars int, widthPx, heightPx float64, tf core.Timeframe) {
	if totalBars < 0 {
		totalBars = 0
	}
	if !validExtent(widthPx) {
		s.log.Debugf("initialize: clamping width %v to 1px", widthPx)
		widthPx = 1
	}
	if !validExtent(heightPx) {
		s.log.Debugf("initialize: clamping height %v to 1px", heightPx)
		heightPx = 1
	}

	s.totalBars = totalBars
	s.loadedStart, s.loadedEnd = 0, totalBars
	s.widthPx, s.heightPx = widthPx, heightPx
	s.timeframe = tf
	s.resetWindow()
}

// ApplyTimeframe switches granularity. The caller must already hold totalBars bars of the new
// timeframe; the window resets to that timeframe's default span at the right edge.
func (s *State) ApplyTimeframe(tf core.Timeframe, totalBars int) {
	if totalBars < 0 {
		totalBars = 0
	}
	s.timeframe = tf
	s.totalBars = totalBars
	s.loadedStart, s.loadedEnd = 0, totalBars
	s.resetWindow()
}

func (s *State) resetWindow() {
	visible := s.cfg.DefaultVisibleBars
	if n, ok := s.cfg.VisibleBarsByTimeframe[s.timeframe]; ok && n > 0 {
		visible = n
	}

	end := s.domainEnd()
	span := s.clampSpan(float64(visible))
	s.visibleEnd = end
	s.visibleStart = math.Max(0, end-span)
}

// SetTotalBars updates the data length after bars were appended or trimmed. When follow is true
// and the window touched the old right edge, it shifts to keep showing the newest bar.
func (s *State) SetTotalBars(totalBars int, follow bool) {
	if totalBars < 0 {
		totalBars = 0
	}

	pinned := s.visibleEnd >= s.domainEnd()
	span := s.span()
	if s.loadedEnd >= s.totalBars || s.loadedEnd > totalBars {
		s.loadedEnd = totalBars
	}
	s.loadedStart = min(s.loadedStart, s.loadedEnd)
	s.totalBars = totalBars

	start := s.visibleStart
	if follow && pinned {
		start = s.domainEnd() - span
	}
	start, end := s.clampWindow(start, span)
	s.commit("set total bars", start, end)
}

// SetLoadedRange records which bars are actually available locally
func (s *State) SetLoadedRange(start, end int) {
	start = max(0, start)
	end = max(start, end)
	s.loadedStart, s.loadedEnd = start, end
}

// SetCanvasSize changes the pixel extent without touching the visible data window.
// Non-positive or non-finite sizes are rejected.
func (s *State) SetCanvasSize(widthPx, heightPx float64) bool {
	if !validExtent(widthPx) || !validExtent(heightPx) {
		s.geometryError("set canvas size", widthPx, heightPx)
		return false
	}
	s.widthPx, s.heightPx = widthPx, heightPx
	return true
}

// Pan shifts the window by deltaPx/barWidth bars; positive values move toward newer bars.
// Panning against a data boundary is a no-op. It reports whether the window moved.
func (s *State) Pan(deltaPx float64) bool {
	if deltaPx == 0 || math.IsNaN(deltaPx) || math.IsInf(deltaPx, 0) {
		return false
	}

	shift := deltaPx / s.BarWidthPx()
	start, end := s.clampWindow(s.visibleStart+shift, s.span())
	return s.commit("pan", start, end)
}

// WheelZoom scales the window by ZoomFactor^deltaY around the bar under pivotPx, keeping that bar
// at the same screen position. deltaY > 0 zooms out, deltaY < 0 zooms in.
func (s *State) WheelZoom(pivotPx, deltaY float64) bool {
	if deltaY == 0 || math.IsNaN(deltaY) || math.IsInf(deltaY, 0) || math.IsNaN(pivotPx) || math.IsInf(pivotPx, 0) {
		return false
	}

	anchor := s.ToDataIndex(pivotPx)
	ratio := (anchor - s.visibleStart) / s.span()

	span := s.clampSpan(s.span() * math.Pow(s.cfg.ZoomFactor, deltaY))
	start := anchor - ratio*span
	start, end := s.clampWindow(start, span)
	return s.commit("zoom", start, end)
}

// commit installs a candidate window if it is valid and reports whether anything changed
func (s *State) commit(op string, start, end float64) bool {
	if !isFinite(start) || !isFinite(end) || start >= end {
		s.geometryError(op, start, end)
		return false
	}
	if math.Abs(start-s.visibleStart) < epsilon && math.Abs(end-s.visibleEnd) < epsilon {
		return false
	}

	s.visibleStart, s.visibleEnd = start, end
	s.checkLoaded()
	return true
}

func (s *State) checkLoaded() {
	if s.totalBars == 0 || len(s.fetchListeners) == 0 {
		return
	}

	first := int(math.Floor(s.visibleStart))
	last := min(int(math.Ceil(s.visibleEnd)), s.totalBars)
	if first >= s.loadedStart && last <= s.loadedEnd {
		return
	}

	req := FetchRequest{From: min(first, s.loadedStart), To: max(last, s.loadedEnd), Timeframe: s.timeframe}
	s.log.WithFields(map[string]any{"from": req.From, "to": req.To}).Debug("visible window outside loaded range")
	for _, fn := range s.fetchListeners {
		fn(req)
	}
}

func (s *State) geometryError(op string, a, b float64) {
	err := core.NewError(core.KindGeometry, op, core.ErrDegenerateGeometry)
	s.log.WithError(err).Debugf("rejected %v, %v; keeping previous state", a, b)
}

// domainEnd is the right bound for the window. Without data a minimal empty window is shown.
func (s *State) domainEnd() float64 {
	if s.totalBars == 0 {
		return float64(s.cfg.MinVisibleBars)
	}
	return float64(s.totalBars)
}

// minSpan is the zoom-in limit, never wider than the data
func (s *State) minSpan() float64 {
	return math.Min(float64(s.cfg.MinVisibleBars), s.domainEnd())
}

func (s *State) maxSpan() float64 {
	limit := s.domainEnd()
	if s.cfg.MaxVisibleBars > 0 {
		limit = math.Min(limit, float64(s.cfg.MaxVisibleBars))
	}
	return math.Max(limit, s.minSpan())
}

func (s *State) clampSpan(span float64) float64 {
	if math.IsNaN(span) {
		return s.span()
	}
	return math.Max(s.minSpan(), math.Min(span, s.maxSpan()))
}

// clampWindow places a window of the given span starting at start inside [0, domainEnd]
func (s *State) clampWindow(start, span float64) (float64, float64) {
	domain := s.domainEnd()
	span = math.Min(span, domain)
	if start < 0 {
		start = 0
	}
	if start+span > domain {
		return math.Max(0, domain-span), domain
	}
	return start, start + span
}

func (s *State) span() float64 { return s.visibleEnd - s.visibleStart }

// BarWidthPx is the horizontal pixel extent of one bar
func (s *State) BarWidthPx() float64 {
	return s.widthPx / s.span()
}

// Autoscale derives the price and volume ranges from the bars inside the visible window, padding
// the price range by the configured fraction. Windows without bars keep the previous ranges.
func (s *State) Autoscale(bars []core.Bar) {
	first, last := s.VisibleIndices()
	if last > len(bars) {
		last = len(bars)
	}

	low, high, ok := core.PriceRange(bars, first, last)
	if !ok {
		return
	}

	if high-low <= 0 {
		pad := math.Max(math.Abs(high)*0.01, 1)
		low, high = low-pad, high+pad
	} else {
		pad := (high - low) * s.cfg.PricePadding
		low, high = low-pad, high+pad
	}
	if isFinite(low) && isFinite(high) && low < high {
		s.priceMin, s.priceMax = low, high
	}

	volMax := 0.0
	for _, bar := range bars[first:last] {
		volMax = math.Max(volMax, bar.Volume)
	}
	s.volMin = 0
	s.volMax = math.Max(volMax, 1e-12)
}

// SetPriceRange overrides the derived price range; invalid ranges are rejected
func (s *State) SetPriceRange(low, high float64) bool {
	if !isFinite(low) || !isFinite(high) || low >= high {
		s.geometryError("set price range", low, high)
		return false
	}
	s.priceMin, s.priceMax = low, high
	return true
}

// ToPixelX maps a continuous bar index to a canvas X coordinate
func (s *State) ToPixelX(index float64) float64 {
	return (index - s.visibleStart) / s.span() * s.widthPx
}

// ToDataIndex maps a canvas X coordinate to a continuous bar index
func (s *State) ToDataIndex(x float64) float64 {
	return s.visibleStart + x/s.widthPx*s.span()
}

// ToPixelY maps a price to a canvas Y coordinate; higher prices get smaller Y values
func (s *State) ToPixelY(price float64) float64 {
	return s.heightPx - (price-s.priceMin)/(s.priceMax-s.priceMin)*s.heightPx
}

// ToPrice maps a canvas Y coordinate to a price
func (s *State) ToPrice(y float64) float64 {
	return s.priceMax - y/s.heightPx*(s.priceMax-s.priceMin)
}

// VolumeRatio maps a volume to [0,1] of the volume scale
func (s *State) VolumeRatio(v float64) float64 {
	if s.volMax <= s.volMin {
		return 0
	}
	return math.Max(0, math.Min(1, (v-s.volMin)/(s.volMax-s.volMin)))
}

// VisibleIndices returns the integer bar range [first, last) intersecting the window, clamped to
// the data length
func (s *State) VisibleIndices() (first, last int) {
	first = max(0, int(math.Floor(s.visibleStart)))
	last = min(s.totalBars, int(math.Ceil(s.visibleEnd)))
	if last < first {
		last = first
	}
	return first, last
}

func (s *State) VisibleRange() (start, end float64) { return s.visibleStart, s.visibleEnd }
func (s *State) LoadedRange() (start, end int) { return s.loadedStart, s.loadedEnd }
func (s *State) PriceRange() (low, high float64) { return s.priceMin, s.priceMax }
func (s *State) VolumeRange() (low, high float64) { return s.volMin, s.volMax }
func (s *State) CanvasSize() (w, h float64) { return s.widthPx, s.heightPx }
func (s *State) TotalBars() int { return s.totalBars }
func (s *State) Timeframe() core.Timeframe { return s.timeframe }

// Bounds returns a snapshot of the current state
func (s *State) Bounds() Bounds {
	return Bounds{
		VisibleStart: s.visibleStart,
		VisibleEnd:   s.visibleEnd,
		LoadedStart:  s.loadedStart,
		LoadedEnd:    s.loadedEnd,
		TotalBars:    s.totalBars,
		WidthPx:      s.widthPx,
		HeightPx:     s.heightPx,
		PriceMin:     s.priceMin,
		PriceMax:     s.priceMax,
		Timeframe:    s.timeframe,
	}
}

// epsilon is the smallest window change, in bars, treated as a move
const epsilon = 1e-9

func validExtent(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
