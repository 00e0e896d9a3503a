package core

import "math"

// Settings holds the tuning values of a chart instance
type Settings struct {
	// Viewport
	DefaultVisibleBars     int               // Bars shown after initialize or a timeframe change
	VisibleBarsByTimeframe map[Timeframe]int // Per-timeframe override of DefaultVisibleBars
	MinVisibleBars         int               // Zoom-in limit
	MaxVisibleBars         int               // Zoom-out limit, 0 means all bars
	ZoomFactor             float64           // Window scale per wheel notch
	PricePadding           float64           // Fraction of the visible price range added above and below
	VolumePaneRatio        float64           // Share of the plot height used by volume bars

	// Axes
	PriceTickSpacingPx float64 // Target distance between price ticks
	TimeTickSpacingPx  float64 // Target distance between time ticks
	AxisGutterPx       float64 // Width of the right price gutter
	TimeGutterPx       float64 // Height of the bottom time gutter
	LabelPaddingPx     float64 // Padding around labels for collision tests

	// Key levels
	SwingWindow      int     // Bars compared on each side of a swing point
	LookbackPad      int     // Extra bars scanned before the visible window
	ClusterTolerance float64 // Cluster band as a fraction of the window price range
	MinClusterSize   int     // Touches needed to form support/resistance
	TickSize         float64 // Instrument price increment
	MaxKeyLevels     int     // Upper bound of levels reported per frame

	// Drawing
	HitTolerancePx float64 // Pointer radius used for hit testing
	StickyTools    bool    // Keep the drawing tool active after a shape is committed

	ShowDebugOverlay bool
}

// DefaultSettings returns the settings used when no configuration is supplied
func DefaultSettings() Settings {
	return Settings{
		DefaultVisibleBars: 120,
		MinVisibleBars:     5,
		MaxVisibleBars:     0,
		ZoomFactor:         1.1,
		PricePadding:       0.05,
		VolumePaneRatio:    0.2,
		PriceTickSpacingPx: 50,
		TimeTickSpacingPx:  100,
		AxisGutterPx:       64,
		TimeGutterPx:       24,
		LabelPaddingPx:     2,
		SwingWindow:        3,
		LookbackPad:        20,
		ClusterTolerance:   0.004,
		MinClusterSize:     3,
		TickSize:           0.01,
		MaxKeyLevels:       12,
		HitTolerancePx:     6,
	}
}

// VisibleBarsFor returns the default visible bar count for a timeframe
func (s Settings) VisibleBarsFor(tf Timeframe) int {
	if n, ok := s.VisibleBarsByTimeframe[tf]; ok && n > 0 {
		return n
	}
	return s.DefaultVisibleBars
}

// Normalize replaces out-of-range values with defaults so a chart can always render
func (s Settings) Normalize() Settings {
	def := DefaultSettings()

	positiveInt := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	positive := func(v *float64, d float64) {
		if *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = d
		}
	}

	positiveInt(&s.DefaultVisibleBars, def.DefaultVisibleBars)
	positiveInt(&s.MinVisibleBars, def.MinVisibleBars)
	positiveInt(&s.SwingWindow, def.SwingWindow)
	positiveInt(&s.MinClusterSize, def.MinClusterSize)
	positiveInt(&s.MaxKeyLevels, def.MaxKeyLevels)
	positive(&s.PriceTickSpacingPx, def.PriceTickSpacingPx)
	positive(&s.TimeTickSpacingPx, def.TimeTickSpacingPx)
	positive(&s.ClusterTolerance, def.ClusterTolerance)
	positive(&s.TickSize, def.TickSize)
	positive(&s.HitTolerancePx, def.HitTolerancePx)

	if s.ZoomFactor <= 1 || math.IsNaN(s.ZoomFactor) || math.IsInf(s.ZoomFactor, 0) {
		s.ZoomFactor = def.ZoomFactor
	}
	if s.MaxVisibleBars < 0 || (s.MaxVisibleBars > 0 && s.MaxVisibleBars < s.MinVisibleBars) {
		s.MaxVisibleBars = 0
	}
	if s.PricePadding < 0 || s.PricePadding >= 0.5 || math.IsNaN(s.PricePadding) {
		s.PricePadding = def.PricePadding
	}
	if s.VolumePaneRatio < 0 || s.VolumePaneRatio >= 0.9 || math.IsNaN(s.VolumePaneRatio) {
		s.VolumePaneRatio = def.VolumePaneRatio
	}
	if s.LookbackPad < 0 {
		s.LookbackPad = 0
	}
	if s.AxisGutterPx < 0 || math.IsNaN(s.AxisGutterPx) {
		s.AxisGutterPx = def.AxisGutterPx
	}
	if s.TimeGutterPx < 0 || math.IsNaN(s.TimeGutterPx) {
		s.TimeGutterPx = def.TimeGutterPx
	}
	if s.LabelPaddingPx < 0 || math.IsNaN(s.LabelPaddingPx) {
		s.LabelPaddingPx = def.LabelPaddingPx
	}

	return s
}
