package plot

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/chartview/pkg/axis"
	"github.com/raykavin/chartview/pkg/canvas"
	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/feed"
	"github.com/raykavin/chartview/pkg/indicator"
	"github.com/raykavin/chartview/pkg/labels"
	"github.com/raykavin/chartview/pkg/levels"
)

// Label priorities; higher values win collisions
const (
	priorityLastPrice = 100
	priorityLevel     = 50
	priorityMajorTime = 20
	priorityTick      = 10
)

const (
	groupLastPrice = "last"
	groupTick      = "tick"
	groupTime      = "time"
	labelGapPx     = 4
	candleFill     = 0.7 // share of the bar width used by candle bodies
)

// Frame describes what one render produced
type Frame struct {
	First, Last     int // visible bar range [First, Last)
	PriceTicks      []axis.Tick
	TimeTicks       []axis.TimeTick
	Levels          []levels.Level
	Labels          []labels.Candidate
	LabelCandidates int
	Annotations     int
	Duration        time.Duration
}

// Render paints the current state onto s and returns the frame statistics. Hosts normally call
// Flush, which adds request coalescing on top of Render.
func (c *Chart) Render(s canvas.Surface) Frame {
	started := time.Now()
	width, height := s.Size()
	s.Clear(c.theme.Background)

	if len(c.bars) == 0 {
		c.drawStatus(s, width, height)
		c.drawings.Render(s)
		return Frame{Duration: time.Since(started), Annotations: c.drawings.Count()}
	}

	f := Frame{Annotations: c.drawings.Count()}
	f.First, f.Last = c.vp.VisibleIndices()
	c.autoscale(f.First, f.Last)

	plotW, priceH := c.vp.CanvasSize()
	paneBottom := math.Max(priceH, height-c.settings.TimeGutterPx)
	low, high := c.vp.PriceRange()

	f.PriceTicks = axis.ComputeTicks(low, high, priceH, c.settings.PriceTickSpacingPx)
	var tickX []float64
	f.TimeTicks, tickX = c.timeTicks(f.First, f.Last)

	c.drawGrid(s, f.PriceTicks, tickX, plotW, paneBottom)
	c.drawVolume(s, f.First, f.Last, priceH, paneBottom)
	c.drawCandles(s, f.First, f.Last)
	c.drawLines(s, f.First, f.Last)

	f.Levels = levels.Detect(c.bars, f.First, f.Last, levels.ConfigFromSettings(c.settings))
	c.drawLevels(s, f.Levels, plotW, low, high)

	c.drawings.Render(s)

	candidates := c.labelCandidates(s, f, tickX, plotW, priceH, paneBottom)
	f.LabelCandidates = len(candidates)
	f.Labels = labels.Place(candidates,
		labels.WithPadding(c.settings.LabelPaddingPx),
		labels.WithBounds(labels.Box{W: width, H: height}),
	)
	c.drawLabels(s, f.Labels)

	f.Duration = time.Since(started)
	if c.settings.ShowDebugOverlay {
		c.drawDebug(s, f)
	}

	c.log.WithFields(map[string]any{
		"bars":   f.Last - f.First,
		"levels": len(f.Levels),
		"labels": len(f.Labels),
	}).Trace("frame rendered")
	return f
}

func (c *Chart) lines() []indicator.Line {
	lines := make([]indicator.Line, 0, len(c.computed)+len(c.external))
	lines = append(lines, c.computed...)
	return append(lines, c.external...)
}

// autoscale fits the price range to the visible bars and overlay lines
func (c *Chart) autoscale(first, last int) {
	c.vp.Autoscale(c.bars)
	low, high := c.vp.PriceRange()

	lo, hi := low, high
	for _, line := range c.lines() {
		if !line.Overlay {
			continue
		}
		if l, h, ok := core.FiniteRange(line.Values, first, last); ok {
			lo, hi = math.Min(lo, l), math.Max(hi, h)
		}
	}
	if lo < low || hi > high {
		pad := (hi - lo) * c.settings.PricePadding
		c.vp.SetPriceRange(math.Min(low, lo-pad), math.Max(high, hi+pad))
	}
}

// timeTicks computes calendar ticks over the visible bars and the x position of each. A tick
// sits on the first bar at or after its time, so gaps in the data do not shift labels.
func (c *Chart) timeTicks(first, last int) ([]axis.TimeTick, []float64) {
	if last-first < 1 {
		return nil, nil
	}

	from, to := c.bars[first].Time, c.bars[last-1].Time
	extent := c.vp.ToPixelX(float64(last-1)) - c.vp.ToPixelX(float64(first))
	ticks := axis.ComputeTimeTicks(from, to, extent, c.settings.TimeTickSpacingPx, c.loc)

	xs := make([]float64, len(ticks))
	for i, tick := range ticks {
		idx := sort.Search(len(c.bars), func(j int) bool { return !c.bars[j].Time.Before(tick.Time) })
		xs[i] = c.vp.ToPixelX(float64(idx) + 0.5)
	}
	return ticks, xs
}

func (c *Chart) drawGrid(s canvas.Surface, priceTicks []axis.Tick, tickX []float64, plotW, bottom float64) {
	grid := canvas.Style{Stroke: c.theme.Grid, Width: 1}
	_, priceH := c.vp.CanvasSize()

	for _, tick := range priceTicks {
		if y := c.vp.ToPixelY(tick.Value); y >= 0 && y <= priceH {
			s.Line(0, y, plotW, y, grid)
		}
	}
	for _, x := range tickX {
		if x >= 0 && x <= plotW {
			s.Line(x, 0, x, bottom, grid)
		}
	}
	s.Line(plotW, 0, plotW, bottom, grid)
	s.Line(0, bottom, plotW, bottom, grid)
}

func (c *Chart) candleColor(i int) drawing.Color {
	if c.bars[i].Bullish() {
		return c.theme.Bullish
	}
	return c.theme.Bearish
}

func (c *Chart) drawVolume(s canvas.Surface, first, last int, top, bottom float64) {
	paneH := bottom - top
	if paneH <= 0 {
		return
	}

	body := math.Max(1, c.vp.BarWidthPx()*candleFill)
	st := canvas.Style{Fill: c.theme.Volume}
	for i := first; i < last; i++ {
		h := c.vp.VolumeRatio(c.bars[i].Volume) * paneH
		if h <= 0 {
			continue
		}
		x := c.vp.ToPixelX(float64(i) + 0.5)
		s.Rect(x-body/2, bottom-h, body, h, st)
	}
}

func (c *Chart) drawCandles(s canvas.Surface, first, last int) {
	body := math.Max(1, c.vp.BarWidthPx()*candleFill)
	for i := first; i < last; i++ {
		bar := c.bars[i]
		color := c.candleColor(i)
		x := c.vp.ToPixelX(float64(i) + 0.5)

		s.Line(x, c.vp.ToPixelY(bar.High), x, c.vp.ToPixelY(bar.Low), canvas.Style{Stroke: color, Width: 1})

		top := c.vp.ToPixelY(math.Max(bar.Open, bar.Close))
		bottom := c.vp.ToPixelY(math.Min(bar.Open, bar.Close))
		s.Rect(x-body/2, top, body, math.Max(1, bottom-top), canvas.Style{Stroke: color, Fill: color, Width: 1})
	}
}

// drawLines paints overlay lines, breaking them at NaN gaps
func (c *Chart) drawLines(s canvas.Surface, first, last int) {
	for _, line := range c.lines() {
		if !line.Overlay {
			continue
		}
		st := canvas.Style{Stroke: canvas.ParseColor(line.Color, c.theme.Text), Width: 1.5}

		var segment []canvas.Point
		flush := func() {
			if len(segment) > 1 {
				s.Polyline(segment, st)
			}
			segment = segment[:0]
		}
		for i := first; i < last && i < len(line.Values); i++ {
			v := line.Values[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				flush()
				continue
			}
			segment = append(segment, canvas.Point{X: c.vp.ToPixelX(float64(i) + 0.5), Y: c.vp.ToPixelY(v)})
		}
		flush()
	}
}

func (c *Chart) drawLevels(s canvas.Surface, found []levels.Level, plotW, low, high float64) {
	for _, lvl := range found {
		if lvl.Price < low || lvl.Price > high {
			continue
		}
		y := c.vp.ToPixelY(lvl.Price)
		s.Line(0, y, plotW, y, canvas.Style{Stroke: c.theme.level(lvl.Kind), Width: 1, Dash: []float64{4, 4}})
	}
}

func (c *Chart) priceDecimals(ticks []axis.Tick) int {
	decimals := axis.StepDecimals(c.settings.TickSize)
	if len(ticks) > 1 {
		decimals = max(decimals, axis.StepDecimals(ticks[1].Value-ticks[0].Value))
	}
	return decimals
}

// labelCandidates collects every label that would like to be drawn this frame: price labels
// in the right gutter and time labels in the bottom one
func (c *Chart) labelCandidates(s canvas.Surface, f Frame, tickX []float64, plotW, priceH, bottom float64) []labels.Candidate {
	fs := c.theme.FontSize
	decimals := c.priceDecimals(f.PriceTicks)
	var out []labels.Candidate

	priceLabel := func(price float64, text, group string, priority float64) {
		y := c.vp.ToPixelY(price)
		if y < 0 || y > priceH {
			return
		}
		w, h := s.MeasureText(text, fs)
		out = append(out, labels.Candidate{
			Box:      labels.Box{X: plotW + labelGapPx, Y: y - h/2, W: w, H: h},
			Priority: priority,
			Text:     text,
			Value:    price,
			Group:    group,
		})
	}

	last := c.bars[len(c.bars)-1].Close
	priceLabel(last, axis.FormatValue(last, decimals), groupLastPrice, priorityLastPrice)

	for _, lvl := range f.Levels {
		text := axis.FormatValue(lvl.Price, decimals)
		if prefix := levelPrefix[lvl.Kind]; prefix != "" {
			text = prefix + " " + text
		}
		priceLabel(lvl.Price, text, lvl.Kind.String(), priorityLevel+lvl.Score)
	}

	for _, tick := range f.PriceTicks {
		priceLabel(tick.Value, tick.Label, groupTick, priorityTick)
	}

	for i, tick := range f.TimeTicks {
		x := tickX[i]
		if x < 0 || x > plotW {
			continue
		}
		priority := float64(priorityTick)
		if tick.Major {
			priority = priorityMajorTime
		}
		w, h := s.MeasureText(tick.Label, fs)
		out = append(out, labels.Candidate{
			Box:      labels.Box{X: x - w/2, Y: bottom + labelGapPx, W: w, H: h},
			Priority: priority,
			Text:     tick.Label,
			Value:    float64(tick.Time.Unix()),
			Group:    groupTime,
		})
	}

	return out
}

func (c *Chart) drawLabels(s canvas.Surface, placed []labels.Candidate) {
	fs := c.theme.FontSize
	for _, l := range placed {
		color := c.theme.Text
		switch l.Group {
		case groupLastPrice:
			s.Rect(l.Box.X-2, l.Box.Y-1, l.Box.W+4, l.Box.H+2, canvas.Style{Fill: c.theme.LastPrice})
			color = drawing.ColorWhite
		case groupTick, groupTime:
		default:
			if kind, ok := levelKinds[l.Group]; ok {
				color = c.theme.level(kind)
			}
		}
		s.Text(l.Box.X, l.Box.Y, l.Text, canvas.TextStyle{Color: color, Size: fs})
	}
}

var levelKinds = func() map[string]levels.Kind {
	m := make(map[string]levels.Kind)
	for k := levels.KindSwingHigh; k <= levels.KindVWAP; k++ {
		m[k.String()] = k
	}
	return m
}()

func (c *Chart) drawStatus(s canvas.Surface, width, height float64) {
	text := "No data"
	switch {
	case c.statusErr != nil:
		text = "Error: " + c.statusErr.Error()
	case c.status == feed.StatusPending:
		text = "Loading..."
	}
	s.Text(width/2, height/2, text, canvas.TextStyle{Color: c.theme.Text, Size: c.theme.FontSize + 2, Align: canvas.AlignCenter})
}

func (c *Chart) drawDebug(s canvas.Surface, f Frame) {
	b := c.vp.Bounds()
	lines := []string{
		fmt.Sprintf("window %.2f..%.2f of %d (loaded %d..%d)", b.VisibleStart, b.VisibleEnd, b.TotalBars, b.LoadedStart, b.LoadedEnd),
		fmt.Sprintf("bar %.2fpx price %.6g..%.6g", c.vp.BarWidthPx(), b.PriceMin, b.PriceMax),
		fmt.Sprintf("levels %d labels %d/%d", len(f.Levels), len(f.Labels), f.LabelCandidates),
		fmt.Sprintf("tool %s state %s shapes %d", c.drawings.Tool(), c.drawings.State(), f.Annotations),
		fmt.Sprintf("frame %d in %s", c.frames+1, f.Duration.Round(time.Microsecond)),
	}

	fs := c.theme.FontSize
	for i, line := range lines {
		s.Text(8, 8+float64(i)*(fs+3), line, canvas.TextStyle{Color: c.theme.Text, Size: fs})
	}
}
