// Package drawing holds user-drawn chart annotations and the pointer state machine that creates,
// selects and moves them. Anchors are stored in data space (bar index, price) so shapes stay glued
// to the bars through pan and zoom.
package drawing

import (
	"fmt"
	"math"

	"github.com/raykavin/chartview/pkg/canvas"
)

// Kind identifies a drawing tool and the shape it produces. KindCursor selects and moves
// existing shapes.
type Kind int

const (
	KindCursor Kind = iota
	KindTrendLine
	KindHorizontalRay
	KindVerticalLine
	KindRectangle
	KindFibonacci
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindCursor:
		return "cursor"
	case KindTrendLine:
		return "trendline"
	case KindHorizontalRay:
		return "horizontal-ray"
	case KindVerticalLine:
		return "vertical-line"
	case KindRectangle:
		return "rectangle"
	case KindFibonacci:
		return "fibonacci"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a tool name back to its Kind
func ParseKind(name string) (Kind, bool) {
	for k := KindCursor; k <= KindText; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return KindCursor, false
}

// Point is a data-space position: a continuous bar index and a price
type Point struct {
	Index float64
	Price float64
}

// Annotation is one committed shape
type Annotation struct {
	ID       int64
	Kind     Kind
	Anchors  []Point
	Style    canvas.Style
	Text     string
	Selected bool
}

func (a Annotation) clone() Annotation {
	a.Anchors = append([]Point(nil), a.Anchors...)
	return a
}

// FibonacciLevels are the retracement ratios drawn between the two anchors
var FibonacciLevels = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// FibonacciPrices returns the price of every retracement level, level 0 at the second anchor
func FibonacciPrices(a Annotation) []float64 {
	if len(a.Anchors) < 2 {
		return nil
	}
	from, to := a.Anchors[0].Price, a.Anchors[1].Price
	prices := make([]float64, len(FibonacciLevels))
	for i, lvl := range FibonacciLevels {
		prices[i] = to - (to-from)*lvl
	}
	return prices
}

// Mapper converts between data space and canvas pixels. viewport.State implements it.
type Mapper interface {
	ToPixelX(index float64) float64
	ToPixelY(price float64) float64
	ToDataIndex(x float64) float64
	ToPrice(y float64) float64
}

// tolerance is the pointer radius expressed in bars and price units
type tolerance struct {
	index, price float64
}

func toleranceAt(m Mapper, px float64) tolerance {
	t := tolerance{
		index: math.Abs(m.ToDataIndex(px) - m.ToDataIndex(0)),
		price: math.Abs(m.ToPrice(0) - m.ToPrice(px)),
	}
	if !(t.index > 0) {
		t.index = 1e-12
	}
	if !(t.price > 0) {
		t.price = 1e-12
	}
	return t
}

// dist is the distance between two data points measured in tolerance radii
func (t tolerance) dist(a, b Point) float64 {
	return math.Hypot((a.Index-b.Index)/t.index, (a.Price-b.Price)/t.price)
}

// segmentDist is the distance from p to the segment ab in tolerance radii
func (t tolerance) segmentDist(p, a, b Point) float64 {
	ax, ay := a.Index/t.index, a.Price/t.price
	bx, by := b.Index/t.index, b.Price/t.price
	px, py := p.Index/t.index, p.Price/t.price

	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	u := math.Max(0, math.Min(1, ((px-ax)*dx+(py-ay)*dy)/l2))
	return math.Hypot(px-(ax+u*dx), py-(ay+u*dy))
}

type hitContext struct {
	tol     tolerance
	m       Mapper
	measure func(text string, size float64) (float64, float64)
}

// shape is the per-kind behaviour table entry. span is the bar extent used for visibility;
// open shapes report +Inf as their right edge.
type shape struct {
	anchors int
	span    func(a *Annotation) (from, to float64)
	hit     func(a *Annotation, p Point, ctx hitContext) bool
	render  func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style)
}

var shapes = map[Kind]shape{
	KindTrendLine: {
		anchors: 2,
		span:    anchorSpan,
		hit: func(a *Annotation, p Point, ctx hitContext) bool {
			return ctx.tol.segmentDist(p, a.Anchors[0], a.Anchors[1]) <= 1
		},
		render: func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style) {
			p0, p1 := pixel(m, a.Anchors[0]), pixel(m, a.Anchors[1])
			s.Line(p0.X, p0.Y, p1.X, p1.Y, st)
		},
	},
	KindHorizontalRay: {
		anchors: 1,
		span: func(a *Annotation) (float64, float64) {
			return a.Anchors[0].Index, math.Inf(1)
		},
		hit: func(a *Annotation, p Point, ctx hitContext) bool {
			origin := a.Anchors[0]
			return p.Index >= origin.Index-ctx.tol.index && math.Abs(p.Price-origin.Price) <= ctx.tol.price
		},
		render: func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style) {
			w, _ := s.Size()
			p := pixel(m, a.Anchors[0])
			s.Line(p.X, p.Y, w, p.Y, st)
		},
	},
	KindVerticalLine: {
		anchors: 1,
		span:    anchorSpan,
		hit: func(a *Annotation, p Point, ctx hitContext) bool {
			return math.Abs(p.Index-a.Anchors[0].Index) <= ctx.tol.index
		},
		render: func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style) {
			_, h := s.Size()
			x := m.ToPixelX(a.Anchors[0].Index)
			s.Line(x, 0, x, h, st)
		},
	},
	KindRectangle: {
		anchors: 2,
		span:    anchorSpan,
		hit: func(a *Annotation, p Point, ctx hitContext) bool {
			lo, hi := corners(a)
			return p.Index >= lo.Index-ctx.tol.index && p.Index <= hi.Index+ctx.tol.index &&
				p.Price >= lo.Price-ctx.tol.price && p.Price <= hi.Price+ctx.tol.price
		},
		render: func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style) {
			p0, p1 := pixel(m, a.Anchors[0]), pixel(m, a.Anchors[1])
			s.Rect(math.Min(p0.X, p1.X), math.Min(p0.Y, p1.Y), math.Abs(p1.X-p0.X), math.Abs(p1.Y-p0.Y), st)
		},
	},
	KindFibonacci: {
		anchors: 2,
		span:    anchorSpan,
		hit: func(a *Annotation, p Point, ctx hitContext) bool {
			lo, hi := corners(a)
			if p.Index < lo.Index-ctx.tol.index || p.Index > hi.Index+ctx.tol.index {
				return false
			}
			for _, price := range FibonacciPrices(*a) {
				if math.Abs(p.Price-price) <= ctx.tol.price {
					return true
				}
			}
			return ctx.tol.segmentDist(p, a.Anchors[0], a.Anchors[1]) <= 1
		},
		render: func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style) {
			lo, hi := corners(a)
			x0, x1 := m.ToPixelX(lo.Index), m.ToPixelX(hi.Index)
			p0, p1 := pixel(m, a.Anchors[0]), pixel(m, a.Anchors[1])
			s.Line(p0.X, p0.Y, p1.X, p1.Y, canvas.Style{Stroke: st.Stroke, Width: st.Width, Dash: []float64{4, 4}})
			for i, price := range FibonacciPrices(*a) {
				y := m.ToPixelY(price)
				s.Line(x0, y, x1, y, st)
				s.Text(x0+2, y-12, fmt.Sprintf("%.1f%%", FibonacciLevels[i]*100), canvas.TextStyle{Color: st.Stroke, Size: 10})
			}
		},
	},
	KindText: {
		anchors: 1,
		span:    anchorSpan,
		hit: func(a *Annotation, p Point, ctx hitContext) bool {
			origin := pixel(ctx.m, a.Anchors[0])
			at := pixel(ctx.m, p)
			w, h := ctx.measure(a.Text, textSize)
			return at.X >= origin.X && at.X <= origin.X+w && at.Y >= origin.Y && at.Y <= origin.Y+h
		},
		render: func(s canvas.Surface, m Mapper, a *Annotation, st canvas.Style) {
			p := pixel(m, a.Anchors[0])
			s.Text(p.X, p.Y, a.Text, canvas.TextStyle{Color: st.Stroke, Size: textSize})
		},
	},
}

const textSize = 12

func anchorSpan(a *Annotation) (float64, float64) {
	lo, hi := corners(a)
	return lo.Index, hi.Index
}

// corners returns the data-space bounding box of the anchors
func corners(a *Annotation) (lo, hi Point) {
	lo = Point{Index: math.Inf(1), Price: math.Inf(1)}
	hi = Point{Index: math.Inf(-1), Price: math.Inf(-1)}
	for _, p := range a.Anchors {
		lo.Index, lo.Price = math.Min(lo.Index, p.Index), math.Min(lo.Price, p.Price)
		hi.Index, hi.Price = math.Max(hi.Index, p.Index), math.Max(hi.Price, p.Price)
	}
	return lo, hi
}

func pixel(m Mapper, p Point) canvas.Point {
	return canvas.Point{X: m.ToPixelX(p.Index), Y: m.ToPixelY(p.Price)}
}

// AnchorsRequired returns how many anchors kind needs, 0 for the cursor
func AnchorsRequired(kind Kind) int {
	return shapes[kind].anchors
}
