// Package canvas defines the drawing surface the chart renders onto.
package canvas

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Point is a pixel position, origin at the top-left corner
type Point struct {
	X, Y float64
}

// Style describes how a shape is stroked and filled.
// A zero alpha disables stroke or fill.
type Style struct {
	Stroke drawing.Color
	Fill   drawing.Color
	Width  float64
	Dash   []float64
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle positions text relative to the given point: X by Align, Y is the top of the text box
type TextStyle struct {
	Color drawing.Color
	Size  float64
	Align Align
}

// Surface is the painting capability the chart calls into. Implementations own pixels; the chart
// only issues primitives.
type Surface interface {
	Size() (width, height float64)
	Clear(c drawing.Color)
	Line(x1, y1, x2, y2 float64, st Style)
	Polyline(points []Point, st Style)
	Rect(x, y, w, h float64, st Style)
	Circle(x, y, r float64, st Style)
	Text(x, y float64, text string, st TextStyle)
	MeasureText(text string, size float64) (width, height float64)
}

// ParseColor reads "#rrggbb", "rrggbb" or "#rgb". Malformed input returns fallback.
func ParseColor(s string, fallback drawing.Color) drawing.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return fallback
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return fallback
		}
	}
	return drawing.ColorFromHex(hex)
}

// MustColor is ParseColor with an opaque black fallback, for package-level palettes
func MustColor(s string) drawing.Color {
	return ParseColor(s, drawing.Color{A: 255})
}
