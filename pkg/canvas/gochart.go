package canvas

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ChartSurface paints through a go-chart renderer and can be saved as SVG or PNG
type ChartSurface struct {
	r      chart.Renderer
	width  int
	height int
}

// NewChartSurface allocates a renderer of the given format and size
func NewChartSurface(format Format, width, height int) (*ChartSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	var (
		r   chart.Renderer
		err error
	)
	switch format {
	case FormatPNG:
		r, err = chart.PNG(width, height)
	case FormatSVG, "":
		r, err = chart.SVG(width, height)
	default:
		return nil, fmt.Errorf("unsupported surface format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s renderer: %w", format, err)
	}

	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load default font: %w", err)
	}
	r.SetFont(font)

	return &ChartSurface{r: r, width: width, height: height}, nil
}

// Save writes the rendered image
func (s *ChartSurface) Save(w io.Writer) error {
	return s.r.Save(w)
}

func (s *ChartSurface) Size() (float64, float64) {
	return float64(s.width), float64(s.height)
}

func (s *ChartSurface) Clear(c drawing.Color) {
	s.Rect(0, 0, float64(s.width), float64(s.height), Style{Fill: c})
}

func (s *ChartSurface) Line(x1, y1, x2, y2 float64, st Style) {
	s.Polyline([]Point{{x1, y1}, {x2, y2}}, st)
}

func (s *ChartSurface) Polyline(points []Point, st Style) {
	if len(points) < 2 || st.Stroke.A == 0 {
		return
	}

	s.apply(Style{Stroke: st.Stroke, Width: st.Width, Dash: st.Dash})
	s.r.MoveTo(px(points[0].X), px(points[0].Y))
	for _, p := range points[1:] {
		s.r.LineTo(px(p.X), px(p.Y))
	}
	s.r.Stroke()
}

func (s *ChartSurface) Rect(x, y, w, h float64, st Style) {
	s.apply(st)
	s.r.MoveTo(px(x), px(y))
	s.r.LineTo(px(x+w), px(y))
	s.r.LineTo(px(x+w), px(y+h))
	s.r.LineTo(px(x), px(y+h))
	s.r.Close()
	s.paint(st)
}

func (s *ChartSurface) Circle(x, y, r float64, st Style) {
	s.apply(st)
	s.r.Circle(r, px(x), px(y))
	s.paint(st)
}

func (s *ChartSurface) Text(x, y float64, text string, st TextStyle) {
	if text == "" {
		return
	}

	s.r.SetFontColor(st.Color)
	s.r.SetFontSize(st.Size)
	box := s.r.MeasureText(text)

	switch st.Align {
	case AlignCenter:
		x -= float64(box.Width()) / 2
	case AlignRight:
		x -= float64(box.Width())
	}

	// go-chart places text on its baseline
	s.r.Text(text, px(x), px(y)+box.Height())
}

func (s *ChartSurface) MeasureText(text string, size float64) (float64, float64) {
	s.r.SetFontSize(size)
	box := s.r.MeasureText(text)
	return float64(box.Width()), float64(box.Height())
}

func (s *ChartSurface) apply(st Style) {
	s.r.SetStrokeColor(st.Stroke)
	s.r.SetFillColor(st.Fill)
	s.r.SetStrokeWidth(math.Max(st.Width, 1))
	s.r.SetStrokeDashArray(st.Dash)
}

func (s *ChartSurface) paint(st Style) {
	switch {
	case st.Fill.A > 0 && st.Stroke.A > 0:
		s.r.FillStroke()
	case st.Fill.A > 0:
		s.r.Fill()
	default:
		s.r.Stroke()
	}
}

func px(v float64) int {
	return int(math.Round(v))
}
