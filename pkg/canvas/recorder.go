package canvas

import (
	"unicode/utf8"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

type OpKind string

const (
	OpClear    OpKind = "clear"
	OpLine     OpKind = "line"
	OpPolyline OpKind = "polyline"
	OpRect     OpKind = "rect"
	OpCircle   OpKind = "circle"
	OpText     OpKind = "text"
)

// Op is one recorded drawing call
type Op struct {
	Kind   OpKind
	Points []Point
	W, H   float64
	Text   string
	Style  Style
	Font   TextStyle
}

// Recorder is an in-memory Surface that keeps every call. Text is measured with a fixed
// per-character advance so layouts are reproducible.
type Recorder struct {
	Width, Height float64
	CharWidth     float64 // advance per character as a fraction of font size
	Ops           []Op
}

func NewRecorder(width, height float64) *Recorder {
	return &Recorder{Width: width, Height: height, CharWidth: 0.6}
}

func (r *Recorder) Size() (float64, float64) { return r.Width, r.Height }

func (r *Recorder) Clear(c drawing.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Style: Style{Fill: c}})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Points: []Point{{x1, y1}, {x2, y2}}, Style: st})
}

func (r *Recorder) Polyline(points []Point, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpPolyline, Points: append([]Point(nil), points...), Style: st})
}

func (r *Recorder) Rect(x, y, w, h float64, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, Points: []Point{{x, y}}, W: w, H: h, Style: st})
}

func (r *Recorder) Circle(x, y, radius float64, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpCircle, Points: []Point{{x, y}}, W: radius, Style: st})
}

func (r *Recorder) Text(x, y float64, text string, st TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpText, Points: []Point{{x, y}}, Text: text, Font: st})
}

func (r *Recorder) MeasureText(text string, size float64) (float64, float64) {
	return float64(utf8.RuneCountInString(text)) * size * r.CharWidth, size
}

// Count returns how many ops of kind were recorded
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns the recorded text bodies in call order
func (r *Recorder) Texts() []string {
	var texts []string
	for _, op := range r.Ops {
		if op.Kind == OpText {
			texts = append(texts, op.Text)
		}
	}
	return texts
}

// Reset drops the recorded ops
func (r *Recorder) Reset() { r.Ops = r.Ops[:0] }
