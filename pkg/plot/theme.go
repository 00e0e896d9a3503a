package plot

import (
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/raykavin/chartview/pkg/canvas"
	"github.com/raykavin/chartview/pkg/levels"
)

// Theme is the chart palette
type Theme struct {
	Background drawing.Color
	Grid       drawing.Color
	Text       drawing.Color
	Bullish    drawing.Color
	Bearish    drawing.Color
	Volume     drawing.Color
	LastPrice  drawing.Color
	Levels     map[levels.Kind]drawing.Color
	FontSize   float64
}

func DefaultTheme() Theme {
	return Theme{
		Background: canvas.MustColor("#131722"),
		Grid:       canvas.MustColor("#2a2e39"),
		Text:       canvas.MustColor("#b2b5be"),
		Bullish:    canvas.MustColor("#26a69a"),
		Bearish:    canvas.MustColor("#ef5350"),
		Volume:     drawing.Color{R: 120, G: 123, B: 134, A: 90},
		LastPrice:  canvas.MustColor("#2962ff"),
		Levels: map[levels.Kind]drawing.Color{
			levels.KindSwingHigh:   canvas.MustColor("#f7525f"),
			levels.KindSwingLow:    canvas.MustColor("#22ab94"),
			levels.KindSupport:     canvas.MustColor("#089981"),
			levels.KindResistance:  canvas.MustColor("#f23645"),
			levels.KindRoundNumber: canvas.MustColor("#787b86"),
			levels.KindVWAP:        canvas.MustColor("#ff9800"),
		},
		FontSize: 11,
	}
}

func (t Theme) level(kind levels.Kind) drawing.Color {
	if c, ok := t.Levels[kind]; ok {
		return c
	}
	return t.Text
}

var levelPrefix = map[levels.Kind]string{
	levels.KindSwingHigh:   "SH",
	levels.KindSwingLow:    "SL",
	levels.KindSupport:     "S",
	levels.KindResistance:  "R",
	levels.KindRoundNumber: "",
	levels.KindVWAP:        "VWAP",
}
