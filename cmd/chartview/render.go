package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/raykavin/chartview/pkg/canvas"
	"github.com/raykavin/chartview/pkg/indicator"
	"github.com/raykavin/chartview/pkg/plot"
)

// Render command flags
var (
	outputFile string
	format     string
	width      int
	height     int
	frames     int
	panStep    float64
	zoomSteps  float64
	smaPeriods []int
	emaPeriods []int
	bbands     int
	superTrend int
	debug      bool
)

func buildRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the chart to SVG or PNG",
		RunE:  runRender,
	}

	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "chart.svg", "Output file; frame numbers are inserted before the extension")
	renderCmd.Flags().StringVarP(&format, "format", "f", "", "svg or png (default from the output extension)")
	renderCmd.Flags().IntVar(&width, "width", 1280, "Surface width in pixels")
	renderCmd.Flags().IntVar(&height, "height", 720, "Surface height in pixels")
	renderCmd.Flags().IntVar(&frames, "frames", 1, "Number of frames to render")
	renderCmd.Flags().Float64Var(&panStep, "pan", -200, "Pixels panned between frames")
	renderCmd.Flags().Float64Var(&zoomSteps, "zoom", 0, "Wheel notches applied before the first frame; negative zooms in")
	renderCmd.Flags().IntSliceVar(&smaPeriods, "sma", nil, "SMA periods")
	renderCmd.Flags().IntSliceVar(&emaPeriods, "ema", nil, "EMA periods")
	renderCmd.Flags().IntVar(&bbands, "bbands", 0, "Bollinger bands period")
	renderCmd.Flags().IntVar(&superTrend, "supertrend", 0, "SuperTrend ATR period")
	renderCmd.Flags().BoolVar(&debug, "debug", false, "Draw the debug overlay")

	return renderCmd
}

var lineColors = []string{"#ffeb3b", "#e040fb", "#00bcd4", "#ff9800", "#8bc34a"}

func indicatorProviders() []indicator.Provider {
	var providers []indicator.Provider
	color := func() string { return lineColors[len(providers)%len(lineColors)] }

	for _, p := range smaPeriods {
		providers = append(providers, indicator.SMA(p, color()))
	}
	for _, p := range emaPeriods {
		providers = append(providers, indicator.EMA(p, color()))
	}
	if bbands > 0 {
		providers = append(providers, indicator.BollingerBands(bbands, 2, "#2962ff"))
	}
	if superTrend > 0 {
		providers = append(providers, indicator.SuperTrend(superTrend, 3, "#ab47bc"))
	}
	return providers
}

func runRender(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}

	surfaceFormat := canvas.Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(outputFile)), "."))
	if format != "" {
		surfaceFormat = canvas.Format(format)
	}

	chart := plot.NewChart(
		plot.WithLogger(s.log),
		plot.WithSettings(s.cfg.Chart),
		plot.WithIndicators(indicatorProviders()...),
		plot.WithDebugOverlay(debug || s.cfg.Chart.ShowDebugOverlay),
		plot.WithSize(float64(width), float64(height)),
	)
	chart.OnDiagnostic(func(err error) { s.log.WithError(err).Warn("chart diagnostic") })

	if err := chart.LoadSnapshot(s.snap); err != nil {
		return err
	}
	if zoomSteps != 0 {
		chart.WheelZoom(float64(width)/2, zoomSteps)
	}

	frames = max(frames, 1)
	bar := progressbar.Default(int64(frames))
	for i := 0; i < frames; i++ {
		if i > 0 && !chart.Pan(panStep) {
			s.log.Infof("reached the edge of the data after %d frames", i)
			break
		}

		path := framePath(outputFile, i, frames)
		if err := renderFrame(chart, surfaceFormat, path); err != nil {
			return err
		}
		if err := bar.Add(1); err != nil {
			s.log.Warnf("update progressbar fail: %v", err)
		}
	}

	r := chart.Readout()
	s.log.WithFields(map[string]any{
		"frames": r.Frames,
		"bars":   r.Bars,
		"levels": len(chart.KeyLevels()),
	}).Info("rendering finished")
	return nil
}

func renderFrame(chart *plot.Chart, f canvas.Format, path string) error {
	surface, err := canvas.NewChartSurface(f, width, height)
	if err != nil {
		return err
	}

	chart.RequestRender()
	chart.Flush(surface)

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer out.Close()

	return errors.Wrapf(surface.Save(out), "failed to write %s", path)
}

// framePath inserts a zero padded frame number before the extension when rendering several frames
func framePath(path string, i, total int) string {
	if total <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
