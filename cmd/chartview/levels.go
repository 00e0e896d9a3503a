package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raykavin/chartview/pkg/axis"
	"github.com/raykavin/chartview/pkg/levels"
	"github.com/raykavin/chartview/pkg/viewport"
)

var (
	windowBars int
	histBins   int
)

func buildLevelsCmd() *cobra.Command {
	levelsCmd := &cobra.Command{
		Use:   "levels",
		Short: "Print the key price levels of the most recent bars",
		RunE:  runLevels,
	}

	levelsCmd.Flags().IntVarP(&windowBars, "window", "w", 0, "Bars to analyze (default from configuration)")
	levelsCmd.Flags().IntVar(&histBins, "bins", 15, "Histogram bins of close prices")

	return levelsCmd
}

func runLevels(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	bars := s.snap.Bars
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s", inputFile)
	}

	settings := s.cfg.Chart
	if windowBars > 0 {
		settings.DefaultVisibleBars = windowBars
	}

	// the window is resolved the same way the chart does it on load
	vp := viewport.New(viewport.ConfigFromSettings(settings), s.log)
	vp.Initialize(len(bars), 1, 1, s.snap.Timeframe)
	first, last := vp.VisibleIndices()

	found := levels.Detect(bars, first, last, levels.ConfigFromSettings(settings))
	decimals := axis.StepDecimals(settings.TickSize)

	fmt.Printf("------ KEY LEVELS %s %s (%s .. %s) ------\n", symbol, s.snap.Timeframe,
		bars[first].Time.Format("2006-01-02 15:04"), bars[last-1].Time.Format("2006-01-02 15:04"))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Price", "Kind", "Score", "Touches", "Bar"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, lvl := range found {
		at := "-"
		if lvl.Index >= 0 && lvl.Index < len(bars) {
			at = bars[lvl.Index].Time.Format("2006-01-02 15:04")
		}
		table.Append([]string{
			axis.FormatValue(lvl.Price, decimals),
			lvl.Kind.String(),
			strconv.FormatFloat(lvl.Score, 'f', 2, 64),
			strconv.Itoa(lvl.Touches),
			at,
		})
	}
	table.Render()

	closes := make([]float64, 0, last-first)
	for _, bar := range bars[first:last] {
		closes = append(closes, bar.Close)
	}

	fmt.Println("------ CLOSE DISTRIBUTION ------")
	hist := histogram.Hist(histBins, closes)
	return histogram.Fprint(os.Stdout, hist, histogram.Linear(10))
}
