package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Command line flags shared by every subcommand
var (
	configFile string
	inputFile  string
	symbol     string
	timeframe  string
	resampleTo string
	lastPeriod string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "chartview",
		Short:   "Render and inspect financial charts from CSV bars",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "CSV file with OHLCV bars")
	rootCmd.PersistentFlags().StringVarP(&symbol, "symbol", "s", "CHART", "Symbol shown in the readout")
	rootCmd.PersistentFlags().StringVarP(&timeframe, "timeframe", "t", "1h", "Timeframe of the input bars (e.g. 1h)")
	rootCmd.PersistentFlags().StringVarP(&resampleTo, "resample", "r", "", "Resample to a coarser timeframe (e.g. 1d)")
	rootCmd.PersistentFlags().StringVar(&lastPeriod, "last", "", "Only keep the most recent period (e.g. 30d)")
	rootCmd.MarkPersistentFlagRequired("input")

	rootCmd.AddCommand(buildRenderCmd(), buildLevelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
