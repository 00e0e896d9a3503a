package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/chartview/pkg/config"
	"github.com/raykavin/chartview/pkg/core"
	"github.com/raykavin/chartview/pkg/feed"
	"github.com/raykavin/chartview/pkg/logger"
	"github.com/raykavin/chartview/pkg/logger/zerolog"
)

// session carries what every subcommand needs: configuration, a logger and the loaded bars
type session struct {
	cfg  config.Config
	log  logger.Logger
	snap feed.Snapshot
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	log, err := zerolog.New(os.Stderr, zerolog.Options{
		Level:   cfg.Log.Level,
		Colored: cfg.Log.Colored,
		JSON:    cfg.Log.JSON,
	})
	if err != nil {
		return nil, err
	}

	native, err := core.ParseTimeframe(timeframe)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --timeframe")
	}
	target := native
	if resampleTo != "" {
		if target, err = core.ParseTimeframe(resampleTo); err != nil {
			return nil, errors.Wrap(err, "invalid --resample")
		}
	}

	source := feed.NewCSV(feed.File{Symbol: symbol, Path: inputFile, Timeframe: native})
	snap, err := source.Load(ctx, symbol, target)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", inputFile)
	}

	if lastPeriod != "" {
		d, err := str2duration.ParseDuration(lastPeriod)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --last")
		}
		snap.Bars = feed.Limit(snap.Bars, d)
	}

	log.WithFields(map[string]any{
		"symbol":    symbol,
		"timeframe": snap.Timeframe.String(),
		"bars":      len(snap.Bars),
	}).Info("bars loaded")

	return &session{cfg: cfg, log: log, snap: snap}, nil
}
