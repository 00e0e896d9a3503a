// Package config loads chart settings from an optional file and CHARTVIEW_* environment variables
// using Viper.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/raykavin/chartview/pkg/core"
)

const EnvPrefix = "CHARTVIEW"

// Config is the full runtime configuration
type Config struct {
	Chart core.Settings
	Log   LogConfig
}

// LogConfig selects the logger output
type LogConfig struct {
	Level   string
	JSON    bool
	Colored bool
}

// Keys as written in configuration files. Environment variables use the upper-case form with
// dots replaced by underscores, e.g. CHARTVIEW_VIEWPORT_ZOOM_FACTOR.
const (
	KeyDefaultVisibleBars = "viewport.default_visible_bars"
	KeyVisibleBars        = "viewport.visible_bars"
	KeyMinVisibleBars     = "viewport.min_visible_bars"
	KeyMaxVisibleBars     = "viewport.max_visible_bars"
	KeyZoomFactor         = "viewport.zoom_factor"
	KeyPricePadding       = "viewport.price_padding"
	KeyVolumePaneRatio    = "viewport.volume_pane_ratio"
	KeyPriceTickSpacing   = "axis.price_tick_spacing_px"
	KeyTimeTickSpacing    = "axis.time_tick_spacing_px"
	KeyAxisGutter         = "axis.gutter_px"
	KeyTimeGutter         = "axis.time_gutter_px"
	KeyLabelPadding       = "axis.label_padding_px"
	KeySwingWindow        = "levels.swing_window"
	KeyLookbackPad        = "levels.lookback_pad"
	KeyClusterTolerance   = "levels.cluster_tolerance"
	KeyMinClusterSize     = "levels.min_cluster_size"
	KeyTickSize           = "levels.tick_size"
	KeyMaxKeyLevels       = "levels.max"
	KeyHitTolerance       = "drawing.hit_tolerance_px"
	KeyStickyTools        = "drawing.sticky_tools"
	KeyDebugOverlay       = "debug_overlay"
	KeyLogLevel           = "log.level"
	KeyLogJSON            = "log.json"
	KeyLogColored         = "log.colored"
)

// Load reads path (YAML, JSON or TOML by extension) when it is not empty, applies environment
// overrides and returns normalized settings
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// New returns a Viper instance carrying the defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := core.DefaultSettings()
	v.SetDefault(KeyDefaultVisibleBars, def.DefaultVisibleBars)
	v.SetDefault(KeyVisibleBars, []string{})
	v.SetDefault(KeyMinVisibleBars, def.MinVisibleBars)
	v.SetDefault(KeyMaxVisibleBars, def.MaxVisibleBars)
	v.SetDefault(KeyZoomFactor, def.ZoomFactor)
	v.SetDefault(KeyPricePadding, def.PricePadding)
	v.SetDefault(KeyVolumePaneRatio, def.VolumePaneRatio)
	v.SetDefault(KeyPriceTickSpacing, def.PriceTickSpacingPx)
	v.SetDefault(KeyTimeTickSpacing, def.TimeTickSpacingPx)
	v.SetDefault(KeyAxisGutter, def.AxisGutterPx)
	v.SetDefault(KeyTimeGutter, def.TimeGutterPx)
	v.SetDefault(KeyLabelPadding, def.LabelPaddingPx)
	v.SetDefault(KeySwingWindow, def.SwingWindow)
	v.SetDefault(KeyLookbackPad, def.LookbackPad)
	v.SetDefault(KeyClusterTolerance, def.ClusterTolerance)
	v.SetDefault(KeyMinClusterSize, def.MinClusterSize)
	v.SetDefault(KeyTickSize, def.TickSize)
	v.SetDefault(KeyMaxKeyLevels, def.MaxKeyLevels)
	v.SetDefault(KeyHitTolerance, def.HitTolerancePx)
	v.SetDefault(KeyStickyTools, def.StickyTools)
	v.SetDefault(KeyDebugOverlay, def.ShowDebugOverlay)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyLogColored, true)

	return v
}

// FromViper builds a Config from an already populated Viper instance
func FromViper(v *viper.Viper) (Config, error) {
	perTimeframe, err := parseVisibleBars(v.GetStringSlice(KeyVisibleBars))
	if err != nil {
		return Config{}, err
	}

	settings := core.Settings{
		DefaultVisibleBars:     v.GetInt(KeyDefaultVisibleBars),
		VisibleBarsByTimeframe: perTimeframe,
		MinVisibleBars:         v.GetInt(KeyMinVisibleBars),
		MaxVisibleBars:         v.GetInt(KeyMaxVisibleBars),
		ZoomFactor:             v.GetFloat64(KeyZoomFactor),
		PricePadding:           v.GetFloat64(KeyPricePadding),
		VolumePaneRatio:        v.GetFloat64(KeyVolumePaneRatio),
		PriceTickSpacingPx:     v.GetFloat64(KeyPriceTickSpacing),
		TimeTickSpacingPx:      v.GetFloat64(KeyTimeTickSpacing),
		AxisGutterPx:           v.GetFloat64(KeyAxisGutter),
		TimeGutterPx:           v.GetFloat64(KeyTimeGutter),
		LabelPaddingPx:         v.GetFloat64(KeyLabelPadding),
		SwingWindow:            v.GetInt(KeySwingWindow),
		LookbackPad:            v.GetInt(KeyLookbackPad),
		ClusterTolerance:       v.GetFloat64(KeyClusterTolerance),
		MinClusterSize:         v.GetInt(KeyMinClusterSize),
		TickSize:               v.GetFloat64(KeyTickSize),
		MaxKeyLevels:           v.GetInt(KeyMaxKeyLevels),
		HitTolerancePx:         v.GetFloat64(KeyHitTolerance),
		StickyTools:            v.GetBool(KeyStickyTools),
		ShowDebugOverlay:       v.GetBool(KeyDebugOverlay),
	}

	return Config{
		Chart: settings.Normalize(),
		Log: LogConfig{
			Level:   v.GetString(KeyLogLevel),
			JSON:    v.GetBool(KeyLogJSON),
			Colored: v.GetBool(KeyLogColored),
		},
	}, nil
}

// parseVisibleBars reads "timeframe=count" entries. Viper lower-cases map keys, which would merge
// "1m" and "1M", so overrides are written as a list.
func parseVisibleBars(entries []string) (map[core.Timeframe]int, error) {
	out := make(map[core.Timeframe]int, len(entries))
	for _, entry := range entries {
		name, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			return nil, fmt.Errorf("invalid %s entry %q: want timeframe=count", KeyVisibleBars, entry)
		}

		tf, err := core.ParseTimeframe(name)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", KeyVisibleBars, entry, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid %s entry %q: count must be a positive integer", KeyVisibleBars, entry)
		}
		out[tf] = count
	}
	return out, nil
}
