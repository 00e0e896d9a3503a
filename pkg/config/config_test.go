package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/chartview/pkg/core"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	want := core.DefaultSettings()
	want.VisibleBarsByTimeframe = map[core.Timeframe]int{}
	assert.Equal(t, want, cfg.Chart)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Colored)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartview.yaml")
	data := `
viewport:
  default_visible_bars: 80
  zoom_factor: 1.25
  visible_bars:
    - 1d=60
    - 1M=24
levels:
  swing_window: 5
drawing:
  sticky_tools: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Chart.DefaultVisibleBars)
	assert.Equal(t, 1.25, cfg.Chart.ZoomFactor)
	assert.Equal(t, 5, cfg.Chart.SwingWindow)
	assert.True(t, cfg.Chart.StickyTools)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, map[core.Timeframe]int{core.Timeframe1d: 60, core.Timeframe1M: 24}, cfg.Chart.VisibleBarsByTimeframe)
	assert.Equal(t, 60, cfg.Chart.VisibleBarsFor(core.Timeframe1d))
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CHARTVIEW_VIEWPORT_MIN_VISIBLE_BARS", "10")
	t.Setenv("CHARTVIEW_DEBUG_OVERLAY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Chart.MinVisibleBars)
	assert.True(t, cfg.Chart.ShowDebugOverlay)
}

func TestLoad_InvalidValuesNormalized(t *testing.T) {
	t.Setenv("CHARTVIEW_VIEWPORT_ZOOM_FACTOR", "0.5")
	t.Setenv("CHARTVIEW_LEVELS_TICK_SIZE", "-1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1.1, cfg.Chart.ZoomFactor)
	assert.Equal(t, 0.01, cfg.Chart.TickSize)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = parseVisibleBars([]string{"1d"})
	assert.Error(t, err)

	_, err = parseVisibleBars([]string{"1x=5"})
	assert.True(t, errors.Is(err, core.ErrInvalidTimeframe))

	_, err = parseVisibleBars([]string{"1d=-3"})
	assert.Error(t, err)
}
