package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodetect/ecodetect/internal/config"
)

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShallowMergeYAML_SectionReplaced(t *testing.T) {
	target := config.Default()
	target.Estimator.Factors = map[string]int{"SMALL_EV": 25}

	overlay := writeOverlay(t, `
estimator:
  sample_interval: 2s
  average_speed_kmh: 50
  vehicle_type: LARGE_DIESEL
  time_range: week
  factors:
    LARGE_DIESEL: 175
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, 2*time.Second, target.Estimator.SampleInterval)
	assert.InDelta(t, 50.0, target.Estimator.AverageSpeedKmh, 1e-9)
	assert.Equal(t, "LARGE_DIESEL", target.Estimator.VehicleType)
	assert.Equal(t, map[string]int{"LARGE_DIESEL": 175}, target.Estimator.Factors)

	// untouched sections keep defaults
	assert.Equal(t, "table", target.Output.DefaultFormat)
	assert.Equal(t, ":8080", target.Server.Address)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
plugins:
  aws: {}
output:
  default_format: ndjson
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "ndjson", target.Output.DefaultFormat)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	assert.Error(t, config.ShallowMergeYAML(nil, "x"))
	assert.Error(t, config.ShallowMergeYAML(config.Default(), filepath.Join(t.TempDir(), "missing.yaml")))

	bad := writeOverlay(t, "api: [unterminated")
	assert.Error(t, config.ShallowMergeYAML(config.Default(), bad))

	future := writeOverlay(t, "version: 9.0.0\n")
	err := config.ShallowMergeYAML(config.Default(), future)
	assert.ErrorIs(t, err, config.ErrUnsupportedVersion)
}

func TestShallowMergeYAML_EmptyFile(t *testing.T) {
	target := config.Default()
	require.NoError(t, config.ShallowMergeYAML(target, writeOverlay(t, "# nothing here\n")))
	assert.Equal(t, config.Default().API, target.API)
}

func TestResolveProjectDir(t *testing.T) {
	t.Setenv(config.EnvHome, t.TempDir())

	t.Run("flag wins", func(t *testing.T) {
		flagDir := t.TempDir()
		t.Setenv(config.EnvProjectDir, t.TempDir())
		got := config.ResolveProjectDir(context.Background(), flagDir, "/does/not/matter")
		assert.Equal(t, filepath.Join(flagDir, ".ecodetect"), got)
	})

	t.Run("env used", func(t *testing.T) {
		envDir := t.TempDir()
		t.Setenv(config.EnvProjectDir, envDir)
		got := config.ResolveProjectDir(context.Background(), "", "/does/not/matter")
		assert.Equal(t, filepath.Join(envDir, ".ecodetect"), got)
	})

	t.Run("no double append", func(t *testing.T) {
		t.Setenv(config.EnvProjectDir, "")
		dir := filepath.Join(t.TempDir(), ".ecodetect")
		assert.Equal(t, dir, config.ResolveProjectDir(context.Background(), dir, ""))
	})

	t.Run("walk up", func(t *testing.T) {
		t.Setenv(config.EnvProjectDir, "")
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".ecodetect"), 0o750))
		sub := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(sub, 0o750))

		got := config.ResolveProjectDir(context.Background(), "", sub)
		assert.Equal(t, filepath.Join(root, ".ecodetect"), got)
	})

	t.Run("no project", func(t *testing.T) {
		t.Setenv(config.EnvProjectDir, "")
		assert.Empty(t, config.ResolveProjectDir(context.Background(), "", t.TempDir()))
	})
}

func TestNewWithProjectDir(t *testing.T) {
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvOutputFormat, "")

	projectDir := filepath.Join(t.TempDir(), ".ecodetect")
	require.NoError(t, os.MkdirAll(projectDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "config.yaml"), []byte(`
monitor:
  footprint_interval: 5s
  emissions_interval: 30s
  thresholds:
    temperature_range: [18, 24]
    humidity_range: [35, 55]
    flow_rate_threshold: 8
`), 0o600))

	cfg := config.NewWithProjectDir(context.Background(), projectDir)
	assert.Equal(t, 5*time.Second, cfg.Monitor.FootprintInterval)
	assert.InDelta(t, 18.0, cfg.Monitor.Thresholds.TemperatureRange.Low(), 1e-9)
	assert.InDelta(t, 8.0, cfg.Monitor.Thresholds.FlowRateThreshold, 1e-9)

	missing := config.NewWithProjectDir(context.Background(), t.TempDir())
	assert.Equal(t, 10*time.Second, missing.Monitor.FootprintInterval)
}
