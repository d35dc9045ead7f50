package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, CurrentSchemaVersion, cfg.Version)
	assert.Equal(t, 10*time.Second, cfg.Monitor.FootprintInterval)
	assert.Equal(t, 60*time.Second, cfg.Monitor.EmissionsInterval)
	assert.Equal(t, 5*time.Second, cfg.Estimator.SampleInterval)
	assert.InDelta(t, 30.0, cfg.Estimator.AverageSpeedKmh, 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "localhost" }, wantErr: ErrInvalidConfig},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: ErrInvalidConfig},
		{name: "zero sample interval", mutate: func(c *Config) { c.Estimator.SampleInterval = 0 }, wantErr: ErrInvalidConfig},
		{name: "negative speed", mutate: func(c *Config) { c.Estimator.AverageSpeedKmh = -3 }, wantErr: ErrInvalidConfig},
		{name: "unknown vehicle", mutate: func(c *Config) { c.Estimator.VehicleType = "ZEPPELIN" }, wantErr: ErrInvalidConfig},
		{name: "unknown range", mutate: func(c *Config) { c.Estimator.TimeRange = "decade" }, wantErr: ErrInvalidConfig},
		{name: "zero footprint interval", mutate: func(c *Config) { c.Monitor.FootprintInterval = 0 }, wantErr: ErrInvalidConfig},
		{name: "inverted thresholds", mutate: func(c *Config) { c.Monitor.Thresholds.TemperatureRange[0] = 99 }, wantErr: ErrInvalidConfig},
		{name: "mqtt without broker", mutate: func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker = "" }, wantErr: ErrInvalidConfig},
		{name: "bad output format", mutate: func(c *Config) { c.Output.DefaultFormat = "xml" }, wantErr: ErrInvalidConfig},
		{name: "unsupported schema", mutate: func(c *Config) { c.Version = "2.1.0" }, wantErr: ErrUnsupportedVersion},
		{name: "custom vehicle from factors", mutate: func(c *Config) {
			c.Estimator.Factors = map[string]int{"cargo_bike": 5}
			c.Estimator.VehicleType = "CARGO_BIKE"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.SetConfigPath(path)
	cfg.API.BaseURL = "https://ecodetect.example.com"
	cfg.Estimator.VehicleType = string(estimator.SmallHybrid)
	cfg.Estimator.SampleInterval = 2 * time.Second
	cfg.Monitor.Thresholds.FlowRateThreshold = 7.5
	require.NoError(t, cfg.Save())

	loaded := Default()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, path, loaded.ConfigPath())
	assert.Equal(t, "https://ecodetect.example.com", loaded.API.BaseURL)
	assert.Equal(t, string(estimator.SmallHybrid), loaded.Estimator.VehicleType)
	assert.Equal(t, 2*time.Second, loaded.Estimator.SampleInterval)
	assert.InDelta(t, 7.5, loaded.Monitor.Thresholds.FlowRateThreshold, 1e-9)
	assert.InDelta(t, 20.0, loaded.Monitor.Thresholds.TemperatureRange.Low(), 1e-9)
}

func TestConfig_LoadRejectsFutureSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 3.0.0\n"), 0o600))

	err := Default().Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestConfig_SaveWithoutPath(t *testing.T) {
	assert.Error(t, Default().Save())
}

func TestNew_ReadsHomeAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(`
version: 1.0.0
api:
  base_url: http://sensors.local:5000
  timeout: 3s
estimator:
  vehicle_type: LARGE_EV
`), 0o600))
	t.Setenv(EnvAPIToken, "secret")
	t.Setenv(EnvVehicleType, "SMALL_DIESEL")

	cfg := New()
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.ConfigPath())
	assert.Equal(t, "http://sensors.local:5000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "SMALL_DIESEL", cfg.Estimator.VehicleType)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAPIURL:        "http://api:9000",
		EnvAPITimeout:    "45s",
		EnvCacheEnabled:  "false",
		EnvTrendSeed:     "1234",
		EnvTimeRange:     "month",
		EnvMQTTBroker:    "tcp://broker:1883",
		EnvServerAddress: ":9999",
		EnvLogLevel:      "debug",
		EnvOutputFormat:  "json",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	cfg.applyEnv(lookup)
	assert.Equal(t, "http://api:9000", cfg.API.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.Cache.Enabled)
	assert.Equal(t, uint64(1234), cfg.Estimator.TrendSeed)
	assert.Equal(t, "month", cfg.Estimator.TimeRange)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)

	bad := Default()
	bad.applyEnv(func(k string) (string, bool) {
		if k == EnvAPITimeout {
			return "soon", true
		}
		return "", false
	})
	assert.Equal(t, 10*time.Second, bad.API.Timeout)
}

func TestEstimatorConfig_ToEstimatorConfig(t *testing.T) {
	ec := Default().Estimator
	ec.SampleInterval = time.Second
	ec.AverageSpeedKmh = 45
	ec.TrendSeed = 9
	ec.Factors = map[string]int{"medium_petrol": 160, "CARGO_BIKE": 3}

	got, err := ec.ToEstimatorConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Second, got.SampleInterval)
	assert.InDelta(t, 45.0, got.AverageSpeedKmh, 1e-9)
	assert.Equal(t, uint64(9), got.TrendSeed)
	assert.Equal(t, 160, got.Factors.GramsPerKm(estimator.MediumPetrol))
	assert.Equal(t, 3, got.Factors.GramsPerKm("CARGO_BIKE"))
	assert.Equal(t, 150, got.Factors.GramsPerKm(estimator.DefaultType))

	ec.Factors = map[string]int{"SMALL_EV": -1}
	_, err = ec.ToEstimatorConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, estimator.ErrInvalidConfig)
}

func TestLoggingConfig_ToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "warn", Format: "json"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, "stderr", got.Output)

	lc.File = "/var/log/ecodetect.log"
	got = lc.ToLoggingConfig()
	assert.Equal(t, "file", got.Output)
	assert.Equal(t, "/var/log/ecodetect.log", got.File)
}

func TestGlobalConfig(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Same(t, cfg, GetGlobalConfig())
	assert.Equal(t, "table", GetDefaultOutputFormat())

	replacement := Default()
	replacement.Output.DefaultFormat = "ndjson"
	SetGlobalConfig(replacement)
	assert.Equal(t, "ndjson", GetDefaultOutputFormat())
}

func TestGetCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	dir, err := GetCacheDir(Default())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)

	cfg := Default()
	cfg.API.Cache.Directory = "/srv/cache"
	dir, err = GetCacheDir(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/srv/cache", dir)
}
