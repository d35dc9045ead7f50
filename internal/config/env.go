package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables recognised by ApplyEnvOverrides.
const (
	EnvHome          = "ECODETECT_HOME"
	EnvProjectDir    = "ECODETECT_PROJECT_DIR"
	EnvAPIURL        = "ECODETECT_API_URL"
	EnvAPIToken      = "ECODETECT_API_TOKEN" //nolint:gosec // variable name, not a credential
	EnvAPITimeout    = "ECODETECT_API_TIMEOUT"
	EnvCacheEnabled  = "ECODETECT_CACHE_ENABLED"
	EnvVehicleType   = "ECODETECT_VEHICLE_TYPE"
	EnvTimeRange     = "ECODETECT_TIME_RANGE"
	EnvTrendSeed     = "ECODETECT_TREND_SEED"
	EnvMQTTBroker    = "ECODETECT_MQTT_BROKER"
	EnvMQTTTopic     = "ECODETECT_MQTT_TOPIC"
	EnvServerAddress = "ECODETECT_SERVER_ADDRESS"
	EnvLogLevel      = "ECODETECT_LOG_LEVEL"
	EnvLogFormat     = "ECODETECT_LOG_FORMAT"
	EnvLogFile       = "ECODETECT_LOG_FILE"
	EnvOutputFormat  = "ECODETECT_OUTPUT_FORMAT"
)

// ApplyEnvOverrides applies ECODETECT_* variables. Values that fail to parse
// are ignored and the file or default value is kept.
func (c *Config) ApplyEnvOverrides() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvAPIURL, &c.API.BaseURL)
	str(EnvAPIToken, &c.API.Token)
	str(EnvVehicleType, &c.Estimator.VehicleType)
	str(EnvTimeRange, &c.Estimator.TimeRange)
	str(EnvMQTTBroker, &c.MQTT.Broker)
	str(EnvMQTTTopic, &c.MQTT.Topic)
	str(EnvServerAddress, &c.Server.Address)
	str(EnvLogLevel, &c.Logging.Level)
	str(EnvLogFormat, &c.Logging.Format)
	str(EnvLogFile, &c.Logging.File)
	str(EnvOutputFormat, &c.Output.DefaultFormat)

	if v, ok := lookup(EnvAPITimeout); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}
	if v, ok := lookup(EnvCacheEnabled); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.API.Cache.Enabled = b
		}
	}
	if v, ok := lookup(EnvTrendSeed); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Estimator.TrendSeed = n
		}
	}
}
