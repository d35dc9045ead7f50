// Package config loads, validates and persists ecodetect configuration.
//
// Values are layered: built-in defaults, the global file at
// $ECODETECT_HOME/config.yaml, an optional project-local .ecodetect/config.yaml
// merged section by section, then ECODETECT_* environment variables. CLI flags
// are applied last by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/thresholds"
)

// CurrentSchemaVersion is written by config init.
const CurrentSchemaVersion = "1.0.0"

// supportedSchemaVersions is the range of config file versions this build reads.
const supportedSchemaVersions = ">=1.0.0, <2.0.0"

const outputTypeFile = "file"

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = constError("invalid configuration")

	// ErrUnsupportedVersion is returned for config files outside the supported schema range.
	ErrUnsupportedVersion = constError("unsupported configuration version")
)

// Config is the full ecodetect configuration.
type Config struct {
	Version   string          `yaml:"version"   json:"version"`
	API       APIConfig       `yaml:"api"       json:"api"`
	Estimator EstimatorConfig `yaml:"estimator" json:"estimator"`
	Monitor   MonitorConfig   `yaml:"monitor"   json:"monitor"`
	MQTT      MQTTConfig      `yaml:"mqtt"      json:"mqtt"`
	Server    ServerConfig    `yaml:"server"    json:"server"`
	Logging   LoggingConfig   `yaml:"logging"   json:"logging"`
	Output    OutputConfig    `yaml:"output"    json:"output"`

	configPath string
}

// APIConfig describes the EcoDetect backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"        json:"base_url"`
	Token   string        `yaml:"token,omitempty" json:"-"`
	Timeout time.Duration `yaml:"timeout"         json:"timeout"`
	Cache   CacheConfig   `yaml:"cache"           json:"cache"`
}

// CacheConfig controls the on-disk response cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"             json:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"         json:"ttl_seconds"`
	Directory  string `yaml:"directory,omitempty" json:"directory,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"         json:"max_size_mb"`
}

// EstimatorConfig holds the tunable estimation parameters.
type EstimatorConfig struct {
	SampleInterval  time.Duration              `yaml:"sample_interval"   json:"sample_interval"`
	AverageSpeedKmh float64                    `yaml:"average_speed_kmh" json:"average_speed_kmh"`
	Weights         estimator.FootprintWeights `yaml:"weights"           json:"weights"`
	VehicleType     string                     `yaml:"vehicle_type"      json:"vehicle_type"`
	TimeRange       string                     `yaml:"time_range"        json:"time_range"`
	TrendSeed       uint64                     `yaml:"trend_seed"        json:"trend_seed"`

	// Factors overrides or extends the built-in g/km table.
	Factors map[string]int `yaml:"factors,omitempty" json:"factors,omitempty"`
}

// MonitorConfig controls the polling dashboard.
type MonitorConfig struct {
	FootprintInterval time.Duration         `yaml:"footprint_interval" json:"footprint_interval"`
	EmissionsInterval time.Duration         `yaml:"emissions_interval" json:"emissions_interval"`
	Thresholds        thresholds.Thresholds `yaml:"thresholds"         json:"thresholds"`
}

// MQTTConfig describes the optional live sensor feed.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"            json:"enabled"`
	Broker   string `yaml:"broker"             json:"broker"`
	Topic    string `yaml:"topic"              json:"topic"`
	ClientID string `yaml:"client_id,omitempty" json:"client_id,omitempty"`
	QoS      byte   `yaml:"qos"                json:"qos"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
}

// ServerConfig controls ecodetect serve.
type ServerConfig struct {
	Address      string        `yaml:"address"       json:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"  json:"cors_origins"`
	MaxBatchSize int           `yaml:"max_batch_size" json:"max_batch_size"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string      `yaml:"level"          json:"level"`
	Format string      `yaml:"format"         json:"format"`
	File   string      `yaml:"file,omitempty" json:"file,omitempty"`
	Audit  AuditConfig `yaml:"audit"          json:"audit"`
}

// AuditConfig controls the command audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"        json:"enabled"`
	File    string `yaml:"file,omitempty" json:"file,omitempty"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision"      json:"precision"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentSchemaVersion,
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 10 * time.Second,
			Cache: CacheConfig{
				Enabled:    true,
				TTLSeconds: 30,
				MaxSizeMB:  50,
			},
		},
		Estimator: EstimatorConfig{
			SampleInterval:  estimator.DefaultSampleInterval,
			AverageSpeedKmh: estimator.DefaultAverageSpeedKmh,
			Weights:         estimator.DefaultFootprintWeights(),
			VehicleType:     string(estimator.DefaultType),
			TimeRange:       string(estimator.RangeDay),
		},
		Monitor: MonitorConfig{
			FootprintInterval: 10 * time.Second,
			EmissionsInterval: 60 * time.Second,
			Thresholds:        thresholds.Default(),
		},
		MQTT: MQTTConfig{
			Broker: "tcp://localhost:1883",
			Topic:  "ecodetect/sensors",
		},
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins:  []string{"*"},
			MaxBatchSize: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			DefaultFormat: "table",
			Precision:     2,
		},
	}
}

// New returns the defaults overlaid with the global config file and the
// environment. A missing file is not an error; an unreadable one is logged
// to stderr and ignored.
func New() *Config {
	cfg := Default()
	if dir, err := GetConfigDir(); err == nil {
		cfg.configPath = filepath.Join(dir, "config.yaml")
		if _, statErr := os.Stat(cfg.configPath); statErr == nil {
			if loadErr := cfg.Load(cfg.configPath); loadErr != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Warning: ignoring config file %s: %v\n", cfg.configPath, loadErr)
			}
		}
	}
	cfg.ApplyEnvOverrides()
	return cfg
}

// Load reads path on top of the current values.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err = checkSchemaVersion(c.Version); err != nil {
		return err
	}
	c.configPath = path
	return nil
}

// Save writes the configuration to its path, creating parent directories.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config path not set")
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", c.configPath, err)
	}
	return nil
}

// SetConfigPath changes where Save writes.
func (c *Config) SetConfigPath(path string) { c.configPath = path }

// ConfigPath returns where the configuration was loaded from or will be saved.
func (c *Config) ConfigPath() string { return c.configPath }

func checkSchemaVersion(v string) error {
	if v == "" {
		return nil
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedVersion, v)
	}
	constraint, err := semver.NewConstraint(supportedSchemaVersions)
	if err != nil {
		return fmt.Errorf("parsing supported version range: %w", err)
	}
	if !constraint.Check(sv) {
		return fmt.Errorf("%w: %s (supported %s)", ErrUnsupportedVersion, v, supportedSchemaVersions)
	}
	return nil
}

// Validate checks every section and returns all problems joined together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if err := checkSchemaVersion(c.Version); err != nil {
		errs = append(errs, err)
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("api.base_url %q must be an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		add("api.timeout must be positive")
	}
	if c.API.Cache.TTLSeconds < 0 {
		add("api.cache.ttl_seconds must be >= 0")
	}

	if _, err := c.Estimator.ToEstimatorConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Estimator.ParsedVehicleType(); err != nil {
		add("estimator.vehicle_type: %v", err)
	}
	if _, err := estimator.ParseTimeRange(c.Estimator.TimeRange); err != nil {
		add("estimator.time_range: %v", err)
	}

	if c.Monitor.FootprintInterval <= 0 {
		add("monitor.footprint_interval must be positive")
	}
	if c.Monitor.EmissionsInterval <= 0 {
		add("monitor.emissions_interval must be positive")
	}
	if err := c.Monitor.Thresholds.Validate(); err != nil {
		add("monitor.thresholds: %v", err)
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			add("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.Topic == "" {
			add("mqtt.topic is required when mqtt is enabled")
		}
		if c.MQTT.QoS > 2 {
			add("mqtt.qos must be 0, 1 or 2")
		}
	}

	if c.Server.Address == "" {
		add("server.address is required")
	}
	if c.Server.MaxBatchSize <= 0 {
		add("server.max_batch_size must be positive")
	}

	switch strings.ToLower(c.Output.DefaultFormat) {
	case "table", "json", "ndjson":
	default:
		add("output.default_format %q must be table, json or ndjson", c.Output.DefaultFormat)
	}

	return errors.Join(errs...)
}

// ToEstimatorConfig builds the immutable estimator configuration.
func (e EstimatorConfig) ToEstimatorConfig() (estimator.Config, error) {
	cfg := estimator.DefaultConfig()
	cfg.SampleInterval = e.SampleInterval
	cfg.AverageSpeedKmh = e.AverageSpeedKmh
	cfg.Weights = e.Weights
	cfg.TrendSeed = e.TrendSeed
	for name, grams := range e.Factors {
		cfg.Factors[estimator.VehicleType(strings.ToUpper(name))] = grams
	}
	if err := cfg.Validate(); err != nil {
		return estimator.Config{}, fmt.Errorf("%w: estimator: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ParsedVehicleType resolves the configured vehicle type against the factor table.
func (e EstimatorConfig) ParsedVehicleType() (estimator.VehicleType, error) {
	table := estimator.DefaultFactorTable()
	for name, grams := range e.Factors {
		table[estimator.VehicleType(strings.ToUpper(name))] = grams
	}
	return table.ParseVehicleType(e.VehicleType)
}

// ParsedTimeRange resolves the configured default time range.
func (e EstimatorConfig) ParsedTimeRange() (estimator.TimeRange, error) {
	return estimator.ParseTimeRange(e.TimeRange)
}
