package estimator

import (
	"fmt"
	"time"
)

// Default estimation parameters.
const (
	DefaultSampleInterval  = 5 * time.Second
	DefaultAverageSpeedKmh = 30.0

	// DefaultDistanceKm is used when no movement samples are available.
	DefaultDistanceKm = 10.0
)

// Behaviour detection thresholds and penalty weights.
const (
	activeAccelThreshold = 0.1
	harshAccelThreshold  = 0.5
	idleAccelThreshold   = 0.05
	idleRotationLimit    = 0.1
	unknownActiveRatio   = 0.5

	harshBrakingPenaltyKg = 0.05
	rapidAccelPenaltyKg   = 0.08
	idleMinutePenaltyKg   = 0.02

	minDistanceKm = 0.1
)

// FootprintWeights are the per-input weights of the local footprint formula.
type FootprintWeights struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	WaterFlow   float64 `json:"water_flow"  yaml:"water_flow"`
	Altitude    float64 `json:"altitude"    yaml:"altitude"`
	Pressure    float64 `json:"pressure"    yaml:"pressure"`
}

// DefaultFootprintWeights returns the built-in weights.
func DefaultFootprintWeights() FootprintWeights {
	return FootprintWeights{Temperature: 0.2, WaterFlow: 0.5, Altitude: 0.1, Pressure: 0.05}
}

// Config is the immutable configuration an Estimator is built with.
type Config struct {
	Weights         FootprintWeights
	SampleInterval  time.Duration
	AverageSpeedKmh float64
	Factors         FactorTable
	Mocks           MockSet

	// TrendSeed seeds the synthetic trend. Zero picks a random seed per Estimator.
	TrendSeed uint64

	// Now supplies the trend end date. Nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns a configuration with the built-in tables.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultFootprintWeights(),
		SampleInterval:  DefaultSampleInterval,
		AverageSpeedKmh: DefaultAverageSpeedKmh,
		Factors:         DefaultFactorTable(),
		Mocks:           DefaultMockSet(),
	}
}

// Validate reports configuration errors that would make estimates meaningless.
func (c Config) Validate() error {
	if c.SampleInterval <= 0 {
		return fmt.Errorf("%w: sample interval must be positive, got %s", ErrInvalidConfig, c.SampleInterval)
	}
	if c.AverageSpeedKmh <= 0 {
		return fmt.Errorf("%w: average speed must be positive, got %g", ErrInvalidConfig, c.AverageSpeedKmh)
	}
	if err := c.Factors.Validate(); err != nil {
		return err
	}
	for _, tr := range AllTimeRanges() {
		if _, ok := c.Mocks[tr]; !ok {
			return fmt.Errorf("%w: no mock dataset for range %q", ErrInvalidConfig, tr)
		}
	}
	return nil
}
