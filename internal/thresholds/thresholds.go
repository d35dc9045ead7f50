// Package thresholds holds the sensor alert thresholds and evaluates readings
// against them.
package thresholds

import (
	"fmt"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidThresholds is returned by Validate.
const ErrInvalidThresholds = constError("invalid thresholds")

// Range is an inclusive [low, high] band, serialised as a two-element array.
type Range [2]float64

// Low returns the lower bound.
func (r Range) Low() float64 { return r[0] }

// High returns the upper bound.
func (r Range) High() float64 { return r[1] }

// Thresholds is the alert configuration shared with the backend.
type Thresholds struct {
	TemperatureRange  Range   `json:"temperature_range"   yaml:"temperature_range"`
	HumidityRange     Range   `json:"humidity_range"      yaml:"humidity_range"`
	FlowRateThreshold float64 `json:"flow_rate_threshold" yaml:"flow_rate_threshold"`
}

// Default returns the thresholds the backend starts with.
func Default() Thresholds {
	return Thresholds{
		TemperatureRange:  Range{20, 25},
		HumidityRange:     Range{30, 60},
		FlowRateThreshold: 10,
	}
}

// Validate checks that ranges are ordered and the flow limit is non-negative.
func (t Thresholds) Validate() error {
	if t.TemperatureRange.Low() > t.TemperatureRange.High() {
		return fmt.Errorf("%w: temperature range low %g above high %g",
			ErrInvalidThresholds, t.TemperatureRange.Low(), t.TemperatureRange.High())
	}
	if t.HumidityRange.Low() > t.HumidityRange.High() {
		return fmt.Errorf("%w: humidity range low %g above high %g",
			ErrInvalidThresholds, t.HumidityRange.Low(), t.HumidityRange.High())
	}
	if t.HumidityRange.Low() < 0 || t.HumidityRange.High() > 100 {
		return fmt.Errorf("%w: humidity range must lie within [0,100]", ErrInvalidThresholds)
	}
	if t.FlowRateThreshold < 0 {
		return fmt.Errorf("%w: flow rate threshold %g is negative", ErrInvalidThresholds, t.FlowRateThreshold)
	}
	return nil
}

// Alert names a threshold breach.
type Alert string

// Alerts reported by Check.
const (
	TemperatureLow  Alert = "temperature_low"
	TemperatureHigh Alert = "temperature_high"
	HumidityLow     Alert = "humidity_low"
	HumidityHigh    Alert = "humidity_high"
	WaterUsageHigh  Alert = "water_usage_high"
)

// Breach is a single threshold violation with the offending value.
type Breach struct {
	Alert Alert   `json:"alert"`
	Value float64 `json:"value"`
	Limit float64 `json:"limit"`
}

func (b Breach) String() string {
	return fmt.Sprintf("%s: %g (limit %g)", b.Alert, b.Value, b.Limit)
}

// Check evaluates a snapshot and optional water flow. Missing readings are
// not checked. Breaches are returned in a fixed order.
func (t Thresholds) Check(snapshot estimator.SensorSnapshot, waterFlow *float64) []Breach {
	var out []Breach
	if v := snapshot.Temperature; v != nil {
		switch {
		case *v < t.TemperatureRange.Low():
			out = append(out, Breach{Alert: TemperatureLow, Value: *v, Limit: t.TemperatureRange.Low()})
		case *v > t.TemperatureRange.High():
			out = append(out, Breach{Alert: TemperatureHigh, Value: *v, Limit: t.TemperatureRange.High()})
		}
	}
	if v := snapshot.Humidity; v != nil {
		switch {
		case *v < t.HumidityRange.Low():
			out = append(out, Breach{Alert: HumidityLow, Value: *v, Limit: t.HumidityRange.Low()})
		case *v > t.HumidityRange.High():
			out = append(out, Breach{Alert: HumidityHigh, Value: *v, Limit: t.HumidityRange.High()})
		}
	}
	if waterFlow != nil && *waterFlow > t.FlowRateThreshold {
		out = append(out, Breach{Alert: WaterUsageHigh, Value: *waterFlow, Limit: t.FlowRateThreshold})
	}
	return out
}
