package estimator

import (
	"strings"
	"time"
)

// MovementType classifies a single IMU-derived vehicle motion reading.
type MovementType string

// Movement classifications reported by the vehicle sensor.
const (
	MovementAccelerating   MovementType = "accelerating"
	MovementBraking        MovementType = "braking"
	MovementTurningLeft    MovementType = "turning_left"
	MovementTurningRight   MovementType = "turning_right"
	MovementRoughRoad      MovementType = "rough_road"
	MovementStationary     MovementType = "stationary"
	MovementSteadyMovement MovementType = "steady_movement"
)

// IsValid reports whether m is one of the known movement classifications.
func (m MovementType) IsValid() bool {
	switch m {
	case MovementAccelerating, MovementBraking, MovementTurningLeft, MovementTurningRight,
		MovementRoughRoad, MovementStationary, MovementSteadyMovement:
		return true
	default:
		return false
	}
}

// SensorSnapshot is the latest environmental sensor reading. Any field may be
// absent when the device did not report it.
type SensorSnapshot struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	Altitude    *float64 `json:"altitude"`
}

// WaterFlowReading is a water-flow measurement in litres per minute.
type WaterFlowReading struct {
	FlowRate float64 `json:"flow_rate"`
	Unit     string  `json:"unit,omitempty"`
}

// Orientation is the vehicle attitude in degrees.
type Orientation struct {
	Pitch   float64 `json:"pitch"`
	Roll    float64 `json:"roll"`
	Heading float64 `json:"heading"`
}

// MovementSample is one classified vehicle motion reading.
type MovementSample struct {
	AccelMagnitude float64      `json:"accel_magnitude"`
	RotationRate   float64      `json:"rotation_rate"`
	MovementType   MovementType `json:"movement_type"`
	Timestamp      string       `json:"timestamp"`
	Orientation    *Orientation `json:"orientation,omitempty"`
}

// timestampLayouts are tried in order when parsing sample timestamps. The
// device publisher emits ISO-8601 without a zone designator.
//
//nolint:gochecknoglobals // read-only layout table
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Time parses the sample timestamp. Timestamps without a zone are read as UTC.
func (s MovementSample) Time() (time.Time, bool) {
	raw := strings.TrimSpace(s.Timestamp)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DrivingBehaviorCounts summarises eco-driving events over a movement history.
type DrivingBehaviorCounts struct {
	HarshBraking      int     `json:"harsh_braking"`
	RapidAcceleration int     `json:"rapid_acceleration"`
	IdleTimeMinutes   float64 `json:"idle_time_minutes"`
}

// EmissionBreakdown splits total emissions into distance-based and behaviour-based parts.
type EmissionBreakdown struct {
	BaseEmissions     float64 `json:"base_emissions"`
	BehaviorPenalties float64 `json:"behavior_penalties"`
}

// TrendPoint is one day of the emission trend series.
type TrendPoint struct {
	Date string  `json:"date"`
	CO2  float64 `json:"co2"`
}

// EmissionsResult is a vehicle emissions summary. The JSON field names match
// the shape served by the EcoDetect backend.
type EmissionsResult struct {
	TotalCO2Kg             float64               `json:"total_co2"`
	DistanceKm             float64               `json:"distance_traveled"`
	AvgCO2PerKm            *float64              `json:"average_co2_per_km"`
	DrivingEfficiencyScore int                   `json:"driving_efficiency_score"`
	Events                 DrivingBehaviorCounts `json:"eco_driving_events"`
	Breakdown              *EmissionBreakdown    `json:"emission_breakdown,omitempty"`
	FuelEfficiency         *float64              `json:"fuel_efficiency,omitempty"`
	Trend                  []TrendPoint          `json:"emission_trend,omitempty"`
}

// Clone returns a deep copy of r so callers can never alias shared tables.
func (r EmissionsResult) Clone() EmissionsResult {
	out := r
	if r.AvgCO2PerKm != nil {
		v := *r.AvgCO2PerKm
		out.AvgCO2PerKm = &v
	}
	if r.Breakdown != nil {
		b := *r.Breakdown
		out.Breakdown = &b
	}
	if r.FuelEfficiency != nil {
		v := *r.FuelEfficiency
		out.FuelEfficiency = &v
	}
	if r.Trend != nil {
		out.Trend = append([]TrendPoint(nil), r.Trend...)
	}
	return out
}

// Source tags where a footprint percentage came from.
type Source string

// Footprint sources.
const (
	SourceAPI   Source = "api"
	SourceLocal Source = "local"
)

// FootprintResult is the 0-100 environmental impact percentage with its provenance.
type FootprintResult struct {
	Percent float64 `json:"percent"`
	Source  Source  `json:"source"`
}

// RemoteFootprint is the backend's carbon-footprint response.
type RemoteFootprint struct {
	CarbonFootprint *float64 `json:"carbon_footprint"`
}
