package estimator

import (
	"fmt"
	"math"
	"time"
)

// Estimator computes footprints and emissions from an immutable Config.
// It is safe for concurrent use.
type Estimator struct {
	cfg   Config
	trend trendGenerator
}

// New validates cfg and builds an Estimator. The factor table and mock
// datasets are copied so later changes by the caller have no effect.
func New(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("building estimator: %w", err)
	}
	cfg.Factors = cfg.Factors.Clone()
	cfg.Mocks = cfg.Mocks.Clone()
	return &Estimator{
		cfg:   cfg,
		trend: newTrendGenerator(cfg.TrendSeed, cfg.Now),
	}, nil
}

// MustNew is New for configurations known to be valid, such as DefaultConfig.
func MustNew(cfg Config) *Estimator {
	e, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Factors returns a copy of the factor table in use.
func (e *Estimator) Factors() FactorTable {
	return e.cfg.Factors.Clone()
}

// EstimateEmissions selects a tier and produces the emissions summary.
//
// A remote result is returned unchanged. A non-empty history is run through
// the local pipeline and decorated with a synthetic trend for tr. With
// neither, the canned dataset for tr is returned.
func (e *Estimator) EstimateEmissions(
	remote *EmissionsResult,
	history []MovementSample,
	vehicle VehicleType,
	tr TimeRange,
) Estimate {
	tier := SelectTier(remote != nil, len(history))
	switch tier {
	case TierRemote:
		return Estimate{Result: remote.Clone(), Tier: tier}
	case TierLocal:
		result := e.ComputeEmissions(history, vehicle)
		result.Trend = e.trend.Generate(tr)
		return Estimate{Result: result, Tier: tier}
	default:
		result := e.cfg.Mocks.Lookup(tr)
		result.Trend = e.trend.Generate(tr)
		return Estimate{Result: result, Tier: TierMock}
	}
}

// ComputeEmissions runs the local pipeline over history without a trend.
// The result depends only on its inputs and the Estimator configuration.
func (e *Estimator) ComputeEmissions(history []MovementSample, vehicle VehicleType) EmissionsResult {
	km := e.EstimateDistance(history)
	counts := CountBehavior(history, e.cfg.SampleInterval)
	base := e.BaseEmissions(km, vehicle)
	penalties := BehaviorPenalties(counts)
	total := base + penalties

	result := EmissionsResult{
		TotalCO2Kg:             total,
		DistanceKm:             km,
		DrivingEfficiencyScore: DrivingScore(&counts, km),
		Events:                 counts,
		Breakdown: &EmissionBreakdown{
			BaseEmissions:     base,
			BehaviorPenalties: penalties,
		},
	}
	if km >= minDistanceKm {
		avg := total * 1000 / km
		result.AvgCO2PerKm = &avg
	}
	return result
}

// EstimateDistance derives kilometres travelled from the share of active
// samples, the sample interval and the assumed average speed. An empty
// history yields DefaultDistanceKm.
func (e *Estimator) EstimateDistance(history []MovementSample) float64 {
	n := len(history)
	if n == 0 {
		return DefaultDistanceKm
	}

	active := 0
	for _, s := range history {
		if s.MovementType != MovementStationary && s.AccelMagnitude > activeAccelThreshold {
			active++
		}
	}
	ratio := float64(active) / float64(n)
	if ratio == 0 {
		ratio = unknownActiveRatio
	}

	hours := float64(n) * e.cfg.SampleInterval.Seconds() / 3600
	return round1(hours * e.cfg.AverageSpeedKmh * ratio)
}

// BaseEmissions returns distance-based emissions in kg CO2.
func (e *Estimator) BaseEmissions(km float64, vehicle VehicleType) float64 {
	return km * float64(e.cfg.Factors.GramsPerKm(vehicle)) / 1000
}

// CountBehavior counts harsh braking, rapid acceleration and idle minutes.
func CountBehavior(history []MovementSample, interval time.Duration) DrivingBehaviorCounts {
	var counts DrivingBehaviorCounts
	idleSamples := 0
	for _, s := range history {
		switch {
		case s.MovementType == MovementBraking && s.AccelMagnitude > harshAccelThreshold:
			counts.HarshBraking++
		case s.MovementType == MovementAccelerating && s.AccelMagnitude > harshAccelThreshold:
			counts.RapidAcceleration++
		}
		if s.MovementType == MovementStationary ||
			(s.AccelMagnitude < idleAccelThreshold && s.RotationRate < idleRotationLimit) {
			idleSamples++
		}
	}
	counts.IdleTimeMinutes = math.Round(float64(idleSamples) * interval.Seconds() / 60)
	return counts
}

// BehaviorPenalties returns the extra kg CO2 attributed to driving behaviour.
func BehaviorPenalties(c DrivingBehaviorCounts) float64 {
	return float64(c.HarshBraking)*harshBrakingPenaltyKg +
		float64(c.RapidAcceleration)*rapidAccelPenaltyKg +
		c.IdleTimeMinutes*idleMinutePenaltyKg
}

// DrivingScore rates driving efficiency from 0 to 100. Without counts, or
// below 0.1 km, the score is a neutral 50.
func DrivingScore(c *DrivingBehaviorCounts, km float64) int {
	if c == nil || km < minDistanceKm {
		return 50
	}

	score := 80.0
	switch harsh := float64(c.HarshBraking) / km; {
	case harsh > 0.5:
		score -= 15
	case harsh > 0.2:
		score -= 7
	}
	switch rapid := float64(c.RapidAcceleration) / km; {
	case rapid > 0.5:
		score -= 20
	case rapid > 0.2:
		score -= 10
	}
	switch idle := c.IdleTimeMinutes / (km * 2); {
	case idle > 0.3:
		score -= 10
	case idle > 0.1:
		score -= 5
	}
	return int(clamp(score, 0, 100))
}
