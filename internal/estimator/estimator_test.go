package estimator_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
}

func testEstimator(t *testing.T) *estimator.Estimator {
	t.Helper()
	cfg := estimator.DefaultConfig()
	cfg.TrendSeed = 42
	cfg.Now = fixedClock
	est, err := estimator.New(cfg)
	require.NoError(t, err)
	return est
}

func samples(n int, typ estimator.MovementType, accel float64) []estimator.MovementSample {
	out := make([]estimator.MovementSample, n)
	for i := range out {
		out[i] = estimator.MovementSample{
			AccelMagnitude: accel,
			RotationRate:   1,
			MovementType:   typ,
			Timestamp:      time.Date(2024, 3, 15, 12, 0, i, 0, time.UTC).Format(time.RFC3339),
		}
	}
	return out
}

func TestEstimateEmissions_EndToEnd(t *testing.T) {
	est := testEstimator(t)

	history := append(
		samples(6, estimator.MovementBraking, 0.6),
		samples(4, estimator.MovementStationary, 0)...,
	)

	got := est.EstimateEmissions(nil, history, estimator.MediumPetrol, estimator.RangeDay)
	require.Equal(t, estimator.TierLocal, got.Tier)

	r := got.Result
	hours := 10.0 * 5 / 3600
	wantKm := math.Round(hours*30*0.6*10) / 10

	assert.Equal(t, 6, r.Events.HarshBraking)
	assert.Equal(t, 0, r.Events.RapidAcceleration)
	assert.InDelta(t, 0.0, r.Events.IdleTimeMinutes, 1e-9)
	assert.InDelta(t, wantKm, r.DistanceKm, 1e-9)
	require.NotNil(t, r.Breakdown)
	assert.InDelta(t, wantKm*0.150, r.Breakdown.BaseEmissions, 1e-9)
	assert.InDelta(t, 0.30, r.Breakdown.BehaviorPenalties, 1e-9)
	assert.InDelta(t, r.Breakdown.BaseEmissions+0.30, r.TotalCO2Kg, 1e-9)
	require.NotNil(t, r.AvgCO2PerKm)
	assert.InDelta(t, r.TotalCO2Kg*1000/wantKm, *r.AvgCO2PerKm, 1e-9)
	assert.Equal(t, 65, r.DrivingEfficiencyScore)
	assert.Len(t, r.Trend, 7)
}

func TestEstimateEmissions_Tiers(t *testing.T) {
	est := testEstimator(t)
	avg := 120.0
	remote := &estimator.EmissionsResult{TotalCO2Kg: 3.3, DistanceKm: 27.5, AvgCO2PerKm: &avg, DrivingEfficiencyScore: 91}
	history := samples(20, estimator.MovementSteadyMovement, 0.3)

	tests := []struct {
		name     string
		remote   *estimator.EmissionsResult
		history  []estimator.MovementSample
		tr       estimator.TimeRange
		wantTier estimator.Tier
		check    func(t *testing.T, r estimator.EmissionsResult)
	}{
		{
			name:     "remote wins over history",
			remote:   remote,
			history:  history,
			tr:       estimator.RangeWeek,
			wantTier: estimator.TierRemote,
			check: func(t *testing.T, r estimator.EmissionsResult) {
				assert.InDelta(t, 3.3, r.TotalCO2Kg, 1e-9)
				assert.Equal(t, 91, r.DrivingEfficiencyScore)
				assert.Empty(t, r.Trend)
			},
		},
		{
			name:     "history computed locally",
			history:  history,
			tr:       estimator.RangeMonth,
			wantTier: estimator.TierLocal,
			check: func(t *testing.T, r estimator.EmissionsResult) {
				assert.NotNil(t, r.Breakdown)
				assert.Len(t, r.Trend, 30)
			},
		},
		{
			name:     "empty history yields week mock",
			history:  []estimator.MovementSample{},
			tr:       estimator.RangeWeek,
			wantTier: estimator.TierMock,
			check: func(t *testing.T, r estimator.EmissionsResult) {
				assert.InDelta(t, 19.6, r.TotalCO2Kg, 1e-9)
				assert.InDelta(t, 138.0, r.DistanceKm, 1e-9)
				assert.Equal(t, 72, r.DrivingEfficiencyScore)
				assert.Equal(t, 21, r.Events.HarshBraking)
				assert.Equal(t, 35, r.Events.RapidAcceleration)
				assert.InDelta(t, 84.0, r.Events.IdleTimeMinutes, 1e-9)
				require.NotNil(t, r.AvgCO2PerKm)
				assert.InDelta(t, 142.0, *r.AvgCO2PerKm, 1e-9)
				require.NotNil(t, r.FuelEfficiency)
				assert.InDelta(t, 8.2, *r.FuelEfficiency, 1e-9)
				assert.Nil(t, r.Breakdown)
			},
		},
		{
			name:     "nil history yields month mock",
			tr:       estimator.RangeMonth,
			wantTier: estimator.TierMock,
			check: func(t *testing.T, r estimator.EmissionsResult) {
				assert.InDelta(t, 84.2, r.TotalCO2Kg, 1e-9)
				assert.Equal(t, 89, r.Events.HarshBraking)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := est.EstimateEmissions(tt.remote, tt.history, estimator.MediumPetrol, tt.tr)
			assert.Equal(t, tt.wantTier, got.Tier)
			tt.check(t, got.Result)
		})
	}
}

func TestEstimateEmissions_MockIsNotShared(t *testing.T) {
	est := testEstimator(t)

	first := est.EstimateEmissions(nil, nil, estimator.DefaultType, estimator.RangeDay)
	*first.Result.AvgCO2PerKm = 999
	first.Result.Events.HarshBraking = 999

	second := est.EstimateEmissions(nil, nil, estimator.DefaultType, estimator.RangeDay)
	assert.InDelta(t, 142.0, *second.Result.AvgCO2PerKm, 1e-9)
	assert.Equal(t, 3, second.Result.Events.HarshBraking)
}

func TestComputeEmissions_Idempotent(t *testing.T) {
	cfg := estimator.DefaultConfig()
	est := estimator.MustNew(cfg)
	history := append(
		samples(30, estimator.MovementAccelerating, 0.7),
		samples(50, estimator.MovementSteadyMovement, 0.2)...,
	)

	a := est.EstimateEmissions(nil, history, estimator.LargeDiesel, estimator.RangeDay)
	b := est.EstimateEmissions(nil, history, estimator.LargeDiesel, estimator.RangeDay)

	assert.Equal(t, a.Result.TotalCO2Kg, b.Result.TotalCO2Kg) //nolint:testifylint // exact equality required
	assert.Equal(t, a.Result.DrivingEfficiencyScore, b.Result.DrivingEfficiencyScore)
	assert.Equal(t, a.Result.Events, b.Result.Events)
}

func TestEstimateDistance(t *testing.T) {
	est := estimator.MustNew(estimator.DefaultConfig())

	tests := []struct {
		name    string
		history []estimator.MovementSample
		want    float64
	}{
		{name: "empty history uses default", history: nil, want: 10},
		{
			name:    "all active",
			history: samples(720, estimator.MovementSteadyMovement, 0.3),
			want:    30, // 720*5s = 1h at 30 km/h
		},
		{
			name:    "no active samples uses half ratio",
			history: samples(720, estimator.MovementStationary, 0),
			want:    15,
		},
		{
			name:    "low acceleration is not active",
			history: samples(720, estimator.MovementTurningLeft, 0.05),
			want:    15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, est.EstimateDistance(tt.history), 1e-9)
		})
	}
}

func TestEstimateDistance_ConfiguredSpeedAndInterval(t *testing.T) {
	cfg := estimator.DefaultConfig()
	cfg.SampleInterval = 10 * time.Second
	cfg.AverageSpeedKmh = 60
	est := estimator.MustNew(cfg)

	// 360 samples * 10s = 1h at 60 km/h
	got := est.EstimateDistance(samples(360, estimator.MovementSteadyMovement, 0.3))
	assert.InDelta(t, 60.0, got, 1e-9)
}

func TestCountBehavior(t *testing.T) {
	history := []estimator.MovementSample{
		{MovementType: estimator.MovementBraking, AccelMagnitude: 0.6, RotationRate: 2},
		{MovementType: estimator.MovementBraking, AccelMagnitude: 0.5, RotationRate: 2},
		{MovementType: estimator.MovementAccelerating, AccelMagnitude: 0.9, RotationRate: 2},
		{MovementType: estimator.MovementAccelerating, AccelMagnitude: 0.4, RotationRate: 2},
		{MovementType: estimator.MovementSteadyMovement, AccelMagnitude: 0.01, RotationRate: 0.05},
	}
	history = append(history, samples(23, estimator.MovementStationary, 0)...)

	got := estimator.CountBehavior(history, 5*time.Second)
	assert.Equal(t, 1, got.HarshBraking)
	assert.Equal(t, 1, got.RapidAcceleration)
	// 24 idle samples * 5s = 2 minutes
	assert.InDelta(t, 2.0, got.IdleTimeMinutes, 1e-9)
}

func TestBehaviorPenalties(t *testing.T) {
	got := estimator.BehaviorPenalties(estimator.DrivingBehaviorCounts{
		HarshBraking:      2,
		RapidAcceleration: 3,
		IdleTimeMinutes:   10,
	})
	assert.InDelta(t, 2*0.05+3*0.08+10*0.02, got, 1e-9)
}

func TestDrivingScore(t *testing.T) {
	tests := []struct {
		name   string
		counts *estimator.DrivingBehaviorCounts
		km     float64
		want   int
	}{
		{name: "nil counts neutral", counts: nil, km: 20, want: 50},
		{name: "short distance neutral", counts: &estimator.DrivingBehaviorCounts{HarshBraking: 50}, km: 0.09, want: 50},
		{name: "clean driving", counts: &estimator.DrivingBehaviorCounts{}, km: 10, want: 80},
		{name: "moderate harsh braking", counts: &estimator.DrivingBehaviorCounts{HarshBraking: 3}, km: 10, want: 73},
		{name: "heavy harsh braking", counts: &estimator.DrivingBehaviorCounts{HarshBraking: 6}, km: 10, want: 65},
		{name: "moderate rapid acceleration", counts: &estimator.DrivingBehaviorCounts{RapidAcceleration: 3}, km: 10, want: 70},
		{name: "heavy rapid acceleration", counts: &estimator.DrivingBehaviorCounts{RapidAcceleration: 6}, km: 10, want: 60},
		{name: "some idling", counts: &estimator.DrivingBehaviorCounts{IdleTimeMinutes: 3}, km: 10, want: 75},
		{name: "lots of idling", counts: &estimator.DrivingBehaviorCounts{IdleTimeMinutes: 7}, km: 10, want: 70},
		{
			name:   "everything bad",
			counts: &estimator.DrivingBehaviorCounts{HarshBraking: 100, RapidAcceleration: 100, IdleTimeMinutes: 100},
			km:     1,
			want:   35,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimator.DrivingScore(tt.counts, tt.km)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestComputeEmissions_AverageGuard(t *testing.T) {
	est := estimator.MustNew(estimator.DefaultConfig())

	// A single active sample covers 5s at 30 km/h, which rounds to 0 km.
	got := est.ComputeEmissions(samples(1, estimator.MovementAccelerating, 0.9), estimator.SmallEV)
	assert.InDelta(t, 0.0, got.DistanceKm, 1e-9)
	assert.Nil(t, got.AvgCO2PerKm)
	assert.Equal(t, 50, got.DrivingEfficiencyScore)
	assert.False(t, math.IsNaN(got.TotalCO2Kg))
	assert.False(t, math.IsInf(got.TotalCO2Kg, 0))
}

func TestComputeEmissions_UnknownVehicleUsesDefault(t *testing.T) {
	est := estimator.MustNew(estimator.DefaultConfig())
	history := samples(720, estimator.MovementSteadyMovement, 0.3)

	unknown := est.ComputeEmissions(history, estimator.VehicleType("HOVERCRAFT"))
	def := est.ComputeEmissions(history, estimator.DefaultType)
	assert.InDelta(t, def.TotalCO2Kg, unknown.TotalCO2Kg, 1e-9)
}

func TestComputeEmissions_InjectedFactorTable(t *testing.T) {
	cfg := estimator.DefaultConfig()
	cfg.Factors = estimator.FactorTable{estimator.DefaultType: 1000}
	est := estimator.MustNew(cfg)

	got := est.ComputeEmissions(samples(720, estimator.MovementSteadyMovement, 0.3), estimator.MediumPetrol)
	require.NotNil(t, got.Breakdown)
	assert.InDelta(t, 30.0, got.Breakdown.BaseEmissions, 1e-9)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*estimator.Config)
	}{
		{name: "zero sample interval", mutate: func(c *estimator.Config) { c.SampleInterval = 0 }},
		{name: "negative speed", mutate: func(c *estimator.Config) { c.AverageSpeedKmh = -1 }},
		{name: "missing default factor", mutate: func(c *estimator.Config) { delete(c.Factors, estimator.DefaultType) }},
		{name: "negative factor", mutate: func(c *estimator.Config) { c.Factors[estimator.SmallEV] = -5 }},
		{name: "missing mock", mutate: func(c *estimator.Config) { delete(c.Mocks, estimator.RangeMonth) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := estimator.DefaultConfig()
			tt.mutate(&cfg)
			_, err := estimator.New(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, estimator.ErrInvalidConfig)
		})
	}
}

func TestNew_CopiesTables(t *testing.T) {
	cfg := estimator.DefaultConfig()
	est := estimator.MustNew(cfg)
	cfg.Factors[estimator.MediumPetrol] = 9999

	assert.Equal(t, 150, est.Factors().GramsPerKm(estimator.MediumPetrol))
}
