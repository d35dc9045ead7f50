package estimator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

func ptr(v float64) *float64 { return &v }

func TestEstimateFootprint(t *testing.T) {
	est := estimator.MustNew(estimator.DefaultConfig())

	tests := []struct {
		name      string
		remote    *estimator.RemoteFootprint
		snapshot  estimator.SensorSnapshot
		waterFlow *float64
		wantOK    bool
		want      estimator.FootprintResult
	}{
		{
			name:   "remote value returned verbatim",
			remote: &estimator.RemoteFootprint{CarbonFootprint: ptr(42.5)},
			snapshot: estimator.SensorSnapshot{
				Temperature: ptr(1000),
			},
			waterFlow: ptr(1000),
			wantOK:    true,
			want:      estimator.FootprintResult{Percent: 42.5, Source: estimator.SourceAPI},
		},
		{
			name:      "remote value outside range is not clamped",
			remote:    &estimator.RemoteFootprint{CarbonFootprint: ptr(140)},
			wantOK:    true,
			want:      estimator.FootprintResult{Percent: 140, Source: estimator.SourceAPI},
		},
		{
			name:   "remote without value falls back to local",
			remote: &estimator.RemoteFootprint{},
			snapshot: estimator.SensorSnapshot{
				Temperature: ptr(20),
			},
			waterFlow: ptr(2),
			wantOK:    true,
			want:      estimator.FootprintResult{Percent: 5, Source: estimator.SourceLocal},
		},
		{
			name: "local weighted sum with all inputs",
			snapshot: estimator.SensorSnapshot{
				Temperature: ptr(24),
				Pressure:    ptr(1015),
				Altitude:    ptr(100),
			},
			waterFlow: ptr(5.5),
			wantOK:    true,
			// 24*0.2 + 5.5*0.5 + 100*0.1 + 1015*0.05
			want: estimator.FootprintResult{Percent: 68.3, Source: estimator.SourceLocal},
		},
		{
			name: "extreme temperature is clamped to 100",
			snapshot: estimator.SensorSnapshot{
				Temperature: ptr(1000),
			},
			waterFlow: ptr(0),
			wantOK:    true,
			want:      estimator.FootprintResult{Percent: 100, Source: estimator.SourceLocal},
		},
		{
			name: "negative sum is clamped to 0",
			snapshot: estimator.SensorSnapshot{
				Temperature: ptr(-40),
			},
			waterFlow: ptr(0),
			wantOK:    true,
			want:      estimator.FootprintResult{Percent: 0, Source: estimator.SourceLocal},
		},
		{
			name:      "missing temperature yields no result",
			snapshot:  estimator.SensorSnapshot{Pressure: ptr(1015)},
			waterFlow: ptr(5.5),
			wantOK:    false,
		},
		{
			name:     "missing water flow yields no result",
			snapshot: estimator.SensorSnapshot{Temperature: ptr(24)},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := est.EstimateFootprint(tt.remote, tt.snapshot, tt.waterFlow)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.want.Source, got.Source)
			assert.InDelta(t, tt.want.Percent, got.Percent, 1e-9)
		})
	}
}

func TestEstimateFootprint_CustomWeights(t *testing.T) {
	cfg := estimator.DefaultConfig()
	cfg.Weights = estimator.FootprintWeights{Temperature: 1, WaterFlow: 1}
	est, err := estimator.New(cfg)
	require.NoError(t, err)

	got, ok := est.EstimateFootprint(nil, estimator.SensorSnapshot{
		Temperature: ptr(10),
		Altitude:    ptr(500),
	}, ptr(3))
	require.True(t, ok)
	assert.InDelta(t, 13.0, got.Percent, 1e-9)
}
