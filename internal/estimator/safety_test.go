package estimator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodetect/ecodetect/internal/estimator"
)

func TestSummarizeSafety(t *testing.T) {
	history := []estimator.MovementSample{
		{MovementType: estimator.MovementBraking, AccelMagnitude: 0.8},
		{MovementType: estimator.MovementBraking, AccelMagnitude: 0.2},
		{MovementType: estimator.MovementAccelerating, AccelMagnitude: 0.6},
		{MovementType: estimator.MovementRoughRoad, AccelMagnitude: 0.1},
		{MovementType: estimator.MovementRoughRoad, AccelMagnitude: 0.3},
		{MovementType: estimator.MovementStationary},
	}

	got := estimator.SummarizeSafety(history)
	assert.Equal(t, estimator.SafetySummary{
		HarshBraking:      1,
		RapidAcceleration: 1,
		RoughRoad:         2,
		Total:             4,
	}, got)
	assert.Equal(t, estimator.SafetySummary{}, estimator.SummarizeSafety(nil))
}

func TestSampleImpact(t *testing.T) {
	tests := []struct {
		name   string
		sample estimator.MovementSample
		want   float64
	}{
		{name: "accelerating bonus", sample: estimator.MovementSample{MovementType: estimator.MovementAccelerating, AccelMagnitude: 1}, want: 3.5},
		{name: "braking bonus", sample: estimator.MovementSample{MovementType: estimator.MovementBraking, AccelMagnitude: 1}, want: 2.5},
		{name: "no bonus", sample: estimator.MovementSample{MovementType: estimator.MovementTurningRight, AccelMagnitude: 2}, want: 3},
		{name: "capped", sample: estimator.MovementSample{MovementType: estimator.MovementAccelerating, AccelMagnitude: 100}, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, estimator.SampleImpact(tt.sample), 1e-9)
		})
	}
}

func TestTimeline(t *testing.T) {
	history := []estimator.MovementSample{
		{Timestamp: "2024-03-15T10:00:10", MovementType: estimator.MovementSteadyMovement},
		{Timestamp: "not a time", MovementType: estimator.MovementBraking},
		{Timestamp: "2024-03-15T10:00:00Z", MovementType: estimator.MovementAccelerating, AccelMagnitude: 1},
		{Timestamp: "", MovementType: estimator.MovementStationary},
		{Timestamp: "2024-03-15 10:00:05.250", MovementType: estimator.MovementTurningLeft},
	}

	points := estimator.Timeline(history)
	require.Len(t, points, 5)

	got := make([]estimator.MovementType, len(points))
	for i, p := range points {
		got[i] = p.Sample.MovementType
	}
	assert.Equal(t, []estimator.MovementType{
		estimator.MovementAccelerating,
		estimator.MovementTurningLeft,
		estimator.MovementSteadyMovement,
		estimator.MovementBraking,
		estimator.MovementStationary,
	}, got)

	assert.True(t, points[0].Valid)
	assert.InDelta(t, 3.5, points[0].Impact, 1e-9)
	assert.False(t, points[3].Valid)
	assert.False(t, points[4].Valid)
}
