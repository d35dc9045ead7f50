package estimator

import (
	"math"
	"sort"
	"time"
)

// SafetySummary counts risky driving events over a movement history.
type SafetySummary struct {
	HarshBraking      int `json:"harsh_braking"`
	RapidAcceleration int `json:"rapid_acceleration"`
	RoughRoad         int `json:"rough_road"`
	Total             int `json:"total"`
}

// SummarizeSafety counts harsh braking, rapid acceleration and rough-road samples.
func SummarizeSafety(history []MovementSample) SafetySummary {
	var s SafetySummary
	for _, m := range history {
		switch m.MovementType {
		case MovementBraking:
			if m.AccelMagnitude > harshAccelThreshold {
				s.HarshBraking++
			}
		case MovementAccelerating:
			if m.AccelMagnitude > harshAccelThreshold {
				s.RapidAcceleration++
			}
		case MovementRoughRoad:
			s.RoughRoad++
		default:
		}
	}
	s.Total = s.HarshBraking + s.RapidAcceleration + s.RoughRoad
	return s
}

const maxSampleImpact = 50.0

// SampleImpact scores the environmental impact of a single movement sample.
func SampleImpact(m MovementSample) float64 {
	bonus := 0.0
	switch m.MovementType {
	case MovementAccelerating:
		bonus = 2
	case MovementBraking:
		bonus = 1
	default:
	}
	return math.Min(m.AccelMagnitude*1.5+bonus, maxSampleImpact)
}

// TimelinePoint is a movement sample placed on the time axis with its impact.
type TimelinePoint struct {
	Time   time.Time      `json:"time"`
	Valid  bool           `json:"valid"`
	Sample MovementSample `json:"sample"`
	Impact float64        `json:"impact"`
}

// Timeline orders history chronologically and attaches per-sample impact.
// Samples whose timestamps cannot be parsed keep their relative order and
// are placed last.
func Timeline(history []MovementSample) []TimelinePoint {
	points := make([]TimelinePoint, len(history))
	for i, m := range history {
		t, ok := m.Time()
		points[i] = TimelinePoint{Time: t, Valid: ok, Sample: m, Impact: SampleImpact(m)}
	}
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Valid != b.Valid {
			return a.Valid
		}
		if !a.Valid {
			return false
		}
		return a.Time.Before(b.Time)
	})
	return points
}
