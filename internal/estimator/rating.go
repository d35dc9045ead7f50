package estimator

// ScoreBand is a coarse label for an eco-driving score.
type ScoreBand string

// Score bands.
const (
	BandGood ScoreBand = "good"
	BandFair ScoreBand = "fair"
	BandPoor ScoreBand = "poor"
)

// RateScore maps a driving efficiency score to its band.
func RateScore(score int) ScoreBand {
	switch {
	case score >= 80:
		return BandGood
	case score >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// ImpactLevel is a coarse label for a footprint percentage.
type ImpactLevel string

// Impact levels.
const (
	ImpactHigh     ImpactLevel = "high"
	ImpactModerate ImpactLevel = "moderate"
	ImpactLow      ImpactLevel = "low"
)

// RateImpact maps a footprint percentage to its impact level.
func RateImpact(percent float64) ImpactLevel {
	switch {
	case percent > 70:
		return ImpactHigh
	case percent > 40:
		return ImpactModerate
	default:
		return ImpactLow
	}
}
