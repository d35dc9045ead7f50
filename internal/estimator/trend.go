package estimator

import (
	"math/rand/v2"
	"time"
)

const trendDateLayout = "2006-01-02"

// trendGenerator produces the illustrative daily emission series. It is not
// derived from real history; each day's value depends only on the seed and
// the calendar day, so a fixed seed and clock yield a fixed series.
type trendGenerator struct {
	seed uint64
	now  func() time.Time
}

func newTrendGenerator(seed uint64, now func() time.Time) trendGenerator {
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // illustrative data only
	}
	if now == nil {
		now = time.Now
	}
	return trendGenerator{seed: seed, now: now}
}

// Generate returns TrendDays points ending today, oldest first.
func (g trendGenerator) Generate(tr TimeRange) []TrendPoint {
	days := tr.TrendDays()
	today := g.now().UTC().Truncate(24 * time.Hour)
	points := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		dayNumber := uint64(day.Unix() / int64((24 * time.Hour).Seconds())) //nolint:gosec // post-epoch dates
		r := rand.New(rand.NewPCG(g.seed, dayNumber))                      //nolint:gosec // illustrative data only
		points = append(points, TrendPoint{
			Date: day.Format(trendDateLayout),
			CO2:  round1(1.5 + r.Float64()*2),
		})
	}
	return points
}
