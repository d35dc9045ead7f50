package estimator

// MockSet holds the canned emissions results served when neither a remote
// result nor a movement history is available.
type MockSet map[TimeRange]EmissionsResult

// DefaultMockSet returns the built-in canned datasets.
func DefaultMockSet() MockSet {
	mock := func(total, km float64, harsh, rapid int, idle float64) EmissionsResult {
		avg := 142.0
		fuel := 8.2
		return EmissionsResult{
			TotalCO2Kg:             total,
			DistanceKm:             km,
			AvgCO2PerKm:            &avg,
			DrivingEfficiencyScore: 72,
			Events: DrivingBehaviorCounts{
				HarshBraking:      harsh,
				RapidAcceleration: rapid,
				IdleTimeMinutes:   idle,
			},
			FuelEfficiency: &fuel,
		}
	}
	return MockSet{
		RangeDay:   mock(2.8, 19.7, 3, 5, 12),
		RangeWeek:  mock(19.6, 138, 21, 35, 84),
		RangeMonth: mock(84.2, 593, 89, 147, 348),
	}
}

// Lookup returns a copy of the dataset for tr, using the day dataset for
// unknown ranges.
func (m MockSet) Lookup(tr TimeRange) EmissionsResult {
	if r, ok := m[tr]; ok {
		return r.Clone()
	}
	return m[RangeDay].Clone()
}

// Clone returns an independent copy of the set.
func (m MockSet) Clone() MockSet {
	out := make(MockSet, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}
