package estimator

// EstimateFootprint returns the environmental impact percentage.
//
// A remote value is returned verbatim with SourceAPI. Otherwise the local
// weighted sum is computed from the snapshot and water flow and clamped to
// [0,100]. When temperature or water flow is missing there is no result and
// ok is false; callers keep whatever they displayed before.
func (e *Estimator) EstimateFootprint(
	remote *RemoteFootprint,
	snapshot SensorSnapshot,
	waterFlow *float64,
) (FootprintResult, bool) {
	if remote != nil && remote.CarbonFootprint != nil {
		return FootprintResult{Percent: *remote.CarbonFootprint, Source: SourceAPI}, true
	}
	if snapshot.Temperature == nil || waterFlow == nil {
		return FootprintResult{}, false
	}

	w := e.cfg.Weights
	raw := *snapshot.Temperature*w.Temperature + *waterFlow*w.WaterFlow
	if snapshot.Altitude != nil {
		raw += *snapshot.Altitude * w.Altitude
	}
	if snapshot.Pressure != nil {
		raw += *snapshot.Pressure * w.Pressure
	}
	return FootprintResult{Percent: clamp(raw, 0, 100), Source: SourceLocal}, true
}
