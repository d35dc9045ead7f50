// Package estimator implements the EcoDetect environmental-impact and vehicle
// emissions estimators.
//
// Two estimations are provided:
//   - Footprint: a 0-100 "environmental impact" percentage derived from the
//     latest sensor snapshot and water-flow reading, preferring a value computed
//     by the backend and falling back to a local weighted sum.
//   - Emissions: a vehicle carbon-emissions summary with a 0-100 eco-driving
//     score, selected from three tiers (remote result, local recomputation from
//     movement history, canned mock data).
//
// Every estimation is a pure function of its inputs and the immutable Config
// the Estimator was built with. The only exception is the synthetic emission
// trend attached to locally computed results, which is illustrative data drawn
// from a seeded random source.
package estimator
