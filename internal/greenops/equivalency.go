package greenops

import (
	"fmt"
	"math"
)

type equivalency struct {
	typ       EquivalencyType
	label     string
	precision int
	compute   func(kg float64) float64
}

//nolint:gochecknoglobals // read-only table
var equivalencies = []equivalency{
	{EquivalencyTreesYear, "trees absorbing CO2 for a year", 1, func(kg float64) float64 { return kg / KgAbsorbedPerTreeYear }},
	{EquivalencyPhoneCharges, "phone charges", 0, func(kg float64) float64 { return kg * PhoneChargesPerKg }},
	{EquivalencyLEDBulbHours, "hours of LED lighting", 1, func(kg float64) float64 { return kg * LEDBulbHoursPerKg }},
	{EquivalencyPlasticBottles, "plastic bottles produced", 0, func(kg float64) float64 { return kg * PlasticBottlesPerKg }},
	{EquivalencyMilesDriven, "miles driven", 0, func(kg float64) float64 { return kg / EPAMilesDrivenFactor }},
	{EquivalencySmartphonesCharged, "smartphones charged (EPA)", 0, func(kg float64) float64 { return kg / EPASmartphoneChargeFactor }},
}

// Calculate normalises input to kilograms and computes every comparison.
//
// Amounts below MinDisplayThresholdKg produce an empty output with no error.
// Invalid units and negative values are rejected.
func Calculate(input CarbonInput) (EquivalencyOutput, error) {
	kg, err := NormalizeToKg(input.Value, input.Unit)
	if err != nil {
		return EquivalencyOutput{IsEmpty: true}, err
	}
	return CalculateKg(kg)
}

// CalculateKg computes every comparison for an amount already in kilograms.
func CalculateKg(kg float64) (EquivalencyOutput, error) {
	if math.IsNaN(kg) || math.IsInf(kg, 0) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < 0 {
		return EquivalencyOutput{IsEmpty: true}, ErrNegativeValue
	}
	if kg < MinDisplayThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	results := make([]EquivalencyResult, 0, len(equivalencies))
	for _, eq := range equivalencies {
		v := eq.compute(kg)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
		}
		scale := math.Pow(10, float64(eq.precision))
		v = math.Round(v*scale) / scale
		results = append(results, EquivalencyResult{
			Type:           eq.typ,
			Value:          v,
			FormattedValue: formatValue(v, eq.precision),
			Label:          eq.label,
		})
	}

	out := EquivalencyOutput{InputKg: kg, Results: results}
	trees, _ := out.Get(EquivalencyTreesYear)
	phones, _ := out.Get(EquivalencyPhoneCharges)
	miles, _ := out.Get(EquivalencyMilesDriven)
	out.DisplayText = fmt.Sprintf("Equivalent to %s trees absorbing CO2 for a year or ~%s phone charges",
		trees.FormattedValue, phones.FormattedValue)
	out.CompactText = fmt.Sprintf("(≈ %s mi, %s trees)", miles.FormattedValue, trees.FormattedValue)
	return out, nil
}
