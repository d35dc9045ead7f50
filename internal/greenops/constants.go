package greenops

// Everyday equivalents for an amount of CO2, expressed per kilogram.
const (
	// KgAbsorbedPerTreeYear is the CO2 a mature tree absorbs in one year.
	KgAbsorbedPerTreeYear = 21.0

	// PhoneChargesPerKg is how many full phone charges emit one kg of CO2.
	PhoneChargesPerKg = 450.0

	// LEDBulbHoursPerKg is how many hours a 10 W LED bulb runs per kg of CO2.
	LEDBulbHoursPerKg = 125.0

	// PlasticBottlesPerKg is how many 500 ml PET bottles are produced per kg of CO2.
	PlasticBottlesPerKg = 56.0
)

// EPA greenhouse gas equivalencies (2024 edition), used as divisors:
//
//	equivalency = kg_CO2e / factor
const (
	// EPAMilesDrivenFactor is kg CO2e per mile for an average passenger vehicle.
	EPAMilesDrivenFactor = 0.192

	// EPASmartphoneChargeFactor is kg CO2e per smartphone charge.
	EPASmartphoneChargeFactor = 0.00822
)

// Unit conversions to kilograms.
const (
	GramsToKg  = 0.001
	KgToKg     = 1.0
	TonsToKg   = 1000.0
	PoundsToKg = 0.453592
)

// Display thresholds.
const (
	// MinDisplayThresholdKg is the smallest amount worth describing.
	MinDisplayThresholdKg = 0.001

	// LargeNumberThreshold switches to "~X.X million" formatting.
	LargeNumberThreshold = 1_000_000

	// BillionThreshold switches to "~X.X billion" formatting.
	BillionThreshold = 1_000_000_000
)
