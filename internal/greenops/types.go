package greenops

import "fmt"

// EquivalencyType identifies an everyday comparison for an amount of CO2.
type EquivalencyType int

// Supported comparisons.
const (
	EquivalencyTreesYear EquivalencyType = iota
	EquivalencyPhoneCharges
	EquivalencyLEDBulbHours
	EquivalencyPlasticBottles
	EquivalencyMilesDriven
	EquivalencySmartphonesCharged
)

func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyTreesYear:
		return "TreesYear"
	case EquivalencyPhoneCharges:
		return "PhoneCharges"
	case EquivalencyLEDBulbHours:
		return "LEDBulbHours"
	case EquivalencyPlasticBottles:
		return "PlasticBottles"
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EquivalencyType) UnmarshalText(text []byte) error {
	for t := EquivalencyTreesYear; t <= EquivalencySmartphonesCharged; t++ {
		if t.String() == string(text) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownEquivalency, text)
}

// CarbonInput is an amount of CO2 in a given unit (g, kg, t, lb).
type CarbonInput struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// EquivalencyResult is one computed comparison.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// EquivalencyOutput is the full set of comparisons for one input.
type EquivalencyOutput struct {
	InputKg     float64             `json:"input_kg"`
	Results     []EquivalencyResult `json:"results"`
	DisplayText string              `json:"display_text"`
	CompactText string              `json:"compact_text"`
	IsEmpty     bool                `json:"is_empty"`
}

// Get returns the result of type t, if present.
func (o EquivalencyOutput) Get(t EquivalencyType) (EquivalencyResult, bool) {
	for _, r := range o.Results {
		if r.Type == t {
			return r, true
		}
	}
	return EquivalencyResult{}, false
}
