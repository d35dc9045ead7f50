package greenops

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		input       CarbonInput
		wantTrees   float64
		wantPhones  float64
		wantLED     float64
		wantBottles float64
		wantMiles   float64
		wantEmpty   bool
		wantErr     error
	}{
		{
			name:        "one day of driving",
			input:       CarbonInput{Value: 2.8, Unit: "kg"},
			wantTrees:   0.1, // 2.8 / 21 = 0.133
			wantPhones:  1260,
			wantLED:     350,
			wantBottles: 157, // 156.8
			wantMiles:   15,  // 14.58
		},
		{
			name:        "one month of driving",
			input:       CarbonInput{Value: 84.2, Unit: "kg"},
			wantTrees:   4, // 4.0095
			wantPhones:  37890,
			wantLED:     10525,
			wantBottles: 4715, // 4715.2
			wantMiles:   439,  // 438.54
		},
		{
			name:        "grams normalised",
			input:       CarbonInput{Value: 21000, Unit: "g"},
			wantTrees:   1,
			wantPhones:  9450,
			wantLED:     2625,
			wantBottles: 1176,
			wantMiles:   109, // 109.375
		},
		{
			name:        "empty unit means kg",
			input:       CarbonInput{Value: 42},
			wantTrees:   2,
			wantPhones:  18900,
			wantLED:     5250,
			wantBottles: 2352,
			wantMiles:   219, // 218.75
		},
		{
			name:      "below display threshold",
			input:     CarbonInput{Value: 0.5, Unit: "g"},
			wantEmpty: true,
		},
		{
			name:      "zero is empty",
			input:     CarbonInput{Value: 0, Unit: "kg"},
			wantEmpty: true,
		},
		{
			name:    "negative rejected",
			input:   CarbonInput{Value: -1, Unit: "kg"},
			wantErr: ErrNegativeValue,
		},
		{
			name:    "unknown unit rejected",
			input:   CarbonInput{Value: 1, Unit: "furlong"},
			wantErr: ErrInvalidUnit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, got.IsEmpty)
				return
			}
			require.NoError(t, err)
			if tt.wantEmpty {
				assert.True(t, got.IsEmpty)
				assert.Empty(t, got.Results)
				return
			}

			assert.False(t, got.IsEmpty)
			require.Len(t, got.Results, 6)
			check := func(typ EquivalencyType, want float64) {
				r, ok := got.Get(typ)
				require.True(t, ok, typ.String())
				assert.InDelta(t, want, r.Value, 1e-9, typ.String())
			}
			check(EquivalencyTreesYear, tt.wantTrees)
			check(EquivalencyPhoneCharges, tt.wantPhones)
			check(EquivalencyLEDBulbHours, tt.wantLED)
			check(EquivalencyPlasticBottles, tt.wantBottles)
			check(EquivalencyMilesDriven, tt.wantMiles)
			assert.Contains(t, got.DisplayText, "trees")
			assert.Contains(t, got.CompactText, "mi")
		})
	}
}

func TestCalculate_DisplayText(t *testing.T) {
	got, err := Calculate(CarbonInput{Value: 84.2, Unit: "kg"})
	require.NoError(t, err)
	assert.Equal(t, "Equivalent to 4.0 trees absorbing CO2 for a year or ~37,890 phone charges", got.DisplayText)
	assert.Equal(t, "(≈ 439 mi, 4.0 trees)", got.CompactText)
}

func TestEquivalencyOutput_JSONRoundTrip(t *testing.T) {
	want, err := CalculateKg(2.8)
	require.NoError(t, err)
	require.NotEmpty(t, want.Results)

	data, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"TreesYear"`)

	var got EquivalencyOutput
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want, got)
}

func TestEquivalencyType_UnmarshalText(t *testing.T) {
	for typ := EquivalencyTreesYear; typ <= EquivalencySmartphonesCharged; typ++ {
		text, err := typ.MarshalText()
		require.NoError(t, err)
		var got EquivalencyType
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, typ, got)
	}

	var bad EquivalencyType
	require.ErrorIs(t, bad.UnmarshalText([]byte("Bananas")), ErrUnknownEquivalency)
}

func TestNormalizeToKg(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    string
		want    float64
		wantErr error
	}{
		{name: "grams", value: 1500, unit: "g", want: 1.5},
		{name: "kilograms", value: 3, unit: "kgCO2e", want: 3},
		{name: "tonnes", value: 0.2, unit: "t", want: 200},
		{name: "pounds", value: 10, unit: "lb", want: 4.53592},
		{name: "case insensitive", value: 2, unit: " KG ", want: 2},
		{name: "negative", value: -5, unit: "kg", wantErr: ErrNegativeValue},
		{name: "bad unit", value: 5, unit: "oz", wantErr: ErrInvalidUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToKg(tt.value, tt.unit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
	assert.True(t, IsRecognizedUnit("tco2e"))
	assert.False(t, IsRecognizedUnit("stone"))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-1,234", FormatNumber(-1234))
	assert.Equal(t, "1,234.57", FormatFloat(1234.567, 2))
	assert.Equal(t, "0.5", FormatFloat(0.46, 1))
	assert.Equal(t, "-0.50", FormatFloat(-0.5, 2))
	assert.Equal(t, "1,235", FormatFloat(1234.5, 0))
	assert.Equal(t, "~2.5 million", FormatLarge(2_500_000))
	assert.Equal(t, "~1.2 billion", FormatLarge(1_200_000_000))
	assert.Equal(t, "999", FormatLarge(999.4))
	assert.Equal(t, "2.80 kg", FormatKg(2.8))
	assert.Equal(t, "450 g", FormatKg(0.45))
	assert.Equal(t, "<1 g", FormatKg(0.0004))
}
