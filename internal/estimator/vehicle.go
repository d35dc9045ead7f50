package estimator

import (
	"fmt"
	"sort"
	"strings"
)

// VehicleType is a vehicle size and powertrain class.
type VehicleType string

// Vehicle classes with a known emissions factor.
const (
	SmallPetrol  VehicleType = "SMALL_PETROL"
	MediumPetrol VehicleType = "MEDIUM_PETROL"
	LargePetrol  VehicleType = "LARGE_PETROL"
	SmallDiesel  VehicleType = "SMALL_DIESEL"
	MediumDiesel VehicleType = "MEDIUM_DIESEL"
	LargeDiesel  VehicleType = "LARGE_DIESEL"
	SmallHybrid  VehicleType = "SMALL_HYBRID"
	MediumHybrid VehicleType = "MEDIUM_HYBRID"
	LargeHybrid  VehicleType = "LARGE_HYBRID"
	SmallEV      VehicleType = "SMALL_EV"
	MediumEV     VehicleType = "MEDIUM_EV"
	LargeEV      VehicleType = "LARGE_EV"
	DefaultType  VehicleType = "DEFAULT"
)

// FactorTable maps a vehicle class to its emissions factor in grams CO2 per km.
type FactorTable map[VehicleType]int

// DefaultFactorTable returns a fresh copy of the built-in factor table.
func DefaultFactorTable() FactorTable {
	return FactorTable{
		SmallPetrol:  120,
		MediumPetrol: 150,
		LargePetrol:  180,
		SmallDiesel:  110,
		MediumDiesel: 140,
		LargeDiesel:  170,
		SmallHybrid:  90,
		MediumHybrid: 110,
		LargeHybrid:  130,
		SmallEV:      30,
		MediumEV:     40,
		LargeEV:      50,
		DefaultType:  150,
	}
}

// GramsPerKm returns the factor for v, falling back to the DEFAULT entry.
func (t FactorTable) GramsPerKm(v VehicleType) int {
	if g, ok := t[v]; ok {
		return g
	}
	return t[DefaultType]
}

// Has reports whether v has its own entry.
func (t FactorTable) Has(v VehicleType) bool {
	_, ok := t[v]
	return ok
}

// Types returns the vehicle classes in the table, sorted by name.
func (t FactorTable) Types() []VehicleType {
	out := make([]VehicleType, 0, len(t))
	for v := range t {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy of the table.
func (t FactorTable) Clone() FactorTable {
	out := make(FactorTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Validate checks the table has a DEFAULT entry and no negative factors.
func (t FactorTable) Validate() error {
	if _, ok := t[DefaultType]; !ok {
		return fmt.Errorf("%w: factor table has no %s entry", ErrInvalidConfig, DefaultType)
	}
	for v, g := range t {
		if g < 0 {
			return fmt.Errorf("%w: negative factor %d for %s", ErrInvalidConfig, g, v)
		}
	}
	return nil
}

// ParseVehicleType normalises s and checks it against the table.
func (t FactorTable) ParseVehicleType(s string) (VehicleType, error) {
	v := VehicleType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Has(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVehicleType, s)
	}
	return v, nil
}
