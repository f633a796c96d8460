package domain

import "fmt"

// WeightUnit is a unit accepted for weight input.
type WeightUnit string

const (
	UnitKg WeightUnit = "kg"
	UnitLb WeightUnit = "lb"
)

const kgToLb = 2.2046226218

// ParseWeightUnit accepts "kg" or "lb"; an empty string means kilograms.
func ParseWeightUnit(s string) (WeightUnit, error) {
	switch WeightUnit(s) {
	case "", UnitKg:
		return UnitKg, nil
	case UnitLb:
		return UnitLb, nil
	}
	return "", fmt.Errorf("unit must be %q or %q", UnitKg, UnitLb)
}

// ConvertWeight converts a weight value between units. Unrecognised or equal
// units return v unchanged.
func ConvertWeight(v float64, from, to WeightUnit) float64 {
	switch {
	case from == to:
		return v
	case from == UnitKg && to == UnitLb:
		return v * kgToLb
	case from == UnitLb && to == UnitKg:
		return v / kgToLb
	}
	return v
}

// ToKilograms normalises a weight reading to the unit series are stored in.
func ToKilograms(v float64, unit WeightUnit) float64 {
	return ConvertWeight(v, unit, UnitKg)
}
