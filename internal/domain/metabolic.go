package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMetrics reports body measurements outside the calculator's domain.
var ErrInvalidMetrics = errors.New("invalid body metrics")

// Sex selects the Harris-Benedict coefficient set.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex accepts "male" or "female".
func ParseSex(s string) (Sex, error) {
	switch Sex(s) {
	case SexMale, SexFemale:
		return Sex(s), nil
	}
	return "", fmt.Errorf("%w: sex must be %q or %q", ErrInvalidMetrics, SexMale, SexFemale)
}

// BodyMetrics is the calculator input. Weight is in kilograms, height in
// centimetres, age in years.
type BodyMetrics struct {
	WeightKg float64
	HeightCm float64
	Age      int
	Sex      Sex
}

// MetabolicDefaults fills in the age and sex the product assumes when a user
// has not supplied them. Both change the result, so they are configuration,
// not constants.
type MetabolicDefaults struct {
	Age             int
	Sex             Sex
	ReductionFactor float64
}

// DefaultMetabolicDefaults assumes a 30 year old male and a 15% deficit.
func DefaultMetabolicDefaults() MetabolicDefaults {
	return MetabolicDefaults{Age: 30, Sex: SexMale, ReductionFactor: 0.85}
}

// Metrics builds BodyMetrics, using the defaults for a missing age or sex.
func (d MetabolicDefaults) Metrics(weightKg, heightCm float64, age *int, sex *Sex) BodyMetrics {
	m := BodyMetrics{WeightKg: weightKg, HeightCm: heightCm, Age: d.Age, Sex: d.Sex}
	if age != nil {
		m.Age = *age
	}
	if sex != nil && *sex != "" {
		m.Sex = *sex
	}
	return m
}

// CalorieGoal is a daily energy budget in kilocalories.
type CalorieGoal int

// Validate checks that every field is inside the formula's domain.
func (m BodyMetrics) Validate() error {
	if !positiveFinite(m.WeightKg) {
		return fmt.Errorf("%w: weight must be > 0", ErrInvalidMetrics)
	}
	if !positiveFinite(m.HeightCm) {
		return fmt.Errorf("%w: height must be > 0", ErrInvalidMetrics)
	}
	if m.Age <= 0 {
		return fmt.Errorf("%w: age must be > 0", ErrInvalidMetrics)
	}
	if _, err := ParseSex(string(m.Sex)); err != nil {
		return err
	}
	return nil
}

// BasalMetabolicRate estimates resting daily energy expenditure in kcal using
// the revised Harris-Benedict equation.
func BasalMetabolicRate(m BodyMetrics) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	age := float64(m.Age)
	if m.Sex == SexFemale {
		return 447.593 + 9.247*m.WeightKg + 3.098*m.HeightCm - 4.330*age, nil
	}
	return 88.362 + 13.397*m.WeightKg + 4.799*m.HeightCm - 5.677*age, nil
}

// ComputeDailyCalorieGoal scales the BMR by reductionFactor, which must lie in
// (0, 1], and rounds half away from zero to whole kilocalories.
func ComputeDailyCalorieGoal(m BodyMetrics, reductionFactor float64) (CalorieGoal, error) {
	if !positiveFinite(reductionFactor) || reductionFactor > 1 {
		return 0, fmt.Errorf("%w: reduction factor must be in (0, 1]", ErrInvalidMetrics)
	}
	bmr, err := BasalMetabolicRate(m)
	if err != nil {
		return 0, err
	}
	return CalorieGoal(math.Round(bmr * reductionFactor)), nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
