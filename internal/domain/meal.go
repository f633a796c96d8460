package domain

import (
	"context"
	"fmt"
	"time"
)

// MealType is the slot of the day a meal belongs to.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// ParseMealType accepts breakfast, lunch, dinner or snack.
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return MealType(s), nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// Ingredient is one component of a meal with its nutrition values.
type Ingredient struct {
	Name     string  `json:"name"`
	Amount   string  `json:"amount"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Meal is a planned or eaten meal.
type Meal struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"userId"`
	EatenAt     time.Time    `json:"date"`
	Type        MealType     `json:"type"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Calories    float64      `json:"calories"`
	Protein     float64      `json:"protein"`
	Carbs       float64      `json:"carbs"`
	Fat         float64      `json:"fat"`
	Notes       string       `json:"notes,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
}

// MealRepository is the port for meal persistence. All lookups are scoped to
// the owning user; another user's meal ID yields ErrNotFound.
type MealRepository interface {
	AddMeal(ctx context.Context, m Meal) (int64, error)
	GetMeal(ctx context.Context, userID, id int64) (*Meal, error)
	ListMeals(ctx context.Context, userID int64, from, to time.Time) ([]Meal, error)
	UpdateMeal(ctx context.Context, m Meal) error
	DeleteMeal(ctx context.Context, userID, id int64) error
}
