package app

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"dietplan/internal/domain"
)

// MealService manages meal plans. Creating a meal logs its calories to the
// user's calorie series.
type MealService struct {
	repo     domain.MealRepository
	history  *HistoryService
	sanitize *bluemonday.Policy
	logger   *slog.Logger
}

// NewMealService creates a MealService.
func NewMealService(repo domain.MealRepository, history *HistoryService, logger *slog.Logger) *MealService {
	return &MealService{
		repo:     repo,
		history:  history,
		sanitize: bluemonday.StrictPolicy(),
		logger:   logger,
	}
}

// MealInput describes a new meal. A zero EatenAt means now.
type MealInput struct {
	EatenAt     time.Time
	Type        string
	Name        string
	Ingredients []domain.Ingredient
	Calories    float64
	Protein     float64
	Carbs       float64
	Fat         float64
	Notes       string
	ImageURL    string
}

// Create stores a meal and appends its calories to the calorie series. When
// the append fails the meal is removed again, so a retry does not duplicate it.
func (s *MealService) Create(ctx context.Context, userID int64, in MealInput, now time.Time) (*domain.Meal, error) {
	mt, err := domain.ParseMealType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	m := domain.Meal{
		UserID:      userID,
		EatenAt:     in.EatenAt,
		Type:        mt,
		Name:        s.clean(in.Name),
		Ingredients: s.cleanIngredients(in.Ingredients),
		Calories:    in.Calories,
		Protein:     in.Protein,
		Carbs:       in.Carbs,
		Fat:         in.Fat,
		Notes:       s.clean(in.Notes),
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}
	if m.EatenAt.IsZero() {
		m.EatenAt = now
	}
	if err := validateMeal(m); err != nil {
		return nil, err
	}

	id, err := s.repo.AddMeal(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id

	if _, err := s.history.Record(ctx, userID, domain.SeriesCalories, Reading{Value: m.Calories, At: m.EatenAt}); err != nil {
		if derr := s.repo.DeleteMeal(context.WithoutCancel(ctx), userID, id); derr != nil {
			s.logger.Error("meal stored but calorie history not updated",
				slog.Int64("user_id", userID),
				slog.Int64("meal_id", id),
				slog.String("error", err.Error()),
				slog.String("rollback_error", derr.Error()),
			)
		}
		return nil, err
	}
	return &m, nil
}

// List returns meals in ascending time. A non-empty day (YYYY-MM-DD, local
// time) restricts the result to that calendar day.
func (s *MealService) List(ctx context.Context, userID int64, day string) ([]domain.Meal, error) {
	var from, to time.Time
	if day != "" {
		start, err := time.ParseInLocation("2006-01-02", day, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		from, to = start, start.AddDate(0, 0, 1)
	}
	return s.repo.ListMeals(ctx, userID, from, to)
}

// MealPatch carries the fields to change; nil fields keep their value.
type MealPatch struct {
	EatenAt     *time.Time
	Type        *string
	Name        *string
	Ingredients []domain.Ingredient
	Calories    *float64
	Protein     *float64
	Carbs       *float64
	Fat         *float64
	Notes       *string
	ImageURL    *string
}

// Update applies a partial update to one of the user's meals. The calorie
// series is append-only and is not rewritten.
func (s *MealService) Update(ctx context.Context, userID, id int64, p MealPatch) (*domain.Meal, error) {
	m, err := s.repo.GetMeal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.EatenAt != nil {
		m.EatenAt = *p.EatenAt
	}
	if p.Type != nil {
		mt, err := domain.ParseMealType(*p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		m.Type = mt
	}
	if p.Name != nil {
		m.Name = s.clean(*p.Name)
	}
	if p.Ingredients != nil {
		m.Ingredients = s.cleanIngredients(p.Ingredients)
	}
	setIf(&m.Calories, p.Calories)
	setIf(&m.Protein, p.Protein)
	setIf(&m.Carbs, p.Carbs)
	setIf(&m.Fat, p.Fat)
	if p.Notes != nil {
		m.Notes = s.clean(*p.Notes)
	}
	if p.ImageURL != nil {
		m.ImageURL = strings.TrimSpace(*p.ImageURL)
	}
	if err := validateMeal(*m); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMeal(ctx, *m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes one of the user's meals.
func (s *MealService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteMeal(ctx, userID, id)
}

// clean strips markup and decodes the entities the policy escapes.
func (s *MealService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitize.Sanitize(v)))
}

func (s *MealService) cleanIngredients(in []domain.Ingredient) []domain.Ingredient {
	out := make([]domain.Ingredient, len(in))
	for i, ing := range in {
		ing.Name = s.clean(ing.Name)
		ing.Amount = s.clean(ing.Amount)
		out[i] = ing
	}
	return out
}

func validateMeal(m domain.Meal) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	for _, v := range []float64{m.Calories, m.Protein, m.Carbs, m.Fat} {
		if v < 0 {
			return fmt.Errorf("%w: nutrition values must be >= 0", ErrInvalidInput)
		}
	}
	return nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
