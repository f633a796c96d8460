package adapthttp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dietplan/internal/app"
	"dietplan/internal/domain"
)

type ingredientRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Amount   string  `json:"amount" validate:"max=100"`
	Calories float64 `json:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" validate:"gte=0"`
}

type mealRequest struct {
	Date        *time.Time          `json:"date"`
	Type        string              `json:"type" validate:"required,oneof=breakfast lunch dinner snack"`
	Name        string              `json:"name" validate:"required,max=200"`
	Ingredients []ingredientRequest `json:"ingredients" validate:"max=100,dive"`
	Calories    float64             `json:"calories" validate:"gte=0"`
	Protein     float64             `json:"protein" validate:"gte=0"`
	Carbs       float64             `json:"carbs" validate:"gte=0"`
	Fat         float64             `json:"fat" validate:"gte=0"`
	Notes       string              `json:"notes" validate:"max=2000"`
	ImageURL    string              `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

type mealPatchRequest struct {
	Date        *time.Time          `json:"date"`
	Type        *string             `json:"type" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	Name        *string             `json:"name" validate:"omitempty,max=200"`
	Ingredients []ingredientRequest `json:"ingredients" validate:"omitempty,max=100,dive"`
	Calories    *float64            `json:"calories" validate:"omitempty,gte=0"`
	Protein     *float64            `json:"protein" validate:"omitempty,gte=0"`
	Carbs       *float64            `json:"carbs" validate:"omitempty,gte=0"`
	Fat         *float64            `json:"fat" validate:"omitempty,gte=0"`
	Notes       *string             `json:"notes" validate:"omitempty,max=2000"`
	ImageURL    *string             `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

func toIngredients(in []ingredientRequest) []domain.Ingredient {
	if in == nil {
		return nil
	}
	out := make([]domain.Ingredient, len(in))
	for i, ing := range in {
		out[i] = domain.Ingredient(ing)
	}
	return out
}

func mealID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid meal id")
	}
	return id, nil
}

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var body mealRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	in := app.MealInput{
		Type:        body.Type,
		Name:        body.Name,
		Ingredients: toIngredients(body.Ingredients),
		Calories:    body.Calories,
		Protein:     body.Protein,
		Carbs:       body.Carbs,
		Fat:         body.Fat,
		Notes:       body.Notes,
		ImageURL:    body.ImageURL,
	}
	if body.Date != nil {
		in.EatenAt = *body.Date
	}
	meal, err := s.svc.Meals.Create(r.Context(), userFrom(r.Context()).ID, in, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := s.svc.Meals.List(r.Context(), userFrom(r.Context()).ID, r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if meals == nil {
		meals = []domain.Meal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": meals})
}

func (s *Server) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	id, err := mealID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body mealPatchRequest
	if err := s.decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	meal, err := s.svc.Meals.Update(r.Context(), userFrom(r.Context()).ID, id, app.MealPatch{
		EatenAt:     body.Date,
		Type:        body.Type,
		Name:        body.Name,
		Ingredients: toIngredients(body.Ingredients),
		Calories:    body.Calories,
		Protein:     body.Protein,
		Carbs:       body.Carbs,
		Fat:         body.Fat,
		Notes:       body.Notes,
		ImageURL:    body.ImageURL,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := mealID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Meals.Delete(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
