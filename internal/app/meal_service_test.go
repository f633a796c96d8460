package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dietplan/internal/adapter/memory"
	"dietplan/internal/app"
	"dietplan/internal/domain"
)

func newMealService(repo domain.MealRepository, data map[domain.SeriesKind]domain.Series) *app.MealService {
	history := newHistoryService(seriesStore(data), nil, newSpyRecorder())
	return app.NewMealService(repo, history, discard)
}

func TestCreateMeal_LogsCalories(t *testing.T) {
	var stored domain.Meal
	repo := &mockMealRepo{
		addFn: func(_ context.Context, m domain.Meal) (int64, error) {
			stored = m
			return 12, nil
		},
	}
	data := map[domain.SeriesKind]domain.Series{}
	svc := newMealService(repo, data)

	m, err := svc.Create(context.Background(), 1, app.MealInput{Type: "lunch", Name: "Bibimbap", Calories: 650}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != 12 || stored.UserID != 1 {
		t.Fatalf("unexpected meal: %+v", m)
	}
	if !m.EatenAt.Equal(now) {
		t.Errorf("expected EatenAt to default to now, got %v", m.EatenAt)
	}
	c := data[domain.SeriesCalories]
	if len(c) != 1 || c[0].Value != 650 || !c[0].At.Equal(now) {
		t.Fatalf("calorie series not updated: %v", c)
	}
}

func TestCreateMeal_SanitizesText(t *testing.T) {
	svc := newMealService(&mockMealRepo{}, map[domain.SeriesKind]domain.Series{})
	m, err := svc.Create(context.Background(), 1, app.MealInput{
		Type:        "dinner",
		Name:        `<b>Salad</b><script>alert(1)</script>`,
		Notes:       `<a href="javascript:x">no dressing</a>`,
		Ingredients: []domain.Ingredient{{Name: "<i>kale</i>", Amount: "100g"}},
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Salad" {
		t.Errorf("Name = %q; want %q", m.Name, "Salad")
	}
	if m.Notes != "no dressing" {
		t.Errorf("Notes = %q; want %q", m.Notes, "no dressing")
	}
	if m.Ingredients[0].Name != "kale" {
		t.Errorf("ingredient name = %q; want %q", m.Ingredients[0].Name, "kale")
	}
}

func TestCreateMeal_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   app.MealInput
	}{
		{"bad type", app.MealInput{Type: "brunch", Name: "Eggs"}},
		{"missing name", app.MealInput{Type: "snack"}},
		{"name only markup", app.MealInput{Type: "snack", Name: "<br>"}},
		{"negative calories", app.MealInput{Type: "snack", Name: "Apple", Calories: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockMealRepo{
				addFn: func(context.Context, domain.Meal) (int64, error) {
					t.Fatal("AddMeal should not be called")
					return 0, nil
				},
			}
			_, err := newMealService(repo, map[domain.SeriesKind]domain.Series{}).Create(context.Background(), 1, tc.in, now)
			if !errors.Is(err, app.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestListMeals_DayBounds(t *testing.T) {
	var gotFrom, gotTo time.Time
	repo := &mockMealRepo{
		listFn: func(_ context.Context, _ int64, from, to time.Time) ([]domain.Meal, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	svc := newMealService(repo, nil)

	if _, err := svc.List(context.Background(), 1, "2026-03-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	if !gotFrom.Equal(wantFrom) || !gotTo.Equal(wantFrom.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected bounds: %v - %v", gotFrom, gotTo)
	}

	if _, err := svc.List(context.Background(), 1, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotFrom.IsZero() || !gotTo.IsZero() {
		t.Fatalf("expected unbounded range, got %v - %v", gotFrom, gotTo)
	}

	if _, err := svc.List(context.Background(), 1, "03/01/2026"); !errors.Is(err, app.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateMeal_Partial(t *testing.T) {
	existing := &domain.Meal{ID: 4, UserID: 1, Type: domain.MealLunch, Name: "Soup", Calories: 300, Protein: 10}
	var saved domain.Meal
	repo := &mockMealRepo{
		getFn: func(_ context.Context, userID, id int64) (*domain.Meal, error) {
			if userID != 1 || id != 4 {
				return nil, domain.ErrNotFound
			}
			m := *existing
			return &m, nil
		},
		updateFn: func(_ context.Context, m domain.Meal) error {
			saved = m
			return nil
		},
	}
	calories := 350.0
	name := "Tomato soup"
	got, err := newMealService(repo, nil).Update(context.Background(), 1, 4, app.MealPatch{Name: &name, Calories: &calories})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != name || got.Calories != 350 || got.Protein != 10 || got.Type != domain.MealLunch {
		t.Fatalf("unexpected result: %+v", got)
	}
	if saved.Name != name {
		t.Fatalf("update not persisted: %+v", saved)
	}
}

func TestUpdateMeal_NotFound(t *testing.T) {
	_, err := newMealService(&mockMealRepo{}, nil).Update(context.Background(), 2, 4, app.MealPatch{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMeal_BadType(t *testing.T) {
	repo := &mockMealRepo{
		getFn: func(context.Context, int64, int64) (*domain.Meal, error) {
			return &domain.Meal{ID: 1, Name: "x", Type: domain.MealSnack}, nil
		},
	}
	bad := "elevenses"
	_, err := newMealService(repo, nil).Update(context.Background(), 1, 1, app.MealPatch{Type: &bad})
	if !errors.Is(err, app.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateMeal_KeepsPlainTextEntities(t *testing.T) {
	svc := newMealService(&mockMealRepo{}, map[domain.SeriesKind]domain.Series{})
	m, err := svc.Create(context.Background(), 1, app.MealInput{Type: "dinner", Name: "Mac & cheese"}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Mac & cheese" {
		t.Fatalf("Name = %q", m.Name)
	}
}

func TestCreateMeal_RemovedWhenHistoryFails(t *testing.T) {
	db := memory.New()
	history := &mockHistoryRepo{
		storeFn: func(context.Context, int64, domain.SeriesKind, domain.Series) error {
			return domain.ErrStaleSeries
		},
	}
	svc := app.NewMealService(db, newHistoryService(history, nil, newSpyRecorder()), discard)

	_, err := svc.Create(context.Background(), 1, app.MealInput{Type: "lunch", Name: "Bibimbap", Calories: 650}, now)
	if !errors.Is(err, domain.ErrStaleSeries) {
		t.Fatalf("expected ErrStaleSeries, got %v", err)
	}
	meals, err := db.ListMeals(context.Background(), 1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("expected no meals after a failed create, got %+v", meals)
	}
}

func TestCreateMeal_HistoryFailureUsesLiveContextForRollback(t *testing.T) {
	deleted := false
	repo := &mockMealRepo{
		addFn: func(context.Context, domain.Meal) (int64, error) { return 5, nil },
		deleteFn: func(ctx context.Context, userID, id int64) error {
			if ctx.Err() != nil {
				t.Errorf("rollback ran with a canceled context: %v", ctx.Err())
			}
			deleted = userID == 1 && id == 5
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	history := &mockHistoryRepo{
		storeFn: func(context.Context, int64, domain.SeriesKind, domain.Series) error {
			cancel()
			return context.Canceled
		},
	}
	svc := app.NewMealService(repo, newHistoryService(history, nil, newSpyRecorder()), discard)

	if _, err := svc.Create(ctx, 1, app.MealInput{Type: "snack", Name: "Apple", Calories: 95}, now); err == nil {
		t.Fatal("expected error")
	}
	if !deleted {
		t.Fatal("expected meal 5 to be deleted")
	}
}
