package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dietplan/internal/domain"
)

var _ domain.MealRepository = (*DB)(nil)

const mealColumns = `id, user_id, eaten_at, meal_type, name, ingredients,
	calories, protein, carbs, fat, notes, image_url`

type mealRow struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	EatenAt     time.Time `db:"eaten_at"`
	Type        string    `db:"meal_type"`
	Name        string    `db:"name"`
	Ingredients string    `db:"ingredients"`
	Calories    float64   `db:"calories"`
	Protein     float64   `db:"protein"`
	Carbs       float64   `db:"carbs"`
	Fat         float64   `db:"fat"`
	Notes       string    `db:"notes"`
	ImageURL    string    `db:"image_url"`
}

func newMealRow(m domain.Meal) (mealRow, error) {
	ingredients := m.Ingredients
	if ingredients == nil {
		ingredients = []domain.Ingredient{}
	}
	raw, err := json.Marshal(ingredients)
	if err != nil {
		return mealRow{}, err
	}
	return mealRow{
		ID:          m.ID,
		UserID:      m.UserID,
		EatenAt:     m.EatenAt.UTC(),
		Type:        string(m.Type),
		Name:        m.Name,
		Ingredients: string(raw),
		Calories:    m.Calories,
		Protein:     m.Protein,
		Carbs:       m.Carbs,
		Fat:         m.Fat,
		Notes:       m.Notes,
		ImageURL:    m.ImageURL,
	}, nil
}

func (r mealRow) toDomain() (domain.Meal, error) {
	m := domain.Meal{
		ID:       r.ID,
		UserID:   r.UserID,
		EatenAt:  r.EatenAt,
		Type:     domain.MealType(r.Type),
		Name:     r.Name,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		Notes:    r.Notes,
		ImageURL: r.ImageURL,
	}
	if err := json.Unmarshal([]byte(r.Ingredients), &m.Ingredients); err != nil {
		return domain.Meal{}, fmt.Errorf("meal %d: ingredients: %w", r.ID, err)
	}
	return m, nil
}

// AddMeal stores a meal and returns its ID.
func (d *DB) AddMeal(ctx context.Context, m domain.Meal) (int64, error) {
	row, err := newMealRow(m)
	if err != nil {
		return 0, err
	}
	stmt, err := d.sql.PrepareNamedContext(ctx, `
		INSERT INTO meals (user_id, eaten_at, meal_type, name, ingredients, calories, protein, carbs, fat, notes, image_url)
		VALUES (:user_id, :eaten_at, :meal_type, :name, :ingredients, :calories, :protein, :carbs, :fat, :notes, :image_url)
		RETURNING id`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var id int64
	if err := stmt.GetContext(ctx, &id, row); err != nil {
		return 0, err
	}
	return id, nil
}

// GetMeal retrieves one of the user's meals.
func (d *DB) GetMeal(ctx context.Context, userID, id int64) (*domain.Meal, error) {
	var row mealRow
	err := d.sql.GetContext(ctx, &row,
		"SELECT "+mealColumns+" FROM meals WHERE id = $1 AND user_id = $2",
		id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMeals lists the user's meals eaten in [from, to), oldest first. A zero
// bound is open.
func (d *DB) ListMeals(ctx context.Context, userID int64, from, to time.Time) ([]domain.Meal, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if !from.IsZero() {
		args = append(args, from.UTC())
		where = append(where, fmt.Sprintf("eaten_at >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to.UTC())
		where = append(where, fmt.Sprintf("eaten_at < $%d", len(args)))
	}

	var rows []mealRow
	err := d.sql.SelectContext(ctx, &rows,
		"SELECT "+mealColumns+" FROM meals WHERE "+strings.Join(where, " AND ")+" ORDER BY eaten_at, id",
		args...,
	)
	if err != nil {
		return nil, err
	}

	meals := make([]domain.Meal, 0, len(rows))
	for _, r := range rows {
		m, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, nil
}

// UpdateMeal replaces a stored meal.
func (d *DB) UpdateMeal(ctx context.Context, m domain.Meal) error {
	row, err := newMealRow(m)
	if err != nil {
		return err
	}
	res, err := d.sql.NamedExecContext(ctx, `
		UPDATE meals SET
			eaten_at = :eaten_at, meal_type = :meal_type, name = :name, ingredients = :ingredients,
			calories = :calories, protein = :protein, carbs = :carbs, fat = :fat,
			notes = :notes, image_url = :image_url
		WHERE id = :id AND user_id = :user_id`, row)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteMeal deletes one of the user's meals.
func (d *DB) DeleteMeal(ctx context.Context, userID, id int64) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM meals WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
