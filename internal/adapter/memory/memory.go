// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dietplan/internal/domain"
)

type seriesKey struct {
	userID int64
	kind   domain.SeriesKind
}

// DB implements an in-memory database storage.
type DB struct {
	mu     sync.Mutex
	users  []*domain.User
	series map[seriesKey]domain.Series
	meals  []domain.Meal

	userIDCounter int64
	mealIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{series: make(map[seriesKey]domain.Series)}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.HistoryRepository = (*DB)(nil)
var _ domain.MealRepository = (*DB)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.findUser(id); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrNotFound
}

// Create creates a new user with an empty profile.
func (db *DB) Create(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:        db.userIDCounter,
		Username:  username,
		CreatedAt: time.Now().UTC(),
		Profile:   domain.Profile{Allergies: []string{}, DietPreferences: []string{}},
	}
	db.users = append(db.users, u)
	return cloneUser(u), nil
}

// UpdateProfile replaces the user's profile.
func (db *DB) UpdateProfile(ctx context.Context, userID int64, p domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u := db.findUser(userID)
	if u == nil {
		return domain.ErrNotFound
	}
	u.Profile = cloneProfile(p)
	return nil
}

func (db *DB) findUser(id int64) *domain.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Profile = cloneProfile(u.Profile)
	return &c
}

func cloneProfile(p domain.Profile) domain.Profile {
	if p.Age != nil {
		age := *p.Age
		p.Age = &age
	}
	if p.Sex != nil {
		sex := *p.Sex
		p.Sex = &sex
	}
	p.Allergies = append([]string{}, p.Allergies...)
	p.DietPreferences = append([]string{}, p.DietPreferences...)
	return p
}

// --- HistoryRepository ---

// LoadSeries returns a copy of the stored series.
func (db *DB) LoadSeries(ctx context.Context, userID int64, kind domain.SeriesKind) (domain.Series, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := db.series[seriesKey{userID, kind}]
	out := make(domain.Series, len(stored))
	copy(out, stored)
	return out, nil
}

// StoreSeries replaces the stored series. The write is rejected when the
// stored series already holds as many entries as the new one, meaning another
// writer appended since the caller's read.
func (db *DB) StoreSeries(ctx context.Context, userID int64, kind domain.SeriesKind, series domain.Series) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := seriesKey{userID, kind}
	if len(db.series[key]) >= len(series) {
		return domain.ErrStaleSeries
	}
	stored := make(domain.Series, len(series))
	copy(stored, series)
	db.series[key] = stored
	return nil
}

// --- MealRepository ---

// AddMeal stores a meal and returns its ID.
func (db *DB) AddMeal(ctx context.Context, m domain.Meal) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.mealIDCounter++
	m.ID = db.mealIDCounter
	m.EatenAt = m.EatenAt.UTC()
	m.Ingredients = append([]domain.Ingredient{}, m.Ingredients...)
	db.meals = append(db.meals, m)
	return m.ID, nil
}

// GetMeal retrieves one of the user's meals.
func (db *DB) GetMeal(ctx context.Context, userID, id int64) (*domain.Meal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findMeal(userID, id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	m := db.meals[i]
	m.Ingredients = append([]domain.Ingredient{}, m.Ingredients...)
	return &m, nil
}

// ListMeals lists the user's meals eaten in [from, to), oldest first. A zero
// bound is open.
func (db *DB) ListMeals(ctx context.Context, userID int64, from, to time.Time) ([]domain.Meal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.Meal{}
	for _, m := range db.meals {
		if m.UserID != userID {
			continue
		}
		if !from.IsZero() && m.EatenAt.Before(from) {
			continue
		}
		if !to.IsZero() && !m.EatenAt.Before(to) {
			continue
		}
		m.Ingredients = append([]domain.Ingredient{}, m.Ingredients...)
		result = append(result, m)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EatenAt.Before(result[j].EatenAt)
	})
	return result, nil
}

// UpdateMeal replaces a stored meal.
func (db *DB) UpdateMeal(ctx context.Context, m domain.Meal) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findMeal(m.UserID, m.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.EatenAt = m.EatenAt.UTC()
	m.Ingredients = append([]domain.Ingredient{}, m.Ingredients...)
	db.meals[i] = m
	return nil
}

// DeleteMeal deletes one of the user's meals.
func (db *DB) DeleteMeal(ctx context.Context, userID, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.findMeal(userID, id)
	if i < 0 {
		return domain.ErrNotFound
	}
	db.meals = append(db.meals[:i], db.meals[i+1:]...)
	return nil
}

func (db *DB) findMeal(userID, id int64) int {
	for i, m := range db.meals {
		if m.ID == id && m.UserID == userID {
			return i
		}
	}
	return -1
}
