package app_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"dietplan/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username string) (*domain.User, error)
	updateFn        func(ctx context.Context, userID int64, p domain.Profile) error
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, username string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username)
	}
	return &domain.User{ID: 1, Username: username}, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, userID int64, p domain.Profile) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, p)
	}
	return nil
}

// profileStore returns a mockUserRepo that keeps a single user's profile.
func profileStore(user *domain.User) *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			if id != user.ID {
				return nil, domain.ErrNotFound
			}
			u := *user
			return &u, nil
		},
		updateFn: func(_ context.Context, _ int64, p domain.Profile) error {
			user.Profile = p
			return nil
		},
	}
}

type mockHistoryRepo struct {
	loadFn  func(ctx context.Context, userID int64, kind domain.SeriesKind) (domain.Series, error)
	storeFn func(ctx context.Context, userID int64, kind domain.SeriesKind, s domain.Series) error
}

func (m *mockHistoryRepo) LoadSeries(ctx context.Context, userID int64, kind domain.SeriesKind) (domain.Series, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, userID, kind)
	}
	return nil, nil
}

func (m *mockHistoryRepo) StoreSeries(ctx context.Context, userID int64, kind domain.SeriesKind, s domain.Series) error {
	if m.storeFn != nil {
		return m.storeFn(ctx, userID, kind, s)
	}
	return nil
}

// seriesStore returns a mockHistoryRepo that keeps series in a map.
func seriesStore(data map[domain.SeriesKind]domain.Series) *mockHistoryRepo {
	return &mockHistoryRepo{
		loadFn: func(_ context.Context, _ int64, kind domain.SeriesKind) (domain.Series, error) {
			return data[kind], nil
		},
		storeFn: func(_ context.Context, _ int64, kind domain.SeriesKind, s domain.Series) error {
			data[kind] = s
			return nil
		},
	}
}

type mockMealRepo struct {
	addFn    func(ctx context.Context, m domain.Meal) (int64, error)
	getFn    func(ctx context.Context, userID, id int64) (*domain.Meal, error)
	listFn   func(ctx context.Context, userID int64, from, to time.Time) ([]domain.Meal, error)
	updateFn func(ctx context.Context, m domain.Meal) error
	deleteFn func(ctx context.Context, userID, id int64) error
}

func (m *mockMealRepo) AddMeal(ctx context.Context, meal domain.Meal) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, meal)
	}
	return 1, nil
}

func (m *mockMealRepo) GetMeal(ctx context.Context, userID, id int64) (*domain.Meal, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMealRepo) ListMeals(ctx context.Context, userID int64, from, to time.Time) ([]domain.Meal, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *mockMealRepo) UpdateMeal(ctx context.Context, meal domain.Meal) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, meal)
	}
	return nil
}

func (m *mockMealRepo) DeleteMeal(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockSearcher struct {
	searchFn  func(ctx context.Context, query string, near domain.GeoPoint, limit int) ([]domain.Candidate, error)
	detailsFn func(ctx context.Context, id string) (*domain.PlaceDetails, error)
}

func (m *mockSearcher) Search(ctx context.Context, query string, near domain.GeoPoint, limit int) ([]domain.Candidate, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, near, limit)
	}
	return nil, nil
}

func (m *mockSearcher) Details(ctx context.Context, id string) (*domain.PlaceDetails, error) {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

// spyRecorder counts the metrics the services emit.
type spyRecorder struct {
	observations map[string]int
	staleWrites  map[string]int
	searches     int
	failures     int
	returned     int
	excluded     int
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{observations: map[string]int{}, staleWrites: map[string]int{}}
}

func (s *spyRecorder) RecordRequest(string, string, int, time.Duration) {}
func (s *spyRecorder) RecordObservation(kind string)                    { s.observations[kind]++ }
func (s *spyRecorder) RecordStaleWrite(kind string)                     { s.staleWrites[kind]++ }
func (s *spyRecorder) RecordPlaceSearchFailure()                        { s.failures++ }

func (s *spyRecorder) RecordPlaceSearch(returned, excluded int, _ time.Duration) {
	s.searches++
	s.returned += returned
	s.excluded += excluded
}
