package app

import (
	"context"
	"time"

	"dietplan/internal/domain"
)

// DashboardService assembles the overview shown on the landing page.
type DashboardService struct {
	profiles *ProfileService
	history  *HistoryService
	meals    *MealService
}

// NewDashboardService creates a DashboardService from the other services.
func NewDashboardService(profiles *ProfileService, history *HistoryService, meals *MealService) *DashboardService {
	return &DashboardService{profiles: profiles, history: history, meals: meals}
}

// SeriesOverview is the summary and recent trend of one series.
type SeriesOverview struct {
	Summary domain.Summary `json:"summary"`
	Trend   []float64      `json:"trend"`
}

// Dashboard is the per-user overview.
type Dashboard struct {
	User       *domain.User   `json:"user"`
	Weight     SeriesOverview `json:"weight"`
	Calories   SeriesOverview `json:"calories"`
	TodayMeals []domain.Meal  `json:"todayMeals"`
	// CaloriesToday is the sum of today's meals.
	CaloriesToday float64 `json:"caloriesToday"`
	// CaloriesLeft is the goal minus CaloriesToday; negative when over.
	CaloriesLeft float64 `json:"caloriesLeft"`
}

// Get builds the dashboard for the local day containing now.
func (s *DashboardService) Get(ctx context.Context, userID int64, now time.Time) (*Dashboard, error) {
	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{User: user}

	if d.Weight, err = s.overview(ctx, userID, domain.SeriesWeight); err != nil {
		return nil, err
	}
	if d.Calories, err = s.overview(ctx, userID, domain.SeriesCalories); err != nil {
		return nil, err
	}

	meals, err := s.meals.List(ctx, userID, now.In(time.Local).Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []domain.Meal{}
	}
	d.TodayMeals = meals
	for _, m := range meals {
		d.CaloriesToday += m.Calories
	}
	d.CaloriesLeft = float64(user.DailyCalorieGoal) - d.CaloriesToday
	return d, nil
}

func (s *DashboardService) overview(ctx context.Context, userID int64, kind domain.SeriesKind) (SeriesOverview, error) {
	summary, err := s.history.Summary(ctx, userID, kind)
	if err != nil {
		return SeriesOverview{}, err
	}
	trend, err := s.history.Trend(ctx, userID, kind, 0)
	if err != nil {
		return SeriesOverview{}, err
	}
	return SeriesOverview{Summary: summary, Trend: trend}, nil
}
