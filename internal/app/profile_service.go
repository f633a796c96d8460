// Package app holds the application services. Each use case loads state from
// the repository ports, runs the domain calculation and writes the result back.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dietplan/internal/domain"
)

var (
	// ErrInvalidInput wraps request values the services reject.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProfileIncomplete indicates the user has not set weight and height yet.
	ErrProfileIncomplete = errors.New("profile is missing weight or height")
)

// ProfileService manages users and their body metrics.
type ProfileService struct {
	users    domain.UserRepository
	history  domain.HistoryRepository
	defaults domain.MetabolicDefaults
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService. defaults supplies the age, sex
// and deficit assumed when a user has not given them.
func NewProfileService(users domain.UserRepository, history domain.HistoryRepository, defaults domain.MetabolicDefaults, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, history: history, defaults: defaults, logger: logger}
}

// Identify returns the user with the given username, creating it on first
// sight. The username comes from the upstream proxy and is trusted.
func (s *ProfileService) Identify(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrInvalidInput)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user, err = s.users.Create(ctx, username)
	if err != nil {
		// Lost a race with a concurrent first request; the row exists now.
		existing, gerr := s.users.GetByUsername(ctx, username)
		if gerr != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return existing, nil
	}
	s.logger.Info("user provisioned", slog.Int64("user_id", user.ID), slog.String("username", username))
	return user, nil
}

// Get returns the user and profile.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ProfileInput is the editable part of a profile. Weights are in Unit.
type ProfileInput struct {
	Name            string
	CurrentWeight   float64
	TargetWeight    float64
	Unit            string
	HeightCm        float64
	Age             *int
	Sex             *string
	Allergies       []string
	DietPreferences []string
}

// Update replaces the profile, recomputes the daily calorie goal and seeds the
// weight series with the current weight if it is still empty.
func (s *ProfileService) Update(ctx context.Context, userID int64, in ProfileInput, now time.Time) (*domain.User, error) {
	unit, err := domain.ParseWeightUnit(in.Unit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p := domain.Profile{
		Name:            in.Name,
		CurrentWeightKg: domain.ToKilograms(in.CurrentWeight, unit),
		TargetWeightKg:  domain.ToKilograms(in.TargetWeight, unit),
		HeightCm:        in.HeightCm,
		Age:             in.Age,
		Allergies:       nonNil(in.Allergies),
		DietPreferences: nonNil(in.DietPreferences),
	}
	if in.Sex != nil && *in.Sex != "" {
		sex, err := domain.ParseSex(*in.Sex)
		if err != nil {
			return nil, err
		}
		p.Sex = &sex
	}

	goal, err := s.goalFor(p)
	if err != nil {
		return nil, err
	}
	p.DailyCalorieGoal = goal

	if err := s.users.UpdateProfile(ctx, userID, p); err != nil {
		return nil, err
	}
	if err := s.seedWeight(ctx, userID, p.CurrentWeightKg, now); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// GoalBreakdown explains how a daily calorie goal was derived.
type GoalBreakdown struct {
	BMR             float64            `json:"bmr"`
	Goal            domain.CalorieGoal `json:"dailyCalorieGoal"`
	Age             int                `json:"age"`
	Sex             domain.Sex         `json:"sex"`
	AgeAssumed      bool               `json:"ageAssumed"`
	SexAssumed      bool               `json:"sexAssumed"`
	ReductionFactor float64            `json:"reductionFactor"`
}

// CalorieGoal recomputes the goal for the stored profile and reports which
// inputs were assumed.
func (s *ProfileService) CalorieGoal(ctx context.Context, userID int64) (*GoalBreakdown, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Complete() {
		return nil, ErrProfileIncomplete
	}
	m := s.defaults.Metrics(user.CurrentWeightKg, user.HeightCm, user.Age, user.Sex)
	bmr, err := domain.BasalMetabolicRate(m)
	if err != nil {
		return nil, err
	}
	goal, err := domain.ComputeDailyCalorieGoal(m, s.defaults.ReductionFactor)
	if err != nil {
		return nil, err
	}
	return &GoalBreakdown{
		BMR:             bmr,
		Goal:            goal,
		Age:             m.Age,
		Sex:             m.Sex,
		AgeAssumed:      user.Age == nil,
		SexAssumed:      user.Sex == nil,
		ReductionFactor: s.defaults.ReductionFactor,
	}, nil
}

// applyWeight sets a new current weight on the profile and recomputes the goal.
func (s *ProfileService) applyWeight(ctx context.Context, userID int64, weightKg float64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	p := user.Profile
	p.CurrentWeightKg = weightKg
	if p.Complete() {
		goal, err := s.goalFor(p)
		if err != nil {
			return err
		}
		p.DailyCalorieGoal = goal
	}
	return s.users.UpdateProfile(ctx, userID, p)
}

func (s *ProfileService) goalFor(p domain.Profile) (domain.CalorieGoal, error) {
	m := s.defaults.Metrics(p.CurrentWeightKg, p.HeightCm, p.Age, p.Sex)
	return domain.ComputeDailyCalorieGoal(m, s.defaults.ReductionFactor)
}

func (s *ProfileService) seedWeight(ctx context.Context, userID int64, weightKg float64, now time.Time) error {
	series, err := s.history.LoadSeries(ctx, userID, domain.SeriesWeight)
	if err != nil {
		return err
	}
	if len(series) > 0 {
		return nil
	}
	series, err = domain.AppendObservation(series, weightKg, now)
	if err != nil {
		return err
	}
	return s.history.StoreSeries(ctx, userID, domain.SeriesWeight, series)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
