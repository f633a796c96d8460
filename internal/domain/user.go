// Package domain contains the core business entities, the calculations over
// them and the repository ports.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// User is a person tracked by the service, identified by the username an
// upstream proxy asserts.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Profile
}

// Profile holds the body metrics and diet settings of a user. Zero weight or
// height means the user has not filled them in yet.
type Profile struct {
	Name             string      `json:"name"`
	CurrentWeightKg  float64     `json:"currentWeight"`
	TargetWeightKg   float64     `json:"targetWeight"`
	HeightCm         float64     `json:"height"`
	Age              *int        `json:"age,omitempty"`
	Sex              *Sex        `json:"sex,omitempty"`
	DailyCalorieGoal CalorieGoal `json:"dailyCalorieGoal"`
	Allergies        []string    `json:"allergies"`
	DietPreferences  []string    `json:"dietPreferences"`
}

// Complete reports whether the profile has the measurements the calorie goal
// needs.
func (p Profile) Complete() bool {
	return p.CurrentWeightKg > 0 && p.HeightCm > 0
}

// UserRepository is the port for user persistence.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, userID int64, p Profile) error
}
