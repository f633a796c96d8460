package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dietplan/internal/domain"
)

var _ domain.UserRepository = (*DB)(nil)

const userColumns = `id, username, name, current_weight_kg, target_weight_kg, height_cm,
	age, sex, daily_calorie_goal, allergies, diet_preferences, created_at`

type userRow struct {
	ID               int64          `db:"id"`
	Username         string         `db:"username"`
	Name             string         `db:"name"`
	CurrentWeightKg  float64        `db:"current_weight_kg"`
	TargetWeightKg   float64        `db:"target_weight_kg"`
	HeightCm         float64        `db:"height_cm"`
	Age              sql.NullInt32  `db:"age"`
	Sex              sql.NullString `db:"sex"`
	DailyCalorieGoal int            `db:"daily_calorie_goal"`
	Allergies        pq.StringArray `db:"allergies"`
	DietPreferences  pq.StringArray `db:"diet_preferences"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	u := &domain.User{
		ID:        r.ID,
		Username:  r.Username,
		CreatedAt: r.CreatedAt,
		Profile: domain.Profile{
			Name:             r.Name,
			CurrentWeightKg:  r.CurrentWeightKg,
			TargetWeightKg:   r.TargetWeightKg,
			HeightCm:         r.HeightCm,
			DailyCalorieGoal: domain.CalorieGoal(r.DailyCalorieGoal),
			Allergies:        append([]string{}, r.Allergies...),
			DietPreferences:  append([]string{}, r.DietPreferences...),
		},
	}
	if r.Age.Valid {
		age := int(r.Age.Int32)
		u.Age = &age
	}
	if r.Sex.Valid {
		sex := domain.Sex(r.Sex.String)
		u.Sex = &sex
	}
	return u
}

func (d *DB) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userRow
	err := d.sql.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.getUser(ctx, "username = $1", username)
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.getUser(ctx, "id = $1", id)
}

// Create creates a new user with an empty profile.
func (d *DB) Create(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	err := d.sql.GetContext(ctx, &row,
		"INSERT INTO users (username, created_at) VALUES ($1, $2) RETURNING "+userColumns,
		username, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// UpdateProfile replaces the user's profile.
func (d *DB) UpdateProfile(ctx context.Context, userID int64, p domain.Profile) error {
	var sex *string
	if p.Sex != nil {
		s := string(*p.Sex)
		sex = &s
	}
	res, err := d.sql.ExecContext(ctx, `
		UPDATE users SET
			name = $2, current_weight_kg = $3, target_weight_kg = $4, height_cm = $5,
			age = $6, sex = $7, daily_calorie_goal = $8, allergies = $9, diet_preferences = $10
		WHERE id = $1`,
		userID, p.Name, p.CurrentWeightKg, p.TargetWeightKg, p.HeightCm,
		p.Age, sex, int(p.DailyCalorieGoal),
		pq.Array(nonNil(p.Allergies)), pq.Array(nonNil(p.DietPreferences)),
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
