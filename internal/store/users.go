package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bthaas/intelifit/internal/model"
)

const userColumns = `id, email, name, date_of_birth, gender, height_cm, current_weight_kg, activity_level, goal_type,
target_weight_kg, weekly_weight_change_kg, calorie_goal, macro_protein_pct, macro_carbs_pct, macro_fat_pct,
units, theme, meal_reminders, goal_reminders, water_reminders, workout_reminders, created_at, updated_at`

// CreateUser persists u. An empty ID gets a random UUID; identity-backed
// profiles pass the provider subject instead.
func (s *Store) CreateUser(ctx context.Context, u model.UserProfile) (model.UserProfile, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.UserProfile{}, err
	}
	if u, err = prepareUser(u); err != nil {
		return model.UserProfile{}, err
	}
	if err := insertUser(ctx, sqldb, u); err != nil {
		return model.UserProfile{}, err
	}
	return u, nil
}

// CreateUserWithWeight persists u together with its starting weight entry.
// Neither row is written unless both are.
func (s *Store) CreateUserWithWeight(ctx context.Context, u model.UserProfile, first WeightEntryInput) (model.UserProfile, error) {
	u, err := prepareUser(u)
	if err != nil {
		return model.UserProfile{}, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		first.UserID = u.ID
		entry, err := newWeightEntry(first)
		if err != nil {
			return err
		}
		return insertWeightEntry(ctx, tx, &entry)
	})
	if err != nil {
		return model.UserProfile{}, err
	}
	return u, nil
}

func prepareUser(u model.UserProfile) (model.UserProfile, error) {
	if strings.TrimSpace(u.ID) == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" {
		return model.UserProfile{}, fmt.Errorf("email is required")
	}
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}

func insertUser(ctx context.Context, q querier, u model.UserProfile) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO users(`+userColumns+`)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, userArgs(u)...)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.UserProfile, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.UserProfile{}, err
	}
	u, err := scanUser(sqldb.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get user %q: %w", id, err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.UserProfile, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := sqldb.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]model.UserProfile, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// UpdateUser replaces every mutable column of the stored profile.
func (s *Store) UpdateUser(ctx context.Context, u model.UserProfile) (model.UserProfile, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.UserProfile{}, err
	}
	u.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := sqldb.ExecContext(ctx, `
UPDATE users
SET email = ?, name = ?, date_of_birth = ?, gender = ?, height_cm = ?, current_weight_kg = ?, activity_level = ?,
    goal_type = ?, target_weight_kg = ?, weekly_weight_change_kg = ?, calorie_goal = ?,
    macro_protein_pct = ?, macro_carbs_pct = ?, macro_fat_pct = ?, units = ?, theme = ?,
    meal_reminders = ?, goal_reminders = ?, water_reminders = ?, workout_reminders = ?, updated_at = ?
WHERE id = ?
`, strings.TrimSpace(strings.ToLower(u.Email)), u.Name, u.DateOfBirth.Format(dateLayout), string(u.Gender), u.HeightCm,
		u.CurrentWeightKg, string(u.Goals.ActivityLevel), string(u.Goals.GoalType), u.Goals.TargetWeightKg,
		u.Goals.WeeklyChangeKg, u.Goals.CalorieGoal, u.Goals.Macros.Protein, u.Goals.Macros.Carbs, u.Goals.Macros.Fat,
		string(u.Preferences.Units), string(u.Preferences.Theme),
		boolToInt(u.Preferences.Notifications.MealReminders), boolToInt(u.Preferences.Notifications.GoalReminders),
		boolToInt(u.Preferences.Notifications.WaterReminders), boolToInt(u.Preferences.Notifications.WorkoutReminders),
		formatTime(u.UpdatedAt), u.ID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("update user %q: %w", u.ID, err)
	}
	if err := checkAffected(res, fmt.Sprintf("user %q", u.ID)); err != nil {
		return model.UserProfile{}, err
	}
	return u, nil
}

// ResetAllData removes every profile and everything scoped to one, custom
// foods and device config. The seeded catalog stays.
func (s *Store) ResetAllData(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM users`,
			`DELETE FROM food_items WHERE is_custom = 1 AND id NOT IN (SELECT food_item_id FROM consumed_foods)`,
			`DELETE FROM app_config`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("reset data: %w", err)
			}
		}
		return nil
	})
}

func userArgs(u model.UserProfile) []any {
	n := u.Preferences.Notifications
	return []any{
		u.ID, u.Email, strings.TrimSpace(u.Name), u.DateOfBirth.Format(dateLayout), string(u.Gender), u.HeightCm,
		u.CurrentWeightKg, string(u.Goals.ActivityLevel), string(u.Goals.GoalType), u.Goals.TargetWeightKg,
		u.Goals.WeeklyChangeKg, u.Goals.CalorieGoal, u.Goals.Macros.Protein, u.Goals.Macros.Carbs, u.Goals.Macros.Fat,
		string(u.Preferences.Units), string(u.Preferences.Theme),
		boolToInt(n.MealReminders), boolToInt(n.GoalReminders), boolToInt(n.WaterReminders), boolToInt(n.WorkoutReminders),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.UserProfile, error) {
	var u model.UserProfile
	var dob, gender, activity, goalType, units, theme, createdAt, updatedAt string
	var target, weekly sql.NullFloat64
	var meal, goal, water, workout int
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &dob, &gender, &u.HeightCm, &u.CurrentWeightKg, &activity, &goalType,
		&target, &weekly, &u.Goals.CalorieGoal, &u.Goals.Macros.Protein, &u.Goals.Macros.Carbs, &u.Goals.Macros.Fat,
		&units, &theme, &meal, &goal, &water, &workout, &createdAt, &updatedAt); err != nil {
		return model.UserProfile{}, err
	}
	born, err := time.Parse(dateLayout, dob)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("parse date_of_birth: %w", err)
	}
	u.DateOfBirth = born
	u.Gender = model.Gender(gender)
	u.Goals.ActivityLevel = model.ActivityLevel(activity)
	u.Goals.GoalType = model.GoalType(goalType)
	if target.Valid {
		v := target.Float64
		u.Goals.TargetWeightKg = &v
	}
	if weekly.Valid {
		v := weekly.Float64
		u.Goals.WeeklyChangeKg = &v
	}
	u.Preferences = model.Preferences{
		Units: model.UnitSystem(units),
		Theme: model.ThemeMode(theme),
		Notifications: model.NotificationSettings{
			MealReminders:    meal == 1,
			GoalReminders:    goal == 1,
			WaterReminders:   water == 1,
			WorkoutReminders: workout == 1,
		},
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.UserProfile{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.UserProfile{}, err
	}
	return u, nil
}
