package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
	"github.com/bthaas/intelifit/internal/store"
)

// DefaultMacros is the split a new profile starts with.
var DefaultMacros = model.MacroRatios{Protein: 30, Carbs: 40, Fat: 30}

type ProfileInput struct {
	// ID is the identity subject when signed in; empty means a local profile.
	ID             string
	Email          string
	Name           string
	DateOfBirth    time.Time
	Gender         model.Gender
	HeightCm       float64
	WeightKg       float64
	Activity       model.ActivityLevel
	GoalType       model.GoalType
	TargetWeightKg *float64
	WeeklyChangeKg *float64
	Macros         *model.MacroRatios
	Units          model.UnitSystem
	Theme          model.ThemeMode
}

func (in ProfileInput) validate(now time.Time) error {
	if err := validateRequired("email", in.Email); err != nil {
		return err
	}
	if err := validateRequired("name", in.Name); err != nil {
		return err
	}
	if err := validateBirthDate(in.DateOfBirth, now); err != nil {
		return err
	}
	if !in.Gender.Valid() {
		return invalid("gender", "must be male, female or other")
	}
	if err := validatePositive("height", in.HeightCm); err != nil {
		return err
	}
	if err := validatePositive("weight", in.WeightKg); err != nil {
		return err
	}
	if !in.Activity.Valid() {
		return invalid("activity level", "must be sedentary, light, moderate, active or very_active")
	}
	if !in.GoalType.Valid() {
		return invalid("goal type", "must be lose_weight, gain_weight, maintain or build_muscle")
	}
	if err := validateOptionalPositive("target weight", in.TargetWeightKg); err != nil {
		return err
	}
	if in.WeeklyChangeKg != nil {
		if err := validateNonNegative("weekly change", *in.WeeklyChangeKg); err != nil {
			return err
		}
	}
	if in.Macros != nil {
		if err := validateMacros(*in.Macros); err != nil {
			return err
		}
	}
	if in.Units != "" && !in.Units.Valid() {
		return invalid("units", "must be metric or imperial")
	}
	if in.Theme != "" && !in.Theme.Valid() {
		return invalid("theme", "must be light, dark or system")
	}
	return nil
}

// Onboard creates the profile, records the starting weight and makes the
// profile active.
func (t *Tracker) Onboard(ctx context.Context, in ProfileInput) (model.UserProfile, error) {
	now := t.now()
	if err := in.validate(now); err != nil {
		return model.UserProfile{}, err
	}
	done, err := t.begin()
	if err != nil {
		return model.UserProfile{}, err
	}
	defer done()

	macros := DefaultMacros
	if in.Macros != nil {
		macros = *in.Macros
	}
	u := model.UserProfile{
		ID:              strings.TrimSpace(in.ID),
		Email:           in.Email,
		Name:            strings.TrimSpace(in.Name),
		DateOfBirth:     in.DateOfBirth,
		Gender:          in.Gender,
		HeightCm:        in.HeightCm,
		CurrentWeightKg: in.WeightKg,
		Goals: model.Goals{
			GoalType:       in.GoalType,
			ActivityLevel:  in.Activity,
			TargetWeightKg: in.TargetWeightKg,
			WeeklyChangeKg: in.WeeklyChangeKg,
			Macros:         macros,
		},
		Preferences: model.Preferences{
			Units: in.Units,
			Theme: in.Theme,
			Notifications: model.NotificationSettings{
				MealReminders:    true,
				GoalReminders:    true,
				WaterReminders:   true,
				WorkoutReminders: true,
			},
		},
	}
	if u.Preferences.Units == "" {
		u.Preferences.Units = model.UnitsMetric
	}
	if u.Preferences.Theme == "" {
		u.Preferences.Theme = model.ThemeSystem
	}
	u.Goals.CalorieGoal = nutrition.CalorieGoal(energyInput(u, now))

	created, err := t.store.CreateUserWithWeight(ctx, u, store.WeightEntryInput{WeightKg: in.WeightKg, MeasuredAt: now})
	if err != nil {
		return model.UserProfile{}, err
	}
	if err := t.activate(ctx, created); err != nil {
		return model.UserProfile{}, err
	}
	t.log.Info("profile created")
	return t.user()
}

// UseProfile makes an existing profile the active one.
func (t *Tracker) UseProfile(ctx context.Context, id string) (model.UserProfile, error) {
	done, err := t.begin()
	if err != nil {
		return model.UserProfile{}, err
	}
	defer done()

	u, err := t.store.GetUser(ctx, id)
	if err != nil {
		return model.UserProfile{}, err
	}
	if err := t.activate(ctx, u); err != nil {
		return model.UserProfile{}, err
	}
	return t.user()
}

func (t *Tracker) activate(ctx context.Context, u model.UserProfile) error {
	if err := t.store.SetConfig(ctx, store.ConfigActiveUser, u.ID); err != nil {
		return err
	}
	if err := t.store.SetConfig(ctx, store.ConfigOnboardingComplete, "true"); err != nil {
		return err
	}
	t.setUser(u)
	return t.refresh(ctx)
}

// ProfileUpdate changes only the fields that are set. When an attribute the
// calorie goal depends on changes and CalorieGoal is nil, the goal is
// recalculated.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	DateOfBirth    *time.Time
	Gender         *model.Gender
	HeightCm       *float64
	Activity       *model.ActivityLevel
	GoalType       *model.GoalType
	TargetWeightKg *float64
	WeeklyChangeKg *float64
	CalorieGoal    *int
	Macros         *model.MacroRatios
	Units          *model.UnitSystem
	Theme          *model.ThemeMode
	Notifications  *model.NotificationSettings
}

func (t *Tracker) UpdateProfile(ctx context.Context, in ProfileUpdate) (model.UserProfile, error) {
	done, err := t.begin()
	if err != nil {
		return model.UserProfile{}, err
	}
	defer done()
	u, err := t.user()
	if err != nil {
		return model.UserProfile{}, err
	}
	now := t.now()
	recalc := false

	if in.Name != nil {
		if err := validateRequired("name", *in.Name); err != nil {
			return model.UserProfile{}, err
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		if err := validateRequired("email", *in.Email); err != nil {
			return model.UserProfile{}, err
		}
		u.Email = *in.Email
	}
	if in.DateOfBirth != nil {
		if err := validateBirthDate(*in.DateOfBirth, now); err != nil {
			return model.UserProfile{}, err
		}
		u.DateOfBirth, recalc = *in.DateOfBirth, true
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return model.UserProfile{}, invalid("gender", "must be male, female or other")
		}
		u.Gender, recalc = *in.Gender, true
	}
	if in.HeightCm != nil {
		if err := validatePositive("height", *in.HeightCm); err != nil {
			return model.UserProfile{}, err
		}
		u.HeightCm, recalc = *in.HeightCm, true
	}
	if in.Activity != nil {
		if !in.Activity.Valid() {
			return model.UserProfile{}, invalid("activity level", "must be sedentary, light, moderate, active or very_active")
		}
		u.Goals.ActivityLevel, recalc = *in.Activity, true
	}
	if in.GoalType != nil {
		if !in.GoalType.Valid() {
			return model.UserProfile{}, invalid("goal type", "must be lose_weight, gain_weight, maintain or build_muscle")
		}
		u.Goals.GoalType, recalc = *in.GoalType, true
	}
	if in.TargetWeightKg != nil {
		if err := validatePositive("target weight", *in.TargetWeightKg); err != nil {
			return model.UserProfile{}, err
		}
		v := *in.TargetWeightKg
		u.Goals.TargetWeightKg = &v
	}
	if in.WeeklyChangeKg != nil {
		if err := validateNonNegative("weekly change", *in.WeeklyChangeKg); err != nil {
			return model.UserProfile{}, err
		}
		v := *in.WeeklyChangeKg
		u.Goals.WeeklyChangeKg, recalc = &v, true
	}
	if in.Macros != nil {
		if err := validateMacros(*in.Macros); err != nil {
			return model.UserProfile{}, err
		}
		u.Goals.Macros = *in.Macros
	}
	if in.Units != nil {
		if !in.Units.Valid() {
			return model.UserProfile{}, invalid("units", "must be metric or imperial")
		}
		u.Preferences.Units = *in.Units
	}
	if in.Theme != nil {
		if !in.Theme.Valid() {
			return model.UserProfile{}, invalid("theme", "must be light, dark or system")
		}
		u.Preferences.Theme = *in.Theme
	}
	if in.Notifications != nil {
		u.Preferences.Notifications = *in.Notifications
	}
	if in.CalorieGoal != nil {
		if *in.CalorieGoal <= 0 {
			return model.UserProfile{}, invalid("calorie goal", "must be greater than 0")
		}
		u.Goals.CalorieGoal = *in.CalorieGoal
	} else if recalc {
		u.Goals.CalorieGoal = nutrition.CalorieGoal(energyInput(u, now))
	}
	return t.saveProfile(ctx, u)
}

// RecalculateCalorieGoal derives the goal from the stored profile and
// persists it.
func (t *Tracker) RecalculateCalorieGoal(ctx context.Context) (int, error) {
	u, err := t.user()
	if err != nil {
		return 0, err
	}
	done, err := t.begin()
	if err != nil {
		return 0, err
	}
	defer done()

	u.Goals.CalorieGoal = nutrition.CalorieGoal(energyInput(u, t.now()))
	saved, err := t.saveProfile(ctx, u)
	if err != nil {
		return 0, err
	}
	return saved.Goals.CalorieGoal, nil
}

// saveProfile writes u and carries a changed calorie goal into the current
// day's snapshot when that day has already been started.
func (t *Tracker) saveProfile(ctx context.Context, u model.UserProfile) (model.UserProfile, error) {
	if _, err := t.store.UpdateUser(ctx, u); err != nil {
		return model.UserProfile{}, err
	}
	if day := t.State().Day; day.ID != 0 && day.CalorieGoal != u.Goals.CalorieGoal {
		if err := t.store.SetDailyCalorieGoal(ctx, t.dayKey(u, day.Date), u.Goals.CalorieGoal); err != nil {
			return model.UserProfile{}, err
		}
	}
	if err := t.refreshUser(ctx); err != nil {
		return model.UserProfile{}, err
	}
	if err := t.refreshDay(ctx); err != nil {
		return model.UserProfile{}, err
	}
	return t.user()
}

// Goals returns the daily nutrient targets of the active profile.
func (t *Tracker) Goals() (model.Nutrition, error) {
	u, err := t.user()
	if err != nil {
		return model.Nutrition{}, err
	}
	return nutrition.MacroGoals(u.Goals.CalorieGoal, u.Goals.Macros), nil
}

// Reset wipes every profile and the device config, leaving the seeded catalog.
func (t *Tracker) Reset(ctx context.Context) error {
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := t.store.ResetAllData(ctx); err != nil {
		return err
	}
	t.mu.Lock()
	exercises := t.state.Exercises
	t.state = State{Date: t.today(), Exercises: exercises}
	t.mu.Unlock()
	return nil
}

func energyInput(u model.UserProfile, now time.Time) nutrition.EnergyInput {
	return nutrition.EnergyInput{
		WeightKg:       u.CurrentWeightKg,
		HeightCm:       u.HeightCm,
		Age:            nutrition.AgeOn(u.DateOfBirth, now),
		Gender:         u.Gender,
		Activity:       u.Goals.ActivityLevel,
		GoalType:       u.Goals.GoalType,
		WeeklyChangeKg: u.Goals.WeeklyChangeKg,
	}
}
