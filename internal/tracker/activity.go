package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
	"github.com/bthaas/intelifit/internal/store"
)

type ExerciseInput struct {
	ExerciseID  int64
	Intensity   model.Intensity
	DurationMin float64
	DistanceKm  *float64
	Sets        []model.StrengthSet
}

type WorkoutLogInput struct {
	PerformedAt time.Time
	Notes       string
	Exercises   []ExerciseInput
}

// LogWorkout estimates calories for every exercise from its MET value, the
// profile's current weight and the duration, then stores the session.
func (t *Tracker) LogWorkout(ctx context.Context, in WorkoutLogInput) (model.WorkoutSession, error) {
	if len(in.Exercises) == 0 {
		return model.WorkoutSession{}, invalid("exercises", "at least one is required")
	}
	for _, ex := range in.Exercises {
		if err := validatePositive("duration", ex.DurationMin); err != nil {
			return model.WorkoutSession{}, err
		}
		if ex.Intensity != "" && !ex.Intensity.Valid() {
			return model.WorkoutSession{}, invalid("intensity", "must be low, moderate or high")
		}
		if err := validateOptionalPositive("distance", ex.DistanceKm); err != nil {
			return model.WorkoutSession{}, err
		}
		for _, s := range ex.Sets {
			if s.Reps < 0 || s.RestSec < 0 {
				return model.WorkoutSession{}, invalid("set", "reps and rest must be 0 or greater")
			}
			if err := validateNonNegative("set weight", s.WeightKg); err != nil {
				return model.WorkoutSession{}, err
			}
		}
	}
	u, err := t.user()
	if err != nil {
		return model.WorkoutSession{}, err
	}
	done, err := t.begin()
	if err != nil {
		return model.WorkoutSession{}, err
	}
	defer done()

	sets := make([]model.ExerciseSet, 0, len(in.Exercises))
	for _, ex := range in.Exercises {
		catalog, err := t.exercise(ctx, ex.ExerciseID)
		if err != nil {
			return model.WorkoutSession{}, err
		}
		intensity := ex.Intensity
		if intensity == "" {
			intensity = model.IntensityModerate
		}
		sets = append(sets, model.ExerciseSet{
			ExerciseID:     catalog.ID,
			ExerciseName:   catalog.Name,
			Intensity:      intensity,
			DurationMin:    ex.DurationMin,
			DistanceKm:     ex.DistanceKm,
			Sets:           ex.Sets,
			CaloriesBurned: nutrition.ExerciseCalories(catalog.METValue, intensity, u.CurrentWeightKg, ex.DurationMin),
		})
	}
	performed := in.PerformedAt
	if performed.IsZero() {
		performed = t.now()
	}
	return t.store.CreateWorkout(ctx, store.WorkoutInput{
		UserID:      u.ID,
		PerformedAt: performed,
		Notes:       in.Notes,
		Exercises:   sets,
	})
}

func (t *Tracker) exercise(ctx context.Context, id int64) (model.Exercise, error) {
	for _, ex := range t.State().Exercises {
		if ex.ID == id {
			return ex, nil
		}
	}
	return t.store.GetExercise(ctx, id)
}

// Workouts lists the active profile's sessions newest first. Zero times leave
// that side of the range open.
func (t *Tracker) Workouts(ctx context.Context, from, to time.Time, limit int) ([]model.WorkoutSession, error) {
	u, err := t.user()
	if err != nil {
		return nil, err
	}
	return t.store.ListWorkouts(ctx, store.WorkoutFilter{UserID: u.ID, From: from, To: to, Limit: limit})
}

func (t *Tracker) DeleteWorkout(ctx context.Context, id int64) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	ws, err := t.store.GetWorkout(ctx, id)
	if err != nil {
		return err
	}
	if ws.UserID != u.ID {
		return fmt.Errorf("workout %d: %w", id, store.ErrNotFound)
	}
	return t.store.DeleteWorkout(ctx, id)
}

// LogWeight records a measurement; the newest one becomes the profile's
// current weight.
func (t *Tracker) LogWeight(ctx context.Context, weightKg float64, at time.Time, notes string) (model.WeightEntry, error) {
	if err := validatePositive("weight", weightKg); err != nil {
		return model.WeightEntry{}, err
	}
	u, err := t.user()
	if err != nil {
		return model.WeightEntry{}, err
	}
	done, err := t.begin()
	if err != nil {
		return model.WeightEntry{}, err
	}
	defer done()

	if at.IsZero() {
		at = t.now()
	}
	entry, err := t.store.AddWeightEntry(ctx, store.WeightEntryInput{UserID: u.ID, WeightKg: weightKg, MeasuredAt: at, Notes: notes})
	if err != nil {
		return model.WeightEntry{}, err
	}
	if err := t.refreshUser(ctx); err != nil {
		return model.WeightEntry{}, err
	}
	return entry, t.refreshWeights(ctx)
}

func (t *Tracker) DeleteWeight(ctx context.Context, id int64) error {
	if _, err := t.user(); err != nil {
		return err
	}
	owned := false
	for _, w := range t.State().Weights {
		if w.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		return fmt.Errorf("weight entry %d: %w", id, store.ErrNotFound)
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := t.store.DeleteWeightEntry(ctx, id); err != nil {
		return err
	}
	if err := t.refreshUser(ctx); err != nil {
		return err
	}
	return t.refreshWeights(ctx)
}

type Journey struct {
	StartKg   float64
	CurrentKg float64
	TargetKg  *float64
	ChangeKg  float64
	// Progress is the share of the planned change already achieved, in
	// percent. Maintain goals report 100; no target reports 0.
	Progress float64
	Entries  int
}

// WeightJourney compares the earliest and latest measurements against the
// target weight.
func (t *Tracker) WeightJourney(ctx context.Context) (Journey, error) {
	u, err := t.user()
	if err != nil {
		return Journey{}, err
	}
	j := Journey{StartKg: u.CurrentWeightKg, CurrentKg: u.CurrentWeightKg, TargetKg: u.Goals.TargetWeightKg}

	first, err := t.store.FirstWeight(ctx, u.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Journey{}, err
	default:
		j.StartKg = first.WeightKg
		latest, err := t.store.LatestWeight(ctx, u.ID)
		if err != nil {
			return Journey{}, err
		}
		j.CurrentKg = latest.WeightKg
	}
	j.Entries = len(t.State().Weights)
	j.ChangeKg = math.Round((j.CurrentKg-j.StartKg)*10) / 10
	j.Progress = journeyProgress(u.Goals.GoalType, j.StartKg, j.CurrentKg, j.TargetKg)
	return j, nil
}

func journeyProgress(goal model.GoalType, start, current float64, target *float64) float64 {
	if target == nil || *target == 0 {
		return 0
	}
	var p float64
	switch goal {
	case model.GoalLoseWeight:
		if *target >= start {
			return 0
		}
		p = (start - current) / (start - *target) * 100
	case model.GoalGainWeight:
		if *target <= start {
			return 0
		}
		p = (current - start) / (*target - start) * 100
	default:
		return 100
	}
	return math.Round(p*10) / 10
}
