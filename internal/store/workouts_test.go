package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/store"
)

func exerciseByName(t *testing.T, s *store.Store, name string) model.Exercise {
	t.Helper()
	all, err := s.ListExercises(context.Background())
	if err != nil {
		t.Fatalf("list exercises: %v", err)
	}
	for _, e := range all {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("exercise %q not seeded", name)
	return model.Exercise{}
}

func TestExerciseCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	running := exerciseByName(t, s, "Running")
	if running.METValue == nil || *running.METValue != 8 || running.Category != model.ExerciseCardio {
		t.Fatalf("unexpected running entry: %+v", running)
	}
	if len(running.MuscleGroups) != 2 {
		t.Fatalf("expected muscle groups decoded, got %v", running.MuscleGroups)
	}
	deadlift := exerciseByName(t, s, "Deadlift")
	if deadlift.METValue != nil {
		t.Fatalf("expected no MET for deadlift")
	}
	got, err := s.GetExercise(ctx, running.ID)
	if err != nil || got.Name != "Running" {
		t.Fatalf("get exercise: %+v err=%v", got, err)
	}
	if _, err := s.GetExercise(ctx, 999999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkoutLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, sqldb := newTestStore(t)
	u := createTestUser(t, s)
	running := exerciseByName(t, s, "Running")
	squats := exerciseByName(t, s, "Squats")

	distance := 5.2
	ws, err := s.CreateWorkout(ctx, store.WorkoutInput{
		UserID:      u.ID,
		PerformedAt: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC),
		Notes:       "morning",
		Exercises: []model.ExerciseSet{
			{ExerciseID: running.ID, Intensity: model.IntensityHigh, DurationMin: 30, DistanceKm: &distance, CaloriesBurned: 364},
			{ExerciseID: squats.ID, DurationMin: 15, CaloriesBurned: 88, Sets: []model.StrengthSet{
				{Reps: 10, WeightKg: 60, RestSec: 90},
				{Reps: 8, WeightKg: 70, RestSec: 90},
			}},
		},
	})
	if err != nil {
		t.Fatalf("create workout: %v", err)
	}
	if ws.TotalDuration != 45 || ws.CaloriesBurned != 452 {
		t.Fatalf("unexpected totals: duration=%v calories=%d", ws.TotalDuration, ws.CaloriesBurned)
	}

	list, err := s.ListWorkouts(ctx, store.WorkoutFilter{UserID: u.ID})
	if err != nil {
		t.Fatalf("list workouts: %v", err)
	}
	if len(list) != 1 || len(list[0].Exercises) != 2 {
		t.Fatalf("unexpected workouts: %+v", list)
	}
	first := list[0].Exercises[0]
	if first.ExerciseName != "Running" || first.DistanceKm == nil || *first.DistanceKm != 5.2 || first.Intensity != model.IntensityHigh {
		t.Fatalf("unexpected first set: %+v", first)
	}
	second := list[0].Exercises[1]
	if second.Intensity != model.IntensityModerate || len(second.Sets) != 2 || second.Sets[1].WeightKg != 70 {
		t.Fatalf("unexpected strength set: %+v", second)
	}

	later, err := s.ListWorkouts(ctx, store.WorkoutFilter{UserID: u.ID, From: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)})
	if err != nil || len(later) != 0 {
		t.Fatalf("expected no workouts after range start, got %d err=%v", len(later), err)
	}

	if err := s.DeleteWorkout(ctx, ws.ID); err != nil {
		t.Fatalf("delete workout: %v", err)
	}
	var orphans int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM exercise_sets`).Scan(&orphans); err != nil {
		t.Fatalf("count exercise sets: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected exercise sets cascade-deleted, got %d", orphans)
	}
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM strength_sets`).Scan(&orphans); err != nil {
		t.Fatalf("count strength sets: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected strength sets cascade-deleted, got %d", orphans)
	}
	if err := s.DeleteWorkout(ctx, ws.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateWorkoutValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	u := createTestUser(t, s)

	if _, err := s.CreateWorkout(ctx, store.WorkoutInput{UserID: u.ID}); err == nil {
		t.Fatalf("expected empty workout to fail")
	}
	if _, err := s.CreateWorkout(ctx, store.WorkoutInput{UserID: u.ID, Exercises: []model.ExerciseSet{{ExerciseID: 999999, DurationMin: 10}}}); err == nil {
		t.Fatalf("expected unknown exercise to fail")
	}
}
