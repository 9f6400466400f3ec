package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/bthaas/intelifit/internal/db"
	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/store"
)

func newTestStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "intelifit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s := store.New(sqldb, nil)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, sqldb
}

func testProfile() model.UserProfile {
	return model.UserProfile{
		Email:           "Sam@Example.com",
		Name:            "Sam",
		DateOfBirth:     time.Date(1992, 5, 14, 0, 0, 0, 0, time.UTC),
		Gender:          model.GenderFemale,
		HeightCm:        168,
		CurrentWeightKg: 70,
		Goals: model.Goals{
			GoalType:      model.GoalMaintain,
			ActivityLevel: model.ActivityModerate,
			CalorieGoal:   2100,
			Macros:        model.MacroRatios{Protein: 30, Carbs: 40, Fat: 30},
		},
		Preferences: model.Preferences{Units: model.UnitsMetric, Theme: model.ThemeSystem},
	}
}

func createTestUser(t *testing.T, s *store.Store) model.UserProfile {
	t.Helper()
	u, err := s.CreateUser(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// catalogServing finds a seeded food and one of its servings by name.
func catalogServing(t *testing.T, s *store.Store, food, serving string) (model.FoodItem, model.ServingSize) {
	t.Helper()
	items, err := s.SearchFoodItems(context.Background(), food, 5)
	if err != nil {
		t.Fatalf("search %s: %v", food, err)
	}
	for _, item := range items {
		if item.Name != food {
			continue
		}
		for _, sv := range item.ServingSizes {
			if sv.Name == serving {
				return item, sv
			}
		}
	}
	t.Fatalf("serving %q of %q not found in catalog", serving, food)
	return model.FoodItem{}, model.ServingSize{}
}
