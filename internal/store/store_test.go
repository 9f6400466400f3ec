package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/store"
)

func TestOperationsFailBeforeInitialize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "intelifit.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, store.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.SearchFoodItems(ctx, "apple", 5); !errors.Is(err, store.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from search, got %v", err)
	}
	if err := s.SetConfig(ctx, "k", "v"); !errors.Is(err, store.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from config, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("initialize run %d: %v", i+1, err)
		}
	}
	if _, err := s.ListExercises(ctx); err != nil {
		t.Fatalf("list exercises after init: %v", err)
	}
}

func TestUserCreateGetUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	u := createTestUser(t, s)
	if u.ID == "" {
		t.Fatalf("expected generated user id")
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "sam@example.com" || got.Goals.CalorieGoal != 2100 || got.DateOfBirth.Year() != 1992 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.Goals.TargetWeightKg != nil {
		t.Fatalf("expected nil target weight")
	}

	target := 65.0
	got.Goals.TargetWeightKg = &target
	got.Goals.GoalType = model.GoalLoseWeight
	got.Preferences.Theme = model.ThemeDark
	got.Preferences.Notifications.WaterReminders = true
	if _, err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("update user: %v", err)
	}
	again, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get updated user: %v", err)
	}
	if again.Goals.TargetWeightKg == nil || *again.Goals.TargetWeightKg != 65 {
		t.Fatalf("expected target weight 65, got %v", again.Goals.TargetWeightKg)
	}
	if again.Preferences.Theme != model.ThemeDark || !again.Preferences.Notifications.WaterReminders {
		t.Fatalf("preferences not persisted: %+v", again.Preferences)
	}

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ghost := again
	ghost.ID = "missing"
	if _, err := s.UpdateUser(ctx, ghost); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestResetAllDataKeepsCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	u := createTestUser(t, s)
	if _, err := s.CreateFoodItem(ctx, store.FoodItemInput{Name: "Homemade Granola", IsCustom: true, Per100g: model.Nutrition{Calories: 450}}); err != nil {
		t.Fatalf("create custom food: %v", err)
	}
	if err := s.SetConfig(ctx, store.ConfigActiveUser, u.ID); err != nil {
		t.Fatalf("set config: %v", err)
	}

	if err := s.ResetAllData(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users after reset, got %d", len(users))
	}
	if items, _ := s.SearchFoodItems(ctx, "Granola", 0); len(items) != 0 {
		t.Fatalf("expected custom food removed")
	}
	if items, _ := s.SearchFoodItems(ctx, "Apple", 0); len(items) != 1 {
		t.Fatalf("expected seeded Apple to survive reset")
	}
	if _, ok, _ := s.GetConfig(ctx, store.ConfigActiveUser); ok {
		t.Fatalf("expected config cleared")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.SetConfig(ctx, " Active_User ", " abc "); err != nil {
		t.Fatalf("set config: %v", err)
	}
	v, ok, err := s.GetConfig(ctx, "active_user")
	if err != nil || !ok || v != "abc" {
		t.Fatalf("unexpected config value %q ok=%v err=%v", v, ok, err)
	}
	if err := s.SetConfig(ctx, "active_user", "def"); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}
	all, err := s.ListConfig(ctx)
	if err != nil {
		t.Fatalf("list config: %v", err)
	}
	if all["active_user"] != "def" {
		t.Fatalf("expected overwritten value, got %v", all)
	}
	if err := s.DeleteConfig(ctx, "active_user"); err != nil {
		t.Fatalf("delete config: %v", err)
	}
	if _, ok, _ := s.GetConfig(ctx, "active_user"); ok {
		t.Fatalf("expected key deleted")
	}
	if err := s.SetConfig(ctx, "  ", "x"); err == nil {
		t.Fatalf("expected blank key to fail")
	}
}
