package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bthaas/intelifit/internal/store"
)

func TestWeightEntriesTrackCurrentWeight(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	u := createTestUser(t, s)

	day := func(d int) time.Time { return time.Date(2026, 3, d, 7, 0, 0, 0, time.UTC) }
	if _, err := s.AddWeightEntry(ctx, store.WeightEntryInput{UserID: u.ID, WeightKg: 72, MeasuredAt: day(1)}); err != nil {
		t.Fatalf("add first weight: %v", err)
	}
	latest, err := s.AddWeightEntry(ctx, store.WeightEntryInput{UserID: u.ID, WeightKg: 70.5, MeasuredAt: day(10)})
	if err != nil {
		t.Fatalf("add latest weight: %v", err)
	}
	if _, err := s.AddWeightEntry(ctx, store.WeightEntryInput{UserID: u.ID, WeightKg: 71.2, MeasuredAt: day(5), Notes: "backfill"}); err != nil {
		t.Fatalf("add backfilled weight: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.CurrentWeightKg != 70.5 {
		t.Fatalf("expected current weight to follow newest entry, got %v", got.CurrentWeightKg)
	}

	entries, err := s.ListWeightEntries(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("list weights: %v", err)
	}
	if len(entries) != 3 || entries[0].WeightKg != 70.5 || entries[2].WeightKg != 72 {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	first, err := s.FirstWeight(ctx, u.ID)
	if err != nil || first.WeightKg != 72 {
		t.Fatalf("unexpected first weight %+v err=%v", first, err)
	}

	if err := s.DeleteWeightEntry(ctx, latest.ID); err != nil {
		t.Fatalf("delete latest weight: %v", err)
	}
	got, _ = s.GetUser(ctx, u.ID)
	if got.CurrentWeightKg != 71.2 {
		t.Fatalf("expected current weight to fall back to 71.2, got %v", got.CurrentWeightKg)
	}
	last, err := s.LatestWeight(ctx, u.ID)
	if err != nil || last.Notes != "backfill" {
		t.Fatalf("unexpected latest weight %+v err=%v", last, err)
	}

	if err := s.DeleteWeightEntry(ctx, latest.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.AddWeightEntry(ctx, store.WeightEntryInput{UserID: u.ID, WeightKg: -3}); err == nil {
		t.Fatalf("expected negative weight to fail")
	}
	if _, err := s.LatestWeight(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for user without entries, got %v", err)
	}
}

func TestCreateUserWithWeightIsAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	measured := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	u, err := s.CreateUserWithWeight(ctx, testProfile(), store.WeightEntryInput{WeightKg: 70, MeasuredAt: measured})
	if err != nil {
		t.Fatalf("create user with weight: %v", err)
	}
	entries, err := s.ListWeightEntries(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("list weights: %v", err)
	}
	if len(entries) != 1 || entries[0].WeightKg != 70 || !entries[0].MeasuredAt.Equal(measured) {
		t.Fatalf("expected one starting weight entry, got %+v", entries)
	}

	second := testProfile()
	second.ID, second.Email = "second", "second@example.com"
	if _, err := s.CreateUserWithWeight(ctx, second, store.WeightEntryInput{WeightKg: -1, MeasuredAt: measured}); err == nil {
		t.Fatal("expected error for negative starting weight")
	}
	if _, err := s.GetUser(ctx, "second"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected user insert to roll back, got %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected only the first user to persist, got %d", len(users))
	}
}
