package tracker

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthaas/intelifit/internal/logging"
	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/provider/inference"
	"github.com/bthaas/intelifit/internal/store"
)

// Wednesday.
var testNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTestTracker(t *testing.T) (*Tracker, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "intelifit.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tr := New(s, Options{Now: func() time.Time { return testNow }})
	require.NoError(t, tr.Load(context.Background()))
	return tr, s
}

func onboardTestUser(t *testing.T, tr *Tracker, in ProfileInput) model.UserProfile {
	t.Helper()
	base := ProfileInput{
		Email:       "Sam@Example.com",
		Name:        "Sam",
		DateOfBirth: time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC),
		Gender:      model.GenderMale,
		HeightCm:    180,
		WeightKg:    80,
		Activity:    model.ActivityModerate,
		GoalType:    model.GoalMaintain,
	}
	if in.GoalType != "" {
		base.GoalType = in.GoalType
	}
	if in.TargetWeightKg != nil {
		base.TargetWeightKg = in.TargetWeightKg
	}
	if in.WeeklyChangeKg != nil {
		base.WeeklyChangeKg = in.WeeklyChangeKg
	}
	u, err := tr.Onboard(context.Background(), base)
	require.NoError(t, err)
	return u
}

func createTestBar(t *testing.T, tr *Tracker) model.FoodItem {
	t.Helper()
	food, err := tr.CreateCustomFood(context.Background(), CustomFoodInput{
		Name:     "Test Bar",
		Category: model.CategorySnack,
		Per100g:  model.Nutrition{Calories: 400, ProteinG: 20, CarbsG: 50, FatG: 12, FiberG: 6},
		ServingSizes: []model.ServingSize{
			{Name: "1 bar", WeightG: 50, Unit: model.UnitPiece},
		},
	})
	require.NoError(t, err)
	return food
}

func exerciseID(t *testing.T, tr *Tracker, name string) int64 {
	t.Helper()
	for _, ex := range tr.State().Exercises {
		if ex.Name == name {
			return ex.ID
		}
	}
	t.Fatalf("exercise %q not in catalog", name)
	return 0
}

func TestOnboardDerivesGoalsAndPersistsActiveProfile(t *testing.T) {
	t.Parallel()
	tr, s := newTestTracker(t)

	u := onboardTestUser(t, tr, ProfileInput{})
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "sam@example.com", u.Email)
	// BMR 1780 x 1.55
	assert.Equal(t, 2759, u.Goals.CalorieGoal)
	assert.Equal(t, DefaultMacros, u.Goals.Macros)
	assert.Equal(t, model.UnitsMetric, u.Preferences.Units)

	goals, err := tr.Goals()
	require.NoError(t, err)
	assert.Equal(t, 207.0, goals.ProteinG)
	assert.Equal(t, 276.0, goals.CarbsG)
	assert.Equal(t, 92.0, goals.FatG)

	st := tr.State()
	require.Len(t, st.Weights, 1)
	assert.Equal(t, 80.0, st.Weights[0].WeightKg)
	assert.Equal(t, "2025-03-12", st.Date)

	reloaded := New(s, Options{Now: func() time.Time { return testNow }})
	require.NoError(t, reloaded.Load(context.Background()))
	require.NotNil(t, reloaded.State().User)
	assert.Equal(t, u.ID, reloaded.State().User.ID)
}

func TestOnboardRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)

	cases := map[string]ProfileInput{
		"negative height": {Email: "a@b.c", Name: "A", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Gender: model.GenderFemale, HeightCm: -1, WeightKg: 60, Activity: model.ActivityLight, GoalType: model.GoalMaintain},
		"nan weight":      {Email: "a@b.c", Name: "A", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Gender: model.GenderFemale, HeightCm: 165, WeightKg: math.NaN(), Activity: model.ActivityLight, GoalType: model.GoalMaintain},
		"future birth":    {Email: "a@b.c", Name: "A", DateOfBirth: testNow.AddDate(1, 0, 0), Gender: model.GenderFemale, HeightCm: 165, WeightKg: 60, Activity: model.ActivityLight, GoalType: model.GoalMaintain},
		"unknown gender":  {Email: "a@b.c", Name: "A", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Gender: "robot", HeightCm: 165, WeightKg: 60, Activity: model.ActivityLight, GoalType: model.GoalMaintain},
		"missing email":   {Name: "A", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Gender: model.GenderFemale, HeightCm: 165, WeightKg: 60, Activity: model.ActivityLight, GoalType: model.GoalMaintain},
	}
	for name, in := range cases {
		_, err := tr.Onboard(context.Background(), in)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), name)
	}
	assert.Nil(t, tr.State().User)
}

func TestOnboardFailureLeavesNoPartialProfile(t *testing.T) {
	t.Parallel()
	tr, s := newTestTracker(t)
	ctx := context.Background()
	first := onboardTestUser(t, tr, ProfileInput{})

	_, err := tr.Onboard(ctx, ProfileInput{
		ID: "dup", Email: "sam@example.com", Name: "Other Sam", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender: model.GenderFemale, HeightCm: 165, WeightKg: 60, Activity: model.ActivityLight, GoalType: model.GoalMaintain,
	})
	require.Error(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, first.ID, tr.State().User.ID)
	weights, err := s.ListWeightEntries(ctx, "dup", 0)
	require.NoError(t, err)
	assert.Empty(t, weights)
}

func TestOperationsWithoutProfile(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)

	_, err := tr.LogFood(context.Background(), FoodLogInput{MealType: model.MealLunch, FoodItemID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrNoUser)
	assert.ErrorIs(t, tr.SetWater(context.Background(), 500), ErrNoUser)
	_, err = tr.WeightJourney(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestLogUpdateDeleteFoodKeepsTotals(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	bar := createTestBar(t, tr)
	ctx := context.Background()

	cf, err := tr.LogFood(ctx, FoodLogInput{MealType: model.MealSnack, FoodItemID: bar.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 400.0, cf.Consumed.Calories)

	day := tr.State().Day
	assert.Equal(t, 400.0, day.Total.Calories)
	assert.Equal(t, 20.0, day.Total.ProteinG)
	require.Len(t, day.Meals, 1)
	assert.Equal(t, model.MealSnack, day.Meals[0].MealType)
	require.Len(t, tr.State().Recent, 1)
	assert.Equal(t, bar.ID, tr.State().Recent[0].ID)

	_, err = tr.UpdateFood(ctx, FoodUpdate{ID: cf.ID, Quantity: ptr(1.0), MealType: ptr(model.MealBreakfast)})
	require.NoError(t, err)
	day = tr.State().Day
	assert.Equal(t, 200.0, day.Total.Calories)
	require.Len(t, day.Meals, 1)
	assert.Equal(t, model.MealBreakfast, day.Meals[0].MealType)

	require.NoError(t, tr.DeleteFood(ctx, cf.ID))
	day = tr.State().Day
	assert.Zero(t, day.Total.Calories)
	assert.Empty(t, day.Meals)

	assert.ErrorIs(t, tr.DeleteFood(ctx, cf.ID), store.ErrNotFound)
}

func TestLogFoodValidation(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	var verr *ValidationError
	_, err := tr.LogFood(ctx, FoodLogInput{MealType: "brunch", FoodItemID: 1, Quantity: 1})
	assert.True(t, errors.As(err, &verr))
	_, err = tr.LogFood(ctx, FoodLogInput{MealType: model.MealLunch, FoodItemID: 1, Quantity: 0})
	assert.True(t, errors.As(err, &verr))
	_, err = tr.LogFood(ctx, FoodLogInput{MealType: model.MealLunch, FoodItemID: 1, Quantity: math.Inf(1)})
	assert.True(t, errors.As(err, &verr))
	assert.True(t, errors.As(tr.SetDate(ctx, "12/03/2025"), &verr))
	assert.True(t, errors.As(tr.SetWater(ctx, -1), &verr))
}

func TestSetDateAndWater(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	require.NoError(t, tr.SetDate(ctx, "2025-03-10"))
	require.NoError(t, tr.SetWater(ctx, 750))
	st := tr.State()
	assert.Equal(t, "2025-03-10", st.Day.Date)
	assert.Equal(t, 750, st.Day.WaterMl)
	assert.Equal(t, 2759, st.Day.CalorieGoal)

	require.NoError(t, tr.SetDate(ctx, "2025-03-12"))
	assert.Zero(t, tr.State().Day.WaterMl)
}

func TestSearchFoodsAndFavorites(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	blank, err := tr.SearchFoods(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, blank)

	found, err := tr.SearchFoods(ctx, "app", 0)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, "Apple", found[0].Name)
	assert.NotEmpty(t, found[0].ServingSizes)

	require.NoError(t, tr.AddFavorite(ctx, found[0].ID))
	require.NoError(t, tr.AddFavorite(ctx, found[0].ID))
	require.Len(t, tr.State().Favorites, 1)

	require.NoError(t, tr.RemoveFavorite(ctx, found[0].ID))
	assert.Empty(t, tr.State().Favorites)

	assert.ErrorIs(t, tr.AddFavorite(ctx, 999999), store.ErrNotFound)
}

func TestBusyGuardRejectsConcurrentMutation(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})

	done, err := tr.begin()
	require.NoError(t, err)
	assert.ErrorIs(t, tr.SetWater(context.Background(), 250), ErrBusy)
	done()
	assert.NoError(t, tr.SetWater(context.Background(), 250))
}

func TestUpdateProfileTakesGuardBeforeReadingProfile(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	done, err := tr.begin()
	require.NoError(t, err)
	_, err = tr.UpdateProfile(ctx, ProfileUpdate{HeightCm: ptr(0.0)})
	assert.ErrorIs(t, err, ErrBusy)
	_, err = tr.UpdateProfile(ctx, ProfileUpdate{Name: ptr("Samantha")})
	assert.ErrorIs(t, err, ErrBusy)
	done()

	assert.Equal(t, "Sam", tr.State().User.Name)
	u, err := tr.UpdateProfile(ctx, ProfileUpdate{Name: ptr("Samantha")})
	require.NoError(t, err)
	assert.Equal(t, "Samantha", u.Name)
}

func TestLogWorkoutEstimatesCalories(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	ws, err := tr.LogWorkout(ctx, WorkoutLogInput{Exercises: []ExerciseInput{
		{ExerciseID: exerciseID(t, tr, "Running"), DurationMin: 30},
		{ExerciseID: exerciseID(t, tr, "Running"), Intensity: model.IntensityHigh, DurationMin: 30},
		{ExerciseID: exerciseID(t, tr, "Deadlift"), Intensity: model.IntensityHigh, DurationMin: 30,
			Sets: []model.StrengthSet{{Reps: 5, WeightKg: 100, RestSec: 120}}},
	}})
	require.NoError(t, err)
	require.Len(t, ws.Exercises, 3)
	assert.Equal(t, 320, ws.Exercises[0].CaloriesBurned)
	assert.Equal(t, 416, ws.Exercises[1].CaloriesBurned)
	assert.Equal(t, 320, ws.Exercises[2].CaloriesBurned)
	assert.Equal(t, 1056, ws.CaloriesBurned)
	assert.Equal(t, 90.0, ws.TotalDuration)

	list, err := tr.Workouts(ctx, time.Time{}, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	progress, err := tr.DayProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1056, progress.Burned)

	require.NoError(t, tr.DeleteWorkout(ctx, ws.ID))
	list, err = tr.Workouts(ctx, time.Time{}, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = tr.LogWorkout(ctx, WorkoutLogInput{Exercises: []ExerciseInput{{ExerciseID: 1, DurationMin: -5}}})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestWeightJourney(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{GoalType: model.GoalLoseWeight, TargetWeightKg: ptr(70.0), WeeklyChangeKg: ptr(0.5)})
	ctx := context.Background()

	_, err := tr.LogWeight(ctx, 75, testNow.Add(24*time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, 75.0, tr.State().User.CurrentWeightKg)

	j, err := tr.WeightJourney(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80.0, j.StartKg)
	assert.Equal(t, 75.0, j.CurrentKg)
	assert.Equal(t, -5.0, j.ChangeKg)
	assert.Equal(t, 50.0, j.Progress)
	assert.Equal(t, 2, j.Entries)

	latest := tr.State().Weights[0]
	require.NoError(t, tr.DeleteWeight(ctx, latest.ID))
	assert.Equal(t, 80.0, tr.State().User.CurrentWeightKg)
}

func TestJourneyProgressByGoal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, journeyProgress(model.GoalLoseWeight, 80, 75, nil))
	assert.Equal(t, 0.0, journeyProgress(model.GoalLoseWeight, 80, 75, ptr(85.0)))
	assert.Equal(t, 25.0, journeyProgress(model.GoalGainWeight, 60, 61, ptr(64.0)))
	assert.Equal(t, 100.0, journeyProgress(model.GoalMaintain, 70, 71, ptr(70.0)))
}

func TestUpdateProfileRecalculatesGoal(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	u, err := tr.UpdateProfile(ctx, ProfileUpdate{GoalType: ptr(model.GoalBuildMuscle)})
	require.NoError(t, err)
	assert.Equal(t, 3059, u.Goals.CalorieGoal)

	u, err = tr.UpdateProfile(ctx, ProfileUpdate{CalorieGoal: ptr(2500), Name: ptr("Samantha")})
	require.NoError(t, err)
	assert.Equal(t, 2500, u.Goals.CalorieGoal)
	assert.Equal(t, "Samantha", u.Name)

	goal, err := tr.RecalculateCalorieGoal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3059, goal)

	_, err = tr.UpdateProfile(ctx, ProfileUpdate{HeightCm: ptr(0.0)})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDayProgressAndWeeklySummary(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	bar := createTestBar(t, tr)
	ctx := context.Background()

	_, err := tr.LogFood(ctx, FoodLogInput{MealType: model.MealLunch, FoodItemID: bar.ID, Quantity: 2})
	require.NoError(t, err)

	progress, err := tr.DayProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2759, progress.CalorieGoal)
	assert.Equal(t, 2359, progress.Remaining)
	require.NotEmpty(t, progress.Nutrients)
	assert.Equal(t, "calories", progress.Nutrients[0].Name)
	assert.Equal(t, 14, progress.Nutrients[0].Percent)
	assert.False(t, progress.Nutrients[0].OnTarget)

	require.NoError(t, tr.SetDate(ctx, "2025-03-10"))
	_, err = tr.LogFood(ctx, FoodLogInput{MealType: model.MealDinner, FoodItemID: bar.ID, Quantity: 4})
	require.NoError(t, err)

	week, err := tr.WeeklySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", week.Days[0].Date)
	assert.Equal(t, "2025-03-16", week.Days[6].Date)
	assert.True(t, week.Days[0].Logged)
	assert.False(t, week.Days[1].Logged)
	assert.True(t, week.Days[2].Logged)
	assert.Equal(t, 2, week.LoggedDays)
	assert.Equal(t, 600.0, week.Averages.Calories)
	assert.Equal(t, 30.0, week.Averages.ProteinG)
	assert.Equal(t, 1, week.Streak)
}

type fakeRecognizer struct {
	res   inference.Result
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(context.Context, inference.Request) (inference.Result, error) {
	f.calls++
	return f.res, f.err
}

func TestRecognizeStoresCustomFood(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	rec := &fakeRecognizer{res: inference.Result{Items: []inference.Item{
		{Name: "Granola", Category: "grain", ServingSize: "1/2 cup", Calories: 450, Protein: 10},
	}}}
	got, err := tr.Recognize(ctx, rec, inference.Request{Barcode: "0001112223334"})
	require.NoError(t, err)
	assert.False(t, got.Fallback)
	assert.True(t, got.Food.IsCustom)
	assert.Equal(t, "Granola", got.Food.Name)
	assert.Equal(t, 450.0, got.Food.Per100g.Calories)
	require.Len(t, got.Food.ServingSizes, 1)
	assert.Equal(t, "1/2 cup", got.Food.ServingSizes[0].Name)

	again, err := tr.Recognize(ctx, rec, inference.Request{Barcode: "0001112223334"})
	require.NoError(t, err)
	assert.Equal(t, got.Food.ID, again.Food.ID)
	assert.Equal(t, 1, rec.calls)

	empty := &fakeRecognizer{res: inference.Result{}}
	fb, err := tr.Recognize(ctx, empty, inference.Request{Transcription: "???"})
	require.NoError(t, err)
	assert.True(t, fb.Fallback)
	assert.Equal(t, "Unknown Food Item", fb.Food.Name)

	failing := &fakeRecognizer{err: errors.New("endpoint down")}
	_, err = tr.Recognize(ctx, failing, inference.Request{Transcription: "toast"})
	require.Error(t, err)
}

func TestRecognizeKeepsCholesterol(t *testing.T) {
	t.Parallel()
	tr, s := newTestTracker(t)
	ctx := context.Background()

	rec := &fakeRecognizer{res: inference.Result{Items: []inference.Item{
		{Name: "Egg Salad", Category: "protein", Calories: 210, Protein: 9, Fat: 18, Cholesterol: 245},
	}}}
	got, err := tr.Recognize(ctx, rec, inference.Request{Transcription: "egg salad"})
	require.NoError(t, err)
	assert.Equal(t, 245.0, got.Food.Per100g.CholesterolMg)

	stored, err := s.GetFoodItem(ctx, got.Food.ID)
	require.NoError(t, err)
	assert.Equal(t, 245.0, stored.Per100g.CholesterolMg)
}

func TestBarcodeMustBeDigits(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	rec := &fakeRecognizer{res: inference.Result{Items: []inference.Item{{Name: "Anything"}}}}
	for _, code := range []string{"12", "123456789012345", "../../admin", "1234567a", "12345678?x=1"} {
		var verr *ValidationError

		_, err := tr.Recognize(ctx, rec, inference.Request{Barcode: code})
		require.True(t, errors.As(err, &verr), code)
		assert.Equal(t, "barcode", verr.Field)

		_, err = tr.FoodByBarcode(ctx, code)
		assert.True(t, errors.As(err, &verr), code)

		_, err = tr.CreateCustomFood(ctx, CustomFoodInput{Name: "Bad Code", Barcode: code})
		assert.True(t, errors.As(err, &verr), code)
	}
	assert.Zero(t, rec.calls)

	_, err := tr.FoodByBarcode(ctx, " 12345678 ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResetClearsProfile(t *testing.T) {
	t.Parallel()
	tr, s := newTestTracker(t)
	onboardTestUser(t, tr, ProfileInput{})
	ctx := context.Background()

	require.NoError(t, tr.Reset(ctx))
	assert.Nil(t, tr.State().User)
	assert.NotEmpty(t, tr.State().Exercises)

	_, ok, err := s.GetConfig(ctx, store.ConfigActiveUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChainFallsThroughToNextRecognizer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	missing := &fakeRecognizer{err: errors.New("product not found")}
	hit := &fakeRecognizer{res: inference.Result{Items: []inference.Item{{Name: "Oat Bar"}}}}
	res, err := Chain{missing, hit}.Recognize(ctx, inference.Request{Barcode: "42"})
	require.NoError(t, err)
	assert.Equal(t, "Oat Bar", res.Items[0].Name)
	assert.Equal(t, 1, missing.calls)

	first := &fakeRecognizer{res: inference.Result{Items: []inference.Item{{Name: "Tea"}}}}
	second := &fakeRecognizer{}
	_, err = Chain{first, second}.Recognize(ctx, inference.Request{Barcode: "42"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.calls)

	fallback := &fakeRecognizer{res: inference.Result{Fallback: true, Reason: "no items in response"}}
	res, err = Chain{missing, fallback}.Recognize(ctx, inference.Request{Barcode: "42"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)

	_, err = Chain{}.Recognize(ctx, inference.Request{Barcode: "42"})
	assert.Error(t, err)
}
