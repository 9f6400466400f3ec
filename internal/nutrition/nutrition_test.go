package nutrition_test

import (
	"math"
	"testing"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMRGenderBranches(t *testing.T) {
	t.Parallel()

	male := nutrition.BMR(80, 180, 30, model.GenderMale)
	female := nutrition.BMR(80, 180, 30, model.GenderFemale)
	other := nutrition.BMR(80, 180, 30, model.GenderOther)

	assert.InDelta(t, 1780, male, 1e-9)
	assert.InDelta(t, 1614, female, 1e-9)
	assert.Equal(t, female, other)
}

func TestTDEENeverBelowBMR(t *testing.T) {
	t.Parallel()

	levels := []model.ActivityLevel{
		model.ActivitySedentary, model.ActivityLight, model.ActivityModerate,
		model.ActivityActive, model.ActivityVeryActive,
	}
	for _, w := range []float64{45, 70, 120} {
		for _, h := range []float64{150, 175, 200} {
			for _, g := range []model.Gender{model.GenderMale, model.GenderFemale} {
				bmr := nutrition.BMR(w, h, 35, g)
				for _, lvl := range levels {
					assert.GreaterOrEqual(t, float64(nutrition.TDEE(bmr, lvl)), math.Floor(bmr), "level %s", lvl)
				}
			}
		}
	}
}

func TestUnknownActivityLevelIsSedentary(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.2, nutrition.ActivityMultiplier("couch"))
	assert.Equal(t, nutrition.TDEE(1500, model.ActivitySedentary), nutrition.TDEE(1500, "couch"))
}

func TestCalorieGoalByGoalType(t *testing.T) {
	t.Parallel()

	half := 0.5
	base := nutrition.EnergyInput{
		WeightKg: 80, HeightCm: 180, Age: 30, Gender: model.GenderMale,
		Activity: model.ActivityModerate,
	}
	tdee := nutrition.TDEE(1780, model.ActivityModerate)
	require.Equal(t, 2759, tdee)

	maintain := base
	maintain.GoalType = model.GoalMaintain
	assert.Equal(t, tdee, nutrition.CalorieGoal(maintain))

	lose := base
	lose.GoalType = model.GoalLoseWeight
	lose.WeeklyChangeKg = &half
	assert.Equal(t, 2209, nutrition.CalorieGoal(lose))

	gain := base
	gain.GoalType = model.GoalGainWeight
	gain.WeeklyChangeKg = &half
	assert.Equal(t, 3309, nutrition.CalorieGoal(gain))

	muscle := base
	muscle.GoalType = model.GoalBuildMuscle
	assert.Equal(t, tdee+300, nutrition.CalorieGoal(muscle))

	unset := base
	unset.GoalType = model.GoalLoseWeight
	assert.Equal(t, tdee, nutrition.CalorieGoal(unset))
}

func TestCalorieGoalLossFloor(t *testing.T) {
	t.Parallel()

	steep := 2.0
	in := nutrition.EnergyInput{
		WeightKg: 50, HeightCm: 155, Age: 40, Gender: model.GenderFemale,
		Activity: model.ActivitySedentary, GoalType: model.GoalLoseWeight, WeeklyChangeKg: &steep,
	}
	assert.Equal(t, 1200, nutrition.CalorieGoal(in))
}

func TestMacroGoals(t *testing.T) {
	t.Parallel()

	got := nutrition.MacroGoals(2000, model.MacroRatios{Protein: 30, Carbs: 40, Fat: 30})
	assert.Equal(t, model.Nutrition{
		Calories:      2000,
		ProteinG:      150,
		CarbsG:        200,
		FatG:          67,
		FiberG:        28,
		SugarG:        50,
		SodiumMg:      2300,
		CholesterolMg: 300,
	}, got)
}

func TestConsumedApple(t *testing.T) {
	t.Parallel()

	apple := model.Nutrition{Calories: 52, ProteinG: 0.3, CarbsG: 14, FatG: 0.2, FiberG: 2.4, SugarG: 10, SodiumMg: 1}
	got := nutrition.Consumed(apple, 2, 150)
	assert.Equal(t, 156.0, got.Calories)
	assert.Equal(t, 0.9, got.ProteinG)
	assert.Equal(t, 42.0, got.CarbsG)
	assert.Equal(t, 0.6, got.FatG)
	assert.Equal(t, 7.2, got.FiberG)
	assert.Equal(t, 30.0, got.SugarG)
	assert.Equal(t, 3.0, got.SodiumMg)
}

func TestSum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.Nutrition{}, nutrition.Sum())

	a := model.Nutrition{Calories: 156, ProteinG: 0.9, CarbsG: 42, FatG: 0.6, SodiumMg: 3}
	b := model.Nutrition{Calories: 248, ProteinG: 46.5, FatG: 5.4, SodiumMg: 111, CholesterolMg: 128}
	got := nutrition.Sum(a, b)
	assert.Equal(t, 404.0, got.Calories)
	assert.Equal(t, 47.4, got.ProteinG)
	assert.Equal(t, 42.0, got.CarbsG)
	assert.Equal(t, 6.0, got.FatG)
	assert.Equal(t, 114.0, got.SodiumMg)
	assert.Equal(t, 128.0, got.CholesterolMg)
}

func TestProgressClamped(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 100, nutrition.Progress(500, 400))
	assert.Equal(t, 50, nutrition.Progress(200, 400))
	assert.Equal(t, 0, nutrition.Progress(200, 0))
}

func TestWithinTolerance(t *testing.T) {
	t.Parallel()
	assert.True(t, nutrition.WithinTolerance(1900, 2000, nutrition.DefaultTolerance))
	assert.True(t, nutrition.WithinTolerance(2200, 2000, nutrition.DefaultTolerance))
	assert.False(t, nutrition.WithinTolerance(2300, 2000, nutrition.DefaultTolerance))
}

func TestWeightRoundTrip(t *testing.T) {
	t.Parallel()
	for _, kg := range []float64{45.3, 62, 80.7, 101.1, 150} {
		back := nutrition.LbsToKg(nutrition.KgToLbs(kg))
		assert.InDelta(t, kg, back, 0.1, "kg=%v", kg)
	}
}

func TestHeightAsymmetricPrecision(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5.9, nutrition.CmToFt(180))
	assert.Equal(t, 180.0, nutrition.FtToCm(5.9))

	v, err := nutrition.ConvertHeight(6, "ft", "cm")
	require.NoError(t, err)
	assert.Equal(t, 183.0, v)

	_, err = nutrition.ConvertHeight(6, "ft", "in")
	assert.Error(t, err)
}

func TestConvertWeight(t *testing.T) {
	t.Parallel()
	v, err := nutrition.ConvertWeight(100, "kg", "lb")
	require.NoError(t, err)
	assert.Equal(t, 220.5, v)

	v, err = nutrition.ConvertWeight(72, "kg", "kg")
	require.NoError(t, err)
	assert.Equal(t, 72.0, v)

	_, err = nutrition.ConvertWeight(1, "stone", "kg")
	assert.Error(t, err)
}

func TestExerciseCalories(t *testing.T) {
	t.Parallel()

	running := 8.0
	assert.Equal(t, 560, nutrition.CaloriesBurned(8, 70, 60))
	assert.Equal(t, 560, nutrition.ExerciseCalories(&running, model.IntensityModerate, 70, 60))
	assert.Equal(t, 728, nutrition.ExerciseCalories(&running, model.IntensityHigh, 70, 60))
	assert.Equal(t, 392, nutrition.ExerciseCalories(&running, model.IntensityLow, 70, 60))

	assert.Equal(t, 210, nutrition.ExerciseCalories(nil, model.IntensityModerate, 70, 30))
	assert.Equal(t, 105, nutrition.ExerciseCalories(nil, model.IntensityLow, 70, 30))
}

func TestCommonServingSizes(t *testing.T) {
	t.Parallel()

	fruit := nutrition.CommonServingSizes(model.CategoryFruit)
	require.Len(t, fruit, 3)
	assert.Equal(t, "1 medium", fruit[1].Name)

	fruit[0].Name = "mutated"
	assert.Equal(t, "100g", nutrition.CommonServingSizes(model.CategoryFruit)[0].Name)

	other := nutrition.CommonServingSizes(model.CategoryOther)
	require.Len(t, other, 2)
	assert.Equal(t, "1 serving", other[1].Name)
}

func TestWeekDatesStartMonday(t *testing.T) {
	t.Parallel()

	sunday := time.Date(2026, 3, 8, 15, 30, 0, 0, time.UTC)
	week := nutrition.WeekDates(sunday)
	assert.Equal(t, time.Monday, week[0].Weekday())
	assert.Equal(t, "2026-03-02", week[0].Format(nutrition.DateLayout))
	assert.Equal(t, "2026-03-08", week[6].Format(nutrition.DateLayout))

	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-09", nutrition.WeekDates(monday)[0].Format(nutrition.DateLayout))
}

func TestAgeOnIsCalendarYears(t *testing.T) {
	t.Parallel()
	birth := time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 36, nutrition.AgeOn(birth, now))
}
