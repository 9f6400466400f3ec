// Package nutrition holds the pure calorie and nutrient arithmetic used by the
// tracker. Nothing here touches storage or the network; inputs are assumed to be
// validated by the caller.
package nutrition

import (
	"math"
	"time"

	"github.com/bthaas/intelifit/internal/model"
)

// KcalPerKgBodyFat is the energy content used to turn a weekly weight change
// into a daily calorie adjustment.
const KcalPerKgBodyFat = 7700.0

const (
	minLossCalories    = 1200
	buildMuscleSurplus = 300
)

var activityMultipliers = map[model.ActivityLevel]float64{
	model.ActivitySedentary:  1.2,
	model.ActivityLight:      1.375,
	model.ActivityModerate:   1.55,
	model.ActivityActive:     1.725,
	model.ActivityVeryActive: 1.9,
}

// AgeOn returns the calendar-year difference between birth and now. It does
// not look at month or day.
func AgeOn(birth, now time.Time) int {
	return now.Year() - birth.Year()
}

// BMR computes the Mifflin-St Jeor basal metabolic rate. Every non-male gender
// takes the -161 branch.
func BMR(weightKg, heightCm float64, age int, gender model.Gender) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == model.GenderMale {
		return base + 5
	}
	return base - 161
}

// ActivityMultiplier returns the TDEE factor for level. Unknown levels are
// treated as sedentary.
func ActivityMultiplier(level model.ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[model.ActivitySedentary]
}

// TDEE scales bmr by the activity multiplier and rounds to whole kcal.
func TDEE(bmr float64, level model.ActivityLevel) int {
	return int(roundInt(bmr * ActivityMultiplier(level)))
}

// EnergyInput carries the profile attributes a calorie goal depends on.
// WeeklyChangeKg is the absolute weekly change the user is aiming for; nil
// means no adjustment.
type EnergyInput struct {
	WeightKg       float64
	HeightCm       float64
	Age            int
	Gender         model.Gender
	Activity       model.ActivityLevel
	GoalType       model.GoalType
	WeeklyChangeKg *float64
}

// CalorieGoal derives the daily calorie target from TDEE and the goal type.
// Weight loss never drops below 1200 kcal.
func CalorieGoal(in EnergyInput) int {
	tdee := float64(TDEE(BMR(in.WeightKg, in.HeightCm, in.Age, in.Gender), in.Activity))
	weekly := 0.0
	if in.WeeklyChangeKg != nil {
		weekly = *in.WeeklyChangeKg
	}
	daily := weekly * KcalPerKgBodyFat / 7

	var goal float64
	switch in.GoalType {
	case model.GoalLoseWeight:
		goal = math.Max(minLossCalories, tdee-daily)
	case model.GoalGainWeight:
		goal = tdee + daily
	case model.GoalBuildMuscle:
		goal = tdee + buildMuscleSurplus
	default:
		goal = tdee
	}
	return int(roundInt(goal))
}

// MacroGoals converts a calorie goal and a percentage split into gram targets.
// The split is used as given; it is not normalized to 100.
func MacroGoals(calorieGoal int, r model.MacroRatios) model.Nutrition {
	g := float64(calorieGoal)
	return model.Nutrition{
		Calories:      g,
		ProteinG:      roundInt(g * float64(r.Protein) / 100 / 4),
		CarbsG:        roundInt(g * float64(r.Carbs) / 100 / 4),
		FatG:          roundInt(g * float64(r.Fat) / 100 / 9),
		FiberG:        roundInt(g / 1000 * 14),
		SugarG:        roundInt(g * 0.1 / 4),
		SodiumMg:      2300,
		CholesterolMg: 300,
	}
}

func roundInt(v float64) float64 {
	return math.Round(v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
