package tracker

import (
	"context"
	"math"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
)

// maxStreakDays bounds how far back the logging streak looks.
const maxStreakDays = 30

type NutrientProgress struct {
	Name     string
	Unit     string
	Consumed float64
	Goal     float64
	Percent  int
	OnTarget bool
}

type DayProgress struct {
	Date        string
	CalorieGoal int
	Remaining   int
	Burned      int
	WaterMl     int
	Nutrients   []NutrientProgress
}

// DayProgress compares the selected day's totals with the profile's targets.
// The day's own calorie goal snapshot wins over the profile's when set.
func (t *Tracker) DayProgress(ctx context.Context) (DayProgress, error) {
	u, err := t.user()
	if err != nil {
		return DayProgress{}, err
	}
	day := t.State().Day
	calorieGoal := day.CalorieGoal
	if calorieGoal == 0 {
		calorieGoal = u.Goals.CalorieGoal
	}
	goals := nutrition.MacroGoals(calorieGoal, u.Goals.Macros)

	from, err := time.ParseInLocation(nutrition.DateLayout, day.Date, t.now().Location())
	if err != nil {
		return DayProgress{}, invalid("date", "expected YYYY-MM-DD")
	}
	sessions, err := t.Workouts(ctx, from, from.AddDate(0, 0, 1), 0)
	if err != nil {
		return DayProgress{}, err
	}
	burned := 0
	for _, s := range sessions {
		burned += s.CaloriesBurned
	}

	total := day.Total
	out := DayProgress{
		Date:        day.Date,
		CalorieGoal: calorieGoal,
		Remaining:   calorieGoal - int(total.Calories),
		Burned:      burned,
		WaterMl:     day.WaterMl,
	}
	for _, n := range []struct {
		name, unit    string
		consumed, goal float64
	}{
		{"calories", "kcal", total.Calories, goals.Calories},
		{"protein", "g", total.ProteinG, goals.ProteinG},
		{"carbs", "g", total.CarbsG, goals.CarbsG},
		{"fat", "g", total.FatG, goals.FatG},
		{"fiber", "g", total.FiberG, goals.FiberG},
		{"sugar", "g", total.SugarG, goals.SugarG},
		{"sodium", "mg", total.SodiumMg, goals.SodiumMg},
		{"cholesterol", "mg", total.CholesterolMg, goals.CholesterolMg},
	} {
		out.Nutrients = append(out.Nutrients, NutrientProgress{
			Name:     n.name,
			Unit:     n.unit,
			Consumed: n.consumed,
			Goal:     n.goal,
			Percent:  nutrition.Progress(n.consumed, n.goal),
			OnTarget: n.goal > 0 && nutrition.WithinTolerance(n.consumed, n.goal, nutrition.DefaultTolerance),
		})
	}
	return out, nil
}

type DaySummary struct {
	Date        string
	Total       model.Nutrition
	CalorieGoal int
	WaterMl     int
	Logged      bool
}

type WeekSummary struct {
	Days [7]DaySummary
	// Averages cover calories, protein, carbs, fat and fiber over logged days.
	Averages   model.Nutrition
	LoggedDays int
	Streak     int
}

// WeeklySummary reports the Monday-first week containing the selected day.
func (t *Tracker) WeeklySummary(ctx context.Context) (WeekSummary, error) {
	u, err := t.user()
	if err != nil {
		return WeekSummary{}, err
	}
	selected, err := time.ParseInLocation(nutrition.DateLayout, t.date(), t.now().Location())
	if err != nil {
		return WeekSummary{}, invalid("date", "expected YYYY-MM-DD")
	}
	dates := nutrition.WeekDates(selected)
	rows, err := t.store.ListDailyTotals(ctx, u.ID, dates[0].Format(nutrition.DateLayout), dates[6].Format(nutrition.DateLayout))
	if err != nil {
		return WeekSummary{}, err
	}
	byDate := make(map[string]model.DailyNutrition, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	var out WeekSummary
	var sum model.Nutrition
	for i, d := range dates {
		key := d.Format(nutrition.DateLayout)
		ds := DaySummary{Date: key, CalorieGoal: u.Goals.CalorieGoal}
		if r, ok := byDate[key]; ok {
			ds.Total, ds.WaterMl, ds.Logged = r.Total, r.WaterMl, true
			if r.CalorieGoal > 0 {
				ds.CalorieGoal = r.CalorieGoal
			}
			out.LoggedDays++
			sum.Calories += r.Total.Calories
			sum.ProteinG += r.Total.ProteinG
			sum.CarbsG += r.Total.CarbsG
			sum.FatG += r.Total.FatG
			sum.FiberG += r.Total.FiberG
		}
		out.Days[i] = ds
	}
	if out.LoggedDays > 0 {
		n := float64(out.LoggedDays)
		out.Averages = model.Nutrition{
			Calories: math.Round(sum.Calories / n),
			ProteinG: math.Round(sum.ProteinG/n*10) / 10,
			CarbsG:   math.Round(sum.CarbsG/n*10) / 10,
			FatG:     math.Round(sum.FatG/n*10) / 10,
			FiberG:   math.Round(sum.FiberG/n*10) / 10,
		}
	}

	if out.Streak, err = t.streak(ctx, u.ID); err != nil {
		return WeekSummary{}, err
	}
	return out, nil
}

// streak counts consecutive days ending today with any calories logged.
func (t *Tracker) streak(ctx context.Context, userID string) (int, error) {
	today := t.now()
	from := today.AddDate(0, 0, -(maxStreakDays - 1))
	rows, err := t.store.ListDailyTotals(ctx, userID, from.Format(nutrition.DateLayout), today.Format(nutrition.DateLayout))
	if err != nil {
		return 0, err
	}
	logged := make(map[string]bool, len(rows))
	for _, r := range rows {
		logged[r.Date] = r.Total.Calories > 0
	}
	count := 0
	for i := 0; i < maxStreakDays; i++ {
		if !logged[today.AddDate(0, 0, -i).Format(nutrition.DateLayout)] {
			break
		}
		count++
	}
	return count, nil
}
