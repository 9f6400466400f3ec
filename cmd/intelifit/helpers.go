package intelifit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
)

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

func parseFloatArg(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return v, nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.ParseInLocation(nutrition.DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now(), nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		return parseDate("date", date)
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

// parseServing reads "name:grams", e.g. "1 cup:240".
func parseServing(raw string) (model.ServingSize, error) {
	i := strings.LastIndex(raw, ":")
	if i <= 0 {
		return model.ServingSize{}, fmt.Errorf("invalid --serving %q (expected NAME:GRAMS)", raw)
	}
	grams, err := strconv.ParseFloat(strings.TrimSpace(raw[i+1:]), 64)
	if err != nil {
		return model.ServingSize{}, fmt.Errorf("invalid --serving %q (expected NAME:GRAMS)", raw)
	}
	return model.ServingSize{Name: strings.TrimSpace(raw[:i]), WeightG: grams, Unit: model.UnitGram}, nil
}

// parseStrengthSet reads "REPSxKG", e.g. "5x100".
func parseStrengthSet(raw string) (model.StrengthSet, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(raw)), "x", 2)
	if len(parts) != 2 {
		return model.StrengthSet{}, fmt.Errorf("invalid --set %q (expected REPSxKG)", raw)
	}
	reps, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return model.StrengthSet{}, fmt.Errorf("invalid --set %q (expected REPSxKG)", raw)
	}
	kg, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.StrengthSet{}, fmt.Errorf("invalid --set %q (expected REPSxKG)", raw)
	}
	return model.StrengthSet{Reps: reps, WeightKg: kg}, nil
}

// weightUnit picks the display unit for a profile.
func weightUnit(u *model.UserProfile) string {
	if u != nil && u.Preferences.Units == model.UnitsImperial {
		return "lbs"
	}
	return "kg"
}

func displayWeight(kg float64, unit string) float64 {
	v, err := nutrition.ConvertWeight(kg, "kg", unit)
	if err != nil {
		return kg
	}
	return v
}

func formatNutrition(n model.Nutrition) string {
	return fmt.Sprintf("%.0f kcal | P %.1fg | C %.1fg | F %.1fg | Fiber %.1fg | Sugar %.1fg | Na %.0fmg",
		n.Calories, n.ProteinG, n.CarbsG, n.FatG, n.FiberG, n.SugarG, n.SodiumMg)
}
