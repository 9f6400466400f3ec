package nutrition

import "github.com/bthaas/intelifit/internal/model"

var intensityMultipliers = map[model.Intensity]float64{
	model.IntensityLow:      0.7,
	model.IntensityModerate: 1.0,
	model.IntensityHigh:     1.3,
}

// Strength sessions without a catalog MET value fall back to these.
var strengthMETs = map[model.Intensity]float64{
	model.IntensityLow:      3.0,
	model.IntensityModerate: 6.0,
	model.IntensityHigh:     8.0,
}

// IntensityMultiplier returns the MET scaling for intensity; unknown values
// scale by 1.
func IntensityMultiplier(i model.Intensity) float64 {
	if m, ok := intensityMultipliers[i]; ok {
		return m
	}
	return 1.0
}

// CaloriesBurned is MET x body weight x hours, rounded to whole kcal.
func CaloriesBurned(met, weightKg, durationMin float64) int {
	return int(roundInt(met * weightKg * (durationMin / 60)))
}

// ExerciseCalories estimates the burn for one exercise set. When met is nil the
// strength defaults for the intensity are used as-is; otherwise the intensity
// multiplier scales met first.
func ExerciseCalories(met *float64, intensity model.Intensity, weightKg, durationMin float64) int {
	if met == nil {
		m, ok := strengthMETs[intensity]
		if !ok {
			m = strengthMETs[model.IntensityModerate]
		}
		return CaloriesBurned(m, weightKg, durationMin)
	}
	return CaloriesBurned(*met*IntensityMultiplier(intensity), weightKg, durationMin)
}
