package nutrition

import "github.com/bthaas/intelifit/internal/model"

// Consumed scales per-100g values by quantity servings of servingWeightG grams.
// Calories, sodium and cholesterol round to integers, the rest to one decimal.
func Consumed(per100g model.Nutrition, quantity, servingWeightG float64) model.Nutrition {
	factor := quantity * servingWeightG / 100
	return model.Nutrition{
		Calories:      roundInt(per100g.Calories * factor),
		ProteinG:      round1(per100g.ProteinG * factor),
		CarbsG:        round1(per100g.CarbsG * factor),
		FatG:          round1(per100g.FatG * factor),
		FiberG:        round1(per100g.FiberG * factor),
		SugarG:        round1(per100g.SugarG * factor),
		SodiumMg:      roundInt(per100g.SodiumMg * factor),
		CholesterolMg: roundInt(per100g.CholesterolMg * factor),
	}
}

// Sum adds items field by field, rounding after every partial sum so that
// totals match values already stored by earlier versions of the log.
func Sum(items ...model.Nutrition) model.Nutrition {
	var total model.Nutrition
	for _, n := range items {
		total = model.Nutrition{
			Calories:      roundInt(total.Calories + n.Calories),
			ProteinG:      round1(total.ProteinG + n.ProteinG),
			CarbsG:        round1(total.CarbsG + n.CarbsG),
			FatG:          round1(total.FatG + n.FatG),
			FiberG:        round1(total.FiberG + n.FiberG),
			SugarG:        round1(total.SugarG + n.SugarG),
			SodiumMg:      roundInt(total.SodiumMg + n.SodiumMg),
			CholesterolMg: roundInt(total.CholesterolMg + n.CholesterolMg),
		}
	}
	return total
}

// Progress returns current as a percentage of goal, capped at 100. A zero goal
// yields 0.
func Progress(current, goal float64) int {
	if goal == 0 {
		return 0
	}
	p := int(roundInt(current / goal * 100))
	if p > 100 {
		return 100
	}
	return p
}

// DefaultTolerance is the relative band WithinTolerance uses when callers have
// no preference.
const DefaultTolerance = 0.1

// WithinTolerance reports whether current lies within goal*(1±tol).
func WithinTolerance(current, goal, tol float64) bool {
	return current >= goal*(1-tol) && current <= goal*(1+tol)
}
