package nutrition

import "github.com/bthaas/intelifit/internal/model"

var commonServings = map[model.FoodCategory][]model.ServingSize{
	model.CategoryProtein: {
		{Name: "100g", WeightG: 100, Unit: model.UnitGram},
		{Name: "1 piece (85g)", WeightG: 85, Unit: model.UnitPiece},
		{Name: "1 oz", WeightG: 28.35, Unit: model.UnitOunce},
	},
	model.CategoryGrain: {
		{Name: "100g", WeightG: 100, Unit: model.UnitGram},
		{Name: "1 cup cooked", WeightG: 195, Unit: model.UnitCup},
		{Name: "1 slice", WeightG: 30, Unit: model.UnitSlice},
	},
	model.CategoryVegetable: {
		{Name: "100g", WeightG: 100, Unit: model.UnitGram},
		{Name: "1 cup", WeightG: 150, Unit: model.UnitCup},
		{Name: "1 medium", WeightG: 120, Unit: model.UnitPiece},
	},
	model.CategoryFruit: {
		{Name: "100g", WeightG: 100, Unit: model.UnitGram},
		{Name: "1 medium", WeightG: 150, Unit: model.UnitPiece},
		{Name: "1 cup", WeightG: 150, Unit: model.UnitCup},
	},
	model.CategoryDairy: {
		{Name: "100g", WeightG: 100, Unit: model.UnitGram},
		{Name: "1 cup", WeightG: 240, Unit: model.UnitCup},
		{Name: "1 tbsp", WeightG: 15, Unit: model.UnitTbsp},
	},
	model.CategoryBeverage: {
		{Name: "100ml", WeightG: 100, Unit: model.UnitMl},
		{Name: "1 cup (240ml)", WeightG: 240, Unit: model.UnitCup},
		{Name: "1 bottle (330ml)", WeightG: 330, Unit: model.UnitPiece},
	},
}

var defaultServings = []model.ServingSize{
	{Name: "100g", WeightG: 100, Unit: model.UnitGram},
	{Name: "1 serving", WeightG: 100, Unit: model.UnitPiece},
}

// CommonServingSizes returns a fresh copy of the usual serving sizes for a
// food category.
func CommonServingSizes(category model.FoodCategory) []model.ServingSize {
	src, ok := commonServings[category]
	if !ok {
		src = defaultServings
	}
	out := make([]model.ServingSize, len(src))
	copy(out, src)
	return out
}
