package model

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive:
		return true
	}
	return false
}

type GoalType string

const (
	GoalLoseWeight  GoalType = "lose_weight"
	GoalGainWeight  GoalType = "gain_weight"
	GoalMaintain    GoalType = "maintain"
	GoalBuildMuscle GoalType = "build_muscle"
)

func (g GoalType) Valid() bool {
	switch g {
	case GoalLoseWeight, GoalGainWeight, GoalMaintain, GoalBuildMuscle:
		return true
	}
	return false
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

func (m MealType) Valid() bool {
	for _, t := range MealTypes {
		if m == t {
			return true
		}
	}
	return false
}

type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

func (u UnitSystem) Valid() bool {
	return u == UnitsMetric || u == UnitsImperial
}

type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

func (t ThemeMode) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

func (i Intensity) Valid() bool {
	return i == IntensityLow || i == IntensityModerate || i == IntensityHigh
}

type FoodCategory string

const (
	CategoryProtein   FoodCategory = "protein"
	CategoryGrain     FoodCategory = "grain"
	CategoryVegetable FoodCategory = "vegetable"
	CategoryFruit     FoodCategory = "fruit"
	CategoryDairy     FoodCategory = "dairy"
	CategoryFat       FoodCategory = "fat"
	CategoryBeverage  FoodCategory = "beverage"
	CategorySnack     FoodCategory = "snack"
	CategoryOther     FoodCategory = "other"
)

func (c FoodCategory) Valid() bool {
	switch c {
	case CategoryProtein, CategoryGrain, CategoryVegetable, CategoryFruit, CategoryDairy,
		CategoryFat, CategoryBeverage, CategorySnack, CategoryOther:
		return true
	}
	return false
}

type ExerciseCategory string

const (
	ExerciseCardio      ExerciseCategory = "cardio"
	ExerciseStrength    ExerciseCategory = "strength"
	ExerciseFlexibility ExerciseCategory = "flexibility"
	ExerciseSports      ExerciseCategory = "sports"
)

type MeasurementUnit string

const (
	UnitGram  MeasurementUnit = "g"
	UnitOunce MeasurementUnit = "oz"
	UnitMl    MeasurementUnit = "ml"
	UnitCup   MeasurementUnit = "cup"
	UnitTbsp  MeasurementUnit = "tbsp"
	UnitTsp   MeasurementUnit = "tsp"
	UnitPiece MeasurementUnit = "piece"
	UnitSlice MeasurementUnit = "slice"
)
