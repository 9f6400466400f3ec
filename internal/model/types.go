package model

import "time"

type Nutrition struct {
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	FiberG        float64
	SugarG        float64
	SodiumMg      float64
	CholesterolMg float64
}

type MacroRatios struct {
	Protein int
	Carbs   int
	Fat     int
}

type Goals struct {
	GoalType       GoalType
	ActivityLevel  ActivityLevel
	TargetWeightKg *float64
	WeeklyChangeKg *float64
	CalorieGoal    int
	Macros         MacroRatios
}

type NotificationSettings struct {
	MealReminders    bool
	GoalReminders    bool
	WaterReminders   bool
	WorkoutReminders bool
}

type Preferences struct {
	Units         UnitSystem
	Theme         ThemeMode
	Notifications NotificationSettings
}

type UserProfile struct {
	ID              string
	Email           string
	Name            string
	DateOfBirth     time.Time
	Gender          Gender
	HeightCm        float64
	CurrentWeightKg float64
	Goals           Goals
	Preferences     Preferences
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ServingSize struct {
	ID         int64
	FoodItemID int64
	Name       string
	WeightG    float64
	Unit       MeasurementUnit
}

type FoodItem struct {
	ID           int64
	Name         string
	Brand        string
	Barcode      string
	Category     FoodCategory
	Per100g      Nutrition
	ServingSizes []ServingSize
	IsCustom     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ConsumedFood struct {
	ID          int64
	MealEntryID int64
	FoodItemID  int64
	FoodName    string
	Quantity    float64
	Serving     ServingSize
	Consumed    Nutrition
	CreatedAt   time.Time
}

type MealEntry struct {
	ID               int64
	DailyNutritionID int64
	MealType         MealType
	Foods            []ConsumedFood
	LoggedAt         time.Time
}

type DailyNutrition struct {
	ID          int64
	UserID      string
	Date        string
	Meals       []MealEntry
	Total       Nutrition
	CalorieGoal int
	WaterMl     int
	Notes       string
}

type Exercise struct {
	ID           int64
	Name         string
	Category     ExerciseCategory
	METValue     *float64
	MuscleGroups []string
}

type StrengthSet struct {
	ID       int64
	Reps     int
	WeightKg float64
	RestSec  int
}

type ExerciseSet struct {
	ID             int64
	ExerciseID     int64
	ExerciseName   string
	Intensity      Intensity
	DurationMin    float64
	DistanceKm     *float64
	Sets           []StrengthSet
	CaloriesBurned int
}

type WorkoutSession struct {
	ID             int64
	UserID         string
	PerformedAt    time.Time
	Exercises      []ExerciseSet
	TotalDuration  float64
	CaloriesBurned int
	Notes          string
}

type WeightEntry struct {
	ID         int64
	UserID     string
	WeightKg   float64
	MeasuredAt time.Time
	Notes      string
}
