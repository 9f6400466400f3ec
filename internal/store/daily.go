package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
)

// Day addresses one user's log for one calendar date. CalorieGoal is only
// used when the day row does not exist yet.
type Day struct {
	UserID      string
	Date        string
	CalorieGoal int
}

func (d Day) validate() error {
	if strings.TrimSpace(d.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	return validateDate(d.Date)
}

type ConsumedFoodInput struct {
	MealType      model.MealType
	FoodItemID    int64
	ServingSizeID int64
	Quantity      float64
	LoggedAt      time.Time
}

type UpdateConsumedFoodInput struct {
	ID            int64
	Quantity      *float64
	ServingSizeID *int64
	MealType      *model.MealType
}

const totalColumns = `total_calories, total_protein_g, total_carbs_g, total_fat_g, total_fiber_g, total_sugar_g,
total_sodium_mg, total_cholesterol_mg`

const consumedNutritionColumns = `calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg, cholesterol_mg`

// EnsureDailyNutrition returns the day, creating an empty one if needed.
func (s *Store) EnsureDailyNutrition(ctx context.Context, day Day) (model.DailyNutrition, error) {
	if err := day.validate(); err != nil {
		return model.DailyNutrition{}, err
	}
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := ensureDay(ctx, tx, day)
		return err
	}); err != nil {
		return model.DailyNutrition{}, err
	}
	return s.GetDailyNutrition(ctx, day.UserID, day.Date)
}

func (s *Store) GetDailyNutrition(ctx context.Context, userID, date string) (model.DailyNutrition, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.DailyNutrition{}, err
	}
	if err := validateDate(date); err != nil {
		return model.DailyNutrition{}, err
	}
	d, err := scanDaily(sqldb.QueryRowContext(ctx, `
SELECT id, user_id, date, calorie_goal, water_ml, notes, `+totalColumns+`
FROM daily_nutrition WHERE user_id = ? AND date = ?
`, userID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyNutrition{}, fmt.Errorf("daily nutrition %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return model.DailyNutrition{}, fmt.Errorf("get daily nutrition %s: %w", date, err)
	}
	if d.Meals, err = loadMeals(ctx, sqldb, d.ID); err != nil {
		return model.DailyNutrition{}, err
	}
	return d, nil
}

// ListDailyTotals returns day rows between from and to inclusive without
// their meals.
func (s *Store) ListDailyTotals(ctx context.Context, userID, from, to string) ([]model.DailyNutrition, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	if err := validateDate(from); err != nil {
		return nil, err
	}
	if err := validateDate(to); err != nil {
		return nil, err
	}
	rows, err := sqldb.QueryContext(ctx, `
SELECT id, user_id, date, calorie_goal, water_ml, notes, `+totalColumns+`
FROM daily_nutrition
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date ASC
`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily totals: %w", err)
	}
	defer rows.Close()

	out := make([]model.DailyNutrition, 0)
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily totals: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

// AddConsumedFood logs a food under the day's meal of the given type. The
// nutrition snapshot and the day totals are written in the same transaction.
func (s *Store) AddConsumedFood(ctx context.Context, day Day, in ConsumedFoodInput) (model.ConsumedFood, error) {
	if err := day.validate(); err != nil {
		return model.ConsumedFood{}, err
	}
	if !in.MealType.Valid() {
		return model.ConsumedFood{}, fmt.Errorf("invalid meal type %q", in.MealType)
	}
	if err := validatePositiveFloat("quantity", in.Quantity); err != nil {
		return model.ConsumedFood{}, err
	}
	if in.LoggedAt.IsZero() {
		in.LoggedAt = time.Now()
	}

	var out model.ConsumedFood
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		dailyID, err := ensureDay(ctx, tx, day)
		if err != nil {
			return err
		}
		mealID, err := ensureMeal(ctx, tx, dailyID, in.MealType, in.LoggedAt)
		if err != nil {
			return err
		}
		src, err := loadServingSource(ctx, tx, in.FoodItemID, in.ServingSizeID)
		if err != nil {
			return err
		}
		consumed := nutrition.Consumed(src.per100g, in.Quantity, src.serving.WeightG)
		c := consumed
		now := time.Now().UTC().Truncate(time.Second)
		res, err := tx.ExecContext(ctx, `
INSERT INTO consumed_foods(meal_entry_id, food_item_id, serving_size_id, quantity, food_name, serving_name, serving_weight_g,
  serving_unit, `+consumedNutritionColumns+`, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, mealID, in.FoodItemID, in.ServingSizeID, in.Quantity, src.foodName, src.serving.Name, src.serving.WeightG,
			string(src.serving.Unit), c.Calories, c.ProteinG, c.CarbsG, c.FatG, c.FiberG, c.SugarG, c.SodiumMg, c.CholesterolMg,
			formatTime(now))
		if err != nil {
			return fmt.Errorf("add consumed food: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("resolve consumed food id: %w", err)
		}
		if err := touchRecent(ctx, tx, day.UserID, in.FoodItemID, time.Now()); err != nil {
			return err
		}
		if err := recomputeTotals(ctx, tx, dailyID); err != nil {
			return err
		}
		out = model.ConsumedFood{
			ID:          id,
			MealEntryID: mealID,
			FoodItemID:  in.FoodItemID,
			FoodName:    src.foodName,
			Quantity:    in.Quantity,
			Serving:     src.serving,
			Consumed:    consumed,
			CreatedAt:   now,
		}
		return nil
	})
	if err != nil {
		return model.ConsumedFood{}, err
	}
	return out, nil
}

// UpdateConsumedFood changes quantity, serving or meal of a logged food. The
// snapshot is replaced as a whole.
func (s *Store) UpdateConsumedFood(ctx context.Context, in UpdateConsumedFoodInput) (model.ConsumedFood, error) {
	if in.Quantity != nil {
		if err := validatePositiveFloat("quantity", *in.Quantity); err != nil {
			return model.ConsumedFood{}, err
		}
	}
	if in.MealType != nil && !in.MealType.Valid() {
		return model.ConsumedFood{}, fmt.Errorf("invalid meal type %q", *in.MealType)
	}

	var out model.ConsumedFood
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, dailyID, err := loadConsumed(ctx, tx, in.ID)
		if err != nil {
			return err
		}
		quantity := cur.Quantity
		if in.Quantity != nil {
			quantity = *in.Quantity
		}
		servingID := cur.Serving.ID
		if in.ServingSizeID != nil {
			servingID = *in.ServingSizeID
		}
		mealID := cur.MealEntryID
		if in.MealType != nil {
			if mealID, err = ensureMeal(ctx, tx, dailyID, *in.MealType, time.Now()); err != nil {
				return err
			}
		}
		src, err := loadServingSource(ctx, tx, cur.FoodItemID, servingID)
		if err != nil {
			return err
		}
		c := nutrition.Consumed(src.per100g, quantity, src.serving.WeightG)
		if _, err := tx.ExecContext(ctx, `
UPDATE consumed_foods
SET meal_entry_id = ?, serving_size_id = ?, quantity = ?, serving_name = ?, serving_weight_g = ?, serving_unit = ?,
    calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?, fiber_g = ?, sugar_g = ?, sodium_mg = ?, cholesterol_mg = ?
WHERE id = ?
`, mealID, servingID, quantity, src.serving.Name, src.serving.WeightG, string(src.serving.Unit), c.Calories, c.ProteinG,
			c.CarbsG, c.FatG, c.FiberG, c.SugarG, c.SodiumMg, c.CholesterolMg, in.ID); err != nil {
			return fmt.Errorf("update consumed food %d: %w", in.ID, err)
		}
		if err := pruneEmptyMeals(ctx, tx, dailyID); err != nil {
			return err
		}
		if err := recomputeTotals(ctx, tx, dailyID); err != nil {
			return err
		}
		out = cur
		out.MealEntryID = mealID
		out.Quantity = quantity
		out.Serving = src.serving
		out.Consumed = c
		return nil
	})
	if err != nil {
		return model.ConsumedFood{}, err
	}
	return out, nil
}

func (s *Store) DeleteConsumedFood(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, dailyID, err := loadConsumed(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM consumed_foods WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete consumed food %d: %w", id, err)
		}
		if err := pruneEmptyMeals(ctx, tx, dailyID); err != nil {
			return err
		}
		return recomputeTotals(ctx, tx, dailyID)
	})
}

func (s *Store) SetWaterIntake(ctx context.Context, day Day, ml int) error {
	if ml < 0 {
		return fmt.Errorf("water intake must be >= 0")
	}
	return s.updateDay(ctx, day, `UPDATE daily_nutrition SET water_ml = ?, updated_at = ? WHERE id = ?`, ml)
}

func (s *Store) SetDailyNotes(ctx context.Context, day Day, notes string) error {
	return s.updateDay(ctx, day, `UPDATE daily_nutrition SET notes = ?, updated_at = ? WHERE id = ?`, strings.TrimSpace(notes))
}

// SetDailyCalorieGoal overwrites the goal snapshot of an existing or new day.
func (s *Store) SetDailyCalorieGoal(ctx context.Context, day Day, goal int) error {
	if goal < 0 {
		return fmt.Errorf("calorie goal must be >= 0")
	}
	return s.updateDay(ctx, day, `UPDATE daily_nutrition SET calorie_goal = ?, updated_at = ? WHERE id = ?`, goal)
}

func (s *Store) updateDay(ctx context.Context, day Day, stmt string, value any) error {
	if err := day.validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		dailyID, err := ensureDay(ctx, tx, day)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, value, formatTime(time.Now()), dailyID); err != nil {
			return fmt.Errorf("update daily nutrition %s: %w", day.Date, err)
		}
		return nil
	})
}

// RecomputeDailyTotals rewrites the stored totals of one day from its
// consumed foods.
func (s *Store) RecomputeDailyTotals(ctx context.Context, dailyID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return recomputeTotals(ctx, tx, dailyID)
	})
}

func ensureDay(ctx context.Context, q querier, day Day) (int64, error) {
	if _, err := q.ExecContext(ctx, `
INSERT INTO daily_nutrition(user_id, date, calorie_goal, updated_at) VALUES(?, ?, ?, ?)
ON CONFLICT(user_id, date) DO NOTHING
`, day.UserID, day.Date, day.CalorieGoal, formatTime(time.Now())); err != nil {
		return 0, fmt.Errorf("ensure daily nutrition %s: %w", day.Date, err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM daily_nutrition WHERE user_id = ? AND date = ?`, day.UserID, day.Date).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup daily nutrition %s: %w", day.Date, err)
	}
	return id, nil
}

func ensureMeal(ctx context.Context, q querier, dailyID int64, mealType model.MealType, at time.Time) (int64, error) {
	if _, err := q.ExecContext(ctx, `
INSERT INTO meal_entries(daily_nutrition_id, meal_type, logged_at) VALUES(?, ?, ?)
ON CONFLICT(daily_nutrition_id, meal_type) DO NOTHING
`, dailyID, string(mealType), formatTime(at)); err != nil {
		return 0, fmt.Errorf("ensure %s entry: %w", mealType, err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM meal_entries WHERE daily_nutrition_id = ? AND meal_type = ?`, dailyID, string(mealType)).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup %s entry: %w", mealType, err)
	}
	return id, nil
}

func pruneEmptyMeals(ctx context.Context, q querier, dailyID int64) error {
	if _, err := q.ExecContext(ctx, `
DELETE FROM meal_entries
WHERE daily_nutrition_id = ? AND NOT EXISTS (SELECT 1 FROM consumed_foods c WHERE c.meal_entry_id = meal_entries.id)
`, dailyID); err != nil {
		return fmt.Errorf("prune empty meals: %w", err)
	}
	return nil
}

type servingSource struct {
	foodName string
	per100g  model.Nutrition
	serving  model.ServingSize
}

// loadServingSource requires servingID to belong to foodID.
func loadServingSource(ctx context.Context, q querier, foodID, servingID int64) (servingSource, error) {
	var src servingSource
	var unit string
	n := &src.per100g
	err := q.QueryRowContext(ctx, `
SELECT f.name, f.calories, f.protein_g, f.carbs_g, f.fat_g, f.fiber_g, f.sugar_g, f.sodium_mg, f.cholesterol_mg,
       s.id, s.food_item_id, s.name, s.weight_g, s.unit
FROM serving_sizes s JOIN food_items f ON f.id = s.food_item_id
WHERE s.id = ? AND s.food_item_id = ?
`, servingID, foodID).Scan(&src.foodName, &n.Calories, &n.ProteinG, &n.CarbsG, &n.FatG, &n.FiberG, &n.SugarG, &n.SodiumMg,
		&n.CholesterolMg, &src.serving.ID, &src.serving.FoodItemID, &src.serving.Name, &src.serving.WeightG, &unit)
	if errors.Is(err, sql.ErrNoRows) {
		return servingSource{}, fmt.Errorf("serving size %d of food item %d: %w", servingID, foodID, ErrNotFound)
	}
	if err != nil {
		return servingSource{}, fmt.Errorf("load serving size %d: %w", servingID, err)
	}
	src.serving.Unit = model.MeasurementUnit(unit)
	return src, nil
}

func loadConsumed(ctx context.Context, q querier, id int64) (model.ConsumedFood, int64, error) {
	var c model.ConsumedFood
	var dailyID int64
	var unit, createdAt string
	n := &c.Consumed
	err := q.QueryRowContext(ctx, `
SELECT c.id, c.meal_entry_id, c.food_item_id, c.food_name, c.quantity, c.serving_size_id, c.serving_name,
       c.serving_weight_g, c.serving_unit, c.calories, c.protein_g, c.carbs_g, c.fat_g, c.fiber_g, c.sugar_g,
       c.sodium_mg, c.cholesterol_mg, c.created_at, m.daily_nutrition_id
FROM consumed_foods c JOIN meal_entries m ON m.id = c.meal_entry_id
WHERE c.id = ?
`, id).Scan(&c.ID, &c.MealEntryID, &c.FoodItemID, &c.FoodName, &c.Quantity, &c.Serving.ID, &c.Serving.Name,
		&c.Serving.WeightG, &unit, &n.Calories, &n.ProteinG, &n.CarbsG, &n.FatG, &n.FiberG, &n.SugarG, &n.SodiumMg,
		&n.CholesterolMg, &createdAt, &dailyID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ConsumedFood{}, 0, fmt.Errorf("consumed food %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ConsumedFood{}, 0, fmt.Errorf("load consumed food %d: %w", id, err)
	}
	c.Serving.FoodItemID = c.FoodItemID
	c.Serving.Unit = model.MeasurementUnit(unit)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.ConsumedFood{}, 0, err
	}
	return c, dailyID, nil
}

// consumedSnapshots returns every snapshot of a day in meal then insertion
// order, which fixes the summation path.
func consumedSnapshots(ctx context.Context, q querier, dailyID int64) ([]model.Nutrition, error) {
	rows, err := q.QueryContext(ctx, `
SELECT c.calories, c.protein_g, c.carbs_g, c.fat_g, c.fiber_g, c.sugar_g, c.sodium_mg, c.cholesterol_mg
FROM consumed_foods c JOIN meal_entries m ON m.id = c.meal_entry_id
WHERE m.daily_nutrition_id = ?
ORDER BY m.id ASC, c.id ASC
`, dailyID)
	if err != nil {
		return nil, fmt.Errorf("list consumed nutrition: %w", err)
	}
	defer rows.Close()
	out := make([]model.Nutrition, 0)
	for rows.Next() {
		var n model.Nutrition
		if err := rows.Scan(&n.Calories, &n.ProteinG, &n.CarbsG, &n.FatG, &n.FiberG, &n.SugarG, &n.SodiumMg, &n.CholesterolMg); err != nil {
			return nil, fmt.Errorf("scan consumed nutrition: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consumed nutrition: %w", err)
	}
	return out, nil
}

func recomputeTotals(ctx context.Context, q querier, dailyID int64) error {
	items, err := consumedSnapshots(ctx, q, dailyID)
	if err != nil {
		return err
	}
	t := nutrition.Sum(items...)
	res, err := q.ExecContext(ctx, `
UPDATE daily_nutrition
SET total_calories = ?, total_protein_g = ?, total_carbs_g = ?, total_fat_g = ?, total_fiber_g = ?, total_sugar_g = ?,
    total_sodium_mg = ?, total_cholesterol_mg = ?, updated_at = ?
WHERE id = ?
`, t.Calories, t.ProteinG, t.CarbsG, t.FatG, t.FiberG, t.SugarG, t.SodiumMg, t.CholesterolMg, formatTime(time.Now()), dailyID)
	if err != nil {
		return fmt.Errorf("update daily totals: %w", err)
	}
	return checkAffected(res, fmt.Sprintf("daily nutrition %d", dailyID))
}

func loadMeals(ctx context.Context, q querier, dailyID int64) ([]model.MealEntry, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, meal_type, logged_at FROM meal_entries WHERE daily_nutrition_id = ? ORDER BY id ASC
`, dailyID)
	if err != nil {
		return nil, fmt.Errorf("list meal entries: %w", err)
	}
	meals := make([]model.MealEntry, 0)
	index := map[int64]int{}
	for rows.Next() {
		var m model.MealEntry
		var mealType, loggedAt string
		if err := rows.Scan(&m.ID, &mealType, &loggedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan meal entry: %w", err)
		}
		m.DailyNutritionID = dailyID
		m.MealType = model.MealType(mealType)
		if m.LoggedAt, err = parseTime(loggedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		m.Foods = make([]model.ConsumedFood, 0)
		index[m.ID] = len(meals)
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate meal entries: %w", err)
	}
	_ = rows.Close()
	if len(meals) == 0 {
		return meals, nil
	}

	foodRows, err := q.QueryContext(ctx, `
SELECT c.id, c.meal_entry_id, c.food_item_id, c.food_name, c.quantity, c.serving_size_id, c.serving_name,
       c.serving_weight_g, c.serving_unit, c.calories, c.protein_g, c.carbs_g, c.fat_g, c.fiber_g, c.sugar_g,
       c.sodium_mg, c.cholesterol_mg, c.created_at
FROM consumed_foods c JOIN meal_entries m ON m.id = c.meal_entry_id
WHERE m.daily_nutrition_id = ?
ORDER BY c.id ASC
`, dailyID)
	if err != nil {
		return nil, fmt.Errorf("list consumed foods: %w", err)
	}
	defer foodRows.Close()
	for foodRows.Next() {
		var c model.ConsumedFood
		var unit, createdAt string
		n := &c.Consumed
		if err := foodRows.Scan(&c.ID, &c.MealEntryID, &c.FoodItemID, &c.FoodName, &c.Quantity, &c.Serving.ID,
			&c.Serving.Name, &c.Serving.WeightG, &unit, &n.Calories, &n.ProteinG, &n.CarbsG, &n.FatG, &n.FiberG,
			&n.SugarG, &n.SodiumMg, &n.CholesterolMg, &createdAt); err != nil {
			return nil, fmt.Errorf("scan consumed food: %w", err)
		}
		c.Serving.FoodItemID = c.FoodItemID
		c.Serving.Unit = model.MeasurementUnit(unit)
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		i := index[c.MealEntryID]
		meals[i].Foods = append(meals[i].Foods, c)
	}
	if err := foodRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consumed foods: %w", err)
	}
	return meals, nil
}

func scanDaily(row rowScanner) (model.DailyNutrition, error) {
	var d model.DailyNutrition
	t := &d.Total
	if err := row.Scan(&d.ID, &d.UserID, &d.Date, &d.CalorieGoal, &d.WaterMl, &d.Notes, &t.Calories, &t.ProteinG,
		&t.CarbsG, &t.FatG, &t.FiberG, &t.SugarG, &t.SodiumMg, &t.CholesterolMg); err != nil {
		return model.DailyNutrition{}, err
	}
	d.Meals = make([]model.MealEntry, 0)
	return d, nil
}
