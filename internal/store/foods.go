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

const (
	DefaultSearchLimit = 20
	MaxRecentFoods     = 10
)

type FoodItemInput struct {
	Name         string
	Brand        string
	Barcode      string
	Category     model.FoodCategory
	Per100g      model.Nutrition
	ServingSizes []model.ServingSize
	IsCustom     bool
}

const foodColumns = `f.id, f.name, f.brand, IFNULL(f.barcode, ''), f.category, f.calories, f.protein_g, f.carbs_g, f.fat_g,
f.fiber_g, f.sugar_g, f.sodium_mg, f.cholesterol_mg, f.is_custom, f.created_at, f.updated_at`

// CreateFoodItem stores the food and its serving sizes in one transaction.
// Without explicit servings the category defaults are used.
func (s *Store) CreateFoodItem(ctx context.Context, in FoodItemInput) (model.FoodItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.FoodItem{}, fmt.Errorf("food name is required")
	}
	if in.Category == "" || !in.Category.Valid() {
		in.Category = model.CategoryOther
	}
	if err := validateNutrition(in.Per100g); err != nil {
		return model.FoodItem{}, err
	}
	servings := in.ServingSizes
	if len(servings) == 0 {
		servings = nutrition.CommonServingSizes(in.Category)
	}
	for _, sv := range servings {
		if strings.TrimSpace(sv.Name) == "" {
			return model.FoodItem{}, fmt.Errorf("serving size name is required")
		}
		if err := validatePositiveFloat("serving weight", sv.WeightG); err != nil {
			return model.FoodItem{}, err
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	item := model.FoodItem{
		Name:      in.Name,
		Brand:     strings.TrimSpace(in.Brand),
		Barcode:   strings.TrimSpace(in.Barcode),
		Category:  in.Category,
		Per100g:   in.Per100g,
		IsCustom:  in.IsCustom,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n := in.Per100g
		res, err := tx.ExecContext(ctx, `
INSERT INTO food_items(name, brand, barcode, category, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg, cholesterol_mg, is_custom, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, item.Name, item.Brand, nullString(item.Barcode), string(item.Category), n.Calories, n.ProteinG, n.CarbsG, n.FatG,
			n.FiberG, n.SugarG, n.SodiumMg, n.CholesterolMg, boolToInt(item.IsCustom), formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("create food item: %w", err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("resolve food item id: %w", err)
		}
		for _, sv := range servings {
			unit := sv.Unit
			if unit == "" {
				unit = model.UnitGram
			}
			res, err := tx.ExecContext(ctx, `INSERT INTO serving_sizes(food_item_id, name, weight_g, unit) VALUES(?, ?, ?, ?)`,
				item.ID, strings.TrimSpace(sv.Name), sv.WeightG, string(unit))
			if err != nil {
				return fmt.Errorf("create serving size %q: %w", sv.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("resolve serving size id: %w", err)
			}
			item.ServingSizes = append(item.ServingSizes, model.ServingSize{
				ID: id, FoodItemID: item.ID, Name: strings.TrimSpace(sv.Name), WeightG: sv.WeightG, Unit: unit,
			})
		}
		return nil
	})
	if err != nil {
		return model.FoodItem{}, err
	}
	return item, nil
}

func (s *Store) GetFoodItem(ctx context.Context, id int64) (model.FoodItem, error) {
	return s.getFood(ctx, `SELECT `+foodColumns+` FROM food_items f WHERE f.id = ?`, id, fmt.Sprintf("food item %d", id))
}

func (s *Store) FoodByBarcode(ctx context.Context, barcode string) (model.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.FoodItem{}, fmt.Errorf("barcode is required")
	}
	return s.getFood(ctx, `SELECT `+foodColumns+` FROM food_items f WHERE f.barcode = ?`, barcode, fmt.Sprintf("barcode %q", barcode))
}

func (s *Store) getFood(ctx context.Context, query string, arg any, what string) (model.FoodItem, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.FoodItem{}, err
	}
	item, err := scanFood(sqldb.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.FoodItem{}, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return model.FoodItem{}, fmt.Errorf("get %s: %w", what, err)
	}
	items := []model.FoodItem{item}
	if err := hydrateServings(ctx, sqldb, items); err != nil {
		return model.FoodItem{}, err
	}
	return items[0], nil
}

// SearchFoodItems matches query as a case-insensitive substring of the name,
// ordered alphabetically. A non-positive limit means DefaultSearchLimit.
func (s *Store) SearchFoodItems(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	items, err := queryFoods(ctx, sqldb, `
SELECT `+foodColumns+` FROM food_items f
WHERE f.name LIKE ? ESCAPE '\'
ORDER BY f.name COLLATE NOCASE ASC, f.id ASC
LIMIT ?
`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search food items: %w", err)
	}
	if err := hydrateServings(ctx, sqldb, items); err != nil {
		return nil, err
	}
	return items, nil
}

func escapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}

// AddFavorite is idempotent per user and food.
func (s *Store) AddFavorite(ctx context.Context, userID string, foodID int64) error {
	sqldb, err := s.conn()
	if err != nil {
		return err
	}
	_, err = sqldb.ExecContext(ctx, `INSERT OR IGNORE INTO favorites(user_id, food_item_id, created_at) VALUES(?, ?, ?)`,
		userID, foodID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("add favorite food %d: %w", foodID, err)
	}
	return nil
}

func (s *Store) RemoveFavorite(ctx context.Context, userID string, foodID int64) error {
	sqldb, err := s.conn()
	if err != nil {
		return err
	}
	res, err := sqldb.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND food_item_id = ?`, userID, foodID)
	if err != nil {
		return fmt.Errorf("remove favorite food %d: %w", foodID, err)
	}
	return checkAffected(res, fmt.Sprintf("favorite food %d", foodID))
}

// ListFavorites returns the user's favorites, most recently added first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]model.FoodItem, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	items, err := queryFoods(ctx, sqldb, `
SELECT `+foodColumns+` FROM favorites fav
JOIN food_items f ON f.id = fav.food_item_id
WHERE fav.user_id = ?
ORDER BY fav.created_at DESC, fav.id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if err := hydrateServings(ctx, sqldb, items); err != nil {
		return nil, err
	}
	return items, nil
}

// TouchRecentFood moves foodID to the front of the user's recent list and
// drops anything past MaxRecentFoods.
func (s *Store) TouchRecentFood(ctx context.Context, userID string, foodID int64, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return touchRecent(ctx, tx, userID, foodID, at)
	})
}

func touchRecent(ctx context.Context, q querier, userID string, foodID int64, at time.Time) error {
	if _, err := q.ExecContext(ctx, `
INSERT INTO recent_foods(user_id, food_item_id, used_at) VALUES(?, ?, ?)
ON CONFLICT(user_id, food_item_id) DO UPDATE SET used_at = excluded.used_at
`, userID, foodID, at.UnixNano()); err != nil {
		return fmt.Errorf("touch recent food %d: %w", foodID, err)
	}
	if _, err := q.ExecContext(ctx, `
DELETE FROM recent_foods
WHERE user_id = ? AND food_item_id NOT IN (
  SELECT food_item_id FROM recent_foods WHERE user_id = ? ORDER BY used_at DESC LIMIT ?
)
`, userID, userID, MaxRecentFoods); err != nil {
		return fmt.Errorf("prune recent foods: %w", err)
	}
	return nil
}

func (s *Store) ListRecentFoods(ctx context.Context, userID string) ([]model.FoodItem, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	items, err := queryFoods(ctx, sqldb, `
SELECT `+foodColumns+` FROM recent_foods r
JOIN food_items f ON f.id = r.food_item_id
WHERE r.user_id = ?
ORDER BY r.used_at DESC
LIMIT ?
`, userID, MaxRecentFoods)
	if err != nil {
		return nil, fmt.Errorf("list recent foods: %w", err)
	}
	if err := hydrateServings(ctx, sqldb, items); err != nil {
		return nil, err
	}
	return items, nil
}

func queryFoods(ctx context.Context, q querier, query string, args ...any) ([]model.FoodItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FoodItem, 0)
	for rows.Next() {
		item, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate food items: %w", err)
	}
	return items, nil
}

// hydrateServings fills ServingSizes for items with one query. The food rows
// must already be closed since the handle has a single connection.
func hydrateServings(ctx context.Context, q querier, items []model.FoodItem) error {
	if len(items) == 0 {
		return nil
	}
	index := make(map[int64]int, len(items))
	args := make([]any, 0, len(items))
	for i := range items {
		index[items[i].ID] = i
		items[i].ServingSizes = make([]model.ServingSize, 0)
		args = append(args, items[i].ID)
	}
	rows, err := q.QueryContext(ctx, `
SELECT id, food_item_id, name, weight_g, unit FROM serving_sizes
WHERE food_item_id IN (`+placeholders(len(args))+`)
ORDER BY food_item_id ASC, id ASC
`, args...)
	if err != nil {
		return fmt.Errorf("list serving sizes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sv model.ServingSize
		var unit string
		if err := rows.Scan(&sv.ID, &sv.FoodItemID, &sv.Name, &sv.WeightG, &unit); err != nil {
			return fmt.Errorf("scan serving size: %w", err)
		}
		sv.Unit = model.MeasurementUnit(unit)
		i := index[sv.FoodItemID]
		items[i].ServingSizes = append(items[i].ServingSizes, sv)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate serving sizes: %w", err)
	}
	return nil
}

func scanFood(row rowScanner) (model.FoodItem, error) {
	var item model.FoodItem
	var category, createdAt, updatedAt string
	var custom int
	n := &item.Per100g
	if err := row.Scan(&item.ID, &item.Name, &item.Brand, &item.Barcode, &category, &n.Calories, &n.ProteinG, &n.CarbsG,
		&n.FatG, &n.FiberG, &n.SugarG, &n.SodiumMg, &n.CholesterolMg, &custom, &createdAt, &updatedAt); err != nil {
		return model.FoodItem{}, err
	}
	item.Category = model.FoodCategory(category)
	item.IsCustom = custom == 1
	var err error
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.FoodItem{}, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.FoodItem{}, err
	}
	return item, nil
}
