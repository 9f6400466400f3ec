package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/store"
)

type FoodLogInput struct {
	MealType   model.MealType
	FoodItemID int64
	// ServingSizeID zero picks the food's first serving.
	ServingSizeID int64
	Quantity      float64
}

// LogFood adds a food to the selected day.
func (t *Tracker) LogFood(ctx context.Context, in FoodLogInput) (model.ConsumedFood, error) {
	if !in.MealType.Valid() {
		return model.ConsumedFood{}, invalid("meal type", "must be breakfast, lunch, dinner or snack")
	}
	if err := validatePositive("quantity", in.Quantity); err != nil {
		return model.ConsumedFood{}, err
	}
	u, err := t.user()
	if err != nil {
		return model.ConsumedFood{}, err
	}
	done, err := t.begin()
	if err != nil {
		return model.ConsumedFood{}, err
	}
	defer done()

	if in.ServingSizeID == 0 {
		food, err := t.store.GetFoodItem(ctx, in.FoodItemID)
		if err != nil {
			return model.ConsumedFood{}, err
		}
		if len(food.ServingSizes) == 0 {
			return model.ConsumedFood{}, fmt.Errorf("food %d has no serving sizes", food.ID)
		}
		in.ServingSizeID = food.ServingSizes[0].ID
	}
	cf, err := t.store.AddConsumedFood(ctx, t.dayKey(u, t.date()), store.ConsumedFoodInput{
		MealType:      in.MealType,
		FoodItemID:    in.FoodItemID,
		ServingSizeID: in.ServingSizeID,
		Quantity:      in.Quantity,
		LoggedAt:      t.now(),
	})
	if err != nil {
		return model.ConsumedFood{}, err
	}
	if err := t.refreshDay(ctx); err != nil {
		return model.ConsumedFood{}, err
	}
	return cf, t.refreshFoods(ctx)
}

type FoodUpdate struct {
	ID            int64
	Quantity      *float64
	ServingSizeID *int64
	MealType      *model.MealType
}

func (t *Tracker) UpdateFood(ctx context.Context, in FoodUpdate) (model.ConsumedFood, error) {
	if in.Quantity != nil {
		if err := validatePositive("quantity", *in.Quantity); err != nil {
			return model.ConsumedFood{}, err
		}
	}
	if in.MealType != nil && !in.MealType.Valid() {
		return model.ConsumedFood{}, invalid("meal type", "must be breakfast, lunch, dinner or snack")
	}
	if in.Quantity == nil && in.ServingSizeID == nil && in.MealType == nil {
		return model.ConsumedFood{}, invalid("update", "nothing to change")
	}
	if err := t.ownsConsumed(in.ID); err != nil {
		return model.ConsumedFood{}, err
	}
	done, err := t.begin()
	if err != nil {
		return model.ConsumedFood{}, err
	}
	defer done()

	cf, err := t.store.UpdateConsumedFood(ctx, store.UpdateConsumedFoodInput{
		ID:            in.ID,
		Quantity:      in.Quantity,
		ServingSizeID: in.ServingSizeID,
		MealType:      in.MealType,
	})
	if err != nil {
		return model.ConsumedFood{}, err
	}
	return cf, t.refreshDay(ctx)
}

func (t *Tracker) DeleteFood(ctx context.Context, id int64) error {
	if err := t.ownsConsumed(id); err != nil {
		return err
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := t.store.DeleteConsumedFood(ctx, id); err != nil {
		return err
	}
	return t.refreshDay(ctx)
}

// ownsConsumed limits edits to foods logged on the selected day of the active
// profile.
func (t *Tracker) ownsConsumed(id int64) error {
	if _, err := t.user(); err != nil {
		return err
	}
	for _, m := range t.State().Day.Meals {
		for _, f := range m.Foods {
			if f.ID == id {
				return nil
			}
		}
	}
	return fmt.Errorf("logged food %d on %s: %w", id, t.date(), store.ErrNotFound)
}

// SetWater replaces the selected day's water intake.
func (t *Tracker) SetWater(ctx context.Context, ml int) error {
	if ml < 0 {
		return invalid("water", "must be 0 or greater")
	}
	u, err := t.user()
	if err != nil {
		return err
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := t.store.SetWaterIntake(ctx, t.dayKey(u, t.date()), ml); err != nil {
		return err
	}
	return t.refreshDay(ctx)
}

func (t *Tracker) SetNotes(ctx context.Context, notes string) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := t.store.SetDailyNotes(ctx, t.dayKey(u, t.date()), notes); err != nil {
		return err
	}
	return t.refreshDay(ctx)
}

// SearchFoods matches names by substring. A blank query returns nothing rather
// than the whole catalog.
func (t *Tracker) SearchFoods(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	if strings.TrimSpace(query) == "" {
		return []model.FoodItem{}, nil
	}
	if limit <= 0 {
		limit = store.DefaultSearchLimit
	}
	return t.store.SearchFoodItems(ctx, strings.TrimSpace(query), limit)
}

func (t *Tracker) FoodByBarcode(ctx context.Context, barcode string) (model.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if err := validateBarcode(barcode); err != nil {
		return model.FoodItem{}, err
	}
	return t.store.FoodByBarcode(ctx, barcode)
}

func (t *Tracker) AddFavorite(ctx context.Context, foodID int64) error {
	return t.changeFavorite(ctx, foodID, t.store.AddFavorite)
}

func (t *Tracker) RemoveFavorite(ctx context.Context, foodID int64) error {
	return t.changeFavorite(ctx, foodID, t.store.RemoveFavorite)
}

func (t *Tracker) changeFavorite(ctx context.Context, foodID int64, apply func(context.Context, string, int64) error) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if _, err := t.store.GetFoodItem(ctx, foodID); err != nil {
		return err
	}
	if err := apply(ctx, u.ID, foodID); err != nil {
		return err
	}
	return t.refreshFoods(ctx)
}

type CustomFoodInput struct {
	Name         string
	Brand        string
	Barcode      string
	Category     model.FoodCategory
	Per100g      model.Nutrition
	ServingSizes []model.ServingSize
}

// CreateCustomFood adds a user-defined food. Without servings the category
// defaults apply.
func (t *Tracker) CreateCustomFood(ctx context.Context, in CustomFoodInput) (model.FoodItem, error) {
	if err := in.validate(); err != nil {
		return model.FoodItem{}, err
	}
	done, err := t.begin()
	if err != nil {
		return model.FoodItem{}, err
	}
	defer done()
	return t.createFood(ctx, in)
}

func (in CustomFoodInput) validate() error {
	if err := validateRequired("name", in.Name); err != nil {
		return err
	}
	if code := strings.TrimSpace(in.Barcode); code != "" {
		if err := validateBarcode(code); err != nil {
			return err
		}
	}
	if in.Category != "" && !in.Category.Valid() {
		return invalid("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	if err := validateNutrition(in.Per100g); err != nil {
		return err
	}
	for _, sv := range in.ServingSizes {
		if err := validateRequired("serving name", sv.Name); err != nil {
			return err
		}
		if err := validatePositive("serving weight", sv.WeightG); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) createFood(ctx context.Context, in CustomFoodInput) (model.FoodItem, error) {
	return t.store.CreateFoodItem(ctx, store.FoodItemInput{
		Name:         in.Name,
		Brand:        in.Brand,
		Barcode:      in.Barcode,
		Category:     in.Category,
		Per100g:      in.Per100g,
		ServingSizes: in.ServingSizes,
		IsCustom:     true,
	})
}
