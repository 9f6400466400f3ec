package db

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	Foods     []catalogFood     `yaml:"foods"`
	Exercises []catalogExercise `yaml:"exercises"`
}

type catalogFood struct {
	Name     string           `yaml:"name"`
	Category string           `yaml:"category"`
	Per100g  catalogNutrition `yaml:"per_100g"`
	Servings []catalogServing `yaml:"servings"`
}

type catalogNutrition struct {
	Calories      float64 `yaml:"calories"`
	ProteinG      float64 `yaml:"protein_g"`
	CarbsG        float64 `yaml:"carbs_g"`
	FatG          float64 `yaml:"fat_g"`
	FiberG        float64 `yaml:"fiber_g"`
	SugarG        float64 `yaml:"sugar_g"`
	SodiumMg      float64 `yaml:"sodium_mg"`
	CholesterolMg float64 `yaml:"cholesterol_mg"`
}

type catalogServing struct {
	Name    string  `yaml:"name"`
	WeightG float64 `yaml:"weight_g"`
	Unit    string  `yaml:"unit"`
}

type catalogExercise struct {
	Name         string   `yaml:"name"`
	Category     string   `yaml:"category"`
	MET          *float64 `yaml:"met"`
	MuscleGroups []string `yaml:"muscle_groups"`
}

func loadCatalog() (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return catalog{}, fmt.Errorf("decode seed catalog: %w", err)
	}
	return c, nil
}

// SeedCatalog inserts the built-in foods and exercises. Each table is seeded
// only while it is empty, so repeated calls never duplicate rows.
func SeedCatalog(db *sql.DB) error {
	c, err := loadCatalog()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	foods, err := countRows(tx, "food_items")
	if err != nil {
		return err
	}
	if foods == 0 {
		now := time.Now().UTC().Format(time.RFC3339)
		for _, f := range c.Foods {
			if err := seedFood(tx, f, now); err != nil {
				return err
			}
		}
	}

	exercises, err := countRows(tx, "exercises")
	if err != nil {
		return err
	}
	if exercises == 0 {
		for _, e := range c.Exercises {
			groups, err := json.Marshal(e.MuscleGroups)
			if err != nil {
				return fmt.Errorf("encode muscle groups for %s: %w", e.Name, err)
			}
			if _, err := tx.Exec(`INSERT INTO exercises(name, category, met_value, muscle_groups) VALUES(?, ?, ?, ?)`,
				e.Name, e.Category, e.MET, string(groups)); err != nil {
				return fmt.Errorf("seed exercise %s: %w", e.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func seedFood(tx *sql.Tx, f catalogFood, now string) error {
	n := f.Per100g
	res, err := tx.Exec(`
INSERT INTO food_items(name, category, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg, cholesterol_mg, is_custom, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
`, f.Name, f.Category, n.Calories, n.ProteinG, n.CarbsG, n.FatG, n.FiberG, n.SugarG, n.SodiumMg, n.CholesterolMg, now, now)
	if err != nil {
		return fmt.Errorf("seed food %s: %w", f.Name, err)
	}
	foodID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("resolve seeded food id: %w", err)
	}

	servings := make([]catalogServing, 0, len(f.Servings))
	servings = append(servings, f.Servings...)
	if len(servings) == 0 {
		for _, s := range nutrition.CommonServingSizes(model.FoodCategory(f.Category)) {
			servings = append(servings, catalogServing{Name: s.Name, WeightG: s.WeightG, Unit: string(s.Unit)})
		}
	}
	for _, s := range servings {
		if _, err := tx.Exec(`INSERT INTO serving_sizes(food_item_id, name, weight_g, unit) VALUES(?, ?, ?, ?)`,
			foodID, s.Name, s.WeightG, s.Unit); err != nil {
			return fmt.Errorf("seed serving %s for %s: %w", s.Name, f.Name, err)
		}
	}
	return nil
}

func countRows(tx *sql.Tx, table string) (int, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM ` + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
