package db_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/bthaas/intelifit/internal/db"
)

func TestApplyMigrationsIdempotentAndSeedsCatalogOnce(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "intelifit.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	foods, servings, exercises := catalogCounts(t, sqldb)
	if foods == 0 || servings == 0 || exercises == 0 {
		t.Fatalf("expected seeded catalog, got foods=%d servings=%d exercises=%d", foods, servings, exercises)
	}

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}
	if err := db.SeedCatalog(sqldb); err != nil {
		t.Fatalf("explicit reseed: %v", err)
	}
	f2, s2, e2 := catalogCounts(t, sqldb)
	if f2 != foods || s2 != servings || e2 != exercises {
		t.Fatalf("seeding duplicated rows: before=(%d,%d,%d) after=(%d,%d,%d)", foods, servings, exercises, f2, s2, e2)
	}

	var migrationCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != db.LatestVersion() {
		t.Fatalf("expected %d migration versions, got %d", db.LatestVersion(), migrationCount)
	}

	for _, table := range []string{"users", "food_items", "serving_sizes", "favorites", "daily_nutrition", "meal_entries",
		"consumed_foods", "exercises", "workout_sessions", "exercise_sets", "strength_sets", "weight_entries",
		"app_config", "recent_foods"} {
		var n int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n); err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestSeededFoodsFallBackToCategoryServings(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "intelifit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	var n int
	err = sqldb.QueryRow(`
SELECT COUNT(1) FROM serving_sizes s JOIN food_items f ON f.id = s.food_item_id
WHERE f.name = 'Chicken Breast' AND s.name = '1 piece (85g)' AND s.weight_g = 85
`).Scan(&n)
	if err != nil {
		t.Fatalf("query chicken servings: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected protein default serving on Chicken Breast")
	}

	var met any
	if err := sqldb.QueryRow(`SELECT met_value FROM exercises WHERE name = 'Deadlift'`).Scan(&met); err != nil {
		t.Fatalf("query deadlift: %v", err)
	}
	if met != nil {
		t.Fatalf("expected Deadlift to have no MET value, got %v", met)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "intelifit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	_, err = sqldb.Exec(`INSERT INTO serving_sizes(food_item_id, name, weight_g, unit) VALUES(999999, 'ghost', 10, 'g')`)
	if err == nil {
		t.Fatalf("expected foreign key violation for unknown food item")
	}
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func catalogCounts(t *testing.T, q queryer) (foods, servings, exercises int) {
	t.Helper()
	for table, dst := range map[string]*int{"food_items": &foods, "serving_sizes": &servings, "exercises": &exercises} {
		if err := q.QueryRow(`SELECT COUNT(1) FROM ` + table).Scan(dst); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
	}
	return foods, servings, exercises
}
