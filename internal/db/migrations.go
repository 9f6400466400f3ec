package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  date_of_birth TEXT NOT NULL,
  gender TEXT NOT NULL CHECK(gender IN ('male','female','other')),
  height_cm REAL NOT NULL CHECK(height_cm > 0),
  current_weight_kg REAL NOT NULL CHECK(current_weight_kg > 0),
  activity_level TEXT NOT NULL,
  goal_type TEXT NOT NULL,
  target_weight_kg REAL,
  weekly_weight_change_kg REAL,
  calorie_goal INTEGER NOT NULL CHECK(calorie_goal >= 0),
  macro_protein_pct INTEGER NOT NULL DEFAULT 30,
  macro_carbs_pct INTEGER NOT NULL DEFAULT 40,
  macro_fat_pct INTEGER NOT NULL DEFAULT 30,
  units TEXT NOT NULL DEFAULT 'metric',
  theme TEXT NOT NULL DEFAULT 'system',
  meal_reminders INTEGER NOT NULL DEFAULT 1,
  goal_reminders INTEGER NOT NULL DEFAULT 1,
  water_reminders INTEGER NOT NULL DEFAULT 0,
  workout_reminders INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS food_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  barcode TEXT,
  category TEXT NOT NULL DEFAULT 'other',
  calories REAL NOT NULL CHECK(calories >= 0),
  protein_g REAL NOT NULL DEFAULT 0 CHECK(protein_g >= 0),
  carbs_g REAL NOT NULL DEFAULT 0 CHECK(carbs_g >= 0),
  fat_g REAL NOT NULL DEFAULT 0 CHECK(fat_g >= 0),
  fiber_g REAL NOT NULL DEFAULT 0 CHECK(fiber_g >= 0),
  sugar_g REAL NOT NULL DEFAULT 0 CHECK(sugar_g >= 0),
  sodium_mg REAL NOT NULL DEFAULT 0 CHECK(sodium_mg >= 0),
  cholesterol_mg REAL NOT NULL DEFAULT 0 CHECK(cholesterol_mg >= 0),
  is_custom INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_food_items_name ON food_items(name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_food_items_barcode ON food_items(barcode) WHERE barcode IS NOT NULL;

CREATE TABLE IF NOT EXISTS serving_sizes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  food_item_id INTEGER NOT NULL REFERENCES food_items(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  weight_g REAL NOT NULL CHECK(weight_g > 0),
  unit TEXT NOT NULL DEFAULT 'g',
  UNIQUE(id, food_item_id)
);

CREATE INDEX IF NOT EXISTS idx_serving_sizes_food ON serving_sizes(food_item_id);

CREATE TABLE IF NOT EXISTS favorites (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  food_item_id INTEGER NOT NULL REFERENCES food_items(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  UNIQUE(user_id, food_item_id)
);
`,
	},
	{
		version: 2,
		name:    "nutrition_log",
		sql: `
CREATE TABLE IF NOT EXISTS daily_nutrition (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  date TEXT NOT NULL,
  calorie_goal INTEGER NOT NULL DEFAULT 0 CHECK(calorie_goal >= 0),
  water_ml INTEGER NOT NULL DEFAULT 0 CHECK(water_ml >= 0),
  notes TEXT NOT NULL DEFAULT '',
  total_calories REAL NOT NULL DEFAULT 0,
  total_protein_g REAL NOT NULL DEFAULT 0,
  total_carbs_g REAL NOT NULL DEFAULT 0,
  total_fat_g REAL NOT NULL DEFAULT 0,
  total_fiber_g REAL NOT NULL DEFAULT 0,
  total_sugar_g REAL NOT NULL DEFAULT 0,
  total_sodium_mg REAL NOT NULL DEFAULT 0,
  total_cholesterol_mg REAL NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL,
  UNIQUE(user_id, date)
);

CREATE TABLE IF NOT EXISTS meal_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  daily_nutrition_id INTEGER NOT NULL REFERENCES daily_nutrition(id) ON DELETE CASCADE,
  meal_type TEXT NOT NULL CHECK(meal_type IN ('breakfast','lunch','dinner','snack')),
  logged_at TEXT NOT NULL,
  UNIQUE(daily_nutrition_id, meal_type)
);

CREATE TABLE IF NOT EXISTS consumed_foods (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  meal_entry_id INTEGER NOT NULL REFERENCES meal_entries(id) ON DELETE CASCADE,
  food_item_id INTEGER NOT NULL REFERENCES food_items(id),
  serving_size_id INTEGER NOT NULL,
  quantity REAL NOT NULL CHECK(quantity > 0),
  food_name TEXT NOT NULL,
  serving_name TEXT NOT NULL,
  serving_weight_g REAL NOT NULL,
  serving_unit TEXT NOT NULL,
  calories REAL NOT NULL,
  protein_g REAL NOT NULL,
  carbs_g REAL NOT NULL,
  fat_g REAL NOT NULL,
  fiber_g REAL NOT NULL,
  sugar_g REAL NOT NULL,
  sodium_mg REAL NOT NULL,
  cholesterol_mg REAL NOT NULL,
  created_at TEXT NOT NULL,
  FOREIGN KEY (serving_size_id, food_item_id) REFERENCES serving_sizes(id, food_item_id)
);

CREATE INDEX IF NOT EXISTS idx_consumed_foods_meal ON consumed_foods(meal_entry_id);
`,
	},
	{
		version: 3,
		name:    "workouts",
		sql: `
CREATE TABLE IF NOT EXISTS exercises (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  category TEXT NOT NULL,
  met_value REAL CHECK(met_value IS NULL OR met_value > 0),
  muscle_groups TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS workout_sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  performed_at TEXT NOT NULL,
  total_duration_min REAL NOT NULL DEFAULT 0 CHECK(total_duration_min >= 0),
  calories_burned INTEGER NOT NULL DEFAULT 0 CHECK(calories_burned >= 0),
  notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workout_sessions_user_date ON workout_sessions(user_id, performed_at);

CREATE TABLE IF NOT EXISTS exercise_sets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  workout_session_id INTEGER NOT NULL REFERENCES workout_sessions(id) ON DELETE CASCADE,
  exercise_id INTEGER NOT NULL REFERENCES exercises(id),
  position INTEGER NOT NULL,
  intensity TEXT NOT NULL DEFAULT 'moderate',
  duration_min REAL NOT NULL DEFAULT 0 CHECK(duration_min >= 0),
  distance_km REAL,
  calories_burned INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS strength_sets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exercise_set_id INTEGER NOT NULL REFERENCES exercise_sets(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  reps INTEGER NOT NULL CHECK(reps >= 0),
  weight_kg REAL NOT NULL DEFAULT 0 CHECK(weight_kg >= 0),
  rest_sec INTEGER NOT NULL DEFAULT 0
);
`,
	},
	{
		version: 4,
		name:    "weight_entries",
		sql: `
CREATE TABLE IF NOT EXISTS weight_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  measured_at TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_weight_entries_user_date ON weight_entries(user_id, measured_at);
`,
	},
	{
		version: 5,
		name:    "app_state",
		sql: `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS recent_foods (
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  food_item_id INTEGER NOT NULL REFERENCES food_items(id) ON DELETE CASCADE,
  used_at INTEGER NOT NULL,
  PRIMARY KEY(user_id, food_item_id)
);
`,
	},
}

// ApplyMigrations brings the schema up to date and seeds the reference
// catalog on first run. Safe to call on every start.
func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	return SeedCatalog(db)
}

// LatestVersion is the schema version ApplyMigrations converges on.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}
