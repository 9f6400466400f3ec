// Package store is the device-local persistence layer. A Store wraps one
// SQLite handle; every accessor fails with ErrNotInitialized until Initialize
// has applied the schema and seeded the reference catalog.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bthaas/intelifit/internal/db"
	"github.com/bthaas/intelifit/internal/logging"
	"github.com/bthaas/intelifit/internal/model"
)

var (
	ErrNotInitialized = errors.New("database not initialized")
	ErrNotFound       = errors.New("not found")
)

type Store struct {
	db     *sql.DB
	log    *zap.Logger
	initMu sync.Mutex
	ready  atomic.Bool
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(path string, logger *zap.Logger) (*Store, error) {
	sqldb, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return New(sqldb, logger), nil
}

// New wraps an already opened handle. The caller still has to Initialize.
func New(sqldb *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: sqldb, log: logging.OrNop(logger)}
}

// Initialize applies migrations and seeds the catalog. Repeat calls are no-ops.
func (s *Store) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.ApplyMigrations(s.db); err != nil {
		return err
	}
	s.ready.Store(true)
	s.log.Debug("store initialized", zap.Int("schema_version", db.LatestVersion()))
	return nil
}

func (s *Store) Close() error {
	s.ready.Store(false)
	return s.db.Close()
}

func (s *Store) conn() (*sql.DB, error) {
	if !s.ready.Load() {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func (s *Store) withTx(ctx context.Context, run func(tx *sql.Tx) error) error {
	sqldb, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := run(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

const dateLayout = "2006-01-02"

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}

func validateNonNegativeFloat(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func validatePositiveFloat(name string, value float64) error {
	if err := validateNonNegativeFloat(name, value); err != nil {
		return err
	}
	if value == 0 {
		return fmt.Errorf("%s must be > 0", name)
	}
	return nil
}

func validateNutrition(n model.Nutrition) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", n.Calories},
		{"protein", n.ProteinG},
		{"carbs", n.CarbsG},
		{"fat", n.FatG},
		{"fiber", n.FiberG},
		{"sugar", n.SugarG},
		{"sodium", n.SodiumMg},
		{"cholesterol", n.CholesterolMg},
	}
	for _, f := range fields {
		if err := validateNonNegativeFloat(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func checkAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve %s rows affected: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
