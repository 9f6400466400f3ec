package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
)

type DayDrift struct {
	DailyID  int64
	UserID   string
	Date     string
	Stored   model.Nutrition
	Computed model.Nutrition
}

type DoctorReport struct {
	DriftedDays  []DayDrift
	EmptyMeals   int
	FixedDays    int
	RemovedMeals int
}

func (r DoctorReport) Healthy() bool {
	return len(r.DriftedDays) == 0 && r.EmptyMeals == 0
}

// RunDoctor compares each day's stored totals with the sum of its consumed
// foods and counts meal entries without foods. With fix set both are repaired.
func (s *Store) RunDoctor(ctx context.Context, fix bool) (DoctorReport, error) {
	sqldb, err := s.conn()
	if err != nil {
		return DoctorReport{}, err
	}
	report := DoctorReport{DriftedDays: make([]DayDrift, 0)}

	rows, err := sqldb.QueryContext(ctx, `
SELECT id, user_id, date, calorie_goal, water_ml, notes, `+totalColumns+` FROM daily_nutrition ORDER BY user_id, date
`)
	if err != nil {
		return report, fmt.Errorf("doctor daily query: %w", err)
	}
	days := make([]model.DailyNutrition, 0)
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor daily scan: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, fmt.Errorf("doctor daily iterate: %w", err)
	}
	_ = rows.Close()

	for _, d := range days {
		items, err := consumedSnapshots(ctx, sqldb, d.ID)
		if err != nil {
			return report, err
		}
		computed := nutrition.Sum(items...)
		if computed != d.Total {
			report.DriftedDays = append(report.DriftedDays, DayDrift{
				DailyID: d.ID, UserID: d.UserID, Date: d.Date, Stored: d.Total, Computed: computed,
			})
		}
	}

	if err := sqldb.QueryRowContext(ctx, `
SELECT COUNT(1) FROM meal_entries m
WHERE NOT EXISTS (SELECT 1 FROM consumed_foods c WHERE c.meal_entry_id = m.id)
`).Scan(&report.EmptyMeals); err != nil {
		return report, fmt.Errorf("doctor empty meal query: %w", err)
	}

	if !fix || report.Healthy() {
		return report, nil
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, drift := range report.DriftedDays {
			if err := recomputeTotals(ctx, tx, drift.DailyID); err != nil {
				return fmt.Errorf("doctor fix day %s: %w", drift.Date, err)
			}
			report.FixedDays++
		}
		res, err := tx.ExecContext(ctx, `
DELETE FROM meal_entries WHERE NOT EXISTS (SELECT 1 FROM consumed_foods c WHERE c.meal_entry_id = meal_entries.id)
`)
		if err != nil {
			return fmt.Errorf("doctor fix empty meals: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("doctor fix empty meals: %w", err)
		}
		report.RemovedMeals = int(removed)
		return nil
	})
	return report, err
}
