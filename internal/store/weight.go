package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
)

type WeightEntryInput struct {
	UserID     string
	WeightKg   float64
	MeasuredAt time.Time
	Notes      string
}

// AddWeightEntry records a measurement. When it is the newest one for the
// user, the profile's current weight follows it.
func (s *Store) AddWeightEntry(ctx context.Context, in WeightEntryInput) (model.WeightEntry, error) {
	entry, err := newWeightEntry(in)
	if err != nil {
		return model.WeightEntry{}, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		return insertWeightEntry(ctx, tx, &entry)
	})
	if err != nil {
		return model.WeightEntry{}, err
	}
	return entry, nil
}

func newWeightEntry(in WeightEntryInput) (model.WeightEntry, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return model.WeightEntry{}, fmt.Errorf("user id is required")
	}
	if err := validatePositiveFloat("weight", in.WeightKg); err != nil {
		return model.WeightEntry{}, err
	}
	if in.MeasuredAt.IsZero() {
		in.MeasuredAt = time.Now()
	}
	return model.WeightEntry{
		UserID:     in.UserID,
		WeightKg:   in.WeightKg,
		MeasuredAt: in.MeasuredAt.UTC().Truncate(time.Second),
		Notes:      strings.TrimSpace(in.Notes),
	}, nil
}

func insertWeightEntry(ctx context.Context, tx *sql.Tx, entry *model.WeightEntry) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO weight_entries(user_id, weight_kg, measured_at, notes) VALUES(?, ?, ?, ?)`,
		entry.UserID, entry.WeightKg, formatTime(entry.MeasuredAt), entry.Notes)
	if err != nil {
		return fmt.Errorf("add weight entry: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("resolve weight entry id: %w", err)
	}
	return syncCurrentWeight(ctx, tx, entry.UserID)
}

func (s *Store) DeleteWeightEntry(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var userID string
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM weight_entries WHERE id = ?`, id).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("weight entry %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup weight entry %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM weight_entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete weight entry %d: %w", id, err)
		}
		return syncCurrentWeight(ctx, tx, userID)
	})
}

// ListWeightEntries returns entries newest first; limit <= 0 means all.
func (s *Store) ListWeightEntries(ctx context.Context, userID string, limit int) ([]model.WeightEntry, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, weight_kg, measured_at, notes FROM weight_entries WHERE user_id = ? ORDER BY measured_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	defer rows.Close()

	out := make([]model.WeightEntry, 0)
	for rows.Next() {
		e, err := scanWeight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight entries: %w", err)
	}
	return out, nil
}

func (s *Store) LatestWeight(ctx context.Context, userID string) (model.WeightEntry, error) {
	return s.edgeWeight(ctx, userID, "DESC")
}

func (s *Store) FirstWeight(ctx context.Context, userID string) (model.WeightEntry, error) {
	return s.edgeWeight(ctx, userID, "ASC")
}

func (s *Store) edgeWeight(ctx context.Context, userID, dir string) (model.WeightEntry, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.WeightEntry{}, err
	}
	e, err := scanWeight(sqldb.QueryRowContext(ctx, `
SELECT id, user_id, weight_kg, measured_at, notes FROM weight_entries
WHERE user_id = ? ORDER BY measured_at `+dir+`, id `+dir+` LIMIT 1
`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.WeightEntry{}, fmt.Errorf("weight entries for %q: %w", userID, ErrNotFound)
	}
	return e, err
}

func syncCurrentWeight(ctx context.Context, q querier, userID string) error {
	var latest float64
	err := q.QueryRowContext(ctx, `
SELECT weight_kg FROM weight_entries WHERE user_id = ? ORDER BY measured_at DESC, id DESC LIMIT 1
`, userID).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup latest weight: %w", err)
	}
	if _, err := q.ExecContext(ctx, `UPDATE users SET current_weight_kg = ?, updated_at = ? WHERE id = ?`,
		latest, formatTime(time.Now()), userID); err != nil {
		return fmt.Errorf("update current weight: %w", err)
	}
	return nil
}

func scanWeight(row rowScanner) (model.WeightEntry, error) {
	var e model.WeightEntry
	var measuredAt string
	if err := row.Scan(&e.ID, &e.UserID, &e.WeightKg, &measuredAt, &e.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.WeightEntry{}, err
		}
		return model.WeightEntry{}, fmt.Errorf("scan weight entry: %w", err)
	}
	t, err := parseTime(measuredAt)
	if err != nil {
		return model.WeightEntry{}, err
	}
	e.MeasuredAt = t
	return e, nil
}
