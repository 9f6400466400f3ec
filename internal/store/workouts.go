package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
)

func (s *Store) ListExercises(ctx context.Context) ([]model.Exercise, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := sqldb.QueryContext(ctx, `SELECT id, name, category, met_value, muscle_groups FROM exercises ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	out := make([]model.Exercise, 0)
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}
	return out, nil
}

func (s *Store) GetExercise(ctx context.Context, id int64) (model.Exercise, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.Exercise{}, err
	}
	e, err := scanExercise(sqldb.QueryRowContext(ctx, `SELECT id, name, category, met_value, muscle_groups FROM exercises WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exercise{}, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Exercise{}, err
	}
	return e, nil
}

func scanExercise(row rowScanner) (model.Exercise, error) {
	var e model.Exercise
	var category, groups string
	var met sql.NullFloat64
	if err := row.Scan(&e.ID, &e.Name, &category, &met, &groups); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Exercise{}, err
		}
		return model.Exercise{}, fmt.Errorf("scan exercise: %w", err)
	}
	e.Category = model.ExerciseCategory(category)
	if met.Valid {
		v := met.Float64
		e.METValue = &v
	}
	if err := json.Unmarshal([]byte(groups), &e.MuscleGroups); err != nil {
		return model.Exercise{}, fmt.Errorf("decode muscle groups for %s: %w", e.Name, err)
	}
	return e, nil
}

type WorkoutInput struct {
	UserID      string
	PerformedAt time.Time
	Notes       string
	Exercises   []model.ExerciseSet
}

type WorkoutFilter struct {
	UserID string
	From   time.Time
	To     time.Time
	Limit  int
}

// CreateWorkout stores a session with its exercise and strength sets. Session
// duration and calories are the sums over the exercise sets.
func (s *Store) CreateWorkout(ctx context.Context, in WorkoutInput) (model.WorkoutSession, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return model.WorkoutSession{}, fmt.Errorf("user id is required")
	}
	if len(in.Exercises) == 0 {
		return model.WorkoutSession{}, fmt.Errorf("at least one exercise is required")
	}
	if in.PerformedAt.IsZero() {
		in.PerformedAt = time.Now()
	}
	in.PerformedAt = in.PerformedAt.UTC().Truncate(time.Second)

	ws := model.WorkoutSession{
		UserID:      in.UserID,
		PerformedAt: in.PerformedAt,
		Notes:       strings.TrimSpace(in.Notes),
		Exercises:   make([]model.ExerciseSet, 0, len(in.Exercises)),
	}
	for _, set := range in.Exercises {
		if err := validateNonNegativeFloat("duration", set.DurationMin); err != nil {
			return model.WorkoutSession{}, err
		}
		if set.CaloriesBurned < 0 {
			return model.WorkoutSession{}, fmt.Errorf("calories burned must be >= 0")
		}
		if set.Intensity == "" {
			set.Intensity = model.IntensityModerate
		}
		ws.TotalDuration += set.DurationMin
		ws.CaloriesBurned += set.CaloriesBurned
		ws.Exercises = append(ws.Exercises, set)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO workout_sessions(user_id, performed_at, total_duration_min, calories_burned, notes, created_at)
VALUES(?, ?, ?, ?, ?, ?)
`, ws.UserID, formatTime(ws.PerformedAt), ws.TotalDuration, ws.CaloriesBurned, ws.Notes, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("create workout: %w", err)
		}
		if ws.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("resolve workout id: %w", err)
		}
		for i := range ws.Exercises {
			set := &ws.Exercises[i]
			res, err := tx.ExecContext(ctx, `
INSERT INTO exercise_sets(workout_session_id, exercise_id, position, intensity, duration_min, distance_km, calories_burned)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, ws.ID, set.ExerciseID, i, string(set.Intensity), set.DurationMin, set.DistanceKm, set.CaloriesBurned)
			if err != nil {
				return fmt.Errorf("create exercise set for exercise %d: %w", set.ExerciseID, err)
			}
			if set.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("resolve exercise set id: %w", err)
			}
			for j := range set.Sets {
				st := &set.Sets[j]
				res, err := tx.ExecContext(ctx, `
INSERT INTO strength_sets(exercise_set_id, position, reps, weight_kg, rest_sec) VALUES(?, ?, ?, ?, ?)
`, set.ID, j, st.Reps, st.WeightKg, st.RestSec)
				if err != nil {
					return fmt.Errorf("create strength set: %w", err)
				}
				if st.ID, err = res.LastInsertId(); err != nil {
					return fmt.Errorf("resolve strength set id: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return model.WorkoutSession{}, err
	}
	return ws, nil
}

func (s *Store) GetWorkout(ctx context.Context, id int64) (model.WorkoutSession, error) {
	sqldb, err := s.conn()
	if err != nil {
		return model.WorkoutSession{}, err
	}
	items, err := queryWorkouts(ctx, sqldb, `
SELECT id, user_id, performed_at, total_duration_min, calories_burned, notes FROM workout_sessions WHERE id = ?
`, id)
	if err != nil {
		return model.WorkoutSession{}, err
	}
	if len(items) == 0 {
		return model.WorkoutSession{}, fmt.Errorf("workout %d: %w", id, ErrNotFound)
	}
	return items[0], nil
}

// ListWorkouts returns sessions newest first. Zero From/To leave that side
// of the range open.
func (s *Store) ListWorkouts(ctx context.Context, f WorkoutFilter) ([]model.WorkoutSession, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, performed_at, total_duration_min, calories_burned, notes FROM workout_sessions WHERE user_id = ?`
	args := []any{f.UserID}
	if !f.From.IsZero() {
		query += ` AND performed_at >= ?`
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND performed_at < ?`
		args = append(args, formatTime(f.To))
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	query += ` ORDER BY performed_at DESC, id DESC LIMIT ?`
	args = append(args, f.Limit)
	return queryWorkouts(ctx, sqldb, query, args...)
}

func (s *Store) DeleteWorkout(ctx context.Context, id int64) error {
	sqldb, err := s.conn()
	if err != nil {
		return err
	}
	res, err := sqldb.ExecContext(ctx, `DELETE FROM workout_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete workout %d: %w", id, err)
	}
	return checkAffected(res, fmt.Sprintf("workout %d", id))
}

func queryWorkouts(ctx context.Context, q querier, query string, args ...any) ([]model.WorkoutSession, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	sessions := make([]model.WorkoutSession, 0)
	for rows.Next() {
		var ws model.WorkoutSession
		var performedAt string
		if err := rows.Scan(&ws.ID, &ws.UserID, &performedAt, &ws.TotalDuration, &ws.CaloriesBurned, &ws.Notes); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		if ws.PerformedAt, err = parseTime(performedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ws.Exercises = make([]model.ExerciseSet, 0)
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}
	_ = rows.Close()
	if err := hydrateExerciseSets(ctx, q, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func hydrateExerciseSets(ctx context.Context, q querier, sessions []model.WorkoutSession) error {
	if len(sessions) == 0 {
		return nil
	}
	sessionIndex := make(map[int64]int, len(sessions))
	args := make([]any, 0, len(sessions))
	for i, ws := range sessions {
		sessionIndex[ws.ID] = i
		args = append(args, ws.ID)
	}
	rows, err := q.QueryContext(ctx, `
SELECT es.id, es.workout_session_id, es.exercise_id, e.name, es.intensity, es.duration_min, es.distance_km, es.calories_burned
FROM exercise_sets es JOIN exercises e ON e.id = es.exercise_id
WHERE es.workout_session_id IN (`+placeholders(len(args))+`)
ORDER BY es.workout_session_id ASC, es.position ASC
`, args...)
	if err != nil {
		return fmt.Errorf("list exercise sets: %w", err)
	}
	type setRef struct{ session, set int }
	setIndex := map[int64]setRef{}
	setArgs := make([]any, 0)
	for rows.Next() {
		var set model.ExerciseSet
		var sessionID int64
		var intensity string
		var distance sql.NullFloat64
		if err := rows.Scan(&set.ID, &sessionID, &set.ExerciseID, &set.ExerciseName, &intensity, &set.DurationMin, &distance, &set.CaloriesBurned); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan exercise set: %w", err)
		}
		set.Intensity = model.Intensity(intensity)
		if distance.Valid {
			v := distance.Float64
			set.DistanceKm = &v
		}
		si := sessionIndex[sessionID]
		setIndex[set.ID] = setRef{session: si, set: len(sessions[si].Exercises)}
		sessions[si].Exercises = append(sessions[si].Exercises, set)
		setArgs = append(setArgs, set.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate exercise sets: %w", err)
	}
	_ = rows.Close()
	if len(setArgs) == 0 {
		return nil
	}

	srows, err := q.QueryContext(ctx, `
SELECT id, exercise_set_id, reps, weight_kg, rest_sec FROM strength_sets
WHERE exercise_set_id IN (`+placeholders(len(setArgs))+`)
ORDER BY exercise_set_id ASC, position ASC
`, setArgs...)
	if err != nil {
		return fmt.Errorf("list strength sets: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var st model.StrengthSet
		var setID int64
		if err := srows.Scan(&st.ID, &setID, &st.Reps, &st.WeightKg, &st.RestSec); err != nil {
			return fmt.Errorf("scan strength set: %w", err)
		}
		ref := setIndex[setID]
		set := &sessions[ref.session].Exercises[ref.set]
		set.Sets = append(set.Sets, st)
	}
	if err := srows.Err(); err != nil {
		return fmt.Errorf("iterate strength sets: %w", err)
	}
	return nil
}
