package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/jackc/pgx/v5"
)

// ErrWorkoutNotFound is returned when a workout does not exist or belongs
// to another user.
var ErrWorkoutNotFound = errors.New("workout not found")

// WorkoutFilter narrows ListWorkouts to one user's workouts. From and To are
// inclusive calendar dates; a nil bound is open.
type WorkoutFilter struct {
	UserID      string
	From        *time.Time
	To          *time.Time
	WorkoutType string
}

const workoutColumns = `id, user_id, date, workout_type, duration_minutes,
	calories_burned, distance_km, notes, created_at, updated_at`

// CreateWorkout inserts a new workout.
func (r *Repository) CreateWorkout(ctx context.Context, w *model.Workout) error {
	query := `
		INSERT INTO workouts (` + workoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.Date,
		w.WorkoutType,
		w.DurationMinutes,
		w.CaloriesBurned,
		w.DistanceKm,
		w.Notes,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}

	return nil
}

// GetWorkout retrieves a workout owned by userID.
func (r *Repository) GetWorkout(ctx context.Context, userID, id string) (*model.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE id = $1 AND user_id = $2`

	w, err := scanWorkout(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}

	return w, nil
}

// ListWorkouts returns the filtered workouts, newest date first.
func (r *Repository) ListWorkouts(ctx context.Context, filter WorkoutFilter) ([]*model.Workout, error) {
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	if filter.WorkoutType != "" {
		args = append(args, filter.WorkoutType)
		conditions = append(conditions, fmt.Sprintf("workout_type = $%d", len(args)))
	}

	query := `SELECT ` + workoutColumns + ` FROM workouts
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY date DESC, created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	workouts := make([]*model.Workout, 0)
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workouts: %w", err)
	}

	return workouts, nil
}

// UpdateWorkout overwrites the mutable fields of a workout owned by
// w.UserID.
func (r *Repository) UpdateWorkout(ctx context.Context, w *model.Workout) error {
	query := `
		UPDATE workouts
		SET date = $3,
		    workout_type = $4,
		    duration_minutes = $5,
		    calories_burned = $6,
		    distance_km = $7,
		    notes = $8,
		    updated_at = $9
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.Date,
		w.WorkoutType,
		w.DurationMinutes,
		w.CaloriesBurned,
		w.DistanceKm,
		w.Notes,
		w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update workout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

// DeleteWorkout removes a workout owned by userID.
func (r *Repository) DeleteWorkout(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

func scanWorkout(row pgx.Row) (*model.Workout, error) {
	var w model.Workout
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Date,
		&w.WorkoutType,
		&w.DurationMinutes,
		&w.CaloriesBurned,
		&w.DistanceKm,
		&w.Notes,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Date = model.TruncateDate(w.Date)
	return &w, nil
}
