package dto

import (
	"time"

	"github.com/fitjournal/fitjournal/internal/model"
)

// CreateWorkoutRequest represents the request body for logging a workout.
// Pointers tell a missing required field apart from a zero value.
type CreateWorkoutRequest struct {
	Date            *string  `json:"date"`
	WorkoutType     *string  `json:"workout_type"`
	DurationMinutes *int     `json:"duration_minutes"`
	CaloriesBurned  *int     `json:"calories_burned"`
	DistanceKm      *float64 `json:"distance_km"`
	Notes           *string  `json:"notes"`
}

// UpdateWorkoutRequest represents a partial update. Only keys present in
// the body are applied.
type UpdateWorkoutRequest struct {
	Date            Nullable[string]  `json:"date"`
	WorkoutType     Nullable[string]  `json:"workout_type"`
	DurationMinutes Nullable[int]     `json:"duration_minutes"`
	CaloriesBurned  Nullable[int]     `json:"calories_burned"`
	DistanceKm      Nullable[float64] `json:"distance_km"`
	Notes           Nullable[string]  `json:"notes"`
}

// WorkoutResponse represents a workout in API responses. Absent optional
// values are rendered as null.
type WorkoutResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            string    `json:"date"`
	WorkoutType     string    `json:"workout_type"`
	DurationMinutes int       `json:"duration_minutes"`
	CaloriesBurned  *int      `json:"calories_burned"`
	DistanceKm      *float64  `json:"distance_km"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToWorkoutResponse converts a Workout model to WorkoutResponse DTO.
func ToWorkoutResponse(w *model.Workout) *WorkoutResponse {
	return &WorkoutResponse{
		ID:              w.ID,
		UserID:          w.UserID,
		Date:            model.FormatDate(w.Date),
		WorkoutType:     w.WorkoutType,
		DurationMinutes: w.DurationMinutes,
		CaloriesBurned:  w.CaloriesBurned,
		DistanceKm:      w.DistanceKm,
		Notes:           w.Notes,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

// ToWorkoutList converts workouts to responses. The result is never nil so
// an empty list encodes as [].
func ToWorkoutList(workouts []*model.Workout) []*WorkoutResponse {
	out := make([]*WorkoutResponse, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, ToWorkoutResponse(w))
	}
	return out
}
