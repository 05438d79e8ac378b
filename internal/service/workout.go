package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository"
	"github.com/oklog/ulid/v2"
)

const maxWorkoutTypeLength = 100

// WorkoutService handles workout business logic. Every operation is scoped
// to the user id it is given.
type WorkoutService struct {
	store   WorkoutStore
	metrics metrics.Recorder
	now     func() time.Time
}

// WorkoutOption customizes a WorkoutService.
type WorkoutOption func(*WorkoutService)

// WithWorkoutClock overrides the time source.
func WithWorkoutClock(now func() time.Time) WorkoutOption {
	return func(s *WorkoutService) {
		s.now = now
	}
}

// NewWorkoutService creates a new WorkoutService.
func NewWorkoutService(store WorkoutStore, recorder metrics.Recorder, opts ...WorkoutOption) *WorkoutService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	s := &WorkoutService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListWorkoutsInput holds the raw query filters. Empty strings are ignored.
type ListWorkoutsInput struct {
	StartDate   string
	EndDate     string
	WorkoutType string
}

// List returns the user's workouts matching input, newest first.
func (s *WorkoutService) List(ctx context.Context, userID string, input ListWorkoutsInput) ([]*model.Workout, error) {
	if err := validText("workout_type", input.WorkoutType); err != nil {
		return nil, err
	}
	filter := repository.WorkoutFilter{
		UserID:      userID,
		WorkoutType: input.WorkoutType,
	}

	if input.StartDate != "" {
		from, err := parseDateField("start_date", input.StartDate)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if input.EndDate != "" {
		to, err := parseDateField("end_date", input.EndDate)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	workouts, err := s.store.ListWorkouts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	return workouts, nil
}

// CreateWorkoutInput defines input for logging a workout. A nil
// DurationMinutes means the field was not supplied.
type CreateWorkoutInput struct {
	Date            string
	WorkoutType     string
	DurationMinutes *int
	CaloriesBurned  *int
	DistanceKm      *float64
	Notes           *string
}

// Create logs a new workout for userID.
func (s *WorkoutService) Create(ctx context.Context, userID string, input CreateWorkoutInput) (*model.Workout, error) {
	if input.Date == "" || strings.TrimSpace(input.WorkoutType) == "" || input.DurationMinutes == nil {
		return nil, invalid("", "date, workout_type and duration_minutes are required")
	}

	date, err := parseDateField("date", input.Date)
	if err != nil {
		return nil, err
	}
	if err := validateWorkoutType(input.WorkoutType); err != nil {
		return nil, err
	}
	if err := validateNumbers(*input.DurationMinutes, input.CaloriesBurned, input.DistanceKm); err != nil {
		return nil, err
	}
	if err := validateNotes(input.Notes); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	workout := &model.Workout{
		ID:              ulid.Make().String(),
		UserID:          userID,
		Date:            date,
		WorkoutType:     input.WorkoutType,
		DurationMinutes: *input.DurationMinutes,
		CaloriesBurned:  input.CaloriesBurned,
		DistanceKm:      input.DistanceKm,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateWorkout(ctx, workout); err != nil {
		return nil, fmt.Errorf("failed to create workout: %w", err)
	}

	s.metrics.IncWorkoutCreated()
	return workout, nil
}

// Get returns one workout owned by userID.
func (s *WorkoutService) Get(ctx context.Context, userID, id string) (*model.Workout, error) {
	workout, err := s.store.GetWorkout(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrWorkoutNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}
	return workout, nil
}

// UpdateWorkoutInput is a partial update. Only fields with Set change.
type UpdateWorkoutInput struct {
	Date            Patch[string]
	WorkoutType     Patch[string]
	DurationMinutes Patch[int]
	CaloriesBurned  Patch[int]
	DistanceKm      Patch[float64]
	Notes           Patch[string]
}

// Update applies a partial update to a workout owned by userID. Required
// fields cannot be cleared; optional fields are cleared by a null value.
func (s *WorkoutService) Update(ctx context.Context, userID, id string, input UpdateWorkoutInput) (*model.Workout, error) {
	workout, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Date.Set {
		if input.Date.Value == nil {
			return nil, invalid("date", "date cannot be null")
		}
		date, err := parseDateField("date", *input.Date.Value)
		if err != nil {
			return nil, err
		}
		workout.Date = date
	}
	if input.WorkoutType.Set {
		if input.WorkoutType.Value == nil {
			return nil, invalid("workout_type", "workout_type cannot be null")
		}
		if err := validateWorkoutType(*input.WorkoutType.Value); err != nil {
			return nil, err
		}
		workout.WorkoutType = *input.WorkoutType.Value
	}
	if input.DurationMinutes.Set {
		if input.DurationMinutes.Value == nil {
			return nil, invalid("duration_minutes", "duration_minutes cannot be null")
		}
		workout.DurationMinutes = *input.DurationMinutes.Value
	}
	if input.CaloriesBurned.Set {
		workout.CaloriesBurned = input.CaloriesBurned.Value
	}
	if input.DistanceKm.Set {
		workout.DistanceKm = input.DistanceKm.Value
	}
	if input.Notes.Set {
		if err := validateNotes(input.Notes.Value); err != nil {
			return nil, err
		}
		workout.Notes = input.Notes.Value
	}

	if err := validateNumbers(workout.DurationMinutes, workout.CaloriesBurned, workout.DistanceKm); err != nil {
		return nil, err
	}

	workout.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateWorkout(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrWorkoutNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to update workout: %w", err)
	}

	s.metrics.IncWorkoutUpdated()
	return workout, nil
}

// Delete removes a workout owned by userID.
func (s *WorkoutService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteWorkout(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrWorkoutNotFound) {
			return ErrWorkoutNotFound
		}
		return fmt.Errorf("failed to delete workout: %w", err)
	}

	s.metrics.IncWorkoutDeleted()
	return nil
}

func parseDateField(field, value string) (time.Time, error) {
	date, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, invalid(field, field+" must be a date in YYYY-MM-DD format")
	}
	return date, nil
}

func validateWorkoutType(workoutType string) error {
	if strings.TrimSpace(workoutType) == "" {
		return invalid("workout_type", "workout_type must not be blank")
	}
	if err := validText("workout_type", workoutType); err != nil {
		return err
	}
	if utf8.RuneCountInString(workoutType) > maxWorkoutTypeLength {
		return invalid("workout_type", fmt.Sprintf("workout_type must be at most %d characters", maxWorkoutTypeLength))
	}
	return nil
}

func validateNotes(notes *string) error {
	if notes == nil {
		return nil
	}
	return validText("notes", *notes)
}

// validateNumbers keeps integers within the range of the INTEGER columns.
func validateNumbers(duration int, calories *int, distance *float64) error {
	if duration < 0 {
		return invalid("duration_minutes", "duration_minutes must not be negative")
	}
	if duration > math.MaxInt32 {
		return invalid("duration_minutes", fmt.Sprintf("duration_minutes must be at most %d", math.MaxInt32))
	}
	if calories != nil && *calories < 0 {
		return invalid("calories_burned", "calories_burned must not be negative")
	}
	if calories != nil && *calories > math.MaxInt32 {
		return invalid("calories_burned", fmt.Sprintf("calories_burned must be at most %d", math.MaxInt32))
	}
	if distance != nil && *distance < 0 {
		return invalid("distance_km", "distance_km must not be negative")
	}
	return nil
}
