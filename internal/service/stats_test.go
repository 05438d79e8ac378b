package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/testutil"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	first := testutil.NewTestWorkout(t, "u", "2024-01-15", "Бег", 30)
	first.CaloriesBurned = testutil.Ptr(100)
	second := testutil.NewTestWorkout(t, "u", "2024-01-16", "Бег", 20)
	swim := testutil.NewTestWorkout(t, "u", "2024-01-17", "swim", 40)
	swim.CaloriesBurned = testutil.Ptr(250)
	swim.DistanceKm = testutil.Ptr(1.5)

	stats := Aggregate([]*model.Workout{first, second, swim})

	assert.Equal(t, 3, stats.TotalWorkouts)
	assert.Equal(t, 90, stats.TotalDurationMinutes)
	assert.Equal(t, 350, stats.TotalCaloriesBurned)
	assert.InDelta(t, 1.5, stats.TotalDistanceKm, 1e-9)
	assert.Equal(t, map[string]TypeStats{
		"Бег":  {Count: 2, TotalDuration: 50, TotalCalories: 100},
		"swim": {Count: 1, TotalDuration: 40, TotalCalories: 250},
	}, stats.WorkoutTypes)
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	stats := Aggregate(nil)

	assert.Zero(t, stats.TotalWorkouts)
	assert.Zero(t, stats.TotalDistanceKm)
	assert.NotNil(t, stats.WorkoutTypes)
	assert.Empty(t, stats.WorkoutTypes)
}

func TestStats_Periods(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)
	f := newWorkoutFixture(t, now)
	ctx := context.Background()

	for _, date := range []string{
		"2024-06-29", // within a week
		"2024-06-23", // exactly seven days back
		"2024-06-10", // within a month
		"2024-01-15", // within a year
		"2022-01-01", // older than a year
	} {
		_, err := f.svc.Create(ctx, f.alice.ID, CreateWorkoutInput{
			Date: date, WorkoutType: "run", DurationMinutes: testutil.Ptr(10),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.bob.ID, CreateWorkoutInput{
		Date: "2024-06-29", WorkoutType: "run", DurationMinutes: testutil.Ptr(10),
	})
	require.NoError(t, err)

	tests := []struct {
		period    string
		wantCount int
		wantStart string
		wantEcho  string
	}{
		{"week", 2, "2024-06-23", "week"},
		{"month", 3, "2024-05-31", "month"},
		{"", 3, "2024-05-31", "month"},
		{"year", 4, "2023-07-01", "year"},
		{"all", 5, "", "all"},
		{"fortnight", 5, "", "fortnight"},
	}

	for _, tt := range tests {
		t.Run(tt.wantEcho+"/"+tt.period, func(t *testing.T) {
			stats, err := f.svc.Stats(ctx, f.alice.ID, tt.period)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCount, stats.TotalWorkouts)
			assert.Equal(t, tt.wantEcho, stats.Period)
			assert.Equal(t, "2024-06-30", model.FormatDate(stats.EndDate))
			if tt.wantStart == "" {
				assert.Nil(t, stats.StartDate)
			} else {
				require.NotNil(t, stats.StartDate)
				assert.Equal(t, tt.wantStart, model.FormatDate(*stats.StartDate))
			}
		})
	}
}

func TestStats_TwoRuns(t *testing.T) {
	t.Parallel()

	f := newWorkoutFixture(t, time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice.ID, CreateWorkoutInput{
		Date: "2024-01-15", WorkoutType: "Бег", DurationMinutes: testutil.Ptr(30), CaloriesBurned: testutil.Ptr(100),
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.alice.ID, CreateWorkoutInput{
		Date: "2024-01-16", WorkoutType: "Бег", DurationMinutes: testutil.Ptr(20),
	})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.alice.ID, "all")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalWorkouts)
	assert.Equal(t, 50, stats.TotalDurationMinutes)
	assert.Equal(t, 100, stats.TotalCaloriesBurned)
	assert.Equal(t, TypeStats{Count: 2, TotalDuration: 50, TotalCalories: 100}, stats.WorkoutTypes["Бег"])
}
