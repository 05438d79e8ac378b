package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository"
)

// Stats periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"

	DefaultPeriod = PeriodMonth
)

// periodDays is how far back each bounded period reaches from today.
var periodDays = map[string]int{
	PeriodWeek:  7,
	PeriodMonth: 30,
	PeriodYear:  365,
}

// TypeStats aggregates the workouts of one type.
type TypeStats struct {
	Count         int
	TotalDuration int
	TotalCalories int
}

// Stats is the reduction of a set of workouts. Absent optional values
// count as zero.
type Stats struct {
	TotalWorkouts        int
	TotalDurationMinutes int
	TotalCaloriesBurned  int
	TotalDistanceKm      float64
	WorkoutTypes         map[string]TypeStats
}

// PeriodStats is Stats over the window [StartDate, EndDate]. StartDate is
// nil when the window is unbounded.
type PeriodStats struct {
	Stats
	Period    string
	StartDate *time.Time
	EndDate   time.Time
}

// Aggregate reduces workouts to their totals and per-type breakdown.
func Aggregate(workouts []*model.Workout) Stats {
	stats := Stats{WorkoutTypes: make(map[string]TypeStats)}

	for _, w := range workouts {
		stats.TotalWorkouts++
		stats.TotalDurationMinutes += w.DurationMinutes
		stats.TotalCaloriesBurned += w.Calories()
		stats.TotalDistanceKm += w.Distance()

		byType := stats.WorkoutTypes[w.WorkoutType]
		byType.Count++
		byType.TotalDuration += w.DurationMinutes
		byType.TotalCalories += w.Calories()
		stats.WorkoutTypes[w.WorkoutType] = byType
	}

	return stats
}

// Stats aggregates the user's workouts dated on or after the start of
// period. An empty period means DefaultPeriod; an unrecognized one has no
// lower bound and is echoed back unchanged.
func (s *WorkoutService) Stats(ctx context.Context, userID, period string) (*PeriodStats, error) {
	if period == "" {
		period = DefaultPeriod
	}

	today := model.TruncateDate(s.now())
	filter := repository.WorkoutFilter{UserID: userID}

	var start *time.Time
	if days, ok := periodDays[period]; ok {
		from := today.AddDate(0, 0, -days)
		start = &from
		filter.From = &from
	}

	workouts, err := s.store.ListWorkouts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load workouts for stats: %w", err)
	}

	return &PeriodStats{
		Stats:     Aggregate(workouts),
		Period:    period,
		StartDate: start,
		EndDate:   today,
	}, nil
}
