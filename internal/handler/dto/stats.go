package dto

import (
	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/service"
)

// TypeStatsResponse aggregates one workout type.
type TypeStatsResponse struct {
	Count         int `json:"count"`
	TotalDuration int `json:"total_duration"`
	TotalCalories int `json:"total_calories"`
}

// StatsResponse represents aggregated workout statistics.
type StatsResponse struct {
	TotalWorkouts        int                          `json:"total_workouts"`
	TotalDurationMinutes int                          `json:"total_duration_minutes"`
	TotalCaloriesBurned  int                          `json:"total_calories_burned"`
	TotalDistanceKm      float64                      `json:"total_distance_km"`
	WorkoutTypes         map[string]TypeStatsResponse `json:"workout_types"`
	Period               string                       `json:"period"`
	StartDate            *string                      `json:"start_date"`
	EndDate              string                       `json:"end_date"`
}

// ToStatsResponse converts period stats to StatsResponse DTO.
func ToStatsResponse(stats *service.PeriodStats) *StatsResponse {
	types := make(map[string]TypeStatsResponse, len(stats.WorkoutTypes))
	for name, t := range stats.WorkoutTypes {
		types[name] = TypeStatsResponse{
			Count:         t.Count,
			TotalDuration: t.TotalDuration,
			TotalCalories: t.TotalCalories,
		}
	}

	var start *string
	if stats.StartDate != nil {
		s := model.FormatDate(*stats.StartDate)
		start = &s
	}

	return &StatsResponse{
		TotalWorkouts:        stats.TotalWorkouts,
		TotalDurationMinutes: stats.TotalDurationMinutes,
		TotalCaloriesBurned:  stats.TotalCaloriesBurned,
		TotalDistanceKm:      stats.TotalDistanceKm,
		WorkoutTypes:         types,
		Period:               stats.Period,
		StartDate:            start,
		EndDate:              model.FormatDate(stats.EndDate),
	}
}
