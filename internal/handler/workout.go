package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitjournal/fitjournal/internal/handler/dto"
	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/service"
)

// WorkoutHandler handles HTTP requests for workouts and stats. Every
// method receives the authenticated user; mount them with
// middleware.WithUser behind middleware.Authenticate.
type WorkoutHandler struct {
	svc    *service.WorkoutService
	logger *slog.Logger
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(svc *service.WorkoutService, logger *slog.Logger) *WorkoutHandler {
	return &WorkoutHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/workouts.
func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request, user *model.User) {
	query := r.URL.Query()
	workouts, err := h.svc.List(r.Context(), user.ID, service.ListWorkoutsInput{
		StartDate:   query.Get("start_date"),
		EndDate:     query.Get("end_date"),
		WorkoutType: query.Get("workout_type"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWorkoutList(workouts))
}

// Create handles POST /api/workouts.
func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request, user *model.User) {
	var req dto.CreateWorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.CreateWorkoutInput{
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  req.CaloriesBurned,
		DistanceKm:      req.DistanceKm,
		Notes:           req.Notes,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	if req.WorkoutType != nil {
		input.WorkoutType = *req.WorkoutType
	}

	workout, err := h.svc.Create(r.Context(), user.ID, input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("workout_created",
		"workout_id", workout.ID,
		"user_id", user.ID,
	)

	writeJSON(w, http.StatusCreated, dto.ToWorkoutResponse(workout))
}

// Get handles GET /api/workouts/{id}.
func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request, user *model.User) {
	workout, err := h.svc.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWorkoutResponse(workout))
}

// Update handles PUT /api/workouts/{id}.
func (h *WorkoutHandler) Update(w http.ResponseWriter, r *http.Request, user *model.User) {
	var req dto.UpdateWorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workout, err := h.svc.Update(r.Context(), user.ID, chi.URLParam(r, "id"), service.UpdateWorkoutInput{
		Date:            patch(req.Date),
		WorkoutType:     patch(req.WorkoutType),
		DurationMinutes: patch(req.DurationMinutes),
		CaloriesBurned:  patch(req.CaloriesBurned),
		DistanceKm:      patch(req.DistanceKm),
		Notes:           patch(req.Notes),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("workout_updated",
		"workout_id", workout.ID,
		"user_id", user.ID,
	)

	writeJSON(w, http.StatusOK, dto.ToWorkoutResponse(workout))
}

// Delete handles DELETE /api/workouts/{id}.
func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request, user *model.User) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("workout_deleted",
		"workout_id", id,
		"user_id", user.ID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "workout deleted"})
}

// Stats handles GET /api/stats.
func (h *WorkoutHandler) Stats(w http.ResponseWriter, r *http.Request, user *model.User) {
	stats, err := h.svc.Stats(r.Context(), user.ID, r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStatsResponse(stats))
}

func patch[T any](n dto.Nullable[T]) service.Patch[T] {
	return service.Patch[T]{Set: n.Set, Value: n.Value}
}
