// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fitjournal/fitjournal/internal/handler/dto"
	"github.com/fitjournal/fitjournal/internal/middleware"
	"github.com/fitjournal/fitjournal/internal/service"
)

// Service identity reported by the info endpoints.
const (
	ServiceName    = "Fitness Journal"
	ServiceVersion = "1.0"
)

const msgInternalError = "internal server error"

// Handler serves the unauthenticated utility routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Info reports the service name and version.
// GET / and GET /api/health
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure means the client went away.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a {"error": message} response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// decodeJSON reads a JSON body into dst. On failure it writes the error
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "request body is required")
	default:
		writeError(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}

// writeServiceError maps service errors to HTTP responses. Unexpected
// errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, service.ErrUsernameTaken.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, service.ErrEmailTaken.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, service.ErrWorkoutNotFound.Error())
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}
