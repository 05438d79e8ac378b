// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository"
)

// Service errors.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrWorkoutNotFound    = errors.New("workout not found")
)

// ValidationError reports a request that failed input validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// validText rejects strings PostgreSQL cannot store in a text column:
// invalid UTF-8 and NUL bytes.
func validText(field, value string) error {
	if !utf8.ValidString(value) || strings.ContainsRune(value, 0) {
		return invalid(field, field+" contains invalid characters")
	}
	return nil
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// WorkoutStore persists workouts. Every method is scoped to one user.
type WorkoutStore interface {
	CreateWorkout(ctx context.Context, w *model.Workout) error
	GetWorkout(ctx context.Context, userID, id string) (*model.Workout, error)
	ListWorkouts(ctx context.Context, filter repository.WorkoutFilter) ([]*model.Workout, error)
	UpdateWorkout(ctx context.Context, w *model.Workout) error
	DeleteWorkout(ctx context.Context, userID, id string) error
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Patch is one field of a partial update. Set reports whether the field
// was present at all; a present field with a nil Value was explicitly null.
type Patch[T any] struct {
	Set   bool
	Value *T
}
