// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql driver for goose
	"github.com/oklog/ulid/v2"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema rolls all migrations back and reapplies them, leaving empty
// tables.
func ResetSchema(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	return migrations.Reset(ctx, db)
}

// NewTestUser creates a user with sensible defaults. The password hash is a
// placeholder and does not verify.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$placeholder$placeholder",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestWorkout creates a workout for userID on date (YYYY-MM-DD).
func NewTestWorkout(t testing.TB, userID, date, workoutType string, minutes int) *model.Workout {
	t.Helper()
	day, err := model.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Workout{
		ID:              ulid.Make().String(),
		UserID:          userID,
		Date:            day,
		WorkoutType:     workoutType,
		DurationMinutes: minutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UniqueName generates a unique name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
