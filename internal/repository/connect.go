package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// ErrInvalidDatabaseURL is returned when the connection string cannot be
// parsed. Connect does not retry it.
var ErrInvalidDatabaseURL = errors.New("invalid database URL")

// connectDelays are the waits between startup connection attempts.
// Attempts past the end reuse the last delay.
var connectDelays = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
}

const (
	// DefaultConnectAttempts is used when Connect gets a non-positive limit.
	DefaultConnectAttempts = 5

	// connectJitter is the ±fraction of jitter applied to delays.
	connectJitter = 0.2
)

// connectDelay returns the wait after the given 0-indexed failed attempt.
func connectDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(connectDelays) {
		attempt = len(connectDelays) - 1
	}

	base := connectDelays[attempt]
	jitter := (rand.Float64()*2 - 1) * float64(base) * connectJitter
	return time.Duration(float64(base) + jitter)
}

// Connect calls New until it succeeds, maxAttempts is reached or ctx is
// done. It covers the window where the database container is still
// starting.
func Connect(ctx context.Context, databaseURL string, maxAttempts int, logger *slog.Logger) (*Repository, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultConnectAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		repo, err := New(ctx, databaseURL)
		if err == nil {
			return repo, nil
		}
		if errors.Is(err, ErrInvalidDatabaseURL) {
			return nil, err
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		delay := connectDelay(attempt)
		logger.Warn("database not ready, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("retry_in", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("connect database: %w (last error: %v)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("connect database after %d attempts: %w", maxAttempts, lastErr)
}
