package model

import (
	"errors"
	"time"
)

// DateLayout is the wire and query format for calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidDate indicates a date string is not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// Workout is a single training session owned by one user.
// Optional attributes are nil when not recorded.
type Workout struct {
	ID              string
	UserID          string
	Date            time.Time
	WorkoutType     string
	DurationMinutes int
	CaloriesBurned  *int
	DistanceKm      *float64
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Calories returns the calories burned, treating an absent value as zero.
func (w *Workout) Calories() int {
	if w.CaloriesBurned == nil {
		return 0
	}
	return *w.CaloriesBurned
}

// Distance returns the distance in kilometers, treating an absent value as zero.
func (w *Workout) Distance() float64 {
	if w.DistanceKm == nil {
		return 0
	}
	return *w.DistanceKm
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders the calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// TruncateDate drops the time-of-day component of t, keeping its calendar
// date in t's location, and returns it as UTC midnight.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
