// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failed"

	// Access gate rejections, keyed by internal reason
	IncAuthRejected(reason string)

	// Workout management metrics
	IncWorkoutCreated()
	IncWorkoutUpdated()
	IncWorkoutDeleted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
