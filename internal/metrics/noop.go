package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncAuthRejected is a no-op.
func (n *NoopRecorder) IncAuthRejected(reason string) {}

// IncWorkoutCreated is a no-op.
func (n *NoopRecorder) IncWorkoutCreated() {}

// IncWorkoutUpdated is a no-op.
func (n *NoopRecorder) IncWorkoutUpdated() {}

// IncWorkoutDeleted is a no-op.
func (n *NoopRecorder) IncWorkoutDeleted() {}
