package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered uint64
	LoginsSucceeded uint64
	LoginsFailed    uint64
	AuthRejected    map[string]uint64
	WorkoutsCreated uint64
	WorkoutsUpdated uint64
	WorkoutsDeleted uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	usersRegistered uint64
	loginsSucceeded uint64
	loginsFailed    uint64
	workoutsCreated uint64
	workoutsUpdated uint64
	workoutsDeleted uint64

	mu           sync.Mutex
	authRejected map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{authRejected: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	rejected := maps.Clone(m.authRejected)
	m.mu.Unlock()

	return Snapshot{
		UsersRegistered: atomic.LoadUint64(&m.usersRegistered),
		LoginsSucceeded: atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:    atomic.LoadUint64(&m.loginsFailed),
		AuthRejected:    rejected,
		WorkoutsCreated: atomic.LoadUint64(&m.workoutsCreated),
		WorkoutsUpdated: atomic.LoadUint64(&m.workoutsUpdated),
		WorkoutsDeleted: atomic.LoadUint64(&m.workoutsDeleted),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for the given outcome.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == LoginSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncAuthRejected increments the rejection counter for reason.
func (m *InMemoryRecorder) IncAuthRejected(reason string) {
	m.mu.Lock()
	m.authRejected[reason]++
	m.mu.Unlock()
}

// IncWorkoutCreated increments workout created counter.
func (m *InMemoryRecorder) IncWorkoutCreated() {
	atomic.AddUint64(&m.workoutsCreated, 1)
}

// IncWorkoutUpdated increments workout updated counter.
func (m *InMemoryRecorder) IncWorkoutUpdated() {
	atomic.AddUint64(&m.workoutsUpdated, 1)
}

// IncWorkoutDeleted increments workout deleted counter.
func (m *InMemoryRecorder) IncWorkoutDeleted() {
	atomic.AddUint64(&m.workoutsDeleted, 1)
}
