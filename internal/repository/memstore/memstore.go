// Package memstore is an in-memory implementation of the repository
// contract, used by tests and local tooling.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository"
)

// Store keeps users and workouts in maps guarded by a single mutex.
// Values are copied on the way in and out.
type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	workouts map[string]model.Workout
	err      error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		workouts: make(map[string]model.Workout),
	}
}

// FailWith makes every subsequent call return err. A nil err restores
// normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Ping reports the injected failure, if any.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// CreateUser stores a user, enforcing username and email uniqueness.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	// Usernames are checked before emails so the reported conflict does not
	// depend on map iteration order.
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetUserByID returns the user with id.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.ID == id })
}

// GetUserByUsername returns the user with username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.Username == username })
}

// GetUserByEmail returns the user with email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.Email == email })
}

func (s *Store) findUser(match func(model.User) bool) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	for _, u := range s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// CreateWorkout stores a workout. The owner must exist.
func (s *Store) CreateWorkout(_ context.Context, w *model.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	if _, ok := s.users[w.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	s.workouts[w.ID] = cloneWorkout(*w)
	return nil
}

// GetWorkout returns a workout owned by userID.
func (s *Store) GetWorkout(_ context.Context, userID, id string) (*model.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return nil, repository.ErrWorkoutNotFound
	}
	found := cloneWorkout(w)
	return &found, nil
}

// ListWorkouts applies filter and orders by date then creation time, both
// descending.
func (s *Store) ListWorkouts(_ context.Context, filter repository.WorkoutFilter) ([]*model.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	result := make([]*model.Workout, 0)
	for _, w := range s.workouts {
		if w.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && w.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && w.Date.After(*filter.To) {
			continue
		}
		if filter.WorkoutType != "" && w.WorkoutType != filter.WorkoutType {
			continue
		}
		found := cloneWorkout(w)
		result = append(result, &found)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return result, nil
}

// UpdateWorkout replaces a workout owned by w.UserID.
func (s *Store) UpdateWorkout(_ context.Context, w *model.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	existing, ok := s.workouts[w.ID]
	if !ok || existing.UserID != w.UserID {
		return repository.ErrWorkoutNotFound
	}
	updated := cloneWorkout(*w)
	updated.CreatedAt = existing.CreatedAt
	s.workouts[w.ID] = updated
	return nil
}

// DeleteWorkout removes a workout owned by userID.
func (s *Store) DeleteWorkout(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return repository.ErrWorkoutNotFound
	}
	delete(s.workouts, id)
	return nil
}

func cloneWorkout(w model.Workout) model.Workout {
	if w.CaloriesBurned != nil {
		v := *w.CaloriesBurned
		w.CaloriesBurned = &v
	}
	if w.DistanceKm != nil {
		v := *w.DistanceKm
		w.DistanceKm = &v
	}
	if w.Notes != nil {
		v := *w.Notes
		w.Notes = &v
	}
	return w
}
