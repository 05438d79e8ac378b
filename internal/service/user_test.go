package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitjournal/fitjournal/internal/auth"
	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository"
	"github.com/fitjournal/fitjournal/internal/repository/memstore"
)

func newTestUserService(t *testing.T) (*UserService, *memstore.Store, *auth.TokenCodec, *metrics.InMemoryRecorder) {
	t.Helper()
	store := memstore.New()
	codec, err := auth.NewTokenCodec([]byte("service-test-secret-0123456789abcdef"), 0)
	require.NoError(t, err)
	recorder := metrics.NewInMemory()
	return NewUserService(store, codec, recorder), store, codec, recorder
}

func TestRegister(t *testing.T) {
	t.Parallel()

	svc, store, _, recorder := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "pw123", user.PasswordHash)
	assert.True(t, auth.VerifyPassword("pw123", user.PasswordHash))
	assert.False(t, user.CreatedAt.IsZero())

	stored, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, uint64(1), recorder.Snapshot().UsersRegistered)
}

func TestRegister_Conflicts(t *testing.T) {
	t.Parallel()

	svc, _, _, recorder := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "b@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "a@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.Equal(t, uint64(1), recorder.Snapshot().UsersRegistered)
}

// raceStore reports every user as absent so the pre-check passes and the
// store's uniqueness check has to catch the duplicate.
type raceStore struct {
	*memstore.Store
}

func (raceStore) GetUserByUsername(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (raceStore) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func TestRegister_ConstraintRace(t *testing.T) {
	t.Parallel()

	store := raceStore{memstore.New()}
	svc := NewUserService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "b@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestUserService(t)

	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "pw"}, ""},
		{"blank username", RegisterInput{Username: "   ", Email: "a@x.com", Password: "pw"}, ""},
		{"missing email", RegisterInput{Username: "alice", Password: "pw"}, ""},
		{"missing password", RegisterInput{Username: "alice", Email: "a@x.com"}, ""},
		{"long username", RegisterInput{Username: strings.Repeat("a", 81), Email: "a@x.com", Password: "pw"}, "username"},
		{"nul byte in username", RegisterInput{Username: "al\x00ice", Email: "a@x.com", Password: "pw"}, "username"},
		{"invalid utf-8 in username", RegisterInput{Username: "\xff", Email: "a@x.com", Password: "pw"}, "username"},
		{"nul byte in email", RegisterInput{Username: "alice", Email: "a@x.com\x00", Password: "pw"}, "email"},
		{"invalid utf-8 in email", RegisterInput{Username: "alice", Email: "\xc3\x28@x.com", Password: "pw"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestUserService(t)
	boom := errors.New("db down")
	store.FailWith(boom)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc, _, codec, recorder := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.User.ID)

	userID, err := codec.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)

	assert.Equal(t, uint64(1), recorder.Snapshot().LoginsSucceeded)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _, _, recorder := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "pw123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, uint64(2), recorder.Snapshot().LoginsFailed)
	assert.Zero(t, recorder.Snapshot().LoginsSucceeded)
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestUserService(t)

	for _, input := range []LoginInput{{}, {Username: "alice"}, {Password: "pw"}} {
		_, err := svc.Login(context.Background(), input)

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "input %+v", input)
	}

	for _, username := range []string{"al\x00ice", "\xff"} {
		_, err := svc.Login(context.Background(), LoginInput{Username: username, Password: "pw"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "username %q", username)
		assert.Equal(t, "username", verr.Field)
	}
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	store.FailWith(errors.New("db down"))
	_, err = svc.GetByID(ctx, user.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
