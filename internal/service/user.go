package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fitjournal/fitjournal/internal/auth"
	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/repository"
	"github.com/oklog/ulid/v2"
)

const (
	maxUsernameLength = 80
	maxEmailLength    = 120
)

// dummyHash is verified against when a login names an unknown user so the
// response takes as long as a wrong password would.
var dummyHash = sync.OnceValues(func() (string, error) {
	return auth.HashPassword("fitjournal-dummy-password")
})

// UserService handles registration and login.
type UserService struct {
	users   UserStore
	tokens  TokenIssuer
	metrics metrics.Recorder
	now     func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, tokens TokenIssuer, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		users:   users,
		tokens:  tokens,
		metrics: recorder,
		now:     time.Now,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new account. Username and email are trimmed.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" || email == "" || input.Password == "" {
		return nil, invalid("", "username, email and password are required")
	}
	if err := validText("username", username); err != nil {
		return nil, err
	}
	if err := validText("email", email); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, invalid("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLength))
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return nil, invalid("email", fmt.Sprintf("email must be at most %d characters", maxEmailLength))
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	// The pre-check can race with a concurrent registration; the unique
	// constraints settle it.
	if err := s.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		default:
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return fmt.Errorf("failed to check username: %w", err)
	}

	_, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return fmt.Errorf("failed to check email: %w", err)
	}

	return nil
}

// LoginInput defines input for logging in.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a freshly issued token and the user it identifies.
type LoginResult struct {
	Token string
	User  *model.User
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, invalid("", "username and password are required")
	}
	if err := validText("username", username); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if hash, hashErr := dummyHash(); hashErr == nil {
			auth.VerifyPassword(input.Password, hash)
		}
		s.metrics.IncLogin(metrics.LoginFailed)
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(input.Password, user.PasswordHash) {
		s.metrics.IncLogin(metrics.LoginFailed)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.LoginSuccess)
	return &LoginResult{Token: token, User: user}, nil
}

// GetByID resolves a user by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
