package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fitjournal/fitjournal/internal/auth"
	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/model"
	"github.com/fitjournal/fitjournal/internal/service"
)

// Rejection reasons. They appear in logs and metrics, never in responses.
const (
	ReasonMissingToken   = "missing_token"
	ReasonMalformedToken = "malformed_token"
	ReasonBadSignature   = "bad_signature"
	ReasonExpiredToken   = "expired_token"
	ReasonInvalidClaims  = "invalid_claims"
	ReasonUnknownUser    = "unknown_user"
)

// Client-facing auth messages.
const (
	msgMissingToken = "missing token"
	msgInvalidToken = "invalid or expired token"
)

// TokenVerifier checks a bearer token and returns the user id it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLookup resolves a user id. It returns service.ErrUserNotFound for an
// unknown id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  TokenVerifier
	Users   UserLookup
	Metrics metrics.Recorder
}

// Authenticate returns a middleware that requires a valid bearer token
// naming an existing user, and injects that user into the request context.
// Every token or user failure gets the same 401 body; a store failure is a
// 500.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason, message string) {
		logger.Warn("authentication failed",
			slog.String("reason", reason),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		recorder.IncAuthRejected(reason)
		writeError(w, http.StatusUnauthorized, message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				reject(w, r, ReasonMissingToken, msgMissingToken)
				return
			}

			userID, err := cfg.Tokens.Verify(token)
			if err != nil {
				reject(w, r, tokenRejectReason(err), msgInvalidToken)
				return
			}

			user, err := cfg.Users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, service.ErrUserNotFound) {
					reject(w, r, ReasonUnknownUser, msgInvalidToken)
					return
				}
				logger.Error("user lookup failed during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			logger.Debug("authentication successful",
				slog.String("user_id", user.ID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserHandlerFunc is a handler that receives the authenticated user.
type UserHandlerFunc func(w http.ResponseWriter, r *http.Request, user *model.User)

// WithUser adapts fn to an http.HandlerFunc by passing it the user that
// Authenticate stored in the request context. Requests without one get the
// same 401 as a missing token.
func WithUser(fn UserHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, msgMissingToken)
			return
		}
		fn(w, r, user)
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func tokenRejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return ReasonExpiredToken
	case errors.Is(err, auth.ErrTokenSignature):
		return ReasonBadSignature
	case errors.Is(err, auth.ErrTokenMalformed):
		return ReasonMalformedToken
	default:
		return ReasonInvalidClaims
	}
}
