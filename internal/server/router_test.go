package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitjournal/fitjournal/internal/auth"
	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/repository/memstore"
	"github.com/fitjournal/fitjournal/internal/service"
)

type testEnv struct {
	router   http.Handler
	store    *memstore.Store
	recorder *metrics.InMemoryRecorder
	codec    *auth.TokenCodec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := auth.NewTokenCodec([]byte("router-test-secret-0123456789abcdef"), auth.DefaultTokenTTL)
	require.NoError(t, err)

	store := memstore.New()
	recorder := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(RouterConfig{
		Logger:             logger,
		Users:              service.NewUserService(store, codec, recorder),
		Workouts:           service.NewWorkoutService(store, recorder),
		Tokens:             codec,
		DB:                 store,
		Metrics:            recorder,
		IsDevelopment:      true,
		CORSAllowedOrigins: []string{"*"},
		MaxRequestBodySize: 4096,
		RequestTimeout:     5 * time.Second,
	})

	return &testEnv{router: router, store: store, recorder: recorder, codec: codec}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) createWorkout(t *testing.T, token string, body map[string]any) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/workouts", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := decode(t, rec)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestRouter_EndToEnd(t *testing.T) {
	env := newTestEnv(t)

	// Register
	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "user registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	// Duplicate registration
	rec = env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already taken", decode(t, rec)["error"])

	// Login
	aliceToken := env.login(t, "alice", "pw123")

	// No token
	rec = env.do(t, http.MethodGet, "/api/workouts", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing token", decode(t, rec)["error"])

	// Create workout
	rec = env.do(t, http.MethodPost, "/api/workouts", aliceToken, map[string]any{
		"date":             "2024-01-15",
		"workout_type":     "Бег",
		"duration_minutes": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	workout := decode(t, rec)
	workoutID, _ := workout["id"].(string)
	require.NotEmpty(t, workoutID)
	assert.Equal(t, "2024-01-15", workout["date"])
	assert.Equal(t, "Бег", workout["workout_type"])
	assert.EqualValues(t, 30, workout["duration_minutes"])
	assert.Nil(t, workout["calories_burned"])
	assert.Equal(t, user["id"], workout["user_id"])

	// Owner can read it
	rec = env.do(t, http.MethodGet, "/api/workouts/"+workoutID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Another user cannot
	env.register(t, "bob", "b@x.com", "pw456")
	bobToken := env.login(t, "bob", "pw456")

	rec = env.do(t, http.MethodGet, "/api/workouts/"+workoutID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "workout not found", decode(t, rec)["error"])

	rec = env.do(t, http.MethodDelete, "/api/workouts/"+workoutID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/workouts", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	snap := env.recorder.Snapshot()
	assert.EqualValues(t, 2, snap.UsersRegistered)
	assert.EqualValues(t, 2, snap.LoginsSucceeded)
	assert.EqualValues(t, 1, snap.WorkoutsCreated)
	assert.EqualValues(t, 1, snap.AuthRejected["missing_token"])
}

func TestRouter_WorkoutLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	token := env.login(t, "alice", "pw123")

	id := env.createWorkout(t, token, map[string]any{
		"date":             "2024-01-15",
		"workout_type":     "Бег",
		"duration_minutes": 30,
		"calories_burned":  300,
		"notes":            "easy",
	})

	// Partial update: only present keys change, explicit null clears.
	rec := env.do(t, http.MethodPut, "/api/workouts/"+id, token, `{"duration_minutes": 45, "notes": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)
	assert.EqualValues(t, 45, updated["duration_minutes"])
	assert.EqualValues(t, 300, updated["calories_burned"])
	assert.Nil(t, updated["notes"])
	assert.Equal(t, "2024-01-15", updated["date"])

	// A required field cannot be nulled.
	rec = env.do(t, http.MethodPut, "/api/workouts/"+id, token, `{"workout_type": null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "workout_type cannot be null", decode(t, rec)["error"])

	rec = env.do(t, http.MethodDelete, "/api/workouts/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "workout deleted", decode(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/workouts/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/workouts/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	token := env.login(t, "alice", "pw123")

	env.createWorkout(t, token, map[string]any{"date": "2024-01-10", "workout_type": "Бег", "duration_minutes": 30})
	env.createWorkout(t, token, map[string]any{"date": "2024-01-20", "workout_type": "Плавание", "duration_minutes": 40})
	env.createWorkout(t, token, map[string]any{"date": "2024-02-01", "workout_type": "Бег", "duration_minutes": 25})

	list := func(query string) []map[string]any {
		t.Helper()
		rec := env.do(t, http.MethodGet, "/api/workouts"+query, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	all := list("")
	require.Len(t, all, 3)
	assert.Equal(t, "2024-02-01", all[0]["date"])
	assert.Equal(t, "2024-01-10", all[2]["date"])

	assert.Len(t, list("?workout_type=%D0%91%D0%B5%D0%B3"), 2)
	assert.Len(t, list("?start_date=2024-01-15"), 2)
	assert.Len(t, list("?start_date=2024-01-15&end_date=2024-01-31"), 1)

	rec := env.do(t, http.MethodGet, "/api/workouts?start_date=15.01.2024", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Stats(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	token := env.login(t, "alice", "pw123")

	env.createWorkout(t, token, map[string]any{
		"date": "2024-01-15", "workout_type": "Бег", "duration_minutes": 30, "calories_burned": 100,
	})
	env.createWorkout(t, token, map[string]any{
		"date": "2024-01-16", "workout_type": "Бег", "duration_minutes": 20,
	})

	rec := env.do(t, http.MethodGet, "/api/stats?period=all", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stats := decode(t, rec)
	assert.EqualValues(t, 2, stats["total_workouts"])
	assert.EqualValues(t, 50, stats["total_duration_minutes"])
	assert.EqualValues(t, 100, stats["total_calories_burned"])
	assert.Equal(t, "all", stats["period"])
	assert.Nil(t, stats["start_date"])

	types := stats["workout_types"].(map[string]any)
	assert.Equal(t, map[string]any{
		"count":          float64(2),
		"total_duration": float64(50),
		"total_calories": float64(100),
	}, types["Бег"])

	rec = env.do(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "month", decode(t, rec)["period"])
}

func TestRouter_AuthRejections(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")

	rec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "nobody", "password": "pw123"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["error"])

	ghost, err := env.codec.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"unknown user": ghost,
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/stats", token, nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "invalid or expired token", decode(t, rec)["error"])
		})
	}

	snap := env.recorder.Snapshot()
	assert.EqualValues(t, 2, snap.LoginsFailed)
	assert.EqualValues(t, 1, snap.AuthRejected["malformed_token"])
	assert.EqualValues(t, 1, snap.AuthRejected["unknown_user"])
}

func TestRouter_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	token := env.login(t, "alice", "pw123")

	env.store.FailWith(errors.New("connection refused"))
	t.Cleanup(func() { env.store.FailWith(nil) })

	rec := env.do(t, http.MethodGet, "/api/workouts", token, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_BadBodies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/register", "", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username, email and password are required", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/register", "", `{"username":"`+strings.Repeat("a", 8192)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_Surface(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"info", http.MethodGet, "/", http.StatusOK},
		{"api health", http.MethodGet, "/api/health", http.StatusOK},
		{"liveness", http.MethodGet, "/healthz", http.StatusOK},
		{"readiness", http.MethodGet, "/readyz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/register", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, "", nil)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}

	rec := env.do(t, http.MethodGet, "/", "", nil)
	body := decode(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "Fitness Journal", body["service"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/workouts", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
