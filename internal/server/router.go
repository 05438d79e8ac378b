package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fitjournal/fitjournal/internal/handler"
	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/middleware"
	"github.com/fitjournal/fitjournal/internal/service"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Logger   *slog.Logger
	Users    *service.UserService
	Workouts *service.WorkoutService
	Tokens   middleware.TokenVerifier
	// DB backs /readyz. Nil reports the database as not configured.
	DB handler.HealthChecker
	// Metrics receives auth rejections. When it also implements
	// metrics.Snapshotter, /metrics exposes it.
	Metrics metrics.Recorder

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	RequestTimeout     time.Duration
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	snapshotter, _ := recorder.(metrics.Snapshotter)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(cfg.DB, logger)
	metricsHandler := handler.NewMetricsHandler(snapshotter)
	authHandler := handler.NewAuthHandler(cfg.Users, logger)
	workoutHandler := handler.NewWorkoutHandler(cfg.Workouts, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	// Probes and service info
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)
	r.Get("/", h.Info)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Info)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		// Everything below requires a bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(middleware.AuthConfig{
				Logger:  logger,
				Tokens:  cfg.Tokens,
				Users:   cfg.Users,
				Metrics: recorder,
			}))

			r.Route("/workouts", func(r chi.Router) {
				r.Get("/", middleware.WithUser(workoutHandler.List))
				r.Post("/", middleware.WithUser(workoutHandler.Create))
				r.Get("/{id}", middleware.WithUser(workoutHandler.Get))
				r.Put("/{id}", middleware.WithUser(workoutHandler.Update))
				r.Delete("/{id}", middleware.WithUser(workoutHandler.Delete))
			})
			r.Get("/stats", middleware.WithUser(workoutHandler.Stats))
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
