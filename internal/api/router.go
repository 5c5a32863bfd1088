package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/promptwizard-app/promptwizard/internal/database"
	mw "github.com/promptwizard-app/promptwizard/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Web UI
	Index  http.HandlerFunc
	Static http.Handler

	// Prompt handlers
	BuildPrompt http.HandlerFunc
	SavePrompt  http.HandlerFunc
	ListHistory http.HandlerFunc

	// Enhancement + quota
	Enhance       http.HandlerFunc
	UsageStatus   http.HandlerFunc
	CreditsStatus http.HandlerFunc
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Mode               string
	EnhanceEnabled     bool
	CORSAllowedOrigins []string
	EnhanceRateLimiter func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, redisClient *redis.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))
	}

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB and Redis
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"mode":     cfg.Mode,
			"database": "healthy",
			"redis":    "healthy",
		}

		status := http.StatusOK

		if pool != nil {
			if err := database.HealthCheck(r.Context(), pool); err != nil {
				health["database"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["database"] = "not configured"
		}

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				health["redis"] = "unhealthy"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		} else {
			health["redis"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Web UI
	if h.Index != nil {
		r.Get("/", h.Index)
	}
	if h.Static != nil {
		r.Handle("/static/*", h.Static)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/build", h.BuildPrompt)
		r.Post("/save", h.SavePrompt)
		r.Get("/history", h.ListHistory)

		r.Get("/usage", h.UsageStatus)
		r.Get("/credits", h.CreditsStatus)

		// Enhancement — optionally burst-limited on top of the quota gate
		r.Group(func(r chi.Router) {
			if cfg.EnhanceRateLimiter != nil {
				r.Use(cfg.EnhanceRateLimiter)
			}
			r.Post("/enhance", h.Enhance)
		})
	})

	return r
}
