package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handlers *Handlers
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   *zap.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Role"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(120, time.Minute))
	r.Use(PrincipalMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	h := cfg.Handlers

	r.Get("/doctors/{doctorID}/availability", h.GetAvailability)

	r.Route("/schedules", func(r chi.Router) {
		r.Post("/", h.CreateSchedule)
		r.Get("/{id}", h.GetSchedule)
		r.Patch("/{id}", h.UpdateSchedule)
		r.Delete("/{id}", h.DeactivateSchedule)
		r.Post("/{id}/holidays", h.AddHoliday)
		r.Delete("/{id}/holidays/{holidayID}", h.RemoveHoliday)
		r.Post("/{id}/temporary-changes", h.AddTemporaryChange)
	})

	r.Route("/slot-requests", func(r chi.Router) {
		r.Post("/", h.CreateSlotRequest)
		r.Get("/{id}", h.GetSlotRequest)
		r.Patch("/{id}", h.DecideSlotRequest)
		r.Post("/{id}/payment", h.MarkSlotRequestPaid)
		r.Post("/{id}/cancel", h.CancelBooking)
	})

	return r
}
