package serverhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"csvmap-service/internal/config"
	mapHnd "csvmap-service/internal/mapping/handler"
	mapSvc "csvmap-service/internal/mapping/service"
	"csvmap-service/internal/metrics"
	"csvmap-service/internal/middleware"
	"csvmap-service/server/http/handlers"
)

// NewRouter wires the mapping endpoints. reg receives the service metrics and
// is served on /metrics.
func NewRouter(cfg config.Config, logger zerolog.Logger, reg *prometheus.Registry) *chi.Mux {
	svc := mapSvc.New(logger, metrics.New(reg))

	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Post("/map", mapHnd.Map(cfg, logger, svc))
	r.Post("/map/stream", mapHnd.Stream(cfg, logger, svc))

	return r
}
