package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziyoonee/gochagetcha-sub000/pkg/health"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/middleware"
)

// RouterConfig bundles the handlers and cross-cutting settings the router
// needs.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	Gachas      *GachaHandler
	Shops       *ShopHandler
	Search      *SearchHandler
	Health      *health.Handler
	Logger      *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain and all
// API routes.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/gachas", cfg.Gachas.List)
		r.Get("/gachas/{id}", cfg.Gachas.Get)
		r.Get("/search", cfg.Search.Search)
		r.Get("/shops", cfg.Shops.List)
		r.Get("/shops/{id}", cfg.Shops.Get)
		r.Get("/regions", cfg.Shops.Regions)
		r.Route("/meta", func(r chi.Router) {
			r.Get("/categories", cfg.Gachas.Categories)
			r.Get("/brands", cfg.Gachas.Brands)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
