package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-receipts/internal/config"
	"github.com/noah-isme/toko-receipts/internal/health"
	"github.com/noah-isme/toko-receipts/internal/obs"
	"github.com/noah-isme/toko-receipts/internal/order"
	"github.com/noah-isme/toko-receipts/internal/ratelimit"
	"github.com/noah-isme/toko-receipts/internal/security"
)

type routerDeps struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Service  *order.Service
	Registry *prometheus.Registry
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.MetricsBucketsCSV)
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, d.Registry)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Receipt-ID", "X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	}

	healthHandler := health.Handler{
		Checks:  map[string]health.Check{"receipts": d.Service.Check},
		Timeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	receipts := order.NewHandler(d.Service)
	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		if cfg.RateLimitPerMinute > 0 {
			v.Use(ratelimit.Handler{
				Limiter: ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute),
				OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
			}.Middleware)
		}
		receipts.Routes(v)
	})

	if !cfg.TracingEnabled {
		return r
	}
	return otelhttp.NewHandler(r, "receipts-api")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
