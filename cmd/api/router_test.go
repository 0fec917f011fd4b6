package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-receipts/internal/config"
	"github.com/noah-isme/toko-receipts/internal/obs"
	"github.com/noah-isme/toko-receipts/internal/order"
	"github.com/noah-isme/toko-receipts/internal/pricing"
	"github.com/noah-isme/toko-receipts/internal/receipt"
)

func testRouter(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := &config.Config{
		AppEnv:                 "test",
		Receipt:                receipt.DefaultOptions(),
		DiscountTiers:          pricing.DefaultRules(),
		MetricsNamespace:       "receipts_test",
		MetricsEnabled:         true,
		RateLimitPerMinute:     100,
		BodyLimitBytes:         1 << 16,
		SecurityHeadersEnabled: true,
	}
	if mutate != nil {
		mutate(cfg)
	}
	registry := prometheus.NewRegistry()
	svc, err := order.NewService(order.ServiceConfig{
		Rules:   cfg.DiscountTiers,
		Options: cfg.Receipt,
		Logger:  zerolog.Nop(),
		Metrics: obs.NewReceiptMetrics(cfg.MetricsNamespace, registry),
	})
	require.NoError(t, err)
	return newRouter(routerDeps{Config: cfg, Logger: zerolog.Nop(), Service: svc, Registry: registry})
}

func TestRouterServesReceipts(t *testing.T) {
	router := testRouter(t, nil)

	body := `{"lines":[{"name":"Widget C","unitPrice":100,"quantity":3}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts/text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Total after discount €240.00")
	require.NotEmpty(t, rr.Header().Get("X-Receipt-ID"))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := testRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/discount-tiers", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "receipts_test_http_requests_total")
}

func TestRouterWithoutMetrics(t *testing.T) {
	router := testRouter(t, func(cfg *config.Config) { cfg.MetricsEnabled = false })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAllowedOriginsDefaultsToWildcard(t *testing.T) {
	require.Equal(t, []string{"*"}, allowedOrigins(&config.Config{}))
	require.Equal(t, []string{"https://shop.example"}, allowedOrigins(&config.Config{CORSAllowedOrigins: []string{"https://shop.example"}}))
}
