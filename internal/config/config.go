package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/toko-receipts/internal/pricing"
	"github.com/noah-isme/toko-receipts/internal/receipt"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	Receipt            receipt.Options
	DiscountTiers      []pricing.Rule
	CORSAllowedOrigins []string

	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	MetricsEnabled     bool
	MetricsBucketsCSV  string
	TracingEnabled     bool
	OTLPEndpoint       string
	TracingSampleRatio float64

	RateLimitPerMinute     int
	BodyLimitBytes         int64
	SecurityHeadersEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	tiers, err := ParseDiscountTiers(valueOrDefault(k.String("DISCOUNT_TIERS"), "200:0.2,100:0.1"))
	if err != nil {
		return nil, fmt.Errorf("DISCOUNT_TIERS: %w", err)
	}

	cfg := &Config{
		AppEnv: valueOrDefault(k.String("APP_ENV"), "development"),
		Port:   valueOrDefault(k.String("PORT"), "8080"),
		Receipt: receipt.Options{
			Locale:   strings.TrimSpace(valueOrDefault(k.String("RECEIPT_LOCALE"), "en-US")),
			Currency: strings.ToUpper(strings.TrimSpace(valueOrDefault(k.String("RECEIPT_CURRENCY"), "EUR"))),
		},
		DiscountTiers:          tiers,
		CORSAllowedOrigins:     splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogFormat:              valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:               valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:       valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "receipts"),
		MetricsEnabled:         parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsBucketsCSV:      k.String("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:         parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		OTLPEndpoint:           strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampleRatio:     parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		RateLimitPerMinute:     parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),
		BodyLimitBytes:         int64(parseInt(k.String("BODY_LIMIT_BYTES"), 64<<10)),
		SecurityHeadersEnabled: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
	}

	if cfg.RateLimitPerMinute < 0 {
		cfg.RateLimitPerMinute = 0
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// ParseDiscountTiers parses "threshold:percentage" pairs separated by commas,
// e.g. "200:0.2,100:0.1". "none" or an empty value yields no tiers.
func ParseDiscountTiers(value string) ([]pricing.Rule, error) {
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return []pricing.Rule{}, nil
	}
	parts := splitAndTrim(value)
	rules := make([]pricing.Rule, 0, len(parts))
	for _, part := range parts {
		threshold, percentage, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("tier %q: expected threshold:percentage", part)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(threshold), 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: threshold: %w", part, err)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(percentage), 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: percentage: %w", part, err)
		}
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("tier %q: percentage must be between 0 and 1", part)
		}
		rules = append(rules, pricing.Rule{Threshold: t, Percentage: p})
	}
	return rules, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
