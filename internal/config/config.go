// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the store, WhatsApp Cloud API credentials, bot behaviour, rate
// limiting and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "whatsapp-storefront")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WhatsAppConfig holds the Cloud API coordinates. PhoneID, AccessToken and
// VerifyToken are required.
type WhatsAppConfig struct {
	PhoneID     string        // WHATSAPP_PHONE_ID
	AccessToken string        // WHATSAPP_ACCESS_TOKEN
	VerifyToken string        // WHATSAPP_VERIFY_TOKEN (webhook handshake secret)
	AppSecret   string        // WHATSAPP_APP_SECRET (optional; enables signature checks)
	CatalogID   string        // WHATSAPP_CATALOG_ID (optional)
	APIBaseURL  string        // WHATSAPP_API_BASE_URL
	APIVersion  string        // WHATSAPP_API_VERSION
	HTTPTimeout time.Duration // WHATSAPP_HTTP_TIMEOUT
}

// BotConfig tunes the conversational storefront.
type BotConfig struct {
	ShopName         string        // SHOP_NAME
	SupportPhone     string        // SHOP_SUPPORT_PHONE
	SessionWindow    time.Duration // SESSION_WINDOW
	SessionCacheSize int           // SESSION_CACHE_SIZE (0 disables the cache)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Store
	DBDriver string // sqlite|postgres
	DBPath   string // SQLite path
	DBDSN    string // PostgreSQL DSN

	// Messaging
	WhatsApp WhatsAppConfig
	Bot      BotConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Store
		DBDriver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:   getenv("DB_PATH", "storefront.db"),
		DBDSN:    getenv("DB_DSN", ""),

		// Messaging
		WhatsApp: WhatsAppConfig{
			PhoneID:     strings.TrimSpace(getenv("WHATSAPP_PHONE_ID", "")),
			AccessToken: strings.TrimSpace(getenv("WHATSAPP_ACCESS_TOKEN", "")),
			VerifyToken: strings.TrimSpace(getenv("WHATSAPP_VERIFY_TOKEN", "")),
			AppSecret:   getenv("WHATSAPP_APP_SECRET", ""),
			CatalogID:   getenv("WHATSAPP_CATALOG_ID", ""),
			APIBaseURL:  getenv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com"),
			APIVersion:  getenv("WHATSAPP_API_VERSION", "v17.0"),
			HTTPTimeout: getdur("WHATSAPP_HTTP_TIMEOUT", 10*time.Second),
		},
		Bot: BotConfig{
			ShopName:         getenv("SHOP_NAME", "Mera Kirana"),
			SupportPhone:     getenv("SHOP_SUPPORT_PHONE", ""),
			SessionWindow:    getdur("SESSION_WINDOW", 24*time.Hour),
			SessionCacheSize: getint("SESSION_CACHE_SIZE", 10000),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "whatsapp-storefront"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DBDSN) == "" {
			return cfg, errors.New("DB_DSN must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if missing := cfg.WhatsApp.missing(); len(missing) > 0 {
		return cfg, fmt.Errorf("%w: %s", ErrMissingWhatsApp, strings.Join(missing, ", "))
	}
	if cfg.WhatsApp.HTTPTimeout <= 0 {
		return cfg, errors.New("WHATSAPP_HTTP_TIMEOUT must be > 0")
	}
	if cfg.Bot.SessionWindow <= 0 {
		return cfg, errors.New("SESSION_WINDOW must be > 0")
	}
	if cfg.Bot.SessionCacheSize < 0 {
		return cfg, errors.New("SESSION_CACHE_SIZE must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ErrMissingWhatsApp is returned by Load when a required WhatsApp credential
// is absent. The webhook cannot work without them, so startup must fail.
var ErrMissingWhatsApp = errors.New("missing required WhatsApp configuration")

func (w WhatsAppConfig) missing() []string {
	var out []string
	if w.PhoneID == "" {
		out = append(out, "WHATSAPP_PHONE_ID")
	}
	if w.AccessToken == "" {
		out = append(out, "WHATSAPP_ACCESS_TOKEN")
	}
	if w.VerifyToken == "" {
		out = append(out, "WHATSAPP_VERIFY_TOKEN")
	}
	return out
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
