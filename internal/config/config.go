// Package config loads the daemon's settings from environment variables,
// applies defaults, normalizes values and validates the result. A .env file,
// when present, is read by the binary before Load runs.
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

// OTELConfig defines OpenTelemetry settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ScheduleConfig controls check timing.
type ScheduleConfig struct {
	Timezone      string        // TIMEZONE, IANA name or "Local"
	TickInterval  time.Duration // TICK_INTERVAL
	CheckInterval time.Duration // CHECK_INTERVAL
	CheckExpiry   time.Duration // CHECK_EXPIRY
	CheckAtStart  bool          // CHECK_AT_START: first check fires when the event starts
	InboxSize     int           // INBOX_SIZE: commands queued while a tick runs
}

// NATSConfig enables the optional NATS mirror. Empty URL disables it.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	ClientName    string
}

// TelegramConfig enables the optional Telegram alert sink.
type TelegramConfig struct {
	Token  string
	ChatID string
	APIURL string
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool { return t.Token != "" && t.ChatID != "" }

// Config holds all configuration values for the daemon.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // 0 disables; SSE streams need it off
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Store
	DBPath string

	// Checks
	Schedule      ScheduleConfig
	ViewChecksURL string

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Integrations
	NATS     NATSConfig
	Telegram TelegramConfig

	// Observability
	OTEL OTELConfig
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 0),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Store
		DBPath: getenv("DB_PATH", "panopto-checks.db"),

		// Checks
		Schedule: ScheduleConfig{
			Timezone:      getenv("TIMEZONE", "Local"),
			TickInterval:  getdur("TICK_INTERVAL", 60*time.Second),
			CheckInterval: getdur("CHECK_INTERVAL", 30*time.Minute),
			CheckExpiry:   getdur("CHECK_EXPIRY", 30*time.Minute),
			CheckAtStart:  getbool("CHECK_AT_START", false),
			InboxSize:     getint("INBOX_SIZE", 64),
		},
		ViewChecksURL: getenv("VIEW_CHECKS_URL", "/checks"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Integrations
		NATS: NATSConfig{
			URL:           strings.TrimSpace(getenv("NATS_URL", "")),
			SubjectPrefix: getenv("NATS_SUBJECT_PREFIX", "panopto"),
			ClientName:    getenv("NATS_CLIENT_NAME", "panopto-checks"),
		},
		Telegram: TelegramConfig{
			Token:  strings.TrimSpace(getenv("TELEGRAM_TOKEN", "")),
			ChatID: strings.TrimSpace(getenv("TELEGRAM_CHAT_ID", "")),
			APIURL: getenv("TELEGRAM_API_URL", ""),
		},

		// Observability
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "panopto-checks"),
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
	cfg.NATS.SubjectPrefix = strings.Trim(strings.TrimSpace(cfg.NATS.SubjectPrefix), ".")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.WriteTimeout < 0 {
		return cfg, errors.New("WRITE_TIMEOUT must be >= 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}
	if cfg.Schedule.TickInterval <= 0 || cfg.Schedule.CheckInterval <= 0 || cfg.Schedule.CheckExpiry <= 0 {
		return cfg, errors.New("TICK_INTERVAL, CHECK_INTERVAL and CHECK_EXPIRY must be positive")
	}
	if cfg.Schedule.InboxSize < 1 {
		return cfg, errors.New("INBOX_SIZE must be >= 1")
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
	if (cfg.Telegram.Token == "") != (cfg.Telegram.ChatID == "") {
		return cfg, errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

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

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
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
