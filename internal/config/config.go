package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Logging
	LogLevel string

	// Security
	SessionSecret  string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Google OAuth client
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Sync
	GmailRequestsPerSecond float64
	SyncWorkers            int
	SyncTimeout            time.Duration
	AlertsQuery            string

	// Optional; enables the cross-instance sync lock
	RedisURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.APIPort, err = intEnv("API_PORT", 8080); err != nil {
		return nil, err
	}

	cfg.LogLevel = stringEnv("LOG_LEVEL", "info")

	// Security configuration
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = stringEnv("APP_ENV", "development")

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = stringEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/oauth/google/callback")

	cfg.GmailRequestsPerSecond = 5
	if v := os.Getenv("GMAIL_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("GMAIL_REQUESTS_PER_SECOND must be a number: %w", err)
		}
		cfg.GmailRequestsPerSecond = rps
	}

	if cfg.SyncWorkers, err = intEnv("SYNC_WORKERS", 1); err != nil {
		return nil, err
	}

	cfg.SyncTimeout = 60 * time.Second
	if v := os.Getenv("SYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SYNC_TIMEOUT must be a duration: %w", err)
		}
		cfg.SyncTimeout = d
	}

	cfg.AlertsQuery = os.Getenv("ALERTS_QUERY")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.GmailRequestsPerSecond <= 0 {
		return fmt.Errorf("GMAIL_REQUESTS_PER_SECOND must be positive")
	}
	if c.SyncWorkers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1")
	}
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("SYNC_TIMEOUT must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if !strings.HasPrefix(c.GoogleRedirectURL, "https://") {
		return fmt.Errorf("GOOGLE_REDIRECT_URL must use https in production")
	}

	return nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Origins splits ALLOWED_ORIGINS into a trimmed list
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("session_secret_set", c.SessionSecret != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.Bool("google_client_set", c.GoogleClientID != ""),
		slog.String("google_redirect_url", c.GoogleRedirectURL),
		slog.Float64("gmail_rps", c.GmailRequestsPerSecond),
		slog.Int("sync_workers", c.SyncWorkers),
		slog.Duration("sync_timeout", c.SyncTimeout),
		slog.Bool("alerts_query_set", c.AlertsQuery != ""),
		slog.Bool("redis_enabled", c.RedisURL != ""),
	)
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
