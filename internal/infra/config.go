package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	JWTSecret   string
	DatabaseURL string

	// AccountStore selects the account backend: "postgres" (requires
	// DATABASE_URL), "sqlite" or "memory".
	AccountStore string
	// AccountDBPath backs the sqlite account store.
	AccountDBPath string
	// QuotaDBPath, when set, persists usage counters in SQLite instead of
	// process memory.
	QuotaDBPath string

	GeoIPDBPath string
	NATSURL     string

	MaxWorkers          int
	GenerateWaitTimeout time.Duration
	SyntheticProviders  bool

	PayPalBusinessEmail string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		AccountStore:        getEnv("ACCOUNT_STORE", "memory"),
		AccountDBPath:       getEnv("ACCOUNT_DB_PATH", "users.db"),
		QuotaDBPath:         os.Getenv("QUOTA_DB_PATH"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		NATSURL:             os.Getenv("NATS_URL"),
		MaxWorkers:          getEnvInt("GENERATION_MAX_WORKERS", 5),
		GenerateWaitTimeout: time.Second * time.Duration(getEnvInt("GENERATION_WAIT_TIMEOUT_SECONDS", 120)),
		SyntheticProviders:  getEnvBool("SYNTHETIC_PROVIDERS", false),
		PayPalBusinessEmail: os.Getenv("PAYPAL_BUSINESS_EMAIL"),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:      splitCSV(os.Getenv("ALLOWED_ORIGINS")),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.AccountStore {
	case "memory", "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for ACCOUNT_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported ACCOUNT_STORE %q", cfg.AccountStore)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
