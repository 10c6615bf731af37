package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mo-amir99/coc-proxy-go/pkg/tag"
)

// ErrMissingAPIKey is returned by Validate when no upstream token is configured.
var ErrMissingAPIKey = errors.New("COC_API_KEY is not set")

// Config holds environment driven settings for the proxy server.
type Config struct {
	Env            string
	Host           string
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogDir         string

	ClashAPI  ClashAPIConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// ClashAPIConfig contains upstream API settings.
type ClashAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	TagMode tag.Mode
}

// RateLimitConfig controls the per-IP request limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RedisConfig points the rate limiter at a shared store. Empty Addr keeps
// counters in process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load builds a Config from environment variables with sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("COC_SERVER_ENV", "development"),
		Host:     getEnv("COC_SERVER_HOST", "0.0.0.0"),
		Port:     getEnv("PORT", getEnv("COC_SERVER_PORT", "3000")),
		LogLevel: getEnv("COC_LOG_LEVEL", "info"),
		LogDir:   getEnv("COC_LOG_DIR", "logs"),
	}

	cfg.AllowedOrigins = splitAndTrim(os.Getenv("COC_ALLOWED_ORIGINS"))

	clashAPI, err := loadClashAPIConfig()
	if err != nil {
		return nil, err
	}
	cfg.ClashAPI = clashAPI

	cfg.RateLimit = RateLimitConfig{
		Requests: getEnvAsInt("COC_RATE_LIMIT", 100),
		Window:   getEnvAsDuration("COC_RATE_WINDOW", time.Minute),
	}

	cfg.Redis = RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}

	return cfg, nil
}

func loadClashAPIConfig() (ClashAPIConfig, error) {
	mode, err := tag.ParseMode(os.Getenv("COC_TAG_MODE"))
	if err != nil {
		return ClashAPIConfig{}, fmt.Errorf("COC_TAG_MODE: %w", err)
	}

	return ClashAPIConfig{
		BaseURL: getEnv("COC_API_BASE_URL", "https://api.clashofclans.com/v1"),
		APIKey:  strings.TrimSpace(os.Getenv("COC_API_KEY")),
		Timeout: getEnvAsDuration("COC_UPSTREAM_TIMEOUT", 15*time.Second),
		TagMode: mode,
	}, nil
}

// Validate reports settings the server cannot run without. Rate-limit
// problems are reported before a missing API key, which callers may tolerate.
func (c *Config) Validate() error {
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("COC_RATE_LIMIT must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("COC_RATE_WINDOW must be positive when COC_RATE_LIMIT is set")
	}
	if c.ClashAPI.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ServerAddress joins the host and port into a listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		switch r {
		case ',', ';':
			return true
		default:
			return false
		}
	})

	var cleaned []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	if len(cleaned) == 0 {
		return nil
	}

	return cleaned
}
