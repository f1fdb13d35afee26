package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	DBPath    string
	OutputDir string

	UpstreamBaseURL       string
	UpstreamToken         string
	RecommendationBaseURL string
	UpstreamTimeoutMs     int
	UpstreamRateLimitRPS  int

	OrdersCacheTTL time.Duration

	SessionSecret      string
	SessionTTL         time.Duration
	SessionSecure      bool
	PortalPasswordHash string

	LogLevel    string
	LogEncoding string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:      getEnv("PORTAL_ADDR", ":8080"),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "portal.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		UpstreamBaseURL:       getEnv("UPSTREAM_BASE_URL", "http://localhost:7071/api"),
		UpstreamToken:         getEnv("UPSTREAM_TOKEN", ""),
		RecommendationBaseURL: getEnv("RECOMMENDATION_BASE_URL", "http://localhost:8000"),
		UpstreamTimeoutMs:     getEnvInt("UPSTREAM_TIMEOUT_MS", 10000),
		UpstreamRateLimitRPS:  getEnvInt("UPSTREAM_RATE_LIMIT_RPS", 10),

		OrdersCacheTTL: getEnvDuration("ORDERS_CACHE_TTL", 2*time.Minute),

		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         getEnvDuration("SESSION_TTL", 8*time.Hour),
		SessionSecure:      getEnvBool("SESSION_SECURE_COOKIE", false),
		PortalPasswordHash: getEnv("PORTAL_PASSWORD_HASH", ""),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// UpstreamTimeout is the per-call deadline applied to every upstream request.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
