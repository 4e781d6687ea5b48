package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"movieshub/catalogservice/internal/feed"
)

type Config struct {
	HTTPAddr                 string
	LogLevel                 string
	LogFormat                string
	FeedURL                  string
	FeedTimeout              time.Duration
	UserAgent                string
	RatingSeed               uint64
	RedisURL                 string
	QueryCacheTTL            time.Duration
	QueryCacheDisabled       bool
	RateLimitRPS             int
	RateLimitBurst           int
	ImageProxyMaxConcurrency int
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		LogLevel:                 strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:                strings.ToLower(getEnv("LOG_FORMAT", "text")),
		FeedURL:                  getEnv("CATALOG_FEED_URL", feed.DefaultURL),
		FeedTimeout:              time.Duration(getEnvInt("CATALOG_FEED_TIMEOUT_SECONDS", 30)) * time.Second,
		UserAgent:                getEnv("CATALOG_USER_AGENT", "movies-hub-catalog/1.0"),
		RatingSeed:               getEnvUint64("CATALOG_RATING_SEED", 0),
		RedisURL:                 getEnv("REDIS_URL", ""),
		QueryCacheTTL:            time.Duration(getEnvInt("CATALOG_QUERY_CACHE_TTL_SECONDS", 300)) * time.Second,
		QueryCacheDisabled:       getEnvBool("CATALOG_QUERY_CACHE_DISABLED", false),
		RateLimitRPS:             getEnvInt("HTTP_RATE_LIMIT_RPS", 50),
		RateLimitBurst:           getEnvInt("HTTP_RATE_LIMIT_BURST", 100),
		ImageProxyMaxConcurrency: getEnvInt("IMAGE_PROXY_MAX_CONCURRENCY", 8),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvUint64(key string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
