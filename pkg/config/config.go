package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Worker   WorkerConfig
	Fetch    FetchConfig
	External ExternalConfig
}

// Server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type WorkerConfig struct {
	PoolSize int
}

// Outbound HTTP settings shared by the insights client and the page fetcher
type FetchConfig struct {
	Timeout            time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxPageBytes       int64
	UserAgent          string
}

type ExternalConfig struct {
	AdsAPIURL      string
	AdsAccessToken string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", "30s"),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Worker: WorkerConfig{
			PoolSize: getIntEnv("WORKER_POOL_SIZE", 5),
		},
		Fetch: FetchConfig{
			Timeout:            getDurationEnv("REQUEST_TIMEOUT", "30s"),
			RateLimitPerSecond: getFloatEnv("RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 5),
			MaxPageBytes:       int64(getIntEnv("MAX_PAGE_BYTES", 2<<20)),
			UserAgent:          getEnv("USER_AGENT", "surgly-bot/1.0"),
		},
		External: ExternalConfig{
			AdsAPIURL:      strings.TrimRight(getEnv("ADS_API_URL", "https://graph.facebook.com/v19.0"), "/"),
			AdsAccessToken: getEnv("ADS_ACCESS_TOKEN", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if config.Worker.PoolSize < 1 {
		config.Worker.PoolSize = 1
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
