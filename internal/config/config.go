// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// CRM backend
	CRMBaseURL  string
	CRMAPIKey   string
	HTTPTimeout time.Duration

	// Attribute discovery cache
	RedisURL          string
	AttributeCacheTTL time.Duration

	// Inbound auth
	JWTSecret string

	// Dispatch tuning
	BatchConcurrency int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("API_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		CRMBaseURL:  getEnv("CRM_API_BASE_URL", "https://api.attio.com/v2"),
		CRMAPIKey:   getEnv("CRM_API_KEY", ""),
		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		AttributeCacheTTL: time.Duration(getEnvInt("ATTRIBUTE_CACHE_TTL_MINUTES", 15)) * time.Minute,

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key"),

		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 5),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
