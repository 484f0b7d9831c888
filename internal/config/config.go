package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database (empty → in-memory stores, for local development)
	DatabaseURL string

	// Redis (empty → reconcile lock disabled)
	RedisURL string

	// Reconcile
	ReconcileCron      string
	StaleAfterMin      int
	StaleBatchSize     int
	AutoCloseAfterHrs  int
	AutoCloseBatchSize int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		ReconcileCron:      getEnvOrDefault("RECONCILE_CRON", "@every 5m"),
		StaleAfterMin:      getEnvAsIntOrDefault("STALE_AFTER_MINUTES", 30),
		StaleBatchSize:     getEnvAsIntOrDefault("STALE_BATCH_SIZE", 100),
		AutoCloseAfterHrs:  getEnvAsIntOrDefault("AUTO_CLOSE_AFTER_HOURS", 48),
		AutoCloseBatchSize: getEnvAsIntOrDefault("AUTO_CLOSE_BATCH_SIZE", 50),
		SMTPHost:           getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:           getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:           getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:           getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:           getEnvOrDefault("SMTP_FROM", "noreply@attendance.app"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
