package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// Auth
	JWTSecret string

	// CORS
	AllowedOrigins []string
	FrontendURL    string

	// Rakuten Travel API
	RakutenAppID   string // required for monitor runs
	RakutenHotelNo string

	// Monitor
	MonitorEnabled    bool
	MonitorSchedule   string        // Cron expression (e.g., "0 * * * *" for hourly)
	MonitorTimeout    time.Duration // Timeout for a complete monitor run
	MonitorWindowDays int           // Dates checked per scheduled run

	// Email (Resend)
	ResendAPIKey string
	FromEmail    string

	// Web Push Notifications
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string // mailto:email or URL
}

func Load() *Config {
	env := getEnv("ENV", "development")

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  env,

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/roomwatch?sslmode=disable"),

		// Auth
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Rakuten Travel API
		RakutenAppID:   os.Getenv("RAKUTEN_APP_ID"),
		RakutenHotelNo: getEnv("RAKUTEN_HOTEL_NO", "74733"), // Hotel MiraCosta

		// Monitor
		MonitorEnabled:    getBoolEnv("MONITOR_ENABLED", true),
		MonitorSchedule:   getEnv("MONITOR_SCHEDULE", "0 * * * *"), // Default: hourly at minute 0
		MonitorTimeout:    getDurationEnv("MONITOR_TIMEOUT", 10*time.Minute),
		MonitorWindowDays: getIntEnv("MONITOR_WINDOW_DAYS", 30),

		// Email (Resend)
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		FromEmail:    getEnv("FROM_EMAIL", "notifications@roomwatch.app"),

		// Web Push Notifications
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:notifications@roomwatch.app"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
