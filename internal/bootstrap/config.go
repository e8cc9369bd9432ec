package bootstrap

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the environment-driven settings of the server.
type Config struct {
	HTTPAddr string
	LogLevel logrus.Level

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	JWTExpiryHours int

	SMTPAddr string
	SMTPFrom string
	SMTPUser string
	SMTPPass string

	RateLimitPerSecond int
}

// LoadConfig reads .env if present and builds the Config from the
// environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on process environment")
	}

	cfg := &Config{
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		LogLevel:           logrus.InfoLevel,
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBHost:             envOr("DB_HOST", "127.0.0.1"),
		DBPort:             envOr("DB_PORT", "3306"),
		DBName:             envOr("DB_NAME", "taskboard"),
		RedisAddr:          envOr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpiryHours:     24,
		SMTPAddr:           os.Getenv("SMTP_ADDR"),
		SMTPFrom:           os.Getenv("SMTP_FROM"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASSWORD"),
		RateLimitPerSecond: 30,
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
		cfg.LogLevel = level
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}
	if raw := os.Getenv("JWT_EXPIRY_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS %q", raw)
		}
		cfg.JWTExpiryHours = hours
	}
	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND %q", raw)
		}
		cfg.RateLimitPerSecond = limit
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
