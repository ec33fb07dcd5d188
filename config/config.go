package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Auth   AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	Env                string // "dev" or "prod"; prod strips stack traces from error responses
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000)
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection settings (session revocation registry).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds identity service settings.
type AuthConfig struct {
	JWTSecret         string
	IDTokenTTLMin     int    // short-lived bearer tokens
	SessionTTLHours   int    // long-lived session cookies
	SessionCookieName string // cookie carrying the session credential
	GoogleClientID    string // audience for Google federated login; empty disables it
}

// IsProd reports whether the server runs in production mode.
func (c ServerConfig) IsProd() bool {
	return c.Env == "prod"
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			Env:                getEnv("ENV", "dev"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "gymgrid"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
			IDTokenTTLMin:     getEnvInt("ID_TOKEN_TTL_MIN", 60),
			SessionTTLHours:   getEnvInt("SESSION_TTL_HOURS", 120),
			SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
			GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		},
	}

	// Refuse to serve traffic with default credentials in production.
	if cfg.Server.IsProd() && cfg.Auth.JWTSecret == "change-me-in-production" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
