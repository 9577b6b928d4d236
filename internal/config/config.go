package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration, loaded from the environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Microsoft MicrosoftConfig
	CORS      CORSConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Uploads   UploadConfig
	Reports   ReportConfig
	Webhooks  WebhookConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string
}

type CacheConfig struct {
	Enabled bool
	Type    string // "redis" or "memory"
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

type MicrosoftConfig struct {
	TokenURL     string
	GraphURL     string
	ClientID     string
	ClientSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type MetricsConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	Enabled bool
}

type UploadConfig struct {
	Dir        string
	MaxSizeMB  int64
	OCRTimeout time.Duration
}

type ReportConfig struct {
	Workers           int
	ProcessingTimeout time.Duration
}

type WebhookConfig struct {
	Workers     int
	MaxAttempts int
	Timeout     time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A .env file is loaded first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "fleet"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "fleet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", true),
			Type:    getEnv("CACHE_TYPE", "redis"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Microsoft: MicrosoftConfig{
			TokenURL:     getEnv("MS_TOKEN_URL", "https://login.microsoftonline.com/common/oauth2/v2.0/token"),
			GraphURL:     getEnv("MS_GRAPH_URL", "https://graph.microsoft.com/v1.0/me"),
			ClientID:     getEnv("MS_CLIENT_ID", ""),
			ClientSecret: getEnv("MS_CLIENT_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type", "X-CSRF-Token"}),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		},
		Uploads: UploadConfig{
			Dir:        getEnv("UPLOAD_DIR", "/var/lib/fleet/uploads"),
			MaxSizeMB:  int64(getEnvInt("UPLOAD_MAX_SIZE_MB", 25)),
			OCRTimeout: getEnvDuration("OCR_TIMEOUT", 5*time.Minute),
		},
		Reports: ReportConfig{
			Workers:           getEnvInt("REPORT_WORKERS", 2),
			ProcessingTimeout: getEnvDuration("REPORT_TIMEOUT", 10*time.Minute),
		},
		Webhooks: WebhookConfig{
			Workers:     getEnvInt("WEBHOOK_WORKERS", 4),
			MaxAttempts: getEnvInt("WEBHOOK_MAX_ATTEMPTS", 3),
			Timeout:     getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if getEnv("APP_ENV", "development") != "development" {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
		c.Auth.JWTSecret = "dev-secret-do-not-use-in-production"
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
		return fmt.Errorf("invalid cache type: %s", c.Cache.Type)
	}
	return nil
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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
