package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration for the matching service.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string

	DatabaseURL string
	RedisURL    string

	KafkaBrokers    string
	AuditTopic      string
	AuditBufferSize int

	NotifyBaseURL string
	NotifyToken   string
	NotifyTimeout time.Duration

	RunLockTTL time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("TANDEM_ADDR", ":8080"),
		Environment:     envOr("TANDEM_ENV", "development"),
		JWTSigningKey:   os.Getenv("JWT_SIGNING_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		AuditTopic:      envOr("AUDIT_TOPIC", "tandem.audit"),
		AuditBufferSize: envInt("AUDIT_BUFFER_SIZE", 0),
		NotifyBaseURL:   os.Getenv("NOTIFY_BASE_URL"),
		NotifyToken:     os.Getenv("NOTIFY_TOKEN"),
		NotifyTimeout:   envDuration("NOTIFY_TIMEOUT", 10*time.Second),
		RunLockTTL:      envDuration("RUN_LOCK_TTL", 5*time.Minute),
	}
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
