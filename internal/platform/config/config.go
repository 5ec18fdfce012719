package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every tunable of the service so main stays lean.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	CX       CXConfig
	Signing  SigningConfig
	Postal   PostalConfig
	Auth     AuthConfig
	Wizard   WizardConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// RedisConfig configures the optional Redis backend for wizard sessions and
// the catalog cache. An empty URL means Redis is not configured and in-memory
// fallbacks are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres backend for completed
// registrations and the audit outbox.
type PostgresConfig struct {
	URL string
}

// KafkaConfig configures the audit outbox publisher. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// CXConfig points at the CX customer registry used for profile lookups.
type CXConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// SigningConfig points at the contract/e-signature provider.
type SigningConfig struct {
	BaseURL     string
	APIKey      string
	Environment string
	Timeout     time.Duration
}

// PostalConfig points at the postal-code validation service.
type PostalConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds the session token material. APIKeyHash is a bcrypt hash of
// the kiosk API key; clients exchange the key for a bearer token.
type AuthConfig struct {
	SigningKey string
	APIKeyHash string
	TokenTTL   time.Duration
}

// WizardConfig holds wizard business tunables.
type WizardConfig struct {
	SessionTTL       time.Duration
	CatalogCacheTTL  time.Duration
	AcceptedPrograms []string
	SupportContact   string
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments must override at least the auth material.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envOr("AFILIA_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("AFILIA_REDIS_URL"),
			PoolSize:     envInt("AFILIA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("AFILIA_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("AFILIA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("AFILIA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("AFILIA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("AFILIA_POSTGRES_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: envList("AFILIA_KAFKA_BROKERS"),
			Topic:   envOr("AFILIA_KAFKA_AUDIT_TOPIC", "afilia.audit.events"),
		},
		CX: CXConfig{
			BaseURL: envOr("AFILIA_CX_BASE_URL", "http://localhost:9001"),
			Token:   os.Getenv("AFILIA_CX_TOKEN"),
			Timeout: envDuration("AFILIA_CX_TIMEOUT", 10*time.Second),
		},
		Signing: SigningConfig{
			BaseURL:     envOr("AFILIA_SIGNING_BASE_URL", "http://localhost:9002"),
			APIKey:      os.Getenv("AFILIA_SIGNING_API_KEY"),
			Environment: envOr("AFILIA_SIGNING_ENV", "SANDBOX"),
			Timeout:     envDuration("AFILIA_SIGNING_TIMEOUT", 15*time.Second),
		},
		Postal: PostalConfig{
			BaseURL: envOr("AFILIA_POSTAL_BASE_URL", "http://localhost:9003"),
			Timeout: envDuration("AFILIA_POSTAL_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			// Development default - must be overridden in production.
			SigningKey: envOr("AFILIA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			APIKeyHash: os.Getenv("AFILIA_API_KEY_HASH"),
			TokenTTL:   envDuration("AFILIA_TOKEN_TTL", 8*time.Hour),
		},
		Wizard: WizardConfig{
			SessionTTL:      envDuration("AFILIA_SESSION_TTL", 45*time.Minute),
			CatalogCacheTTL: envDuration("AFILIA_CATALOG_CACHE_TTL", 5*time.Minute),
			// Loyalty programs whose cards count as registered. The source
			// system only honors these two.
			AcceptedPrograms: envListOr("AFILIA_ACCEPTED_PROGRAMS", []string{"627", "42"}),
			SupportContact:   envOr("AFILIA_SUPPORT_CONTACT", "correo@fanasa.com"),
		},
	}
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envListOr(key string, fallback []string) []string {
	if v := envList(key); len(v) > 0 {
		return v
	}
	return fallback
}
