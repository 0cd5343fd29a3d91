// Package config builds typed runtime configuration from environment
// variables so main stays lean. A local .env file is loaded when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration for the API server.
type Config struct {
	App         string
	Environment string
	Version     string

	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	LLM      LLMConfig

	// FeatureOverrides holds FEATURE_* env overrides keyed by flag name.
	FeatureOverrides map[string]bool
}

type HTTPConfig struct {
	Addr            string
	CORSOrigin      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	Migrate      bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type AuthConfig struct {
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration
	AdminToken     string
	SessionCookie  string
}

type LLMConfig struct {
	// Provider selects the narrative generator: "openai" or "stub".
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// FromEnv builds a Config from environment variables, loading .env first when
// one exists in the working directory.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		App:         "pravado-api",
		Environment: getenv("APP_ENV", "development"),
		Version:     getenv("APP_VERSION", "dev"),
		HTTP: HTTPConfig{
			Addr:            getenv("PRAVADO_ADDR", ":8080"),
			CORSOrigin:      getenv("CORS_ORIGIN", "http://localhost:3000"),
			RequestTimeout:  getduration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getduration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getint("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getint("DATABASE_MAX_IDLE_CONNS", 5),
			Migrate:      getenv("DATABASE_MIGRATE", "true") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getint("REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getenv("KAFKA_AUDIT_TOPIC", "pravado.audit"),
		},
		Auth: AuthConfig{
			JWTSigningKey:  getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      getenv("JWT_ISSUER", "pravado-api"),
			JWTAudience:    getenv("JWT_AUDIENCE", "pravado-dashboard"),
			AccessTokenTTL: getduration("ACCESS_TOKEN_TTL", 15*time.Minute),
			SessionTTL:     getduration("SESSION_TTL", 24*time.Hour),
			AdminToken:     os.Getenv("ADMIN_TOKEN"),
			SessionCookie:  getenv("SESSION_COOKIE_NAME", "pravado_session"),
		},
		LLM: LLMConfig{
			Provider: getenv("LLM_PROVIDER", "stub"),
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:    getenv("LLM_MODEL", "gpt-4o-mini"),
			Timeout:  getduration("LLM_TIMEOUT", 30*time.Second),
		},
		FeatureOverrides: featureOverrides(os.Environ()),
	}
	return cfg
}

// featureOverrides collects FEATURE_<NAME>=true|false pairs. Names are
// normalized to lower snake case so FEATURE_EXEC_NARRATIVES toggles the
// "exec_narratives" flag.
func featureOverrides(environ []string) map[string]bool {
	overrides := make(map[string]bool)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "FEATURE_") {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, "FEATURE_"))
		if name == "" {
			continue
		}
		overrides[name] = value == "true"
	}
	return overrides
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
