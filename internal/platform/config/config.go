package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr string

	// Token signing. The key is loaded once at startup and never rotated
	// while the process runs.
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	RefreshGrace    time.Duration

	Audit     Audit
	RateLimit RateLimit
	Redis     RedisConfig
}

// Audit selects and sizes the audit trail backend.
type Audit struct {
	// Backend is one of "memory", "postgres", "kafka".
	Backend       string
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	PostgresDSN   string
	KafkaBrokers  []string
	KafkaTopic    string
}

// RateLimit configures the per-client request limiter.
type RateLimit struct {
	Enabled        bool
	Window         time.Duration
	PerWindow      int
	AuthPerWindow  int
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("JOURNEY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "journey"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     issuer,
		TokenTTL:      envSeconds("JWT_EXPIRATION", time.Hour),
		RefreshGrace:  envSeconds("JWT_REFRESH_GRACE", 5*time.Minute),
		Audit: Audit{
			Backend:       envString("AUDIT_BACKEND", "memory"),
			BufferSize:    envInt("AUDIT_BUFFER_SIZE", 1024),
			BatchSize:     envInt("AUDIT_BATCH_SIZE", 64),
			FlushInterval: envSeconds("AUDIT_FLUSH_INTERVAL", time.Second),
			PostgresDSN:   os.Getenv("DATABASE_URL"),
			KafkaBrokers:  envList("KAFKA_BROKERS"),
			KafkaTopic:    envString("KAFKA_AUDIT_TOPIC", "journey.audit"),
		},
		RateLimit: RateLimit{
			Enabled:       os.Getenv("RATE_LIMIT_ENABLED") != "false",
			Window:        envSeconds("RATE_LIMIT_WINDOW", time.Minute),
			PerWindow:     envInt("RATE_LIMIT_REQUESTS_PER_WINDOW", 100),
			AuthPerWindow: envInt("RATE_LIMIT_AUTH_REQUESTS_PER_WINDOW", 10),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envSeconds("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envSeconds("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envSeconds("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

// envSeconds reads an integer number of seconds.
func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
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
