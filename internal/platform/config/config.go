package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the gateway reads from its environment. Values
// default to sane development settings so `go run ./cmd/server` works with
// nothing configured.
type Config struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	RedisURL    string
	PostgresURL string

	KafkaBrokers []string
	AuditTopic   string

	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	ResumeTokenTTL    time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              getEnv("INVESTGATE_ADDR", ":8080"),
		Environment:       getEnv("INVESTGATE_ENV", "development"),
		JWTSigningKey:     getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         getEnv("JWT_ISSUER", "investgate"),
		JWTAudience:       getEnv("JWT_AUDIENCE", "investgate-clients"),
		RedisURL:          os.Getenv("REDIS_URL"),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		AuditTopic:        getEnv("AUDIT_TOPIC", "investgate.audit"),
		OTPTTL:            getDuration("OTP_TTL", 5*time.Minute),
		OTPResendCooldown: getDuration("OTP_RESEND_COOLDOWN", 0),
		ResumeTokenTTL:    getDuration("RESUME_TOKEN_TTL", 24*time.Hour),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare integers are treated as seconds for operator convenience.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
