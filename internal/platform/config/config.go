package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-wide configuration. FromEnv keeps main lean; every
// knob has a development default except the field encryption key, which the
// cipher refuses to run without.
type Server struct {
	Addr          string
	JWTSigningKey string

	// MasterKey protects tax identifier fields at rest. No default: a missing
	// key is a fatal startup error, never a per-call fallback.
	MasterKey string

	// DatabaseURL switches the vendor and audit stores from in-memory to
	// PostgreSQL when set.
	DatabaseURL string

	// RedisURL enables the shared source-type cache when set.
	RedisURL string

	// KafkaBrokers enables the audit fan-out sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// SourceTimeout bounds every call to an external affiliate source.
	SourceTimeout time.Duration
}

// SourceTypeTTL bounds how long a detected plugin type is trusted before the
// next connection test must rediscover it.
var SourceTypeTTL = 15 * time.Minute

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("VENDORGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "vendorgate.audit"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	timeout := 15 * time.Second
	if raw := os.Getenv("SOURCE_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		MasterKey:     os.Getenv("VENDORGATE_MASTER_KEY"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		SourceTimeout: timeout,
	}
}
