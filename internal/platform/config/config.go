// Package config builds runtime configuration from environment variables so
// main stays lean. Scorer weights and decay windows are configuration, not
// constants: tests and deployments tune them without touching engine code.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	AuditTopic    string
	JWTSigningKey string

	Resolution ResolutionConfig
	Decay      DecayConfig

	ProjectionCacheTTL time.Duration
}

// ResolutionConfig drives the candidate scorer and decision policy.
type ResolutionConfig struct {
	WeightEmail   float64
	WeightPhone   float64
	WeightName    float64
	WeightAddress float64

	AutoMatchThreshold float64
	ReviewThreshold    float64

	// Identifiers below this confidence are invisible to candidate search.
	MinIdentifierConfidence float64

	// Rejected resolutions route here so ingestion batches never fail.
	PseudoAccountID string
}

// DecayConfig holds per-condition decay windows for status propagation.
type DecayConfig struct {
	FIVWindow  time.Duration
	FeLVWindow time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Addr:          envString("TRAPPER_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		AuditTopic:    envString("AUDIT_TOPIC", "trapper.audit"),
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Resolution: ResolutionConfig{
			WeightEmail:             envFloat("RESOLVE_WEIGHT_EMAIL", 0.40),
			WeightPhone:             envFloat("RESOLVE_WEIGHT_PHONE", 0.25),
			WeightName:              envFloat("RESOLVE_WEIGHT_NAME", 0.25),
			WeightAddress:           envFloat("RESOLVE_WEIGHT_ADDRESS", 0.10),
			AutoMatchThreshold:      envFloat("RESOLVE_AUTO_MATCH_THRESHOLD", 0.95),
			ReviewThreshold:         envFloat("RESOLVE_REVIEW_THRESHOLD", 0.50),
			MinIdentifierConfidence: envFloat("RESOLVE_MIN_IDENTIFIER_CONFIDENCE", 0.30),
			PseudoAccountID:         os.Getenv("RESOLVE_PSEUDO_ACCOUNT_ID"),
		},
		Decay: DecayConfig{
			FIVWindow:  envDuration("STATUS_DECAY_FIV", 36*30*24*time.Hour),
			FeLVWindow: envDuration("STATUS_DECAY_FELV", 36*30*24*time.Hour),
		},
		ProjectionCacheTTL: envDuration("PROJECTION_CACHE_TTL", 5*time.Minute),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
