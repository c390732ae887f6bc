package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	stringsutil "vifm-portal/pkg/platform/strings"
)

// Config captures everything the portal needs from the environment so main
// stays lean.
type Config struct {
	Addr string

	PostgresDSN string
	RedisURL    string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	SessionTTL    time.Duration

	// GuardReadyTimeout bounds how long the route guard polls for its
	// dependencies before failing closed.
	GuardReadyTimeout time.Duration

	NotifyBearerToken string
	SMTPAddr          string
	MailFrom          string
	MailRecipient     string

	KafkaSeeds []string
	AuditTopic string

	StatusCheckInterval time.Duration
}

// FromEnv builds a Config from environment variables, applying development
// defaults where a value is absent.
func FromEnv() Config {
	cfg := Config{
		Addr:                getenv("PORTAL_ADDR", ":8080"),
		PostgresDSN:         os.Getenv("PORTAL_POSTGRES_DSN"),
		RedisURL:            os.Getenv("PORTAL_REDIS_URL"),
		JWTSigningKey:       getenv("PORTAL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:           getenv("PORTAL_JWT_ISSUER", "vifm-portal"),
		JWTAudience:         getenv("PORTAL_JWT_AUDIENCE", "vifm-portal-web"),
		SessionTTL:          getenvDuration("PORTAL_SESSION_TTL", time.Hour),
		GuardReadyTimeout:   getenvDuration("PORTAL_GUARD_READY_TIMEOUT", 5*time.Second),
		NotifyBearerToken:   os.Getenv("PORTAL_NOTIFY_TOKEN"),
		SMTPAddr:            os.Getenv("PORTAL_SMTP_ADDR"),
		MailFrom:            getenv("PORTAL_MAIL_FROM", "portal@vifm.example"),
		MailRecipient:       getenv("PORTAL_MAIL_TO", "bd-team@vifm.example"),
		AuditTopic:          getenv("PORTAL_AUDIT_TOPIC", "portal.audit"),
		StatusCheckInterval: getenvDuration("PORTAL_STATUS_INTERVAL", 30*time.Second),
	}
	if seeds := os.Getenv("PORTAL_KAFKA_SEEDS"); seeds != "" {
		cfg.KafkaSeeds = stringsutil.DedupeAndTrim(strings.Split(seeds, ","))
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Accept plain seconds for operator convenience.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
