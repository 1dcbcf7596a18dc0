package main

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// serverConfig is populated from the environment. Only the two backing
// stores and the reset signing key are mandatory; everything else has a
// sensible default for local development.
type serverConfig struct {
	ListenAddr string `env:"AUTHCORE_LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"AUTHCORE_LOG_LEVEL" envDefault:"info"`

	PostgresDSN string `env:"AUTHCORE_POSTGRES_DSN,required"`

	RedisAddr     string `env:"AUTHCORE_REDIS_ADDR,required"`
	RedisPassword string `env:"AUTHCORE_REDIS_PASSWORD"`
	RedisDB       int    `env:"AUTHCORE_REDIS_DB" envDefault:"0"`

	// ResetSigningKey signs password-reset links; rotate it only when
	// invalidating every outstanding link is acceptable.
	ResetSigningKey  string `env:"AUTHCORE_RESET_SIGNING_KEY,required"`
	ResetLinkBaseURL string `env:"AUTHCORE_RESET_LINK_BASE_URL" envDefault:"/reset-password"`

	// SMTPAddr enables real mail delivery. When empty, outbound mail is
	// written to stdout as JSON lines instead.
	SMTPAddr     string `env:"AUTHCORE_SMTP_ADDR"`
	SMTPFrom     string `env:"AUTHCORE_SMTP_FROM"`
	SMTPUsername string `env:"AUTHCORE_SMTP_USERNAME"`
	SMTPPassword string `env:"AUTHCORE_SMTP_PASSWORD"`

	CookieName   string        `env:"AUTHCORE_COOKIE_NAME" envDefault:"authcore_session"`
	CookieSecure bool          `env:"AUTHCORE_COOKIE_SECURE" envDefault:"true"`
	SessionTTL   time.Duration `env:"AUTHCORE_SESSION_TTL" envDefault:"168h"`

	RequireVerifiedEmail bool `env:"AUTHCORE_REQUIRE_VERIFIED_EMAIL" envDefault:"true"`

	RequestsPerSecond float64 `env:"AUTHCORE_HTTP_RPS" envDefault:"10"`
	Burst             int     `env:"AUTHCORE_HTTP_BURST" envDefault:"20"`

	MetricsEnabled bool `env:"AUTHCORE_METRICS_ENABLED" envDefault:"true"`
	AuditEnabled   bool `env:"AUTHCORE_AUDIT_ENABLED" envDefault:"true"`
}

func loadConfig() (serverConfig, error) {
	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return serverConfig{}, err
	}
	if len(cfg.ResetSigningKey) < 32 {
		return serverConfig{}, errors.New("AUTHCORE_RESET_SIGNING_KEY must be at least 32 bytes")
	}
	if cfg.SMTPAddr != "" && cfg.SMTPFrom == "" {
		return serverConfig{}, errors.New("AUTHCORE_SMTP_FROM required when AUTHCORE_SMTP_ADDR is set")
	}
	return cfg, nil
}
