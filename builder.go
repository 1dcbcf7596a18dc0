package authcore

import (
	"errors"

	"github.com/casekit/authcore/internal/rate"
	"github.com/casekit/authcore/jwt"
	"github.com/casekit/authcore/password"
	"github.com/casekit/authcore/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Provider]. Configure it with the With* methods and
// call Build exactly once.
type Builder struct {
	config Config
	redis  *redis.Client

	users     UserDirectory
	mailer    Mailer
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing sessions, challenges, and
// limiters.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUsers sets the account directory.
func (b *Builder) WithUsers(users UserDirectory) *Builder {
	b.users = users
	return b
}

// WithMailer sets the transport for verification codes and reset links.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink sets the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the session-lookup latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Provider.
func (b *Builder) Build() (*Provider, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user directory required")
	}
	if b.mailer == nil && (cfg.EmailVerification.Enabled || cfg.PasswordReset.Enabled) {
		return nil, errors.New("mailer required when verification or reset is enabled")
	}

	p := &Provider{
		config: cfg,
		users:  b.users,
		mailer: b.mailer,
	}

	p.sessions = session.NewStore(
		b.redis,
		cfg.Session.RedisPrefix,
		cfg.Session.Lifetime,
		cfg.Session.UpdateWindow,
		cfg.Session.MaxSessionSize,
	)

	p.rateLimiter = rate.New(b.redis, rate.Config{
		EnableIPThrottle: cfg.Security.EnableIPThrottle,
		MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
		LoginCooldown:    cfg.Security.LoginCooldown,
	})
	p.resetStore = newPasswordResetStore(b.redis)
	p.resetLimiter = newPasswordResetLimiter(b.redis, cfg.PasswordReset)
	p.verificationStore = newEmailVerificationStore(b.redis)
	p.verificationLimiter = newEmailVerificationLimiter(b.redis, cfg.EmailVerification)
	p.signupLimiter = newSignUpLimiter(b.redis, cfg.Account)
	p.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	p.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	p.passwordHash = ph

	if cfg.PasswordReset.Enabled {
		rm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.PasswordReset.ResetTTL,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    cloneBytes(cfg.PasswordReset.SigningKey),
			Issuer:        cfg.PasswordReset.Issuer,
		})
		if err != nil {
			return nil, err
		}
		p.resetTokens = rm
	}

	b.built = true

	return p, nil
}
