package authcore

import (
	"errors"
	"time"
)

// Config holds all Provider tuning. Instances are intended to be configured
// during initialization and then treated as immutable.
type Config struct {
	Session           SessionConfig
	Password          PasswordConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
	Account           AccountConfig
	Security          SecurityConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls server-side session records.
type SessionConfig struct {
	RedisPrefix string
	// Lifetime is the full TTL written on create and on sliding refresh.
	Lifetime time.Duration
	// UpdateWindow bounds sliding refresh: a read refreshes the record only
	// once more than UpdateWindow of its lifetime has elapsed. Zero
	// disables sliding expiry.
	UpdateWindow   time.Duration
	MaxSessionSize int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id hashing parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// PasswordResetConfig controls the signed-link password reset flow.
type PasswordResetConfig struct {
	Enabled             bool
	ResetTTL            time.Duration
	MaxAttempts         int
	EnableIPThrottle    bool
	EnableEmailThrottle bool
	// SigningKey signs reset-link tokens (HMAC-SHA256). Required when
	// Enabled.
	SigningKey []byte
	Issuer     string
	// LinkBaseURL is the page the emailed link points at; the token is
	// appended as a query parameter.
	LinkBaseURL string
}

// EmailVerificationConfig controls the sign-up OTP flow.
type EmailVerificationConfig struct {
	Enabled             bool
	OTPTTL              time.Duration
	OTPDigits           int
	MaxAttempts         int
	EnableIPThrottle    bool
	EnableEmailThrottle bool
	// SendOnSignUp queues a verification code right after account
	// creation. A send failure never fails the sign-up itself.
	SendOnSignUp bool
}

// AccountConfig controls account creation.
type AccountConfig struct {
	Enabled             bool
	AutoSignIn          bool
	EnableIPThrottle    bool
	EnableEmailThrottle bool
	MaxAttempts         int
	Cooldown            time.Duration
}

// SecurityConfig holds cross-cutting hardening switches.
type SecurityConfig struct {
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	// RequireVerifiedEmail rejects sign-in for accounts still pending
	// verification.
	RequireVerifiedEmail bool
	// RevokeSessionsOnPasswordChange revokes the user's other sessions
	// after a successful password change. Reset always revokes all.
	RevokeSessionsOnPasswordChange bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration a fresh [Builder] starts from.
// Callers that need to tweak a few fields can take this, adjust, and pass
// the result to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:    "ac",
			Lifetime:       7 * 24 * time.Hour,
			UpdateWindow:   24 * time.Hour,
			MaxSessionSize: 1024,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			Enabled:             true,
			ResetTTL:            time.Hour,
			MaxAttempts:         5,
			EnableIPThrottle:    true,
			EnableEmailThrottle: true,
			Issuer:              "authcore",
			LinkBaseURL:         "/reset-password",
		},
		EmailVerification: EmailVerificationConfig{
			Enabled:             true,
			OTPTTL:              10 * time.Minute,
			OTPDigits:           6,
			MaxAttempts:         5,
			EnableIPThrottle:    true,
			EnableEmailThrottle: true,
			SendOnSignUp:        true,
		},
		Account: AccountConfig{
			Enabled:             true,
			AutoSignIn:          true,
			EnableIPThrottle:    true,
			EnableEmailThrottle: true,
			MaxAttempts:         5,
			Cooldown:            15 * time.Minute,
		},
		Security: SecurityConfig{
			EnableIPThrottle:               true,
			MaxLoginAttempts:               5,
			LoginCooldown:                  15 * time.Minute,
			RequireVerifiedEmail:           false,
			RevokeSessionsOnPasswordChange: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.PasswordReset.SigningKey = cloneBytes(cfg.PasswordReset.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for internally inconsistent or unsafe
// values. Build calls it before wiring anything.
func (c *Config) Validate() error {
	// Session
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.UpdateWindow < 0 {
		return errors.New("Session UpdateWindow must be >= 0")
	}
	if c.Session.UpdateWindow >= c.Session.Lifetime {
		return errors.New("Session UpdateWindow must be < Lifetime")
	}
	if c.Session.MaxSessionSize <= 0 {
		return errors.New("Session MaxSessionSize must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Password Reset
	if c.PasswordReset.Enabled {
		if c.PasswordReset.ResetTTL <= 0 {
			return errors.New("PasswordReset ResetTTL must be > 0")
		}
		if c.PasswordReset.MaxAttempts <= 0 {
			return errors.New("PasswordReset MaxAttempts must be > 0")
		}
		if len(c.PasswordReset.SigningKey) < 32 {
			return errors.New("PasswordReset SigningKey must be >= 256 bits")
		}
		if c.PasswordReset.LinkBaseURL == "" {
			return errors.New("PasswordReset LinkBaseURL is required")
		}
	}

	// Email Verification
	if c.EmailVerification.Enabled {
		if c.EmailVerification.OTPTTL <= 0 {
			return errors.New("EmailVerification OTPTTL must be > 0")
		}
		if c.EmailVerification.OTPDigits < 6 || c.EmailVerification.OTPDigits > 10 {
			return errors.New("EmailVerification OTPDigits must be between 6 and 10")
		}
		if c.EmailVerification.MaxAttempts <= 0 || c.EmailVerification.MaxAttempts > 5 {
			return errors.New("EmailVerification MaxAttempts must be between 1 and 5")
		}
		if !c.EmailVerification.EnableIPThrottle {
			return errors.New("EmailVerification EnableIPThrottle must be true")
		}
		if !c.EmailVerification.EnableEmailThrottle {
			return errors.New("EmailVerification EnableEmailThrottle must be true")
		}
	}
	if c.Security.RequireVerifiedEmail && !c.EmailVerification.Enabled {
		return errors.New("Security RequireVerifiedEmail requires EmailVerification Enabled")
	}

	// Account Creation
	if c.Account.Enabled {
		if !c.Account.EnableIPThrottle || !c.Account.EnableEmailThrottle {
			return errors.New("Account throttles must be enabled")
		}
		if c.Account.MaxAttempts <= 0 {
			return errors.New("Account MaxAttempts must be > 0")
		}
		if c.Account.Cooldown <= 0 {
			return errors.New("Account Cooldown must be > 0")
		}
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldown <= 0 {
		return errors.New("LoginCooldown must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
