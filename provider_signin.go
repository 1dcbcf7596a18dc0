package authcore

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/casekit/authcore/internal/rate"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignInEmail authenticates an email/password pair and opens a session.
// Unknown accounts and wrong passwords are indistinguishable to the caller.
func (p *Provider) SignInEmail(ctx context.Context, email, pass string) (*SignInResult, error) {
	if p == nil || p.passwordHash == nil || p.users == nil {
		return nil, ErrProviderNotReady
	}

	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)

	if p.rateLimiter != nil {
		if err := p.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
			p.metricInc(MetricSignInRateLimited)
			p.emitAudit(ctx, auditEventSignInRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			p.emitRateLimit(ctx, "sign_in", func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			return nil, ErrLoginRateLimited
		}
	}

	if email == "" || pass == "" {
		if err := p.recordFailedSignIn(ctx, email, ip); err != nil {
			return nil, err
		}
		p.metricInc(MetricSignInFailure)
		p.emitAudit(ctx, auditEventSignInFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "empty_input",
			}
		})
		return nil, ErrInvalidCredentials
	}

	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if err := p.recordFailedSignIn(ctx, email, ip); err != nil {
			return nil, err
		}
		p.metricInc(MetricSignInFailure)
		p.emitAudit(ctx, auditEventSignInFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "user_not_found",
			}
		})
		return nil, ErrInvalidCredentials
	}

	ok, err := p.passwordHash.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		if err := p.recordFailedSignIn(ctx, email, ip); err != nil {
			return nil, err
		}
		p.metricInc(MetricSignInFailure)
		p.emitAudit(ctx, auditEventSignInFailure, false, user.UserID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if statusErr := accountStatusToError(user.Status); statusErr != nil {
		p.metricInc(MetricSignInFailure)
		p.emitAudit(ctx, auditEventSignInFailure, false, user.UserID, statusErr, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "account_status",
			}
		})
		return nil, statusErr
	}
	if p.config.Security.RequireVerifiedEmail && user.Status == AccountPendingVerification {
		p.metricInc(MetricSignInFailure)
		p.emitAudit(ctx, auditEventSignInFailure, false, user.UserID, ErrAccountUnverified, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "pending_verification",
			}
		})
		return nil, ErrAccountUnverified
	}

	if p.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := p.passwordHash.NeedsUpgrade(user.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := p.passwordHash.Hash(pass); err == nil {
				// Rehash update is best-effort and must not block sign-in.
				if err := p.users.UpdatePasswordHash(ctx, user.UserID, upgradedHash); err != nil {
					slog.Warn("password hash upgrade update failed", "user_id", user.UserID)
				}
			} else {
				slog.Warn("password hash upgrade generation failed", "user_id", user.UserID)
			}
		}
	}
	pass = ""

	if p.rateLimiter != nil {
		// Limiter reset is best-effort and must not block sign-in.
		if err := p.rateLimiter.ResetLogin(ctx, email, ip); err != nil {
			slog.Warn("login limiter reset failed after sign-in", "email", email)
		}
	}

	token, err := p.createSession(ctx, user)
	if err != nil {
		p.metricInc(MetricSignInFailure)
		p.emitAudit(ctx, auditEventSignInFailure, false, user.UserID, ErrSessionCreationFailed, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "session_creation",
			}
		})
		return nil, err
	}

	p.metricInc(MetricSignInSuccess)
	p.emitAudit(ctx, auditEventSignInSuccess, true, user.UserID, nil, nil)

	return &SignInResult{
		Token: token,
		User:  userView(user),
	}, nil
}

// recordFailedSignIn bumps the attempt counters; a limit breach while
// recording is surfaced exactly like a pre-check breach.
func (p *Provider) recordFailedSignIn(ctx context.Context, email, ip string) error {
	if p.rateLimiter == nil {
		return nil
	}
	err := p.rateLimiter.IncrementLogin(ctx, email, ip)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rate.ErrRateLimited) {
		// Counter bookkeeping failed; the attempt is rejected regardless.
		slog.Warn("login attempt counter update failed", "email", email)
		return nil
	}

	p.metricInc(MetricSignInRateLimited)
	p.emitAudit(ctx, auditEventSignInRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})
	p.emitRateLimit(ctx, "sign_in", func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})
	return ErrLoginRateLimited
}
