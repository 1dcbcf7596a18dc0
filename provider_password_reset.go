package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/casekit/authcore/internal"
)

// RequestPasswordReset issues a signed single-use reset link for email and
// hands it to the mailer. Unknown addresses return nil without a side effect
// so the endpoint cannot be used to probe for accounts.
func (p *Provider) RequestPasswordReset(ctx context.Context, email string) error {
	if p == nil || p.users == nil {
		return ErrProviderNotReady
	}
	if !p.config.PasswordReset.Enabled {
		return ErrPasswordResetDisabled
	}
	if p.resetTokens == nil || p.resetStore == nil || p.mailer == nil {
		return ErrProviderNotReady
	}

	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)
	if email == "" {
		return ErrPasswordResetInvalid
	}

	if p.resetLimiter != nil {
		if err := p.resetLimiter.CheckRequest(ctx, email, ip); err != nil {
			if errors.Is(err, errResetRateLimited) {
				p.emitRateLimit(ctx, "password_reset_request", func() map[string]string {
					return map[string]string{
						"email": email,
					}
				})
				return ErrPasswordResetRateLimited
			}
			return errors.Join(ErrPasswordResetUnavailable, err)
		}
	}

	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil || accountStatusToError(user.Status) != nil {
		sleepEnumerationDelay()
		p.emitAudit(ctx, auditEventPasswordResetRequest, true, "", nil, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "suppressed",
			}
		})
		return nil
	}

	resetID, err := internal.NewTokenID()
	if err != nil {
		return errors.Join(ErrPasswordResetUnavailable, err)
	}

	cfg := p.config.PasswordReset
	record := &passwordResetRecord{
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(cfg.ResetTTL).Unix(),
	}
	if err := p.resetStore.Save(ctx, resetID.String(), record, cfg.ResetTTL); err != nil {
		return errors.Join(ErrPasswordResetUnavailable, err)
	}

	token, err := p.resetTokens.Create(user.UserID, resetID.String())
	if err != nil {
		return errors.Join(ErrPasswordResetUnavailable, err)
	}

	link := cfg.LinkBaseURL + "?token=" + url.QueryEscape(token)
	msg := Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Follow this link to choose a new password: %s\nThe link expires in %d minutes and can be used once.",
			link, int(cfg.ResetTTL.Minutes()),
		),
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		// Burn the record so a retry issues a fresh link instead of
		// leaving an orphaned live one.
		if revokeErr := p.resetStore.Revoke(ctx, resetID.String()); revokeErr != nil {
			slog.Warn("reset record revoke failed after mail error", "email", email)
		}
		return errors.Join(ErrMailerFailed, err)
	}

	p.metricInc(MetricPasswordResetRequest)
	p.emitAudit(ctx, auditEventPasswordResetRequest, true, user.UserID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	return nil
}

// ResetPassword validates a reset-link token and replaces the password of
// the account it was issued for. The link is single use; every session of
// the account is destroyed after the swap.
func (p *Provider) ResetPassword(ctx context.Context, token, newPass string) error {
	if p == nil || p.users == nil || p.passwordHash == nil {
		return ErrProviderNotReady
	}
	if !p.config.PasswordReset.Enabled {
		return ErrPasswordResetDisabled
	}
	if p.resetTokens == nil || p.resetStore == nil {
		return ErrProviderNotReady
	}

	ip := clientIPFromContext(ctx)

	if token == "" {
		return ErrPasswordResetInvalid
	}
	// Reject bad passwords before the single-use record is burned so the
	// caller can retry with the same link.
	if len(newPass) < 8 {
		return ErrPasswordPolicy
	}

	claims, err := p.resetTokens.Parse(token)
	if err != nil {
		p.metricInc(MetricPasswordResetConfirmFailure)
		p.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrPasswordResetInvalid, func() map[string]string {
			return map[string]string{
				"reason": "token_rejected",
			}
		})
		return ErrPasswordResetInvalid
	}
	resetID := claims.ID

	if p.resetLimiter != nil {
		if err := p.resetLimiter.CheckConfirm(ctx, resetID, ip); err != nil {
			if errors.Is(err, errResetRateLimited) {
				p.emitRateLimit(ctx, "password_reset_confirm", nil)
				return ErrPasswordResetRateLimited
			}
			return errors.Join(ErrPasswordResetUnavailable, err)
		}
	}

	record, err := p.resetStore.Consume(ctx, resetID)
	if err != nil {
		if errors.Is(err, errResetNotFound) {
			p.metricInc(MetricPasswordResetConfirmFailure)
			p.emitAudit(ctx, auditEventPasswordResetConfirm, false, claims.UID, ErrPasswordResetInvalid, func() map[string]string {
				return map[string]string{
					"reason": "already_used_or_expired",
				}
			})
			return ErrPasswordResetInvalid
		}
		return errors.Join(ErrPasswordResetUnavailable, err)
	}

	if record.UserID != claims.UID {
		p.metricInc(MetricPasswordResetConfirmFailure)
		p.emitAudit(ctx, auditEventPasswordResetConfirm, false, claims.UID, ErrPasswordResetInvalid, func() map[string]string {
			return map[string]string{
				"reason": "subject_mismatch",
			}
		})
		return ErrPasswordResetInvalid
	}

	newHash, err := p.passwordHash.Hash(newPass)
	if err != nil {
		return errors.Join(ErrPasswordResetUnavailable, err)
	}
	newPass = ""

	if err := p.users.UpdatePasswordHash(ctx, record.UserID, newHash); err != nil {
		p.emitAudit(ctx, auditEventPasswordResetConfirm, false, record.UserID, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_error",
			}
		})
		return errors.Join(ErrPasswordResetUnavailable, err)
	}

	// Every live session is revoked: whoever held the mailbox now holds
	// the account, and old cookies must not.
	if err := p.SignOutAll(ctx, record.UserID); err != nil {
		slog.Warn("session revocation after password reset failed", "user_id", record.UserID)
	}

	if p.rateLimiter != nil {
		if user, err := p.users.GetUserByID(ctx, record.UserID); err == nil {
			if err := p.rateLimiter.ResetLogin(ctx, user.Email, ip); err != nil {
				slog.Warn("login limiter reset failed after password reset", "user_id", record.UserID)
			}
		}
	}

	p.metricInc(MetricPasswordResetConfirmSuccess)
	p.emitAudit(ctx, auditEventPasswordResetConfirm, true, record.UserID, nil, nil)

	return nil
}
