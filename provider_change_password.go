package authcore

import (
	"context"
	"fmt"
	"log/slog"
)

// ChangePassword verifies the current password for userID and replaces it.
// When revokeOtherSessions is set, or the policy forces it, every session
// belonging to the user is destroyed after the hash is swapped.
func (p *Provider) ChangePassword(ctx context.Context, userID, currentPass, newPass string, revokeOtherSessions bool) error {
	if p == nil || p.passwordHash == nil || p.users == nil {
		return ErrProviderNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}
	if currentPass == "" {
		return ErrInvalidCredentials
	}

	user, err := p.users.GetUserByID(ctx, userID)
	if err != nil {
		p.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrUserNotFound, func() map[string]string {
			return map[string]string{
				"reason": "user_not_found",
			}
		})
		return ErrUserNotFound
	}

	if statusErr := accountStatusToError(user.Status); statusErr != nil {
		p.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, statusErr, func() map[string]string {
			return map[string]string{
				"reason": "account_status",
			}
		})
		return statusErr
	}

	ok, err := p.passwordHash.Verify(currentPass, user.PasswordHash)
	if err != nil || !ok {
		p.metricInc(MetricPasswordChangeInvalidOld)
		p.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, userID, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if newPass == currentPass {
		p.metricInc(MetricPasswordChangeReuseRejected)
		p.emitAudit(ctx, auditEventPasswordChangeReuse, false, userID, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := p.passwordHash.Hash(newPass)
	if err != nil {
		p.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "password_policy",
			}
		})
		return ErrPasswordPolicy
	}
	currentPass = ""
	newPass = ""

	if err := p.users.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		p.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_error",
			}
		})
		return fmt.Errorf("update password hash: %w", err)
	}

	if revokeOtherSessions || p.config.Security.RevokeSessionsOnPasswordChange {
		// The new hash is already durable; a revocation failure is
		// reported through audit but does not undo the change.
		if err := p.SignOutAll(ctx, userID); err != nil {
			slog.Warn("session revocation after password change failed", "user_id", userID)
		}
	}

	if p.rateLimiter != nil {
		if err := p.rateLimiter.ResetLogin(ctx, user.Email, clientIPFromContext(ctx)); err != nil {
			slog.Warn("login limiter reset failed after password change", "user_id", userID)
		}
	}

	p.metricInc(MetricPasswordChangeSuccess)
	p.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)

	return nil
}
