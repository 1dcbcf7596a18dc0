package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignInSuccess             = "sign_in_success"
	auditEventSignInFailure             = "sign_in_failure"
	auditEventSignInRateLimited         = "sign_in_rate_limited"
	auditEventSignUpSuccess             = "sign_up_success"
	auditEventSignUpFailure             = "sign_up_failure"
	auditEventSignUpDuplicate           = "sign_up_duplicate"
	auditEventSignUpRateLimited         = "sign_up_rate_limited"
	auditEventSignOut                   = "sign_out"
	auditEventSignOutAll                = "sign_out_all"
	auditEventPasswordChangeSuccess     = "password_change_success"
	auditEventPasswordChangeInvalidOld  = "password_change_invalid_old"
	auditEventPasswordChangeReuse       = "password_change_reuse_attempt"
	auditEventPasswordChangeFailure     = "password_change_failure"
	auditEventPasswordResetRequest      = "password_reset_request"
	auditEventPasswordResetConfirm      = "password_reset_confirm"
	auditEventEmailVerificationRequest  = "email_verification_request"
	auditEventEmailVerificationConfirm  = "email_verification_confirm"
	auditEventRateLimitTriggered        = "rate_limit_triggered"
	auditEventVerificationMailQueueFail = "verification_mail_queue_failed"
)

// AuditErrorCode is the normalized error label carried by audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrRateLimited         AuditErrorCode = "rate_limited"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrSessionNotFound     AuditErrorCode = "session_not_found"
	auditErrUserNotFound        AuditErrorCode = "user_not_found"
	auditErrAccountDisabled     AuditErrorCode = "account_disabled"
	auditErrAccountLocked       AuditErrorCode = "account_locked"
	auditErrAccountDeleted      AuditErrorCode = "account_deleted"
	auditErrAccountUnverified   AuditErrorCode = "account_unverified"
	auditErrPasswordPolicy      AuditErrorCode = "password_policy"
	auditErrPasswordReuse       AuditErrorCode = "password_reuse"
	auditErrAttemptsExceeded    AuditErrorCode = "attempts_exceeded"
	auditErrSessionCreation     AuditErrorCode = "session_creation_failed"
	auditErrSessionInvalidation AuditErrorCode = "session_invalidation_failed"
	auditErrDuplicate           AuditErrorCode = "duplicate"
	auditErrMailerFailed        AuditErrorCode = "mail_delivery_failed"
	auditErrUnavailable         AuditErrorCode = "backend_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (p *Provider) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if p == nil || p.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	p.audit.Emit(ctx, event)
}

func (p *Provider) emitRateLimit(ctx context.Context, scope string, metadataBuilder func() map[string]string) {
	p.metricInc(MetricRateLimitHit)
	p.emitAudit(ctx, auditEventRateLimitTriggered, false, "", nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrAccountCreationRateLimited),
		errors.Is(err, ErrPasswordResetRateLimited),
		errors.Is(err, ErrEmailVerificationRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrPasswordResetInvalid),
		errors.Is(err, ErrEmailVerificationInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrAccountDeleted):
		return auditErrAccountDeleted
	case errors.Is(err, ErrAccountUnverified):
		return auditErrAccountUnverified
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrEmailVerificationAttempts):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreation
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrDuplicateEmail):
		return auditErrDuplicate
	case errors.Is(err, ErrMailerFailed):
		return auditErrMailerFailed
	case errors.Is(err, ErrSessionUnavailable),
		errors.Is(err, ErrPasswordResetUnavailable),
		errors.Is(err, ErrEmailVerificationUnavailable),
		errors.Is(err, ErrAccountCreationUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
