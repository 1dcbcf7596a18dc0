package authcore

import (
	"context"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"strings"
	"time"

	"github.com/casekit/authcore/internal"
)

// sleepEnumerationDelay masks the timing difference between the known-email
// and unknown-email paths of the request flows. The jitter keeps the no-op
// path from being a fixed-cost fingerprint.
func sleepEnumerationDelay() {
	time.Sleep(time.Duration(20+mathrand.N(21)) * time.Millisecond)
}

// SendVerificationOTP issues a fresh verification code for email and hands it
// to the mailer. Unknown and already-verified addresses return nil without a
// side effect so the endpoint cannot be used to probe for accounts.
func (p *Provider) SendVerificationOTP(ctx context.Context, email string) error {
	if p == nil || p.users == nil {
		return ErrProviderNotReady
	}
	if !p.config.EmailVerification.Enabled {
		return ErrEmailVerificationDisabled
	}
	if p.verificationStore == nil || p.mailer == nil {
		return ErrProviderNotReady
	}

	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)
	if email == "" {
		return ErrEmailVerificationInvalid
	}

	if p.verificationLimiter != nil {
		if err := p.verificationLimiter.CheckRequest(ctx, email, ip); err != nil {
			if errors.Is(err, errVerificationRateLimited) {
				p.emitRateLimit(ctx, "email_verification_request", func() map[string]string {
					return map[string]string{
						"email": email,
					}
				})
				return ErrEmailVerificationRateLimited
			}
			return errors.Join(ErrEmailVerificationUnavailable, err)
		}
	}

	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil || user.Status == AccountActive {
		// No challenge is issued, but the caller sees the same outcome
		// and roughly the same latency as the real path.
		sleepEnumerationDelay()
		p.emitAudit(ctx, auditEventEmailVerificationRequest, true, "", nil, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "suppressed",
			}
		})
		return nil
	}

	return p.issueVerificationChallenge(ctx, user)
}

// issueVerificationChallenge generates an OTP for user, stores its digest,
// and queues the verification mail. Shared by sign-up and the explicit
// resend flow.
func (p *Provider) issueVerificationChallenge(ctx context.Context, user UserRecord) error {
	cfg := p.config.EmailVerification

	otp, err := internal.NewOTP(cfg.OTPDigits)
	if err != nil {
		return errors.Join(ErrEmailVerificationUnavailable, err)
	}

	secretHash := internal.HashSecret([]byte(otp))
	record := &emailVerificationRecord{
		UserID:     user.UserID,
		SecretHash: secretHash,
		ExpiresAt:  time.Now().Add(cfg.OTPTTL).Unix(),
	}
	if err := p.verificationStore.Save(ctx, user.Email, record, cfg.OTPTTL); err != nil {
		return errors.Join(ErrEmailVerificationUnavailable, err)
	}

	msg := Message{
		To:      user.Email,
		Subject: "Verify your email address",
		Body: fmt.Sprintf(
			"Your verification code is %s. It expires in %d minutes.",
			otp, int(cfg.OTPTTL.Minutes()),
		),
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return errors.Join(ErrMailerFailed, err)
	}

	p.metricInc(MetricEmailVerificationRequest)
	p.emitAudit(ctx, auditEventEmailVerificationRequest, true, user.UserID, nil, func() map[string]string {
		return map[string]string{
			"email": user.Email,
		}
	})

	return nil
}

// VerifyEmailOTP checks the submitted code against the live challenge for
// email and, on a match, flips the account to active. The challenge is
// destroyed on success and after the attempt budget is burned.
func (p *Provider) VerifyEmailOTP(ctx context.Context, email, otp string) error {
	if p == nil || p.users == nil {
		return ErrProviderNotReady
	}
	if !p.config.EmailVerification.Enabled {
		return ErrEmailVerificationDisabled
	}
	if p.verificationStore == nil {
		return ErrProviderNotReady
	}

	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	ip := clientIPFromContext(ctx)

	if email == "" || len(otp) != p.config.EmailVerification.OTPDigits || !internal.IsNumeric(otp) {
		p.metricInc(MetricEmailVerificationFailure)
		p.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", ErrEmailVerificationInvalid, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "malformed_input",
			}
		})
		return ErrEmailVerificationInvalid
	}

	if p.verificationLimiter != nil {
		if err := p.verificationLimiter.CheckConfirm(ctx, email, ip); err != nil {
			if errors.Is(err, errVerificationRateLimited) {
				p.emitRateLimit(ctx, "email_verification_confirm", func() map[string]string {
					return map[string]string{
						"email": email,
					}
				})
				return ErrEmailVerificationRateLimited
			}
			return errors.Join(ErrEmailVerificationUnavailable, err)
		}
	}

	providedHash := internal.HashSecret([]byte(otp))
	record, err := p.verificationStore.Consume(ctx, email, providedHash, p.config.EmailVerification.MaxAttempts)
	if err != nil {
		switch {
		case errors.Is(err, errVerificationAttemptsExceeded):
			p.metricInc(MetricEmailVerificationAttemptsExceeded)
			p.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", ErrEmailVerificationAttempts, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			return ErrEmailVerificationAttempts
		case errors.Is(err, errVerificationNotFound), errors.Is(err, errVerificationSecretMismatch):
			p.metricInc(MetricEmailVerificationFailure)
			p.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", ErrEmailVerificationInvalid, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			return ErrEmailVerificationInvalid
		default:
			return errors.Join(ErrEmailVerificationUnavailable, err)
		}
	}

	if _, err := p.users.UpdateAccountStatus(ctx, record.UserID, AccountActive); err != nil {
		p.emitAudit(ctx, auditEventEmailVerificationConfirm, false, record.UserID, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "directory_error",
			}
		})
		return errors.Join(ErrEmailVerificationUnavailable, err)
	}

	p.metricInc(MetricEmailVerificationSuccess)
	p.emitAudit(ctx, auditEventEmailVerificationConfirm, true, record.UserID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	return nil
}
