package authcore

import (
	"context"
	"errors"
	"strings"
)

// SignUpEmail creates an account for an email/password pair and, depending on
// configuration, queues a verification code and opens a session. The returned
// token is empty when auto sign-in is disabled.
func (p *Provider) SignUpEmail(ctx context.Context, email, pass, name string) (*SignUpResult, error) {
	if p == nil || p.passwordHash == nil || p.users == nil {
		return nil, ErrProviderNotReady
	}
	if !p.config.Account.Enabled {
		return nil, ErrAccountCreationDisabled
	}

	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	ip := clientIPFromContext(ctx)

	if p.signupLimiter != nil {
		if err := p.signupLimiter.Enforce(ctx, email, ip); err != nil {
			if errors.Is(err, errSignUpRateLimited) {
				p.metricInc(MetricSignUpRateLimited)
				p.emitAudit(ctx, auditEventSignUpRateLimited, false, "", ErrAccountCreationRateLimited, func() map[string]string {
					return map[string]string{
						"email": email,
					}
				})
				p.emitRateLimit(ctx, "sign_up", func() map[string]string {
					return map[string]string{
						"email": email,
					}
				})
				return nil, ErrAccountCreationRateLimited
			}
			return nil, errors.Join(ErrAccountCreationUnavailable, err)
		}
	}

	if !validSignUpEmail(email) || name == "" {
		p.emitAudit(ctx, auditEventSignUpFailure, false, "", ErrAccountCreationInvalid, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "invalid_input",
			}
		})
		return nil, ErrAccountCreationInvalid
	}

	hash, err := p.passwordHash.Hash(pass)
	if err != nil {
		p.emitAudit(ctx, auditEventSignUpFailure, false, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "password_policy",
			}
		})
		return nil, ErrPasswordPolicy
	}
	pass = ""

	status := AccountActive
	if p.config.EmailVerification.Enabled {
		status = AccountPendingVerification
	}

	user, err := p.users.CreateUser(ctx, CreateUserInput{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Status:       status,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			p.metricInc(MetricSignUpDuplicate)
			p.emitAudit(ctx, auditEventSignUpDuplicate, false, "", ErrAccountExists, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			return nil, ErrAccountExists
		}
		p.emitAudit(ctx, auditEventSignUpFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "directory_error",
			}
		})
		return nil, errors.Join(ErrAccountCreationUnavailable, err)
	}

	p.metricInc(MetricSignUpSuccess)
	p.emitAudit(ctx, auditEventSignUpSuccess, true, user.UserID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	if p.config.EmailVerification.Enabled && p.config.EmailVerification.SendOnSignUp {
		// A delivery failure never rolls back the created account.
		if err := p.issueVerificationChallenge(ctx, user); err != nil {
			p.emitAudit(ctx, auditEventVerificationMailQueueFail, false, user.UserID, err, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
		}
	}

	result := &SignUpResult{User: userView(user)}

	if p.config.Account.AutoSignIn {
		token, err := p.createSession(ctx, user)
		if err != nil {
			// The account exists; surface it without a session rather
			// than failing the whole sign-up.
			return result, nil
		}
		result.Token = token
	}

	return result, nil
}

// validSignUpEmail applies the same minimal shape check the HTTP layer uses:
// non-empty local part and a domain with at least one dot.
func validSignUpEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.IndexByte(domain, '.') <= 0 || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
