package authcore

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/casekit/authcore/internal"
	"github.com/casekit/authcore/internal/rate"
	"github.com/casekit/authcore/jwt"
	"github.com/casekit/authcore/password"
	"github.com/casekit/authcore/session"
)

// Provider is the authentication core. Construct one through [Builder.Build];
// all methods are safe for concurrent use afterwards.
type Provider struct {
	config Config

	users  UserDirectory
	mailer Mailer

	sessions     *session.Store
	passwordHash *password.Hasher
	resetTokens  *jwt.Manager

	rateLimiter         *rate.Limiter
	resetStore          *passwordResetStore
	resetLimiter        *passwordResetLimiter
	verificationStore   *emailVerificationStore
	verificationLimiter *emailVerificationLimiter
	signupLimiter       *signUpLimiter

	audit   *auditDispatcher
	metrics *Metrics
}

// Close flushes and stops the audit dispatcher. Safe to call more than once.
func (p *Provider) Close() {
	if p == nil {
		return
	}
	p.audit.Close()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (p *Provider) AuditDropped() uint64 {
	if p == nil {
		return 0
	}
	return p.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (p *Provider) MetricsSnapshot() MetricsSnapshot {
	if p == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return p.metrics.Snapshot()
}

func (p *Provider) metricInc(id MetricID) {
	if p == nil {
		return
	}
	p.metrics.Inc(id)
}

func (p *Provider) metricObserve(id MetricID, d time.Duration) {
	if p == nil {
		return
	}
	p.metrics.Observe(id, d)
}

func accountStatusToError(status AccountStatus) error {
	switch status {
	case AccountDisabled:
		return ErrAccountDisabled
	case AccountLocked:
		return ErrAccountLocked
	case AccountDeleted:
		return ErrAccountDeleted
	default:
		return nil
	}
}

// hashToken reduces an opaque client token to the digest used as its
// storage key. The plaintext token never reaches Redis.
func hashToken(token string) string {
	sum := internal.HashSecret([]byte(token))
	return hex.EncodeToString(sum[:])
}

// createSession mints a fresh opaque token and writes its record. Returns
// the plaintext token to hand to the client.
func (p *Provider) createSession(ctx context.Context, user UserRecord) (string, error) {
	id, err := internal.NewTokenID()
	if err != nil {
		return "", ErrSessionCreationFailed
	}
	token := id.String()

	now := time.Now()
	sess := &session.Session{
		UserID:        user.UserID,
		Name:          user.Name,
		Email:         user.Email,
		Image:         user.Image,
		EmailVerified: user.Status == AccountActive,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(p.config.Session.Lifetime).Unix(),
	}

	if err := p.sessions.Save(ctx, hashToken(token), sess); err != nil {
		return "", errors.Join(ErrSessionCreationFailed, err)
	}

	p.metricInc(MetricSessionCreated)
	return token, nil
}

// GetSession resolves an opaque token to its live session record. A miss
// returns [ErrSessionNotFound]; a backend failure returns
// [ErrSessionUnavailable] so callers can fail closed.
func (p *Provider) GetSession(ctx context.Context, token string) (*Session, error) {
	if p == nil || p.sessions == nil {
		return nil, ErrProviderNotReady
	}
	if token == "" {
		return nil, ErrSessionNotFound
	}

	start := time.Now()
	sess, err := p.sessions.Get(ctx, hashToken(token))
	p.metricObserve(MetricSessionLookupLatency, time.Since(start))

	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			p.metricInc(MetricSessionMiss)
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrSessionUnavailable, err)
	}

	p.metricInc(MetricSessionResolved)
	return sess, nil
}

// SignOut destroys the session behind token. Unknown tokens are a no-op:
// signing out twice is not an error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if p == nil || p.sessions == nil {
		return ErrProviderNotReady
	}
	if token == "" {
		return nil
	}

	tokenHash := hashToken(token)
	sess, err := p.sessions.Get(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return errors.Join(ErrSessionInvalidationFailed, err)
	}

	if err := p.sessions.Delete(ctx, tokenHash, sess.UserID); err != nil {
		p.emitAudit(ctx, auditEventSignOut, false, sess.UserID, ErrSessionInvalidationFailed, nil)
		return errors.Join(ErrSessionInvalidationFailed, err)
	}

	p.metricInc(MetricSignOut)
	p.metricInc(MetricSessionInvalidated)
	p.emitAudit(ctx, auditEventSignOut, true, sess.UserID, nil, nil)
	return nil
}

// SignOutAll revokes every session belonging to userID.
func (p *Provider) SignOutAll(ctx context.Context, userID string) error {
	if p == nil || p.sessions == nil {
		return ErrProviderNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	if err := p.sessions.DeleteAllForUser(ctx, userID); err != nil {
		p.emitAudit(ctx, auditEventSignOutAll, false, userID, ErrSessionInvalidationFailed, nil)
		return errors.Join(ErrSessionInvalidationFailed, err)
	}

	p.metricInc(MetricSignOutAll)
	p.metricInc(MetricSessionInvalidated)
	p.emitAudit(ctx, auditEventSignOutAll, true, userID, nil, nil)
	return nil
}
