package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errVerificationRateLimited        = errors.New("verification rate limited")
	errVerificationLimiterUnavailable = errors.New("verification limiter unavailable")
)

type emailVerificationLimiter struct {
	redis  *redis.Client
	config EmailVerificationConfig
}

func newEmailVerificationLimiter(redisClient *redis.Client, cfg EmailVerificationConfig) *emailVerificationLimiter {
	return &emailVerificationLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *emailVerificationLimiter) CheckRequest(ctx context.Context, email, ip string) error {
	if l.config.EnableEmailThrottle {
		if err := l.enforceFixedWindow(ctx, verificationRequestEmailKey(email)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, verificationRequestIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *emailVerificationLimiter) CheckConfirm(ctx context.Context, email, ip string) error {
	if l.config.EnableEmailThrottle {
		if err := l.enforceFixedWindow(ctx, verificationConfirmEmailKey(email)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, verificationConfirmIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *emailVerificationLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errVerificationLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.OTPTTL).Err(); err != nil {
			return fmt.Errorf("%w: %v", errVerificationLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return errVerificationRateLimited
	}

	return nil
}

func verificationRequestEmailKey(email string) string {
	return "apvi:" + email
}

func verificationRequestIPKey(ip string) string {
	return "apvip:" + ip
}

func verificationConfirmEmailKey(email string) string {
	return "apvc:" + email
}

func verificationConfirmIPKey(ip string) string {
	return "apvcip:" + ip
}
