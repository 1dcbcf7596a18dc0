package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var errResetRateLimited = errors.New("reset rate limited")

type passwordResetLimiter struct {
	redis  *redis.Client
	config PasswordResetConfig
}

func newPasswordResetLimiter(redisClient *redis.Client, cfg PasswordResetConfig) *passwordResetLimiter {
	return &passwordResetLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckRequest throttles reset-link issuance per email and per IP.
func (l *passwordResetLimiter) CheckRequest(ctx context.Context, email, ip string) error {
	if l.config.EnableEmailThrottle {
		if err := l.enforceFixedWindow(ctx, resetRequestEmailKey(email)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, resetRequestIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

// CheckConfirm throttles reset confirmations per reset ID and per IP.
func (l *passwordResetLimiter) CheckConfirm(ctx context.Context, resetID, ip string) error {
	if l.config.EnableEmailThrottle {
		if err := l.enforceFixedWindow(ctx, resetConfirmIDKey(resetID)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, resetConfirmIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *passwordResetLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.ResetTTL).Err(); err != nil {
			return fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return errResetRateLimited
	}

	return nil
}

func resetRequestEmailKey(email string) string {
	return "apri:" + email
}

func resetRequestIPKey(ip string) string {
	return "aprip:" + ip
}

func resetConfirmIDKey(resetID string) string {
	return "aprc:" + resetID
}

func resetConfirmIPKey(ip string) string {
	return "aprcip:" + ip
}
