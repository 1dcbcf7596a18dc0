package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errSignUpRateLimited      = errors.New("signup rate limited")
	errSignUpRedisUnavailable = errors.New("signup redis unavailable")
)

type signUpLimiter struct {
	redis  *redis.Client
	config AccountConfig
}

func newSignUpLimiter(redisClient *redis.Client, cfg AccountConfig) *signUpLimiter {
	return &signUpLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Enforce throttles account creation per email and per IP.
func (l *signUpLimiter) Enforce(ctx context.Context, email, ip string) error {
	if l.config.EnableEmailThrottle {
		if err := l.enforceKey(ctx, signUpEmailKey(email)); err != nil {
			return err
		}
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceKey(ctx, signUpIPKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

func (l *signUpLimiter) enforceKey(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errSignUpRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", errSignUpRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return errSignUpRateLimited
	}

	return nil
}

func signUpEmailKey(email string) string {
	return "aca:" + email
}

func signUpIPKey(ip string) string {
	return "acaip:" + ip
}
