package medcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errVerifyLimited = errors.New("verify rate limited")

type verifyLimiter struct {
	redis       *redis.Client
	maxAttempts int64
	cooldown    time.Duration
}

func newVerifyLimiter(redisClient *redis.Client, cfg LimitsConfig) *verifyLimiter {
	return &verifyLimiter{
		redis:       redisClient,
		maxAttempts: int64(cfg.VerifyMaxAttempts),
		cooldown:    cfg.VerifyCooldown,
	}
}

func (l *verifyLimiter) key(userID string) string {
	return "2fa:att:" + userID
}

func (l *verifyLimiter) Check(ctx context.Context, userID string) error {
	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	if count >= l.maxAttempts {
		return errVerifyLimited
	}
	return nil
}

func (l *verifyLimiter) RecordFailure(ctx context.Context, userID string) error {
	count, err := l.redis.Incr(ctx, l.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(userID), l.cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
		}
	}
	if count >= l.maxAttempts {
		return errVerifyLimited
	}
	return nil
}

func (l *verifyLimiter) Reset(ctx context.Context, userID string) error {
	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	return nil
}
