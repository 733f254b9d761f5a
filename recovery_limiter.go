package medcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errRecoveryLimited = errors.New("recovery code rate limited")

type recoveryLimiter struct {
	redis       *redis.Client
	maxAttempts int64
	cooldown    time.Duration
}

func newRecoveryLimiter(redisClient *redis.Client, cfg LimitsConfig) *recoveryLimiter {
	return &recoveryLimiter{
		redis:       redisClient,
		maxAttempts: int64(cfg.RecoveryMaxAttempts),
		cooldown:    cfg.RecoveryCooldown,
	}
}

func (l *recoveryLimiter) key(userID string) string {
	return "2fa:rec:" + userID
}

func (l *recoveryLimiter) Check(ctx context.Context, userID string) error {
	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRecoveryCodeUnavailable, err)
	}
	if count >= l.maxAttempts {
		return errRecoveryLimited
	}
	return nil
}

func (l *recoveryLimiter) RecordFailure(ctx context.Context, userID string) error {
	count, err := l.redis.Incr(ctx, l.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecoveryCodeUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(userID), l.cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRecoveryCodeUnavailable, err)
		}
	}
	if count >= l.maxAttempts {
		return errRecoveryLimited
	}
	return nil
}

func (l *recoveryLimiter) Reset(ctx context.Context, userID string) error {
	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecoveryCodeUnavailable, err)
	}
	return nil
}
