package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowQuota tracks per-backend request budgets in a fixed redis window.
// The first request of a window starts the clock; the counter expires with
// the window and the budget refills.
type WindowQuota struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

// NewWindowQuota creates a quota allowing limit requests per window.
func NewWindowQuota(redisClient *redis.Client, limit int, window time.Duration) *WindowQuota {
	return &WindowQuota{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
	}
}

func (q *WindowQuota) key(backendID string) string {
	return "assistant:quota:" + backendID
}

// Remaining reports how many requests the backend may still make in the
// current window.
func (q *WindowQuota) Remaining(ctx context.Context, backendID string) (int, error) {
	count, err := q.redis.Get(ctx, q.key(backendID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return int(q.limit), nil
		}
		return 0, fmt.Errorf("quota read: %w", err)
	}
	remaining := q.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return int(remaining), nil
}

// Record consumes one unit of the backend's budget.
func (q *WindowQuota) Record(ctx context.Context, backendID string) error {
	count, err := q.redis.Incr(ctx, q.key(backendID)).Result()
	if err != nil {
		return fmt.Errorf("quota increment: %w", err)
	}
	if count == 1 {
		if err := q.redis.Expire(ctx, q.key(backendID), q.window).Err(); err != nil {
			return fmt.Errorf("quota expire: %w", err)
		}
	}
	return nil
}

// limitedBackend decorates a Backend with a WindowQuota, exposing the
// QuotaReporter interface the coordinator checks before dispatching.
type limitedBackend struct {
	Backend
	quota *WindowQuota
}

// LimitBackend wraps a backend so its usage draws from the given quota.
func LimitBackend(b Backend, quota *WindowQuota) Backend {
	return &limitedBackend{Backend: b, quota: quota}
}

func (l *limitedBackend) RemainingQuota(ctx context.Context) (int, error) {
	return l.quota.Remaining(ctx, l.Backend.ID())
}

func (l *limitedBackend) Send(ctx context.Context, req Request) (*RawResponse, error) {
	resp, err := l.Backend.Send(ctx, req)
	if err == nil {
		// Budget only charges delivered requests. Recording is best-effort;
		// a quota write failure must not fail a successful response.
		_ = l.quota.Record(ctx, l.Backend.ID())
	}
	return resp, err
}
