package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuota(t *testing.T, limit int, window time.Duration) (*WindowQuota, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewWindowQuota(rdb, limit, window), mr
}

func TestQuotaStartsFull(t *testing.T) {
	quota, _ := newTestQuota(t, 10, time.Minute)

	remaining, err := quota.Remaining(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
}

func TestQuotaDrainsPerRecord(t *testing.T) {
	quota, _ := newTestQuota(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, quota.Record(ctx, "openai"))
	}

	remaining, err := quota.Remaining(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// Over-recording never reports negative.
	require.NoError(t, quota.Record(ctx, "openai"))
	remaining, err = quota.Remaining(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestQuotaIsPerBackend(t *testing.T) {
	quota, _ := newTestQuota(t, 5, time.Minute)
	ctx := context.Background()

	require.NoError(t, quota.Record(ctx, "openai"))

	remaining, err := quota.Remaining(ctx, "gemini")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
}

func TestQuotaRefillsAfterWindow(t *testing.T) {
	quota, mr := newTestQuota(t, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, quota.Record(ctx, "openai"))
	require.NoError(t, quota.Record(ctx, "openai"))

	remaining, err := quota.Remaining(ctx, "openai")
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	mr.FastForward(2 * time.Minute)

	remaining, err = quota.Remaining(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestLimitBackendReportsQuota(t *testing.T) {
	quota, _ := newTestQuota(t, 1, time.Minute)
	inner := &scriptedBackend{id: "openai", response: healthyAnswer}
	limited := LimitBackend(inner, quota)

	reporter, ok := limited.(QuotaReporter)
	require.True(t, ok, "limited backend must expose its quota")

	remaining, err := reporter.RemainingQuota(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestLimitBackendChargesOnlySuccessfulSends(t *testing.T) {
	quota, _ := newTestQuota(t, 5, time.Minute)
	ctx := context.Background()

	failing := LimitBackend(&scriptedBackend{id: "openai", err: assert.AnError}, quota)
	_, err := failing.Send(ctx, Request{Prompt: "q"})
	require.Error(t, err)

	remaining, err := quota.Remaining(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining, "failed sends must not draw from the budget")

	working := LimitBackend(&scriptedBackend{id: "openai", response: healthyAnswer}, quota)
	_, err = working.Send(ctx, Request{Prompt: "q"})
	require.NoError(t, err)

	remaining, err = quota.Remaining(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestCoordinatorSkipsDrainedLimitedBackend(t *testing.T) {
	quota, _ := newTestQuota(t, 1, time.Minute)
	ctx := context.Background()

	primary := LimitBackend(&scriptedBackend{id: "openai", response: healthyAnswer}, quota)
	secondary := &scriptedBackend{id: "gemini", response: healthyAnswer}
	c := NewCoordinator([]Backend{primary, secondary}, WithConfig(testConfig()))

	first := c.Process(ctx, Request{Prompt: "what is pneumonia?"})
	assert.Equal(t, "openai", first.ServiceUsed)

	second := c.Process(ctx, Request{Prompt: "what is pneumonia?"})
	assert.Equal(t, "gemini", second.ServiceUsed)
	assert.Equal(t, "rate limited", second.Errors["openai"])
}
